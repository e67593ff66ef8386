package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/rill"
	"github.com/aretw0/rill/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*rill.Runtime, http.Handler) {
	t.Helper()
	rt := rill.New()
	t.Cleanup(func() { _ = rt.Close() })
	return rt, NewHandler(rt, WithBuffer(8))
}

func TestGetHealth(t *testing.T) {
	_, handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetInfo(t *testing.T) {
	_, handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/info", nil))

	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "rill-http", info["app"])
	assert.Equal(t, rill.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])
}

func TestPublish(t *testing.T) {
	rt, handler := newTestHandler(t)
	hub, err := rt.Topic("orders")
	require.NoError(t, err)
	rec := testutils.NewRecorder[string]()
	hub.Subscribe(rec)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/topics/orders", strings.NewReader(`{"value":"A-1"}`)))

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp PublishResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, PublishResponse{Topic: "orders", Observers: 1}, resp)
	assert.Equal(t, []string{"A-1"}, rec.Values())
}

func TestPublish_InvalidBody(t *testing.T) {
	rt, handler := newTestHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/topics/orders", strings.NewReader(`not json`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rt.Topics())
}

func TestPublish_AfterClose(t *testing.T) {
	rt, handler := newTestHandler(t)
	require.NoError(t, rt.Close())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/topics/orders", strings.NewReader(`{"value":"x"}`)))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCompleteAndFail(t *testing.T) {
	rt, handler := newTestHandler(t)
	done, err := rt.Topic("done")
	require.NoError(t, err)
	failed, err := rt.Topic("failed")
	require.NoError(t, err)
	recDone := testutils.NewRecorder[string]()
	recFailed := testutils.NewRecorder[string]()
	done.Subscribe(recDone)
	failed.Subscribe(recFailed)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/topics/done/complete", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, recDone.Completions())

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/topics/failed/error", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/topics/failed/error", strings.NewReader(`{"error":"upstream down"}`)))
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, recFailed.Errors(), 1)
	assert.EqualError(t, recFailed.Errors()[0], "upstream down")
}

func TestListTopics(t *testing.T) {
	rt, handler := newTestHandler(t)
	a, err := rt.Topic("a")
	require.NoError(t, err)
	a.Subscribe(testutils.NewRecorder[string]())
	_, err = rt.Topic("b")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/topics", nil))

	var topics []TopicInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &topics))
	assert.Equal(t, []TopicInfo{
		{Name: "a", Observers: 1},
		{Name: "b", Observers: 0},
	}, topics)
}

func TestSubscribeEvents(t *testing.T) {
	rt, handler := newTestHandler(t)
	hub, err := rt.Topic("orders")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	served := make(chan struct{})
	go func() {
		defer close(served)
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/topics/orders/events", nil))
	}()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, time.Millisecond)

	for _, body := range []string{`{"value":"A-1"}`, `{"value":"A-2"}`} {
		pw := httptest.NewRecorder()
		handler.ServeHTTP(pw, httptest.NewRequest("POST", "/topics/orders", strings.NewReader(body)))
		require.Equal(t, http.StatusAccepted, pw.Code)
	}
	cw := httptest.NewRecorder()
	handler.ServeHTTP(cw, httptest.NewRequest("POST", "/topics/orders/complete", nil))

	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("SSE handler did not return after completion")
	}

	out := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, out, "event: ping\ndata: connected")
	first := strings.Index(out, `"value":"A-1"`)
	second := strings.Index(out, `"value":"A-2"`)
	complete := strings.Index(out, "event: complete")
	require.True(t, first >= 0 && second >= 0 && complete >= 0, out)
	assert.Less(t, first, second)
	assert.Less(t, second, complete)
	assert.Equal(t, 0, hub.Len())
}

func TestSubscribeEvents_ClientDisconnect(t *testing.T) {
	rt, handler := newTestHandler(t)
	hub, err := rt.Topic("orders")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		defer close(served)
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/topics/orders/events", nil).WithContext(ctx))
	}()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-served

	assert.Equal(t, 0, hub.Len())
}

func TestSubscribeEvents_TopicRemoved(t *testing.T) {
	rt, handler := newTestHandler(t)
	hub, err := rt.Topic("orders")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	served := make(chan struct{})
	go func() {
		defer close(served)
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/topics/orders/events", nil))
	}()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, time.Millisecond)
	rt.Remove("orders")
	<-served

	assert.Contains(t, w.Body.String(), "event: closed\ndata: disposed")
}

func TestOpenAPISpec(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)

	for _, path := range []string{"/health", "/info", "/topics", "/topics/{topic}", "/topics/{topic}/complete", "/topics/{topic}/error", "/topics/{topic}/events"} {
		assert.NotNil(t, doc.Paths.Find(path), path)
	}

	_, handler := newTestHandler(t)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/swagger", nil))
	assert.Contains(t, w.Body.String(), "SwaggerUIBundle")
}
