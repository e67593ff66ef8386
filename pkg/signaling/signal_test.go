package signaling_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/rill/internal/testutils"
	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/aretw0/rill/pkg/signaling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_Empty(t *testing.T) {
	rec := testutils.NewRecorder[int]()
	sub := signaling.Empty[int]().To(rec)

	assert.Equal(t, 1, rec.Completions())
	assert.True(t, sub.IsDisposed())

	_, err := signaling.Empty[int]().Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrCompleted)
}

func TestSignal_Fail(t *testing.T) {
	boom := errors.New("boom")
	var got error
	signaling.Fail[int](boom).ToFuncs(nil, func(err error) { got = err }, nil)

	assert.ErrorIs(t, got, boom)
}

func TestSignal_Never(t *testing.T) {
	rec := testutils.NewRecorder[int]()
	sub := signaling.Never[int]().To(rec)
	assert.False(t, sub.IsDisposed())
	sub.Dispose()
	assert.Empty(t, rec.Kinds())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := signaling.Never[int]().Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSignal_NextWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := signaling.Empty[int]().Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSignal_SourcePanicBecomesError(t *testing.T) {
	src := signaling.New(func(observer.Observer[int], *disposable.Node) disposable.Disposable {
		panic("cannot attach")
	})
	rec := testutils.NewRecorder[int]()
	sub := src.To(rec)

	require.Len(t, rec.Errors(), 1)
	assert.EqualError(t, rec.Errors()[0], "panic: cannot attach")
	assert.True(t, sub.IsDisposed())
}

func TestSignal_ResourcesReleasedWithSubscription(t *testing.T) {
	var released, returned atomic.Bool
	src := signaling.New(func(o observer.Observer[int], d *disposable.Node) disposable.Disposable {
		d.Add(disposable.Func(func() { released.Store(true) }))
		o.OnNext(1)
		return disposable.Func(func() { returned.Store(true) })
	})

	rec := testutils.NewRecorder[int]()
	sub := src.To(rec)
	assert.Equal(t, []int{1}, rec.Values())
	assert.False(t, released.Load())

	sub.Dispose()
	assert.True(t, released.Load())
	assert.True(t, returned.Load())
}

func TestSignal_NextOverSource(t *testing.T) {
	src := signaling.New(func(o observer.Observer[string], _ *disposable.Node) disposable.Disposable {
		o.OnNext("first")
		o.OnNext("second")
		return nil
	})

	v, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestSignal_HubHandleIsReadOnlyView(t *testing.T) {
	hub := signaling.NewSignaling[int]()
	sig := hub.Signal()

	rec := testutils.NewRecorder[int]()
	sub := sig.To(rec)
	assert.Equal(t, 1, hub.Len())

	hub.OnNext(3)
	sub.Dispose()
	hub.OnNext(4)

	assert.Equal(t, []int{3}, rec.Values())
	assert.Equal(t, 0, hub.Len())
}

func TestShare_SingleUpstreamConnection(t *testing.T) {
	var connects, disconnects atomic.Int32
	upstream := signaling.NewSignaling[int]()
	src := signaling.New(func(o observer.Observer[int], d *disposable.Node) disposable.Disposable {
		connects.Add(1)
		d.Add(disposable.Func(func() { disconnects.Add(1) }))
		return upstream.Subscribe(o)
	})
	shared := signaling.Share(src)

	a := testutils.NewRecorder[int]()
	b := testutils.NewRecorder[int]()
	subA := shared.To(a)
	subB := shared.To(b)
	upstream.OnNext(1)

	assert.Equal(t, int32(1), connects.Load())
	assert.Equal(t, 1, upstream.Len())
	assert.Equal(t, []int{1}, a.Values())
	assert.Equal(t, []int{1}, b.Values())

	subA.Dispose()
	upstream.OnNext(2)
	assert.Equal(t, []int{1}, a.Values())
	assert.Equal(t, []int{1, 2}, b.Values())
	assert.Equal(t, int32(0), disconnects.Load())

	subB.Dispose()
	assert.Equal(t, int32(1), disconnects.Load())
	assert.Equal(t, 0, upstream.Len())

	c := testutils.NewRecorder[int]()
	shared.To(c)
	upstream.OnNext(3)
	assert.Equal(t, int32(2), connects.Load())
	assert.Equal(t, []int{3}, c.Values())
}

func TestShare_UpstreamCompletion(t *testing.T) {
	upstream := signaling.NewSignaling[int]()
	shared := signaling.Share(upstream.Signal())

	a := testutils.NewRecorder[int]()
	b := testutils.NewRecorder[int]()
	shared.To(a)
	shared.To(b)

	upstream.OnNext(1)
	upstream.OnComplete()

	for _, rec := range []*testutils.Recorder[int]{a, b} {
		assert.Equal(t, []domain.EventKind{domain.EventNext, domain.EventComplete}, rec.Kinds())
	}
	assert.Equal(t, 0, upstream.Len())
}

func TestSignal_NextPrefersValueOverLaterTerminal(t *testing.T) {
	boom := errors.New("boom")
	sources := map[string]signaling.Signal[int]{
		"complete": signaling.New(func(o observer.Observer[int], _ *disposable.Node) disposable.Disposable {
			o.OnNext(42)
			o.OnComplete()
			return nil
		}),
		"error": signaling.New(func(o observer.Observer[int], _ *disposable.Node) disposable.Disposable {
			o.OnNext(42)
			o.OnError(boom)
			return nil
		}),
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			for range 500 {
				v, err := src.Next(context.Background())
				require.NoError(t, err)
				require.Equal(t, 42, v)
			}
		})
	}
}

func TestShare_ConcurrentJoinAndLeave(t *testing.T) {
	upstream := signaling.NewSignaling[int]()
	shared := signaling.Share(upstream.Signal())

	for i := range 500 {
		leaving := shared.To(observer.FromFunc(func(int) {}))

		left := make(chan struct{})
		go func() {
			defer close(left)
			leaving.Dispose()
		}()
		rec := testutils.NewRecorder[int]()
		joined := shared.To(rec)
		<-left

		require.False(t, joined.IsDisposed(), "iteration %d", i)
		require.Equal(t, 1, upstream.Len(), "iteration %d", i)

		upstream.OnNext(i)
		require.Equal(t, []int{i}, rec.Values(), "iteration %d", i)

		joined.Dispose()
		require.Equal(t, 0, upstream.Len(), "iteration %d", i)
	}
}
