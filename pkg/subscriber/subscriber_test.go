package subscriber_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/rill/internal/testutils"
	"github.com/aretw0/rill/pkg/disposable"
	"github.com/aretw0/rill/pkg/domain"
	"github.com/aretw0/rill/pkg/observer"
	"github.com/aretw0/rill/pkg/subscriber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSubscriber_ValuesThenErrorStopsDelivery(t *testing.T) {
	var results []int
	var failures []error
	sub := subscriber.FromFuncs(
		func(v int) { results = append(results, v) },
		func(err error) { failures = append(failures, err) },
		nil,
	)

	for _, v := range []int{1, 2, 3} {
		sub.OnNext(v)
	}
	assert.Equal(t, []int{1, 2, 3}, results)

	boom := errors.New("E")
	sub.OnError(boom)
	sub.OnNext(4)
	sub.OnNext(5)

	assert.Equal(t, []int{1, 2, 3}, results)
	assert.Equal(t, []error{boom}, failures)
	assert.True(t, sub.IsTerminated())
	assert.True(t, sub.IsDisposed())
}

func TestSubscriber_ConsumerPanicBecomesError(t *testing.T) {
	rec := testutils.NewRecorder[int]()
	sub := subscriber.New[int](&observer.Agent[int]{
		Next: func(v int) {
			if v == 2 {
				panic(errors.New("consumer failed"))
			}
		},
		Error:    rec.OnError,
		Complete: rec.OnComplete,
	})

	assert.NotPanics(t, func() {
		sub.OnNext(1)
		sub.OnNext(2)
		sub.OnNext(3)
		sub.OnComplete()
	})

	require.Len(t, rec.Errors(), 1)
	assert.EqualError(t, rec.Errors()[0], "consumer failed")
	assert.Equal(t, 0, rec.Completions())
}

func TestSubscriber_ConsumerPanicWithPlainValue(t *testing.T) {
	rec := testutils.NewRecorder[string]()
	sub := subscriber.New[string](&observer.Agent[string]{
		Next:  func(string) { panic("bad input") },
		Error: rec.OnError,
	})

	sub.OnNext("x")

	require.Len(t, rec.Errors(), 1)
	assert.EqualError(t, rec.Errors()[0], "panic: bad input")
}

func TestSubscriber_ConcurrentTerminationDeliversOnce(t *testing.T) {
	for round := 0; round < 100; round++ {
		rec := testutils.NewRecorder[int]()
		sub := subscriber.New[int](rec)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				if i%2 == 0 {
					sub.OnComplete()
				} else {
					sub.OnError(errors.New("race"))
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, 1, rec.Terminations(), "round %d", round)
	}
}

func TestSubscriber_TerminationDisposesCompanion(t *testing.T) {
	companion := disposable.Empty()
	resource := disposable.Empty()
	rec := testutils.NewRecorder[int]()
	sub := subscriber.New[int](rec, subscriber.WithCompanion(companion))
	sub.Add(resource)

	sub.OnComplete()
	sub.OnComplete()

	assert.Equal(t, 1, rec.Completions())
	assert.True(t, companion.IsDisposed())
	assert.True(t, resource.IsDisposed())
}

func TestSubscriber_DisposedCompanionSuppressesDelivery(t *testing.T) {
	companion := disposable.Empty()
	rec := testutils.NewRecorder[int]()
	sub := subscriber.New[int](rec, subscriber.WithCompanion(companion))

	sub.OnNext(1)
	companion.Dispose()
	sub.OnNext(2)
	sub.OnError(errors.New("late"))

	assert.Equal(t, []int{1}, rec.Values())
	assert.Empty(t, rec.Errors())
	assert.True(t, sub.IsDisposed())
}

func TestSubscriber_DisposeStopsDelivery(t *testing.T) {
	rec := testutils.NewRecorder[int]()
	sub := subscriber.New[int](rec)
	resource := disposable.Empty()
	sub.Add(resource)

	sub.Dispose()
	sub.OnNext(1)
	sub.OnComplete()

	assert.Empty(t, rec.Values())
	assert.Equal(t, 0, rec.Terminations())
	assert.True(t, resource.IsDisposed())
	assert.False(t, sub.IsCompleted())
}

func TestSubscriber_UnhandledErrorIsReportedAndRaised(t *testing.T) {
	var reported []error
	sink := observer.SinkFunc(func(err error) { reported = append(reported, err) })
	companion := disposable.Empty()
	sub := subscriber.FromFuncs(func(int) {}, nil, nil,
		subscriber.WithSink(sink),
		subscriber.WithCompanion(companion),
	)
	boom := errors.New("boom")

	var uncaught *domain.UncaughtError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			var ok bool
			uncaught, ok = r.(*domain.UncaughtError)
			require.True(t, ok)
		}()
		sub.OnError(boom)
	}()

	assert.ErrorIs(t, uncaught, boom)
	assert.Equal(t, []error{boom}, reported)
	assert.True(t, companion.IsDisposed(), "raising must not skip disposal")

	assert.NotPanics(t, func() { sub.OnError(boom) }, "second termination is gated")
}

func TestSubscriber_DelegatesToObserver(t *testing.T) {
	m := &testutils.MockObserver[string]{}
	m.On("OnNext", "a").Once()
	m.On("OnNext", "b").Once()
	m.On("OnComplete").Once()

	sub := subscriber.New[string](m)
	sub.OnNext("a")
	sub.OnNext("b")
	sub.OnComplete()
	sub.OnComplete()
	sub.OnNext("c")

	m.AssertExpectations(t)
	m.AssertNotCalled(t, "OnNext", "c")
	m.AssertNotCalled(t, "OnError", mock.Anything)
}

func TestWrap_ReusesSubscriber(t *testing.T) {
	sub := subscriber.New[int](testutils.NewRecorder[int]())

	assert.Same(t, sub, subscriber.Wrap[int](sub))
	assert.NotSame(t, sub, subscriber.Wrap[int](sub, subscriber.WithSink(observer.NopSink)))
}

func TestSubscriber_BackingFeedsRegistry(t *testing.T) {
	sub := subscriber.New[int](testutils.NewRecorder[int]())

	node := disposable.Of(sub)
	require.NotNil(t, node)
	assert.Same(t, sub.Backing(), node)

	node.Dispose()
	assert.True(t, sub.IsDisposed())
}

func TestSubscriber_SubDetaches(t *testing.T) {
	sub := subscriber.New[int](testutils.NewRecorder[int]())
	child := sub.Sub()
	assert.Equal(t, 1, sub.Backing().Len())

	child.Dispose()
	assert.Equal(t, 0, sub.Backing().Len())
	assert.False(t, sub.IsDisposed())
}

func TestSubscriber_ChildrenAndIsCompleted(t *testing.T) {
	rec := testutils.NewRecorder[int]()
	parent := subscriber.New[int](rec)
	c1 := parent.Child()
	c2 := parent.Child()

	c1.OnNext(1)
	c2.OnNext(2)
	assert.Equal(t, []int{1, 2}, rec.Values(), "children share the parent's handlers")

	c1.OnComplete()
	assert.False(t, parent.IsCompleted())

	c2.OnComplete()
	assert.False(t, parent.IsCompleted(), "parent itself has not terminated")

	parent.OnComplete()
	assert.True(t, parent.IsCompleted())
	assert.Equal(t, 3, rec.Completions())
}

func TestSubscriber_ParentDisposalCascadesToChildren(t *testing.T) {
	parent := subscriber.New[int](testutils.NewRecorder[int]())
	child := parent.Child()

	parent.Dispose()

	assert.True(t, child.IsDisposed())
	assert.True(t, child.IsTerminated())
}
