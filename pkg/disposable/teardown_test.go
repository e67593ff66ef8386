package disposable_test

import (
	"errors"
	"testing"

	"github.com/aretw0/rill/pkg/disposable"
	"github.com/stretchr/testify/assert"
)

func TestDisposeAll_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	a := disposable.New(func() { panic(boom) })
	b := disposable.Empty()
	c := disposable.New(func() { panic("text") })

	err := disposable.DisposeAll(a, nil, b, c)

	assert.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "dispose #0")
	assert.Contains(t, err.Error(), "dispose #3: panic: text")
	assert.True(t, b.IsDisposed())
	assert.True(t, c.IsDisposed())
}

func TestDisposeAll_NoFailures(t *testing.T) {
	assert.NoError(t, disposable.DisposeAll(disposable.Empty(), disposable.Empty()))
	assert.NoError(t, disposable.DisposeAll())
}
