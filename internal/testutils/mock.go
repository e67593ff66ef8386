package testutils

import (
	"github.com/stretchr/testify/mock"
)

// MockObserver is a testify mock implementing the observer protocol.
type MockObserver[V any] struct {
	mock.Mock
}

func (m *MockObserver[V]) OnNext(value V) {
	m.Called(value)
}

func (m *MockObserver[V]) OnComplete() {
	m.Called()
}

func (m *MockObserver[V]) OnError(err error) {
	m.Called(err)
}
