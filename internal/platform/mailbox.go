package platform

import (
	"sync"
)

// Mailbox is a thread-safe single-slot holder of the latest value.
// Put always overwrites, there is no queueing or backpressure.
type Mailbox[V any] struct {
	mutex sync.Mutex
	value V
	full  bool

	onPut []func(value V, first bool)
}

// NewMailbox creates an empty mailbox.
func NewMailbox[V any]() *Mailbox[V] {
	return &Mailbox[V]{
		onPut: []func(value V, first bool){},
	}
}

// Put replaces the stored value.
func (m *Mailbox[V]) Put(val V) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	first := !m.full
	m.value = val
	m.full = true

	for _, fn := range m.onPut {
		fn(val, first)
	}
}

// Get returns a copy of the stored value.
// The second result is false if nothing was put since creation or the last Clear.
func (m *Mailbox[V]) Get() (V, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.value, m.full
}

// Clear empties the mailbox.
func (m *Mailbox[V]) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var zero V
	m.value = zero
	m.full = false
}

// NotifyPut adds a hook function to be called on every Put.
// first is true when the mailbox was empty before the Put.
// Hooks run while the lock is held and must not call back into the mailbox.
func (m *Mailbox[V]) NotifyPut(fn func(value V, first bool)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.onPut = append(m.onPut, fn)
}
