// Package mailbox provides a single-slot hand-off buffer where the
// latest job always wins.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox is NOT a queue. It holds at most one pending job; Put
// overwrites any existing job and never blocks.
type Mailbox[T any] struct {
	mu    sync.Mutex
	job   *T
	ready chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores a job in the mailbox, replacing any existing job.
func (m *Mailbox[T]) Put(j T) {
	m.mu.Lock()
	m.job = &j
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Take blocks until a job is available or ctx is cancelled. The second
// return is false on cancellation.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	for {
		m.mu.Lock()
		if m.job != nil {
			j := *m.job
			m.job = nil
			m.mu.Unlock()
			return j, true
		}
		m.mu.Unlock()

		select {
		case <-m.ready:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// TryTake returns the pending job if present, or nil. It never blocks.
func (m *Mailbox[T]) TryTake() *T {
	m.mu.Lock()
	defer m.mu.Unlock()

	j := m.job
	m.job = nil
	return j
}

// HasJob reports whether a job is currently waiting.
func (m *Mailbox[T]) HasJob() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job != nil
}
