// internal/pkg/clock/clock.go
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so timestamps written to stores can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real returns the system clock (UTC).
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }

// Mock is a settable clock. Safe for use from several goroutines.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMock(start time.Time) *Mock {
	return &Mock{now: start}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
