package client

import (
	"context"
	"sync"

	"github.com/redbco/openwire-go/wireerr"
)

// MemoryUsage is the byte-budget counter behind producer flow control
// (spec §4.4, invariant 5: in-flight bytes never exceed windowSize). It is
// grounded on the same wake-on-mutation pattern as PriorityDispatchChannel:
// a plain mutex plus a replaced notification channel, rather than
// sync.Cond, so a timeout can be layered on top with a single select.
type MemoryUsage struct {
	mu       sync.Mutex
	limit    int64
	used     int64
	notifyCh chan struct{}
}

// NewMemoryUsage returns a counter capped at limit bytes. limit <= 0 means
// unlimited: WaitForSpace never blocks.
func NewMemoryUsage(limit int64) *MemoryUsage {
	return &MemoryUsage{limit: limit, notifyCh: make(chan struct{})}
}

func (m *MemoryUsage) wakeLocked() {
	close(m.notifyCh)
	m.notifyCh = make(chan struct{})
}

// WaitForSpace blocks until reserving size bytes would not exceed the
// limit, then reserves them. ctx cancellation (including a deadline set by
// the caller's send timeout) aborts the wait with a KindTimeout error and
// reserves nothing.
func (m *MemoryUsage) WaitForSpace(ctx context.Context, size int64) error {
	for {
		m.mu.Lock()
		if m.limit <= 0 || m.used+size <= m.limit {
			m.used += size
			m.mu.Unlock()
			return nil
		}
		ch := m.notifyCh
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return wireerr.Timeout("memoryusage: timed out waiting for %d bytes of send window: %v", size, ctx.Err())
		}
	}
}

// Release frees size bytes, unblocking any waiter that now fits (spec §4.4:
// "acknowledgement via ProducerAck is what decreases in-flight").
func (m *MemoryUsage) Release(size int64) {
	m.mu.Lock()
	m.used -= size
	if m.used < 0 {
		m.used = 0
	}
	m.wakeLocked()
	m.mu.Unlock()
}

// Used returns the currently reserved byte count.
func (m *MemoryUsage) Used() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}

// Limit returns the configured byte cap, or 0 if unlimited.
func (m *MemoryUsage) Limit() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.limit <= 0 {
		return 0
	}
	return m.limit
}
