package transport

import (
	"context"
	"sync"

	"github.com/redbco/openwire-go/command"
)

// MutexFilter serializes writes to the layer below it: OpenWire framing
// requires that a command is written to the socket atomically, and the
// kernel may call Oneway/Request concurrently from several goroutines
// (producer sends, consumer acks, the session's own housekeeping).
type MutexFilter struct {
	baseFilter
	mu sync.Mutex
}

func NewMutexFilter(next Filter) *MutexFilter {
	m := &MutexFilter{}
	m.baseFilter = newBaseFilter(next, m)
	return m
}

func (m *MutexFilter) Oneway(cmd command.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next.Oneway(cmd)
}

// Request is rarely reached directly (ResponseCorrelator, the top of the
// stack, turns every Request into a correlated Oneway plus an async wait),
// but is implemented for completeness and for stacks built without a
// correlator.
func (m *MutexFilter) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next.Request(ctx, cmd)
}
