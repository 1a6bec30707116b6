package transport

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/wireerr"
)

// InactivityMonitor watches read/write activity and sends/expects
// KeepAliveInfo frames on a timer, the way the teacher's VirtualLink
// healthLoop pings an idle lane before declaring it dead (spec §4.2).
type InactivityMonitor struct {
	baseFilter
	readTimeout  time.Duration
	writeTimeout time.Duration

	lastRead  atomic.Int64
	lastWrite atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewInactivityMonitor builds a monitor. A zero timeout disables that
// direction's check (used before wire-format negotiation completes).
func NewInactivityMonitor(next Filter, readTimeout, writeTimeout time.Duration) *InactivityMonitor {
	m := &InactivityMonitor{
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	m.baseFilter = newBaseFilter(next, m)
	return m
}

func (m *InactivityMonitor) Start(ctx context.Context) error {
	if err := m.baseFilter.Start(ctx); err != nil {
		return err
	}
	now := time.Now().UnixNano()
	m.lastRead.Store(now)
	m.lastWrite.Store(now)

	monitorCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	go m.monitor(monitorCtx)
	return nil
}

func (m *InactivityMonitor) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	return m.baseFilter.Stop()
}

func (m *InactivityMonitor) monitor(ctx context.Context) {
	defer close(m.done)
	interval := m.checkInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check()
		}
	}
}

func (m *InactivityMonitor) checkInterval() time.Duration {
	shortest := m.readTimeout
	if m.writeTimeout > 0 && (shortest == 0 || m.writeTimeout < shortest) {
		shortest = m.writeTimeout
	}
	if shortest <= 0 {
		return 0
	}
	return shortest / 3
}

func (m *InactivityMonitor) check() {
	now := time.Now().UnixNano()
	if m.writeTimeout > 0 && time.Duration(now-m.lastWrite.Load()) > m.writeTimeout {
		if err := m.next.Oneway(&command.KeepAliveInfo{}); err != nil {
			m.OnException(wireerr.Transport(err, "inactivity monitor: keepalive send failed"))
			return
		}
		m.lastWrite.Store(now)
	}
	if m.readTimeout > 0 && time.Duration(now-m.lastRead.Load()) > m.readTimeout {
		m.OnException(wireerr.Timeout("inactivity monitor: no data received for %s", m.readTimeout))
	}
}

// MarkRead records read activity; OnCommand calls this for every frame
// delivered up the chain.
func (m *InactivityMonitor) MarkRead() { m.lastRead.Store(time.Now().UnixNano()) }

// MarkWrite records write activity; Oneway/Request call this before
// delegating down the chain.
func (m *InactivityMonitor) MarkWrite() { m.lastWrite.Store(time.Now().UnixNano()) }

func (m *InactivityMonitor) Oneway(cmd command.Command) error {
	m.MarkWrite()
	return m.next.Oneway(cmd)
}

func (m *InactivityMonitor) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	m.MarkWrite()
	return m.next.Request(ctx, cmd)
}

func (m *InactivityMonitor) OnCommand(cmd command.Command) {
	m.MarkRead()
	if _, ok := cmd.(*command.KeepAliveInfo); ok {
		return
	}
	m.baseFilter.OnCommand(cmd)
}
