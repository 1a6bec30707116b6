package transport

import (
	"context"
	"testing"
	"time"

	"github.com/redbco/openwire-go/command"
	"github.com/stretchr/testify/require"
)

func TestInactivityMonitorSendsKeepAliveOnWriteIdle(t *testing.T) {
	rec := &recordingFilter{}
	m := NewInactivityMonitor(rec, 0, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		for _, c := range rec.oneways {
			if _, ok := c.(*command.KeepAliveInfo); ok {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestInactivityMonitorRaisesTimeoutOnReadIdle(t *testing.T) {
	rec := &recordingFilter{}
	m := NewInactivityMonitor(rec, 20*time.Millisecond, 0)
	listener := &recordingListener{}
	m.SetListener(listener)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	require.Eventually(t, func() bool {
		_, errs := listener.snapshot()
		return len(errs) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestInactivityMonitorSwallowsInboundKeepAlive(t *testing.T) {
	rec := &recordingFilter{}
	m := NewInactivityMonitor(rec, 0, 0)
	listener := &recordingListener{}
	m.SetListener(listener)

	rec.push(&command.KeepAliveInfo{})
	rec.push(&command.ShutdownInfo{})

	cmds, _ := listener.snapshot()
	require.Len(t, cmds, 1)
	require.IsType(t, &command.ShutdownInfo{}, cmds[0])
}

func TestInactivityMonitorMarksWriteOnOneway(t *testing.T) {
	rec := &recordingFilter{}
	m := NewInactivityMonitor(rec, 0, time.Hour)
	before := m.lastWrite.Load()
	require.NoError(t, m.Oneway(&command.KeepAliveInfo{}))
	require.Greater(t, m.lastWrite.Load(), before)
}
