package transport

import (
	"context"
	"sync"
	"testing"

	"github.com/redbco/openwire-go/command"
	"github.com/stretchr/testify/require"
)

func TestMutexFilterSerializesOneway(t *testing.T) {
	rec := &recordingFilter{}
	m := NewMutexFilter(rec)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, m.Oneway(&command.KeepAliveInfo{}))
		}()
	}
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.oneways, 50)
}

func TestMutexFilterForwardsCommandsUpward(t *testing.T) {
	rec := &recordingFilter{}
	m := NewMutexFilter(rec)
	listener := &recordingListener{}
	m.SetListener(listener)

	rec.push(&command.KeepAliveInfo{})

	cmds, _ := listener.snapshot()
	require.Len(t, cmds, 1)
}

func TestMutexFilterRequestDelegates(t *testing.T) {
	rec := &recordingFilter{requestRet: &command.Response{}}
	m := NewMutexFilter(rec)

	resp, err := m.Request(context.Background(), &command.ConnectionInfo{})
	require.NoError(t, err)
	require.IsType(t, &command.Response{}, resp)
	require.Len(t, rec.requests, 1)
}
