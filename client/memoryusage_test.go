package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryUsageUnlimitedNeverBlocks(t *testing.T) {
	m := NewMemoryUsage(0)
	require.NoError(t, m.WaitForSpace(context.Background(), 1<<40))
}

// TestMemoryUsageProducerWindowBlocksThirdSend is spec §8's boundary
// behavior: windowSize = N, sends of N/2, N/2, 1 — the third blocks until a
// ProducerAck releases space.
func TestMemoryUsageProducerWindowBlocksThirdSend(t *testing.T) {
	m := NewMemoryUsage(100)
	require.NoError(t, m.WaitForSpace(context.Background(), 50))
	require.NoError(t, m.WaitForSpace(context.Background(), 50))
	require.Equal(t, int64(100), m.Used())

	done := make(chan error, 1)
	go func() {
		done <- m.WaitForSpace(context.Background(), 1)
	}()

	select {
	case <-done:
		t.Fatal("third send should have blocked with a full window")
	case <-time.After(50 * time.Millisecond):
	}

	m.Release(1)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("third send never unblocked after release")
	}
}

func TestMemoryUsageWaitForSpaceRespectsContextTimeout(t *testing.T) {
	m := NewMemoryUsage(10)
	require.NoError(t, m.WaitForSpace(context.Background(), 10))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := m.WaitForSpace(ctx, 1)
	require.Error(t, err)
}

func TestMemoryUsageReleaseNeverGoesNegative(t *testing.T) {
	m := NewMemoryUsage(10)
	m.Release(5)
	require.Equal(t, int64(0), m.Used())
}
