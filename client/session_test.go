package client

import (
	"context"
	"testing"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/ids"
	"github.com/stretchr/testify/require"
)

func TestCreateProducerSendsProducerInfoAndRegisters(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)

	dest := ids.NewDestination(ids.KindQueue, "orders")
	p, err := s.CreateProducer(context.Background(), &dest, 0)
	require.NoError(t, err)
	require.NotNil(t, p)

	var sawInfo *command.ProducerInfo
	for _, req := range f.requests {
		if pi, ok := req.(*command.ProducerInfo); ok {
			sawInfo = pi
		}
	}
	require.NotNil(t, sawInfo)
	require.Equal(t, "orders", sawInfo.Destination.Name)

	s.mu.Lock()
	_, registered := s.producers[p.id.String()]
	s.mu.Unlock()
	require.True(t, registered)
}

func TestCreateConsumerSendsConsumerInfoAndStarts(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)

	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)
	require.True(t, c.channel.IsRunning())

	var sawInfo *command.ConsumerInfo
	for _, req := range f.requests {
		if ci, ok := req.(*command.ConsumerInfo); ok {
			sawInfo = ci
		}
	}
	require.NotNil(t, sawInfo)
	require.EqualValues(t, 10, sawInfo.PrefetchSize)
}

func TestCreateQueueBrowserForcesBrowserPrefetch(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)

	b, err := s.CreateQueueBrowser(context.Background(), ids.NewDestination(ids.KindQueue, "orders"), "")
	require.NoError(t, err)
	require.True(t, b.browser)
	require.EqualValues(t, 100, b.prefetch)
}

func TestSessionSendUnboundProducerStampsDestinationAndPersistence(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	p, err := s.CreateProducer(context.Background(), nil, 0)
	require.NoError(t, err)

	dest := ids.NewDestination(ids.KindTopic, "alerts")
	msg := &command.ActiveMQTextMessage{Text: "hello"}
	require.NoError(t, p.Send(context.Background(), &dest, msg, DeliveryPersistent, 4, 0))

	require.True(t, msg.Persistent)
	require.Equal(t, "alerts", msg.Destination.Name)
	require.NotZero(t, msg.MessageId.ProducerSeqId)
	require.Positive(t, f.onewayCount()+len(f.requests))
}

func TestSessionCommitRejectedOutsideTransactedMode(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	require.Error(t, s.Commit(context.Background()))
	require.Error(t, s.Rollback(context.Background()))
}

func TestSessionCommitNoopWithoutPriorActivity(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, SessionTransacted)
	require.NoError(t, s.Commit(context.Background()))
}

func TestSessionCloseClosesConsumersAndProducers(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	_, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)
	_, err = s.CreateProducer(context.Background(), &dest, 0)
	require.NoError(t, err)

	require.NoError(t, s.Close(context.Background()))

	s.mu.Lock()
	remainingConsumers := len(s.consumers)
	remainingProducers := len(s.producers)
	s.mu.Unlock()
	require.Zero(t, remainingConsumers)
	require.Zero(t, remainingProducers)

	var removes int
	for _, o := range f.oneways {
		if _, ok := o.(*command.RemoveInfo); ok {
			removes++
		}
	}
	require.GreaterOrEqual(t, removes, 2) // consumer + producer RemoveInfo, at least
}
