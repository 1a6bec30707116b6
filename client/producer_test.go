package client

import (
	"context"
	"testing"
	"time"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/ids"
	"github.com/stretchr/testify/require"
)

func TestProducerUnboundSendRequiresDestination(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	p, err := s.CreateProducer(context.Background(), nil, 0)
	require.NoError(t, err)

	err = p.Send(context.Background(), nil, &command.ActiveMQTextMessage{Text: "x"}, DeliveryPersistent, 4, 0)
	require.Error(t, err)
}

func TestProducerBoundSendRejectsDifferentDestination(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	p, err := s.CreateProducer(context.Background(), &dest, 0)
	require.NoError(t, err)

	other := ids.NewDestination(ids.KindQueue, "other")
	err = p.Send(context.Background(), &other, &command.ActiveMQTextMessage{Text: "x"}, DeliveryPersistent, 4, 0)
	require.Error(t, err)
}

func TestProducerBoundSendAllowsMatchingDestination(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	p, err := s.CreateProducer(context.Background(), &dest, 0)
	require.NoError(t, err)

	same := ids.NewDestination(ids.KindQueue, "orders")
	err = p.Send(context.Background(), &same, &command.ActiveMQTextMessage{Text: "x"}, DeliveryPersistent, 4, 0)
	require.NoError(t, err)
}

func TestProducerSendAssignsIncrementingMessageIds(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	p, err := s.CreateProducer(context.Background(), &dest, 0) // bound: sends omit the destination argument
	require.NoError(t, err)

	first := &command.ActiveMQTextMessage{Text: "one"}
	second := &command.ActiveMQTextMessage{Text: "two"}
	require.NoError(t, p.Send(context.Background(), nil, first, DeliveryPersistent, 4, 0))
	require.NoError(t, p.Send(context.Background(), nil, second, DeliveryPersistent, 4, 0))

	require.Equal(t, int64(1), first.MessageId.ProducerSeqId)
	require.Equal(t, int64(2), second.MessageId.ProducerSeqId)
}

func TestProducerWindowedSendBlocksUntilProducerAck(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	p, err := s.CreateProducer(context.Background(), &dest, 256)
	require.NoError(t, err)
	require.EqualValues(t, 256, p.memUsage.Limit())

	// 128 bytes of estimated header overhead plus 128 of content fill the window exactly.
	first := &command.ActiveMQBytesMessage{Content: make([]byte, 128)}
	require.NoError(t, p.Send(context.Background(), nil, first, DeliveryPersistent, 4, 0))

	next := &command.ActiveMQBytesMessage{Content: make([]byte, 1)} // no room left in the full window
	done := make(chan error, 1)
	go func() { done <- p.Send(context.Background(), nil, next, DeliveryPersistent, 4, 0) }()

	select {
	case <-done:
		t.Fatal("send should have blocked on an exhausted flow-control window")
	case <-time.After(30 * time.Millisecond):
	}

	k.VisitProducerAck(&command.ProducerAck{ProducerId: p.id, Size: 256})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("send never unblocked after ProducerAck")
	}
}

func TestProducerCloseSendsRemoveInfo(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	p, err := s.CreateProducer(context.Background(), &dest, 0)
	require.NoError(t, err)

	p.Close()

	var sawRemove bool
	for _, o := range f.oneways {
		if r, ok := o.(*command.RemoveInfo); ok && r.ObjectKind == command.ObjectProducer {
			sawRemove = true
		}
	}
	require.True(t, sawRemove)
}
