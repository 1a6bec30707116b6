package client

import (
	"context"
	"testing"
	"time"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/ids"
	"github.com/stretchr/testify/require"
)

func encodeDispatchPayload(t *testing.T, msg command.Command) []byte {
	t.Helper()
	dataType, body, err := command.Encode(msg, false)
	require.NoError(t, err)
	return append([]byte{dataType}, body...)
}

func TestConsumerDispatchDecodesPayloadAndDeliversAutoAck(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)

	wire := &command.ActiveMQTextMessage{Text: "hi"}
	wire.MessageId = ids.MessageId{ProducerId: ids.ProducerId{Value: 1}, ProducerSeqId: 1}
	disp := &command.MessageDispatch{ConsumerId: c.id, MessagePayload: encodeDispatchPayload(t, wire)}

	require.NoError(t, k.VisitMessageDispatch(disp))

	got, err := c.Receive(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	text, ok := got.(*command.ActiveMQTextMessage)
	require.True(t, ok)
	require.Equal(t, "hi", text.Text)

	var ack *command.MessageAck
	for _, o := range f.oneways {
		if a, ok := o.(*command.MessageAck); ok {
			ack = a
		}
	}
	require.NotNil(t, ack, "AutoAck must send a standard ack on delivery")
	require.Equal(t, command.AckTypeStandard, ack.AckType)
}

func TestConsumerClientAckDefersUntilAcknowledge(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, ClientAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)

	wire := &command.ActiveMQTextMessage{Text: "hi"}
	disp := &command.MessageDispatch{ConsumerId: c.id, MessagePayload: encodeDispatchPayload(t, wire)}
	require.NoError(t, k.VisitMessageDispatch(disp))

	_, err = c.Receive(context.Background(), 0)
	require.NoError(t, err)
	require.Zero(t, countAcks(f))

	require.NoError(t, c.Acknowledge(context.Background()))
	require.Equal(t, 1, countAcks(f))
}

func TestConsumerAcknowledgeRejectedOutsideClientAck(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)
	require.Error(t, c.Acknowledge(context.Background()))
}

func TestConsumerPullModeSendsMessagePullBeforeReceive(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 0})
	require.NoError(t, err)
	require.True(t, c.pullMode)

	got, err := c.Receive(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, got) // nothing was ever dispatched back

	var sawPull bool
	for _, o := range f.oneways {
		if _, ok := o.(*command.MessagePull); ok {
			sawPull = true
		}
	}
	require.True(t, sawPull)
}

func TestQueueBrowserEndOfBrowseSentinelStopsIteration(t *testing.T) {
	k, _ := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	b, err := s.CreateQueueBrowser(context.Background(), dest, "")
	require.NoError(t, err)

	require.NoError(t, k.VisitMessageDispatch(&command.MessageDispatch{ConsumerId: b.id}))

	require.True(t, b.HasMoreMessages()) // sentinel is still queued, not yet consumed
	msg, err := b.NextMessage(context.Background(), 0)
	require.NoError(t, err)
	require.Nil(t, msg)
	require.False(t, b.HasMoreMessages())
}

func TestConsumerCloseSendsRemoveInfoWithLastDeliveredSequence(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)

	wire := &command.ActiveMQTextMessage{Text: "hi"}
	wire.MessageId = ids.MessageId{ProducerId: ids.ProducerId{Value: 1}, ProducerSeqId: 1, BrokerSeqId: 7}
	require.NoError(t, k.VisitMessageDispatch(&command.MessageDispatch{ConsumerId: c.id, MessagePayload: encodeDispatchPayload(t, wire)}))
	_, err = c.Receive(context.Background(), 0)
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))

	var remove *command.RemoveInfo
	for _, o := range f.oneways {
		if r, ok := o.(*command.RemoveInfo); ok && r.ObjectKind == command.ObjectConsumer {
			remove = r
		}
	}
	require.NotNil(t, remove)
	require.EqualValues(t, 7, remove.LastDeliveredSequenceId)
}

func TestConsumerCloseSendsDeliveredAckForUndeliveredDispatches(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, AutoAck)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)

	// Dispatched by the broker but never pulled out via Receive.
	wire := &command.ActiveMQTextMessage{Text: "never received"}
	require.NoError(t, k.VisitMessageDispatch(&command.MessageDispatch{ConsumerId: c.id, MessagePayload: encodeDispatchPayload(t, wire)}))

	require.NoError(t, c.Close(context.Background()))

	var ack *command.MessageAck
	for _, o := range f.oneways {
		if a, ok := o.(*command.MessageAck); ok {
			ack = a
		}
	}
	require.NotNil(t, ack, "Close must ack undelivered-but-dispatched messages so the broker redelivers them")
	require.Equal(t, command.AckTypeDelivered, ack.AckType)
}

func TestSessionTransactedConsumerCloseCommitsFirst(t *testing.T) {
	k, f := newTestConnectionKernel()
	s := mustCreateSession(k, SessionTransacted)
	dest := ids.NewDestination(ids.KindQueue, "orders")
	c, err := s.CreateConsumer(context.Background(), dest, ConsumerOptions{Prefetch: 10})
	require.NoError(t, err)

	wire := &command.ActiveMQTextMessage{Text: "hi"}
	require.NoError(t, k.VisitMessageDispatch(&command.MessageDispatch{ConsumerId: c.id, MessagePayload: encodeDispatchPayload(t, wire)}))
	_, err = c.Receive(context.Background(), 0)
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))

	var sawCommit bool
	for _, o := range f.requests {
		if ti, ok := o.(*command.TransactionInfo); ok && ti.Type == byte(command.TransactionCommitOnePhase) {
			sawCommit = true
		}
	}
	require.True(t, sawCommit, "transacted consumer Close must commit the session before tearing down")
}

func countAcks(f *fakeFilter) int {
	n := 0
	for _, o := range f.oneways {
		if _, ok := o.(*command.MessageAck); ok {
			n++
		}
	}
	return n
}
