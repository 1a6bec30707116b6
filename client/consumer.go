package client

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/ids"
	"github.com/redbco/openwire-go/wireerr"
)

// ConsumerKernel dispatches MessageDispatch envelopes off its connection
// onto a PriorityDispatchChannel and applies the session's ack mode when
// the application consumes them (spec §4.4 Consumer kernel). Grounded on
// the teacher's VirtualLink: a per-peer inbound queue fed by one goroutine
// (the connection's read loop) and drained by another (the application, or
// an async listener goroutine of its own).
type ConsumerKernel struct {
	id          ids.ConsumerId
	session     *SessionKernel
	destination ids.Destination
	prefetch    int32
	browser     bool
	pullMode    bool

	channel *PriorityDispatchChannel

	mu              sync.Mutex
	delivered       []*Dispatch // received, not yet acked (client-ack / transacted)
	lastDeliveredId *ids.MessageId

	listener func(msg command.Command)

	dupsOkCount int32

	browseDone atomic.Bool
	closed     atomic.Bool
}

func newConsumerKernel(s *SessionKernel, id ids.ConsumerId, dest ids.Destination, prefetch int32, opts ConsumerOptions, browser bool) *ConsumerKernel {
	return &ConsumerKernel{
		id:          id,
		session:     s,
		destination: dest,
		prefetch:    prefetch,
		browser:     browser,
		pullMode:    prefetch == 0 && !browser,
		channel:     NewPriorityDispatchChannel(),
		listener:    opts.Listener,
	}
}

// start puts the dispatch channel in the running state once the
// ConsumerInfo round trip has completed (spec §4.4: a consumer can't
// receive before the broker has acknowledged its subscription).
func (c *ConsumerKernel) start() {
	c.channel.Start()
	if c.listener != nil {
		c.session.conn.runSupervised(c.runListener)
	}
}

// ID returns the consumer's id.
func (c *ConsumerKernel) ID() ids.ConsumerId { return c.id }

// dispatch decodes d's payload and enqueues it for delivery (spec §4.4,
// §4.5). A nil (zero-length) payload is the broker's end-of-browse signal
// for a QueueBrowser.
func (c *ConsumerKernel) dispatch(d *command.MessageDispatch) error {
	if len(d.MessagePayload) == 0 {
		c.browseDone.Store(true)
		c.channel.Enqueue(&Dispatch{Envelope: d})
		return nil
	}

	msg, err := c.session.conn.decodeDispatchPayload(d.MessagePayload)
	if err != nil {
		return err
	}

	hdr, err := messageHeader(msg)
	if err != nil {
		return err
	}

	if c.session.transformer != nil {
		transformed, replaced, err := c.session.transformer.ConsumerTransform(c.session, c, msg)
		if err != nil {
			return err
		}
		if replaced {
			msg = transformed
		}
	}

	c.channel.Enqueue(&Dispatch{Envelope: d, Message: msg, Priority: hdr.Priority})
	return nil
}

func (c *ConsumerKernel) runListener() {
	for {
		disp := c.channel.Dequeue(-1)
		if disp == nil {
			return
		}
		if disp.Message == nil { // end-of-browse sentinel, no listener callback
			continue
		}
		c.recordDelivered(disp)
		if err := c.ackOnDelivery(context.Background(), disp); err != nil {
			c.session.conn.logger.Warn("consumer %s: ack after listener dispatch failed: %v", c.id, err)
		}
		c.listener(disp.Message)
	}
}

// Receive blocks up to timeout for the next message (timeout < 0:
// indefinite, 0: no-wait), pulling one from the broker first if this
// consumer is in zero-prefetch pull mode (spec §4.4).
func (c *ConsumerKernel) Receive(ctx context.Context, timeout time.Duration) (command.Command, error) {
	if c.closed.Load() {
		return nil, wireerr.Closed("consumer %s: already closed", c.id)
	}
	if c.pullMode {
		if err := c.pull(ctx, timeout); err != nil {
			return nil, err
		}
	}

	disp := c.channel.Dequeue(timeout)
	if disp == nil {
		return nil, nil
	}
	if disp.Message == nil {
		return nil, nil // end-of-browse sentinel consumed, browseDone already set
	}

	c.recordDelivered(disp)
	if err := c.ackOnDelivery(ctx, disp); err != nil {
		return nil, err
	}
	return disp.Message, nil
}

func (c *ConsumerKernel) pull(ctx context.Context, timeout time.Duration) error {
	ms := int64(-1)
	if timeout >= 0 {
		ms = timeout.Milliseconds()
	}
	pull := &command.MessagePull{
		ConsumerId:  c.id,
		Destination: command.FromDestination(c.destination),
		Timeout:     ms,
	}
	return c.session.conn.oneway(pull)
}

// recordDelivered tracks d for a later client-ack/transacted-commit flush
// and remembers its id for RemoveInfo.LastDeliveredSequenceId on close.
func (c *ConsumerKernel) recordDelivered(d *Dispatch) {
	hdr, err := messageHeader(d.Message)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.delivered = append(c.delivered, d)
	id := hdr.MessageId
	c.lastDeliveredId = &id
	c.mu.Unlock()
}

// ackOnDelivery applies the session's ack mode immediately where the mode
// calls for it (spec §4.4): AutoAck acks right after every message; DupsOkAck
// batches, acking once the delivered count reaches prefetch/2 (tolerating
// duplicates on redelivery after a crash between batches); ClientAck and
// SessionTransacted defer to Acknowledge/Commit.
func (c *ConsumerKernel) ackOnDelivery(ctx context.Context, d *Dispatch) error {
	switch c.session.ackMode {
	case AutoAck:
		if err := c.sendAck(ctx, command.AckTypeStandard, d.Message, nil); err != nil {
			return err
		}
		c.mu.Lock()
		c.delivered = nil
		c.mu.Unlock()
	case DupsOkAck:
		batch := atomic.AddInt32(&c.dupsOkCount, 1)
		threshold := c.prefetch / 2
		if threshold < 1 {
			threshold = 1
		}
		if batch < threshold {
			return nil
		}
		atomic.StoreInt32(&c.dupsOkCount, 0)
		c.mu.Lock()
		pending := c.delivered
		c.delivered = nil
		c.mu.Unlock()
		if err := c.sendRangeAck(ctx, command.AckTypeStandard, pending, nil); err != nil {
			return err
		}
	case ClientAck:
		// deferred to Acknowledge
	case SessionTransacted:
		// the ack is deferred to Commit/Rollback; a delivery begins the
		// session's transaction if none is active yet, so Commit has one
		if _, err := c.session.ensureTransaction(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Acknowledge acks every message delivered and not yet acked on this
// consumer in one batch (spec §4.4 ClientAck: "Acknowledge ... acks every
// message received since the last ack").
func (c *ConsumerKernel) Acknowledge(ctx context.Context) error {
	if c.session.ackMode != ClientAck {
		return wireerr.IllegalState("consumer %s: Acknowledge is only valid in ClientAck mode", c.id)
	}
	c.mu.Lock()
	pending := c.delivered
	c.delivered = nil
	c.mu.Unlock()
	return c.sendRangeAck(ctx, command.AckTypeStandard, pending, nil)
}

// flushDeliveredAck sends one range ack covering everything delivered
// since the last flush, tagged with txn (spec §8 P7: transacted
// acknowledgements ride inside the transaction they were consumed under).
func (c *ConsumerKernel) flushDeliveredAck(ctx context.Context, ackType byte, txn *command.TransactionId) error {
	c.mu.Lock()
	pending := c.delivered
	c.delivered = nil
	c.mu.Unlock()
	return c.sendRangeAck(ctx, ackType, pending, txn)
}

// sendAck acks exactly one dispatch (spec §4.4 AutoAck: "covering exactly
// that message").
func (c *ConsumerKernel) sendAck(ctx context.Context, ackType byte, msg command.Command, txn *command.TransactionId) error {
	return c.sendRangeAck(ctx, ackType, []*Dispatch{{Message: msg}}, txn)
}

// sendRangeAck sends a single MessageAck spanning pending[0]..pending[len-1]
// (spec §4.4 ClientAck/SessionTransacted: "one MessageAck with
// firstMessageId/lastMessageId spanning the entire delivered list").
func (c *ConsumerKernel) sendRangeAck(ctx context.Context, ackType byte, pending []*Dispatch, txn *command.TransactionId) error {
	if len(pending) == 0 {
		return nil
	}
	firstHdr, err := messageHeader(pending[0].Message)
	if err != nil {
		return err
	}
	lastHdr, err := messageHeader(pending[len(pending)-1].Message)
	if err != nil {
		return err
	}
	ack := &command.MessageAck{
		AckType:        ackType,
		ConsumerId:     c.id,
		Destination:    command.FromDestination(c.destination),
		FirstMessageId: command.ToMessageIdWire(firstHdr.MessageId),
		LastMessageId:  command.ToMessageIdWire(lastHdr.MessageId),
		MessageCount:   int32(len(pending)),
		TransactionId:  txn,
	}
	return c.session.conn.oneway(ack)
}

// HasMoreMessages reports whether this QueueBrowser still has unread
// messages (spec §4.4 QueueBrowser).
func (c *ConsumerKernel) HasMoreMessages() bool {
	return c.channel.Peek() != nil || !c.browseDone.Load()
}

// closeInternal commits the session first if transacted, drains the
// dispatch channel sending a Delivered ack for anything the broker already
// dispatched but the application never received (so the broker redelivers
// it to someone else), acks whatever the application did receive under
// ClientAck, and optionally sends the consumer's own RemoveInfo
// (spec §4.4 consumer close sequence).
func (c *ConsumerKernel) closeInternal(ctx context.Context, sendRemove bool) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var firstErr error
	if c.session.ackMode == SessionTransacted {
		if err := c.session.Commit(ctx); err != nil {
			firstErr = err
		}
	}

	var undelivered []*Dispatch
	for _, d := range c.channel.DrainAll() {
		if d.Message != nil {
			undelivered = append(undelivered, d)
		}
	}
	c.channel.Close()

	if err := c.sendRangeAck(ctx, command.AckTypeDelivered, undelivered, nil); err != nil && firstErr == nil {
		firstErr = err
	}

	c.mu.Lock()
	pending := c.delivered
	c.delivered = nil
	lastId := c.lastDeliveredId
	c.mu.Unlock()

	if len(pending) > 0 && c.session.ackMode == ClientAck {
		if err := c.sendRangeAck(ctx, command.AckTypeStandard, pending, nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	c.session.removeConsumer(c, sendRemove)
	if sendRemove {
		seq := int64(0)
		if lastId != nil {
			seq = lastId.BrokerSeqId
		}
		if err := c.session.conn.oneway(&command.RemoveInfo{
			ObjectKind:              command.ObjectConsumer,
			ObjectId:                c.id.String(),
			LastDeliveredSequenceId: seq,
		}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes the consumer (spec §4.4).
func (c *ConsumerKernel) Close(ctx context.Context) error {
	return c.closeInternal(ctx, true)
}

// QueueBrowser is a read-only, non-destructive view over a queue's
// messages (spec §4.4): every ConsumerKernel method applies, with
// HasMoreMessages/NextMessage as the idiomatic iteration surface.
type QueueBrowser struct {
	*ConsumerKernel
}

// NextMessage returns the next browsed message, or nil once the broker has
// signalled end-of-browse.
func (b *QueueBrowser) NextMessage(ctx context.Context, timeout time.Duration) (command.Command, error) {
	if !b.HasMoreMessages() {
		return nil, nil
	}
	return b.Receive(ctx, timeout)
}
