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

// AckMode is the session's acknowledgement mode (spec §4.4 Session kernel).
type AckMode int

const (
	AutoAck AckMode = iota
	ClientAck
	DupsOkAck
	SessionTransacted
)

// Delivery mode values, matching the JMS convention the wire protocol
// shares (spec §4.4 producer send path).
const (
	DeliveryNonPersistent byte = 1
	DeliveryPersistent    byte = 2
)

// Transformer is the external MessageTransformer collaborator (spec §6): a
// producer or consumer may install one to rewrite a message on its way out
// or in. It is described here only as the call contract the kernel honors;
// a concrete implementation is the host application's concern.
type Transformer interface {
	// ProducerTransform runs before a produced message is sent. If replaced
	// is true, out is a freshly allocated message owned by the caller and
	// replaces msg for this send.
	ProducerTransform(s *SessionKernel, p *ProducerKernel, msg command.Command) (out command.Command, replaced bool, err error)
	// ConsumerTransform runs before a dispatched message reaches the
	// application, with the same replace-or-pass-through contract.
	ConsumerTransform(s *SessionKernel, c *ConsumerKernel, msg command.Command) (out command.Command, replaced bool, err error)
}

// SessionKernel routes a connection's messages to its consumers and
// producers and owns the current transaction, if any (spec §4.4). Grounded
// on mesh.Node's owns-a-registry-of-children shape, scoped down to one
// session's worth of consumers/producers instead of a whole mesh.
type SessionKernel struct {
	conn    *ConnectionKernel
	id      ids.SessionId
	ackMode AckMode

	transformer Transformer

	mu         sync.Mutex
	txn        *command.TransactionId
	consumers  map[string]*ConsumerKernel
	producers  map[string]*ProducerKernel

	nextConsumerId int64
	nextProducerId int64

	closed atomic.Bool
}

func newSessionKernel(conn *ConnectionKernel, id ids.SessionId, ackMode AckMode) *SessionKernel {
	return &SessionKernel{
		conn:      conn,
		id:        id,
		ackMode:   ackMode,
		consumers: make(map[string]*ConsumerKernel),
		producers: make(map[string]*ProducerKernel),
	}
}

// ID returns the session's id.
func (s *SessionKernel) ID() ids.SessionId { return s.id }

// AckMode returns the session's acknowledgement mode.
func (s *SessionKernel) AckMode() AckMode { return s.ackMode }

// SetTransformer installs the MessageTransformer this session's producers
// and consumers consult (spec §6).
func (s *SessionKernel) SetTransformer(t Transformer) { s.transformer = t }

func (s *SessionKernel) checkOpen() error {
	if s.closed.Load() {
		return wireerr.Closed("session %s: already closed", s.id)
	}
	return nil
}

func (s *SessionKernel) nextConsumerValue() int64 { return atomic.AddInt64(&s.nextConsumerId, 1) }
func (s *SessionKernel) nextProducerValue() int64 { return atomic.AddInt64(&s.nextProducerId, 1) }

// currentTransactionId returns the session's active transaction id, or nil
// outside SessionTransacted mode or before the first send/receive begins one.
func (s *SessionKernel) currentTransactionId() *command.TransactionId {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txn
}

// ensureTransaction lazily begins a local transaction the first time a
// transacted session needs one (spec §4.4: "For transacted sessions, all
// produced messages and all acknowledgements are tagged with the current
// transaction id").
func (s *SessionKernel) ensureTransaction(ctx context.Context) (*command.TransactionId, error) {
	if s.ackMode != SessionTransacted {
		return nil, nil
	}
	s.mu.Lock()
	if s.txn != nil {
		txn := s.txn
		s.mu.Unlock()
		return txn, nil
	}
	s.mu.Unlock()

	txn, err := s.conn.beginLocalTransaction(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.txn = txn
	s.mu.Unlock()
	return txn, nil
}

// CreateProducer declares a producer, optionally bound to dest (spec §4.4
// Producer kernel).
func (s *SessionKernel) CreateProducer(ctx context.Context, dest *ids.Destination, windowSize int32) (*ProducerKernel, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	pid := ids.ProducerId{SessionId: s.id, Value: s.nextProducerValue()}
	info := &command.ProducerInfo{ProducerId: pid, WindowSize: windowSize}
	if dest != nil {
		info.Destination = command.FromDestination(*dest)
	}
	info.SetResponseRequired(true)
	if _, err := s.conn.syncRequest(ctx, info); err != nil {
		return nil, err
	}

	p := newProducerKernel(s, pid, dest, windowSize)
	s.mu.Lock()
	s.producers[pid.String()] = p
	s.mu.Unlock()
	s.conn.registerProducer(p)
	return p, nil
}

// CreateConsumer subscribes a consumer to dest (spec §4.4 Consumer kernel).
func (s *SessionKernel) CreateConsumer(ctx context.Context, dest ids.Destination, opts ConsumerOptions) (*ConsumerKernel, error) {
	return s.createConsumer(ctx, dest, opts, false)
}

// CreateQueueBrowser opens a read-only browse of dest (spec §4.4
// QueueBrowser): prefetch is forced to the session's configured
// queue-browser prefetch and browser=true, so the broker knows to signal
// end-of-browse with a null-bodied MessageDispatch.
func (s *SessionKernel) CreateQueueBrowser(ctx context.Context, dest ids.Destination, selector string) (*QueueBrowser, error) {
	opts := ConsumerOptions{Selector: selector, Prefetch: s.conn.cfg.QueueBrowserPrefetch}
	c, err := s.createConsumer(ctx, dest, opts, true)
	if err != nil {
		return nil, err
	}
	return &QueueBrowser{ConsumerKernel: c}, nil
}

// ConsumerOptions configures CreateConsumer (spec §4.4 Consumer kernel
// configuration fields).
type ConsumerOptions struct {
	Selector               string
	NoLocal                bool
	Exclusive              bool
	Prefetch               int32
	MaxPendingMessageCount int32
	DispatchAsync          bool
	SubscriptionName       string
	Listener               func(msg command.Command)
}

func (s *SessionKernel) createConsumer(ctx context.Context, dest ids.Destination, opts ConsumerOptions, browser bool) (*ConsumerKernel, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	prefetch := opts.Prefetch
	if prefetch < 0 && !browser {
		prefetch = s.conn.cfg.DefaultPrefetch
	}
	cid := ids.ConsumerId{SessionId: s.id, Value: s.nextConsumerValue()}
	info := &command.ConsumerInfo{
		ConsumerId:                 cid,
		Destination:                command.FromDestination(dest),
		Selector:                   opts.Selector,
		SubscriptionName:           opts.SubscriptionName,
		NoLocal:                    opts.NoLocal,
		Exclusive:                  opts.Exclusive,
		Priority:                   4,
		PrefetchSize:               prefetch,
		MaximumPendingMessageLimit: opts.MaxPendingMessageCount,
		Browser:                    browser,
		DispatchAsync:              opts.DispatchAsync,
	}
	info.SetResponseRequired(true)
	if _, err := s.conn.syncRequest(ctx, info); err != nil {
		return nil, err
	}

	c := newConsumerKernel(s, cid, dest, prefetch, opts, browser)
	s.mu.Lock()
	s.consumers[cid.String()] = c
	s.mu.Unlock()
	s.conn.registerConsumer(c)
	c.start()
	return c, nil
}

// removeConsumer drops a consumer from the session's and the connection's
// registries and, when sendRemove is true, sends a RemoveInfo for it.
func (s *SessionKernel) removeConsumer(c *ConsumerKernel, sendRemove bool) {
	s.mu.Lock()
	delete(s.consumers, c.id.String())
	s.mu.Unlock()
	s.conn.unregisterConsumer(c)
	if sendRemove {
		_ = s.conn.oneway(&command.RemoveInfo{ObjectKind: command.ObjectConsumer, ObjectId: c.id.String()})
	}
}

func (s *SessionKernel) removeProducer(p *ProducerKernel, sendRemove bool) {
	s.mu.Lock()
	delete(s.producers, p.id.String())
	s.mu.Unlock()
	s.conn.unregisterProducer(p)
	if sendRemove {
		_ = s.conn.oneway(&command.RemoveInfo{ObjectKind: command.ObjectProducer, ObjectId: p.id.String()})
	}
}

// Send builds the wire Message from msg (any ActiveMQ*Message subclass
// with its body and MessageId already set), stamps its destination,
// persistence, timestamp, expiration and priority, tags it with the current
// transaction if this session is transacted, applies the configured
// Transformer, and forwards it through the connection (spec §4.4
// Session.send).
func (s *SessionKernel) Send(ctx context.Context, p *ProducerKernel, dest ids.Destination, msg command.Command, deliveryMode byte, priority byte, ttl time.Duration, sync bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	hdr, err := messageHeader(msg)
	if err != nil {
		return err
	}

	hdr.Destination = command.FromDestination(dest)
	hdr.Persistent = deliveryMode == DeliveryPersistent
	hdr.Priority = clampByte(priority, 0, 9)
	hdr.Timestamp = time.Now().UnixMilli()
	if ttl > 0 {
		hdr.Expiration = hdr.Timestamp + ttl.Milliseconds()
	}

	if s.ackMode == SessionTransacted {
		txn, err := s.ensureTransaction(ctx)
		if err != nil {
			return err
		}
		hdr.TransactionId = txn
	}

	out := msg
	if s.transformer != nil {
		transformed, replaced, err := s.transformer.ProducerTransform(s, p, msg)
		if err != nil {
			return err
		}
		if replaced {
			out = transformed
		}
	}

	if sync {
		out.SetResponseRequired(true)
		_, err := s.conn.syncRequest(ctx, out)
		return err
	}
	return s.conn.oneway(out)
}

// Commit flushes every consumer's accumulated transacted acknowledgement as
// one standard ack per consumer, then commits the session's current local
// transaction in one phase (spec §4.4 "commit/rollback send the
// corresponding TransactionInfo"; spec §8 P7).
func (s *SessionKernel) Commit(ctx context.Context) error {
	if s.ackMode != SessionTransacted {
		return wireerr.IllegalState("session %s: commit on a non-transacted session", s.id)
	}
	txn := s.currentTransactionId()
	if txn == nil {
		return nil // nothing was ever sent or consumed in this transaction
	}

	if err := s.flushTransactedAcks(ctx, txn, command.AckTypeStandard); err != nil {
		return err
	}
	if err := s.conn.commitOnePhase(ctx, txn); err != nil {
		return err
	}
	s.mu.Lock()
	s.txn = nil
	s.mu.Unlock()
	return nil
}

// Rollback rolls back the session's current transaction and tells the
// broker to redeliver everything consumed under it (spec §4.4
// "SessionTransacted: ... on rollback, send a MessageAck{ackType=
// Redelivered}"; spec §8 scenario 4).
func (s *SessionKernel) Rollback(ctx context.Context) error {
	if s.ackMode != SessionTransacted {
		return wireerr.IllegalState("session %s: rollback on a non-transacted session", s.id)
	}
	txn := s.currentTransactionId()
	if txn == nil {
		return nil
	}

	if err := s.flushTransactedAcks(ctx, txn, command.AckTypeRedelivered); err != nil {
		return err
	}
	if err := s.conn.rollbackTransaction(ctx, txn); err != nil {
		return err
	}
	s.mu.Lock()
	s.txn = nil
	s.mu.Unlock()
	return nil
}

func (s *SessionKernel) flushTransactedAcks(ctx context.Context, txn *command.TransactionId, ackType byte) error {
	s.mu.Lock()
	consumers := make([]*ConsumerKernel, 0, len(s.consumers))
	for _, c := range s.consumers {
		consumers = append(consumers, c)
	}
	s.mu.Unlock()

	for _, c := range consumers {
		if err := c.flushDeliveredAck(ctx, ackType, txn); err != nil {
			return err
		}
	}
	return nil
}

// closeInternal closes every consumer and producer owned by this session
// (sending their RemoveInfo unless sendRemove is false), then optionally
// sends the session's own RemoveInfo.
func (s *SessionKernel) closeInternal(ctx context.Context, sendRemove bool) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	consumers := make([]*ConsumerKernel, 0, len(s.consumers))
	for _, c := range s.consumers {
		consumers = append(consumers, c)
	}
	producers := make([]*ProducerKernel, 0, len(s.producers))
	for _, p := range s.producers {
		producers = append(producers, p)
	}
	s.mu.Unlock()

	var firstErr error
	for _, c := range consumers {
		if err := c.closeInternal(ctx, sendRemove); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, p := range producers {
		p.closeInternal(sendRemove)
	}

	if err := s.conn.removeSession(s, sendRemove); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Close closes the session and sends its RemoveInfo (spec §4.4).
func (s *SessionKernel) Close(ctx context.Context) error {
	return s.closeInternal(ctx, true)
}

func clampByte(v, lo, hi byte) byte {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// messageHeader extracts the embedded *command.Message from any of the
// five ActiveMQ*Message subclasses (or a bare *command.Message), the way
// the original's polymorphic Message pointer lets every layer mutate
// common header fields regardless of the concrete body type.
func messageHeader(cmd command.Command) (*command.Message, error) {
	switch m := cmd.(type) {
	case *command.Message:
		return m, nil
	case *command.ActiveMQTextMessage:
		return &m.Message, nil
	case *command.ActiveMQBytesMessage:
		return &m.Message, nil
	case *command.ActiveMQMapMessage:
		return &m.Message, nil
	case *command.ActiveMQStreamMessage:
		return &m.Message, nil
	case *command.ActiveMQObjectMessage:
		return &m.Message, nil
	default:
		return nil, wireerr.Unsupported("session: %T is not an ActiveMQ message subclass", cmd)
	}
}
