// Package client implements the connection, session, consumer, and
// producer kernels: the object graph a thin JMS-style API layer (out of
// this repo's scope, spec §1/§6) delegates to for everything past
// "build a Connection and call a method on it."
package client

import (
	"context"
	"crypto/tls"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/ids"
	"github.com/redbco/openwire-go/logging"
	"github.com/redbco/openwire-go/transport"
	"github.com/redbco/openwire-go/wireerr"
)

// ExceptionListener receives connection-scoped asynchronous failures (spec
// §7): transport errors, decode errors, and broker-originated
// ConnectionError/BrokerError commands all funnel through it.
type ExceptionListener func(err error)

// transactionState is the connection kernel's per-transaction state
// machine value (spec §4.3): NONE is the absence of an entry: BEGUN ->
// ENDED -> PREPARED -> COMMITTED|ROLLED_BACK, with COMMITTED/ROLLED_BACK
// immediately purging the entry rather than being stored.
type transactionState int

const (
	txnBegun transactionState = iota
	txnEnded
	txnPrepared
)

// ConnectionKernel owns one Transport and the registries of sessions,
// producers, consumers, and pending transactions hanging off it (spec
// §4.3). Grounded on mesh.Node (services/mesh/internal/mesh/node.go): a
// config struct with defaults, a Start lifecycle that blocks until the
// peer handshake completes, a dispatch method keyed by inbound message
// type, and registries guarded by their own mutex.
type ConnectionKernel struct {
	command.DefaultVisitor

	cfg    Config
	id     ids.ConnectionId
	logger *logging.Logger

	top   transport.Filter
	state *transport.WireFormatState

	mu        sync.RWMutex
	sessions  map[string]*SessionKernel
	consumers map[string]*ConsumerKernel
	producers map[string]*ProducerKernel

	txnMu sync.Mutex
	txns  map[string]*txnEntry
	order []string // insertion order, for a deterministic Recover() list

	nextSessionId  int64
	nextTempDestId int64

	// listeners supervises every consumer's async-listener goroutine (spec
	// §4.4 DispatchAsync), so Close can wait for them to drain instead of
	// racing a listener callback against transport teardown.
	listeners errgroup.Group

	listenerMu        sync.RWMutex
	exceptionListener ExceptionListener
	reconnectURIs     []string

	started atomic.Bool
	closed  atomic.Bool

	faultMu sync.Mutex
	fault   error

	connInfo *command.ConnectionInfo
}

// Dial opens a transport to cfg.BrokerURL, runs the wire-format handshake,
// and registers a ConnectionInfo with the broker (spec §4.3 startup
// sequence 1-4). The returned kernel is in the Started state.
func Dial(ctx context.Context, cfg Config) (*ConnectionKernel, error) {
	k := &ConnectionKernel{
		cfg:       cfg,
		id:        ids.NewConnectionId(uuid.New().String()),
		logger:    logging.New(),
		sessions:  make(map[string]*SessionKernel),
		consumers: make(map[string]*ConsumerKernel),
		producers: make(map[string]*ProducerKernel),
		txns:      make(map[string]*txnEntry),
	}
	k.logger = k.logger.WithFields(map[string]any{"connectionId": k.id.Value})
	if err := k.start(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *ConnectionKernel) start(ctx context.Context) error {
	socketOpts := transport.SocketOptions{
		SoLinger:       k.cfg.BrokerURL.SoLinger,
		KeepAlive:      k.cfg.BrokerURL.KeepAlive,
		TCPNoDelay:     k.cfg.BrokerURL.TCPNoDelay,
		ConnectTimeout: k.cfg.DialTimeout,
	}

	conn, err := transport.DialTCP(ctx, k.cfg.BrokerURL.Addr(), socketOpts)
	if err != nil {
		return err
	}
	if k.cfg.BrokerURL.IsTLS() {
		tlsConn := tls.Client(conn, &tls.Config{ServerName: k.cfg.BrokerURL.Host})
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return wireerr.Transport(err, "connection: TLS handshake with %s failed", k.cfg.BrokerURL.Addr())
		}
		conn = tlsConn
	}

	local := &command.WireFormatInfo{
		Magic:                 command.OpenWireMagic,
		Version:               k.cfg.WireFormatVersion,
		TightEncodingEnabled:  k.cfg.BrokerURL.TightEncodingEnabled,
		MaxInactivityDuration: k.cfg.BrokerURL.MaxInactivityDuration,
		// CacheEnabled is always advertised false and this client ignores
		// whatever the broker offers back: spec §9 design note, the
		// original's own deliberate truncation of that feature.
		CacheEnabled: false,
	}

	inactivity := time.Duration(k.cfg.BrokerURL.MaxInactivityDuration) * time.Millisecond

	top, state := transport.BuildStack(conn, transport.StackOptions{
		Local:          local,
		ReadTimeout:    inactivity,
		WriteTimeout:   inactivity / 2,
		UseAsyncSend:   k.cfg.BrokerURL.UseAsyncSend,
		AsyncQueueSize: 0,
	})
	top.SetListener(k)

	handshakeCtx, cancel := context.WithTimeout(ctx, k.cfg.HandshakeTimeout)
	defer cancel()
	if err := transport.Start(handshakeCtx, top); err != nil {
		conn.Close()
		return err
	}

	k.top = top
	k.state = state

	connInfo := &command.ConnectionInfo{
		ConnectionId: k.id,
		UserName:     k.cfg.UserName,
		Password:     k.cfg.Password,
		ClientId:     k.cfg.ClientId,
	}
	connInfo.SetResponseRequired(true)
	if _, err := top.Request(handshakeCtx, connInfo); err != nil {
		top.Close()
		return err
	}
	k.connInfo = connInfo
	k.started.Store(true)
	return nil
}

// ID returns the connection's id, assigned locally at Dial time.
func (k *ConnectionKernel) ID() ids.ConnectionId { return k.id }

// SetExceptionListener installs the callback invoked for asynchronous
// connection failures (spec §7).
func (k *ConnectionKernel) SetExceptionListener(l ExceptionListener) {
	k.listenerMu.Lock()
	k.exceptionListener = l
	k.listenerMu.Unlock()
}

// ReconnectURIs returns the broker-advertised failover URI list most
// recently delivered via ConnectionControl, or nil if none has arrived.
func (k *ConnectionKernel) ReconnectURIs() []string {
	k.listenerMu.RLock()
	defer k.listenerMu.RUnlock()
	return append([]string(nil), k.reconnectURIs...)
}

// Fault returns the first fault recorded against this connection, or nil
// if none has occurred (spec §7 propagation policy).
func (k *ConnectionKernel) Fault() error {
	k.faultMu.Lock()
	defer k.faultMu.Unlock()
	return k.fault
}

func (k *ConnectionKernel) recordFault(err error) {
	k.faultMu.Lock()
	if k.fault == nil {
		k.fault = err
	}
	k.faultMu.Unlock()
}

// checkOpen returns a KindClosed error wrapping the first fault (if any)
// once the connection has been closed or has recorded a fault; otherwise nil.
func (k *ConnectionKernel) checkOpen() error {
	if f := k.Fault(); f != nil {
		return &wireerr.Error{Kind: wireerr.KindClosed, Message: "connection: closed after a prior fault", Cause: f}
	}
	if k.closed.Load() {
		return wireerr.Closed("connection: already closed")
	}
	return nil
}

// nextSessionValue issues the next monotonic session id value (spec §4.3:
// ids are issued by counters the connection kernel owns).
func (k *ConnectionKernel) nextSessionValue() int64 {
	return atomic.AddInt64(&k.nextSessionId, 1)
}

// nextTempDestinationSuffix issues the next monotonic suffix for a
// temporary destination name (spec §3: "a monotonically assigned suffix").
func (k *ConnectionKernel) nextTempDestinationSuffix() int64 {
	return atomic.AddInt64(&k.nextTempDestId, 1)
}

// runSupervised launches fn on its own goroutine under this connection's
// errgroup, so Close can wait for every consumer listener to exit instead
// of leaking a goroutine racing the transport's teardown.
func (k *ConnectionKernel) runSupervised(fn func()) {
	k.listeners.Go(func() error {
		fn()
		return nil
	})
}

// oneway forwards cmd through the transport stack without waiting for a
// response.
func (k *ConnectionKernel) oneway(cmd command.Command) error {
	if err := k.checkOpen(); err != nil {
		return err
	}
	return k.top.Oneway(cmd)
}

// syncRequest sets response-required and blocks for the correlated
// Response, honoring ctx's deadline (spec §4.3 "Synchronous request").
func (k *ConnectionKernel) syncRequest(ctx context.Context, cmd command.Command) (command.Command, error) {
	if err := k.checkOpen(); err != nil {
		return nil, err
	}
	return k.top.Request(ctx, cmd)
}

// decodeDispatchPayload recovers the concrete ActiveMQ*Message a
// MessageDispatch carries: payload[0] is the DataStructureType byte,
// payload[1:] the marshaled body, encoded with whatever tightness this
// connection negotiated (spec §4.1/§4.4).
func (k *ConnectionKernel) decodeDispatchPayload(payload []byte) (command.Command, error) {
	if len(payload) == 0 {
		return nil, wireerr.Decode(nil, "connection: empty MessageDispatch payload")
	}
	tight := k.state != nil && k.state.TightEncoding()
	return command.Decode(payload[0], payload[1:], tight)
}

// CreateSession opens a new session under this connection (spec §4.4
// Session kernel).
func (k *ConnectionKernel) CreateSession(ctx context.Context, ackMode AckMode) (*SessionKernel, error) {
	if err := k.checkOpen(); err != nil {
		return nil, err
	}
	sid := ids.SessionId{ConnectionId: k.id, Value: k.nextSessionValue()}
	info := &command.SessionInfo{SessionId: sid}
	info.SetResponseRequired(true)
	if _, err := k.syncRequest(ctx, info); err != nil {
		return nil, err
	}

	s := newSessionKernel(k, sid, ackMode)
	k.mu.Lock()
	k.sessions[sid.String()] = s
	k.mu.Unlock()
	return s, nil
}

// removeSession drops a session from the registry; sendRemove controls
// whether a RemoveInfo is sent for it. Close closes every session with
// sendRemove set, so each session's RemoveInfo precedes the connection's.
func (k *ConnectionKernel) removeSession(s *SessionKernel, sendRemove bool) error {
	k.mu.Lock()
	delete(k.sessions, s.id.String())
	k.mu.Unlock()
	if !sendRemove {
		return nil
	}
	return k.oneway(&command.RemoveInfo{ObjectKind: command.ObjectSession, ObjectId: s.id.String()})
}

func (k *ConnectionKernel) registerConsumer(c *ConsumerKernel) {
	k.mu.Lock()
	k.consumers[c.id.String()] = c
	k.mu.Unlock()
}

func (k *ConnectionKernel) unregisterConsumer(c *ConsumerKernel) {
	k.mu.Lock()
	delete(k.consumers, c.id.String())
	k.mu.Unlock()
}

func (k *ConnectionKernel) registerProducer(p *ProducerKernel) {
	k.mu.Lock()
	k.producers[p.id.String()] = p
	k.mu.Unlock()
}

func (k *ConnectionKernel) unregisterProducer(p *ProducerKernel) {
	k.mu.Lock()
	delete(k.producers, p.id.String())
	k.mu.Unlock()
}

// Close performs the best-effort orderly shutdown of spec §4.3: walk the
// registry closing consumers, producers, and sessions, send the
// connection's own RemoveInfo and a ShutdownInfo, then close the
// transport. Errors along the way are logged, not returned — the spec
// requires close to always make progress.
func (k *ConnectionKernel) Close(ctx context.Context) error {
	// started (not closed) guards re-entry, so the RemoveInfo/ShutdownInfo
	// sends below still pass checkOpen; closed is set once they are out.
	if !k.started.CompareAndSwap(true, false) {
		return nil
	}

	k.mu.RLock()
	sessions := make([]*SessionKernel, 0, len(k.sessions))
	for _, s := range k.sessions {
		sessions = append(sessions, s)
	}
	k.mu.RUnlock()

	for _, s := range sessions {
		if err := s.closeInternal(ctx, true); err != nil {
			k.logger.Warn("connection: error closing session %s during shutdown: %v", s.id, err)
		}
	}

	if k.connInfo != nil {
		if err := k.oneway(&command.RemoveInfo{ObjectKind: command.ObjectConnection, ObjectId: k.id.String()}); err != nil {
			k.logger.Warn("connection: error sending connection RemoveInfo: %v", err)
		}
	}
	if err := k.oneway(&command.ShutdownInfo{}); err != nil {
		k.logger.Warn("connection: error sending ShutdownInfo: %v", err)
	}
	k.closed.Store(true)
	if k.top != nil {
		if err := k.top.Close(); err != nil {
			k.logger.Warn("connection: error closing transport: %v", err)
		}
	}
	_ = k.listeners.Wait() // every consumer's PriorityDispatchChannel is closed by now, so each listener goroutine has returned
	return nil
}

// --- transport.Listener ---

// OnCommand routes every inbound command through the CommandVisitor
// dispatch (spec §4.6); ConnectionKernel embeds command.DefaultVisitor and
// overrides only the methods it cares about.
func (k *ConnectionKernel) OnCommand(cmd command.Command) {
	if err := command.Dispatch(k, cmd); err != nil {
		k.logger.Warn("connection: error dispatching %T: %v", cmd, err)
	}
}

// OnException records the first fault and notifies the user's exception
// listener (spec §7): transport errors never propagate as a panic or a
// silently dropped goroutine failure.
func (k *ConnectionKernel) OnException(err error) {
	k.recordFault(err)
	k.logger.Error("connection: transport exception: %v", err)
	k.listenerMu.RLock()
	l := k.exceptionListener
	k.listenerMu.RUnlock()
	if l != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					k.logger.Error("connection: exception listener panicked: %v", r)
				}
			}()
			l(err)
		}()
	}
}

// --- command.Visitor overrides ---

func (k *ConnectionKernel) VisitMessageDispatch(d *command.MessageDispatch) error {
	k.mu.RLock()
	c, ok := k.consumers[d.ConsumerId.String()]
	k.mu.RUnlock()
	if !ok {
		k.logger.Warn("connection: MessageDispatch for unknown consumer %s", d.ConsumerId)
		return nil
	}
	return c.dispatch(d)
}

func (k *ConnectionKernel) VisitProducerAck(a *command.ProducerAck) error {
	k.mu.RLock()
	p, ok := k.producers[a.ProducerId.String()]
	k.mu.RUnlock()
	if !ok {
		return nil
	}
	p.onProducerAck(a)
	return nil
}

func (k *ConnectionKernel) VisitConnectionError(e *command.ConnectionError) error {
	err := wireerr.Broker(nil, "%s: %s", e.ExceptionClass, e.Message)
	k.OnException(err)
	return nil
}

func (k *ConnectionKernel) VisitConnectionControl(c *command.ConnectionControl) error {
	if c.ConnectedBrokers != "" {
		k.listenerMu.Lock()
		k.reconnectURIs = splitNonEmpty(c.ConnectedBrokers, ',')
		k.listenerMu.Unlock()
	}
	return nil
}

func (k *ConnectionKernel) VisitBrokerInfo(b *command.BrokerInfo) error {
	k.logger.Info("connection: connected to broker %q (%s)", b.BrokerName, b.BrokerId)
	return nil
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
