package transport

import (
	"context"
	"net"
	"time"

	"github.com/redbco/openwire-go/command"
)

// StackOptions configures BuildStack. Fields mirror the connection./
// transport./wireFormat. broker-URL keys from spec §6.
type StackOptions struct {
	Local *command.WireFormatInfo

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// UseAsyncSend inserts an AsyncSend filter between the negotiator and
	// the wire, decoupling producers from socket backpressure.
	UseAsyncSend   bool
	AsyncQueueSize int
}

// BuildStack assembles the standard filter chain over an already-dialed
// conn: ResponseCorrelator -> MutexFilter -> InactivityMonitor ->
// WireFormatNegotiator -> [AsyncSend] -> IOTransport (spec §4.2). It
// returns the top filter (what a Connection Kernel talks to) and the
// shared WireFormatState IOTransport reads on every frame.
func BuildStack(conn net.Conn, opts StackOptions) (Filter, *WireFormatState) {
	state := NewWireFormatState()

	var wire Filter = NewIOTransport(conn, state)
	if opts.UseAsyncSend {
		wire = NewAsyncSend(wire, opts.AsyncQueueSize)
	}
	negotiator := NewWireFormatNegotiator(wire, state, opts.Local)
	inactivity := NewInactivityMonitor(negotiator, opts.ReadTimeout, opts.WriteTimeout)
	mutex := NewMutexFilter(inactivity)
	correlator := NewResponseCorrelator(mutex)

	return correlator, state
}

// Start brings up the whole stack in wire-to-top order so the
// WireFormatNegotiator's handshake wait (triggered from the topmost
// Start) observes a fully running IOTransport read loop underneath it.
func Start(ctx context.Context, top Filter) error {
	return top.Start(ctx)
}
