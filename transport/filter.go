// Package transport implements the OpenWire transport filter chain: a
// stack of Filters terminating in a raw TCP/TLS IOTransport, each adding
// one concern (response correlation, mutual exclusion, inactivity
// monitoring, wire-format negotiation, asynchronous send) the way the
// teacher's transport.Link/Stream layering adds lanes and backpressure
// (spec §4.2).
package transport

import (
	"context"

	"github.com/redbco/openwire-go/command"
)

// Listener receives commands and exceptions surfaced by a Filter chain.
// The Connection Kernel implements Listener and sits above the top filter.
type Listener interface {
	OnCommand(cmd command.Command)
	OnException(err error)
}

// Filter is one link in the transport chain. Every filter but the terminal
// IOTransport wraps a "next" Filter closer to the wire; Start/Stop/Close
// cascade to next, and commands flowing up from next are intercepted via
// SetListener before being forwarded to this filter's own listener.
type Filter interface {
	Start(ctx context.Context) error
	Stop() error
	Close() error

	// Oneway sends a command with no reply expected.
	Oneway(cmd command.Command) error
	// Request sends a command and blocks for its correlated Response or
	// ExceptionResponse. ctx cancellation unblocks the wait with a
	// KindTimeout/KindClosed error; it does not cancel the send itself.
	Request(ctx context.Context, cmd command.Command) (command.Command, error)

	SetListener(l Listener)
}

// ListenerFunc adapts two functions to the Listener interface.
type ListenerFunc struct {
	Command   func(command.Command)
	Exception func(error)
}

func (f ListenerFunc) OnCommand(cmd command.Command) {
	if f.Command != nil {
		f.Command(cmd)
	}
}

func (f ListenerFunc) OnException(err error) {
	if f.Exception != nil {
		f.Exception(err)
	}
}

// baseFilter supplies the next-filter plumbing every non-terminal filter
// needs: pass-through lifecycle, listener storage, and a default OnCommand/
// OnException that simply forwards upward. Concrete filters embed this and
// override only the methods that add behavior.
//
// self must be the concrete filter that embeds this baseFilter (set by its
// constructor via newBaseFilter). SetListener registers self, not the
// embedded baseFilter, as next's listener: a Listener built from &someFilter{}
// has static type *baseFilter once stored in an interface variable unless the
// concrete type is threaded through explicitly, which would silently bypass
// every OnCommand/OnException override a concrete filter defines.
type baseFilter struct {
	next     Filter
	self     Listener
	listener Listener
}

func newBaseFilter(next Filter, self Listener) baseFilter {
	return baseFilter{next: next, self: self}
}

func (b *baseFilter) SetListener(l Listener) {
	b.listener = l
	if b.next != nil {
		b.next.SetListener(b.self)
	}
}

func (b *baseFilter) OnCommand(cmd command.Command) {
	if b.listener != nil {
		b.listener.OnCommand(cmd)
	}
}

func (b *baseFilter) OnException(err error) {
	if b.listener != nil {
		b.listener.OnException(err)
	}
}

func (b *baseFilter) Start(ctx context.Context) error {
	if b.next != nil {
		return b.next.Start(ctx)
	}
	return nil
}

func (b *baseFilter) Stop() error {
	if b.next != nil {
		return b.next.Stop()
	}
	return nil
}

func (b *baseFilter) Close() error {
	if b.next != nil {
		return b.next.Close()
	}
	return nil
}

func (b *baseFilter) Oneway(cmd command.Command) error {
	return b.next.Oneway(cmd)
}

func (b *baseFilter) Request(ctx context.Context, cmd command.Command) (command.Command, error) {
	return b.next.Request(ctx, cmd)
}
