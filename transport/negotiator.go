package transport

import (
	"bytes"
	"context"
	"time"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/wireerr"
)

// WireFormatNegotiator exchanges WireFormatInfo with the broker at
// connection start and records the agreed options into a shared
// WireFormatState that IOTransport consults on every frame (spec §4.2).
type WireFormatNegotiator struct {
	baseFilter
	state *WireFormatState
	local *command.WireFormatInfo

	negotiatedCh chan struct{}
	once         bool
}

func NewWireFormatNegotiator(next Filter, state *WireFormatState, local *command.WireFormatInfo) *WireFormatNegotiator {
	n := &WireFormatNegotiator{
		state:        state,
		local:        local,
		negotiatedCh: make(chan struct{}),
	}
	n.baseFilter = newBaseFilter(next, n)
	return n
}

func (n *WireFormatNegotiator) Start(ctx context.Context) error {
	if err := n.baseFilter.Start(ctx); err != nil {
		return err
	}
	if err := n.next.Oneway(n.local); err != nil {
		return wireerr.Transport(err, "wireformat negotiator: failed to send local WireFormatInfo")
	}
	select {
	case <-n.negotiatedCh:
		return nil
	case <-ctx.Done():
		return wireerr.Timeout("wireformat negotiator: handshake did not complete: %v", ctx.Err())
	case <-time.After(time.Duration(n.local.MaxInactivityDuration)*time.Millisecond + 10*time.Second):
		return wireerr.Timeout("wireformat negotiator: no WireFormatInfo from peer")
	}
}

// OnCommand intercepts the peer's WireFormatInfo and folds it with the
// local preferences, then forwards everything (including the
// WireFormatInfo itself, which the Connection Kernel also wants to see for
// logging) to the listener above.
func (n *WireFormatNegotiator) OnCommand(cmd command.Command) {
	if remote, ok := cmd.(*command.WireFormatInfo); ok && !n.once {
		n.once = true
		if err := n.negotiate(remote); err != nil {
			n.OnException(err)
			return
		}
		close(n.negotiatedCh)
	}
	n.baseFilter.OnCommand(cmd)
}

// negotiate validates the peer's magic preamble and folds its WireFormatInfo
// with the local preferences. It rejects a mismatched magic outright (spec
// §4.1: a peer that isn't speaking OpenWire never reaches the rest of the
// handshake) and records the agreed protocol version as min(local, remote)
// (spec §4.1), the same lower-common-denominator rule applied to the other
// per-connection options below.
func (n *WireFormatNegotiator) negotiate(remote *command.WireFormatInfo) error {
	if !bytes.Equal(remote.Magic, command.OpenWireMagic) {
		return wireerr.Protocol(nil, "wireformat negotiator: peer magic %q does not match %q", remote.Magic, command.OpenWireMagic)
	}
	n.state.tightEncoding.Store(n.local.TightEncodingEnabled && remote.TightEncodingEnabled)
	n.state.sizePrefixDisabled.Store(n.local.SizePrefixDisabled && remote.SizePrefixDisabled)
	maxFrame := n.local.MaxFrameSize
	if remote.MaxFrameSize > 0 && (maxFrame == 0 || remote.MaxFrameSize < maxFrame) {
		maxFrame = remote.MaxFrameSize
	}
	if maxFrame > 0 {
		n.state.maxFrameSize.Store(maxFrame)
	}
	version := n.local.Version
	if remote.Version < version {
		version = remote.Version
	}
	n.state.version.Store(version)
	n.state.negotiated.Store(true)
	return nil
}
