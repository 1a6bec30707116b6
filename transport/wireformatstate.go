package transport

import "sync/atomic"

// WireFormatState is the negotiated wire-format configuration shared
// between WireFormatNegotiator (which fills it in) and IOTransport (which
// reads it on every frame), avoiding a query back up the filter chain.
type WireFormatState struct {
	tightEncoding      atomic.Bool
	sizePrefixDisabled atomic.Bool
	maxFrameSize       atomic.Int64
	version            atomic.Int32
	negotiated         atomic.Bool
}

// NewWireFormatState returns a state defaulting to loose encoding with
// size-prefixed frames, the safe assumption before negotiation completes.
func NewWireFormatState() *WireFormatState {
	s := &WireFormatState{}
	s.maxFrameSize.Store(int64(1<<20) * 100)
	return s
}

func (s *WireFormatState) TightEncoding() bool      { return s.tightEncoding.Load() }
func (s *WireFormatState) SizePrefixDisabled() bool { return s.sizePrefixDisabled.Load() }
func (s *WireFormatState) MaxFrameSize() int64      { return s.maxFrameSize.Load() }
func (s *WireFormatState) Version() int32           { return s.version.Load() }
func (s *WireFormatState) Negotiated() bool         { return s.negotiated.Load() }
