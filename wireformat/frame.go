package wireformat

import (
	"encoding/binary"
	"io"

	"github.com/redbco/openwire-go/wireerr"
)

// MaxFrameSize bounds the size field read off the wire so a corrupt or
// malicious peer cannot force an unbounded allocation (spec §4.1, P3).
const MaxFrameSize = 128 * 1024 * 1024

// WriteFrame writes one OpenWire frame: a u32 big-endian size (covering the
// data-structure type byte plus body), the type byte, then body.
func WriteFrame(w io.Writer, dataType byte, body []byte) error {
	var header [5]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)+1))
	header[4] = dataType
	if _, err := w.Write(header[:]); err != nil {
		return wireerr.Transport(err, "wireformat: write frame header")
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return wireerr.Transport(err, "wireformat: write frame body")
		}
	}
	return nil
}

// ReadFrame reads one frame written by WriteFrame. size 0 (an empty frame
// used as a wire-level no-op / keepalive placeholder) returns a nil body
// and type 0.
func ReadFrame(r io.Reader) (dataType byte, body []byte, err error) {
	var sizeBuf [4]byte
	if _, err = io.ReadFull(r, sizeBuf[:]); err != nil {
		return 0, nil, wireerr.Transport(err, "wireformat: read frame size")
	}
	size := binary.BigEndian.Uint32(sizeBuf[:])
	if size == 0 {
		return 0, nil, nil
	}
	if size > MaxFrameSize {
		return 0, nil, wireerr.Decode(nil, "wireformat: frame size %d exceeds maximum %d", size, MaxFrameSize)
	}
	var typeBuf [1]byte
	if _, err = io.ReadFull(r, typeBuf[:]); err != nil {
		return 0, nil, wireerr.Transport(err, "wireformat: read frame type")
	}
	bodyLen := int(size) - 1
	body = make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err = io.ReadFull(r, body); err != nil {
			return 0, nil, wireerr.Transport(err, "wireformat: read frame body")
		}
	}
	return typeBuf[0], body, nil
}
