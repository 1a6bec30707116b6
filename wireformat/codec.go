package wireformat

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/redbco/openwire-go/wireerr"
)

// Writer accumulates the binary encoding of a single command or frame body.
// It is the Go analogue of Java's DataOutputStream as used throughout the
// original marshaller.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }
func (w *Writer) Len() int      { return w.buf.Len() }

func (w *Writer) WriteByte(b byte) error { return w.buf.WriteByte(b) }

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.buf.WriteByte(1)
	}
	return w.buf.WriteByte(0)
}

func (w *Writer) WriteShort(v int16) error {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	_, err := w.buf.Write(tmp[:])
	return err
}

func (w *Writer) WriteInt(v int32) error {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	_, err := w.buf.Write(tmp[:])
	return err
}

func (w *Writer) WriteLong(v int64) error {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	_, err := w.buf.Write(tmp[:])
	return err
}

func (w *Writer) WriteFloat(v float32) error {
	return w.WriteInt(int32(math.Float32bits(v)))
}

func (w *Writer) WriteDouble(v float64) error {
	return w.WriteLong(int64(math.Float64bits(v)))
}

func (w *Writer) WriteRawBytes(b []byte) error {
	_, err := w.buf.Write(b)
	return err
}

// WriteString writes a modified-UTF-8 string using the STRING_TYPE framing
// (u16 length prefix) when it is short enough, or BIG_STRING_TYPE (u32
// length prefix) when the encoded form exceeds 32767 bytes (spec §4.1).
func (w *Writer) WriteString(s string) error {
	enc, err := EncodeUTF(s)
	if err != nil {
		return err
	}
	if len(enc) > 0x7FFF {
		if err := w.WriteByte(TypeBigString); err != nil {
			return err
		}
		if err := w.WriteInt(int32(len(enc))); err != nil {
			return err
		}
		return w.WriteRawBytes(enc)
	}
	if err := w.WriteByte(TypeString); err != nil {
		return err
	}
	if err := w.WriteShort(int16(len(enc))); err != nil {
		return err
	}
	return w.WriteRawBytes(enc)
}

// WriteUTF writes a plain length-prefixed modified-UTF-8 string with no
// leading type tag, used for nullable Command string fields.
func (w *Writer) WriteUTF(s string) error {
	enc, err := EncodeUTF(s)
	if err != nil {
		return err
	}
	if len(enc) > 0xFFFF {
		return wireerr.Decode(nil, "wireformat: string too long for u16-prefixed UTF field (%d bytes)", len(enc))
	}
	if err := w.WriteShort(int16(len(enc))); err != nil {
		return err
	}
	return w.WriteRawBytes(enc)
}

// Reader consumes a byte slice sequentially, erroring on truncation rather
// than panicking, mirroring Java's DataInputStream EOF behavior.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader { return &Reader{data: data} }

func (r *Reader) Remaining() int { return len(r.data) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return wireerr.Decode(io.ErrUnexpectedEOF, "wireformat: need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (r *Reader) ReadShort() (int16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := int16(binary.BigEndian.Uint16(r.data[r.pos:]))
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadInt() (int32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := int32(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadLong() (int64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := int64(binary.BigEndian.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadFloat() (float32, error) {
	v, err := r.ReadInt()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (r *Reader) ReadDouble() (float64, error) {
	v, err := r.ReadLong()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

func (r *Reader) ReadRawBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.data[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

// ReadUTF reads the u16-prefixed modified-UTF-8 counterpart to WriteUTF.
func (r *Reader) ReadUTF() (string, error) {
	n, err := r.ReadShort()
	if err != nil {
		return "", err
	}
	b, err := r.ReadRawBytes(int(n))
	if err != nil {
		return "", err
	}
	return DecodeUTF(b)
}

// BooleanStream accumulates booleans packed 8-per-byte, matching OpenWire's
// tight-encoding bit vector that precedes a command body and records which
// optional/marshaled-object fields are present.
type BooleanStream struct {
	bits    []bool
	readPos int
}

func NewBooleanStream() *BooleanStream { return &BooleanStream{} }

func (b *BooleanStream) WriteBool(v bool) { b.bits = append(b.bits, v) }

// Marshal packs the accumulated bits into bytes, MSB-first within each byte,
// prefixed with the bit count as the varint-free u16 OpenWire uses.
func (b *BooleanStream) Marshal(w *Writer) error {
	if err := w.WriteShort(int16(len(b.bits))); err != nil {
		return err
	}
	var cur byte
	nbits := 0
	for _, bit := range b.bits {
		if bit {
			cur |= 1 << uint(7-nbits)
		}
		nbits++
		if nbits == 8 {
			if err := w.WriteByte(cur); err != nil {
				return err
			}
			cur = 0
			nbits = 0
		}
	}
	if nbits > 0 {
		if err := w.WriteByte(cur); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalBooleanStream reads a BooleanStream previously written by Marshal.
func UnmarshalBooleanStream(r *Reader) (*BooleanStream, error) {
	count, err := r.ReadShort()
	if err != nil {
		return nil, err
	}
	n := int(count)
	nbytes := (n + 7) / 8
	raw, err := r.ReadRawBytes(nbytes)
	if err != nil {
		return nil, err
	}
	bits := make([]bool, 0, n)
	for i := 0; i < n; i++ {
		byteIdx := i / 8
		bitIdx := uint(7 - (i % 8))
		bits = append(bits, raw[byteIdx]&(1<<bitIdx) != 0)
	}
	return &BooleanStream{bits: bits}, nil
}

// ReadBool returns the next bit in sequence, in the order it was written.
func (b *BooleanStream) ReadBool() (bool, error) {
	if b.readPos >= len(b.bits) {
		return false, wireerr.Decode(nil, "wireformat: boolean stream exhausted")
	}
	v := b.bits[b.readPos]
	b.readPos++
	return v, nil
}
