// Package wireformat implements the OpenWire binary wire format: modified
// UTF-8 string encoding, the tagged-union primitive value system, frame
// I/O, and the reflective command marshaller.
package wireformat

import (
	"unicode/utf8"

	"github.com/redbco/openwire-go/wireerr"
)

// EncodedLen returns the number of bytes EncodeUTF would produce for s,
// without allocating, so callers can pick STRING vs BIG_STRING framing
// before writing.
func EncodedLen(s string) (int, error) {
	n := 0
	for _, r := range s {
		switch {
		case r == 0:
			n += 2
		case r > 0 && r <= 0x7F:
			n++
		case r <= 0x7FF:
			n += 2
		case r <= 0xFFFF:
			n += 3
		default:
			return 0, wireerr.Decode(nil, "modified-utf8: code point U+%X outside the basic multilingual plane", r)
		}
	}
	return n, nil
}

// EncodeUTF renders s as modified UTF-8: NUL is encoded as the two-byte
// sequence C0 80 instead of a literal zero byte, and no code point above
// U+FFFF is permitted (OpenWire has no surrogate-pair representation).
func EncodeUTF(s string) ([]byte, error) {
	n, err := EncodedLen(s)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r > 0 && r <= 0x7F:
			out = append(out, byte(r))
		case r <= 0x7FF:
			out = append(out,
				0xC0|byte(r>>6),
				0x80|byte(r&0x3F))
		default: // r <= 0xFFFF, checked by EncodedLen
			out = append(out,
				0xE0|byte(r>>12),
				0x80|byte((r>>6)&0x3F),
				0x80|byte(r&0x3F))
		}
	}
	return out, nil
}

// DecodeUTF reverses EncodeUTF, rejecting truncated multi-byte sequences,
// malformed continuation bytes and invalid lead bytes.
func DecodeUTF(data []byte) (string, error) {
	out := make([]rune, 0, len(data))
	i := 0
	for i < len(data) {
		b0 := data[i]
		switch {
		case b0&0x80 == 0:
			out = append(out, rune(b0))
			i++
		case b0&0xE0 == 0xC0:
			if i+1 >= len(data) {
				return "", wireerr.Decode(nil, "modified-utf8: truncated 2-byte sequence at offset %d", i)
			}
			b1 := data[i+1]
			if b1&0xC0 != 0x80 {
				return "", wireerr.Decode(nil, "modified-utf8: malformed continuation byte at offset %d", i+1)
			}
			r := (rune(b0&0x1F) << 6) | rune(b1&0x3F)
			out = append(out, r)
			i += 2
		case b0&0xF0 == 0xE0:
			if i+2 >= len(data) {
				return "", wireerr.Decode(nil, "modified-utf8: truncated 3-byte sequence at offset %d", i)
			}
			b1, b2 := data[i+1], data[i+2]
			if b1&0xC0 != 0x80 || b2&0xC0 != 0x80 {
				return "", wireerr.Decode(nil, "modified-utf8: malformed continuation byte at offset %d", i+1)
			}
			r := (rune(b0&0x0F) << 12) | (rune(b1&0x3F) << 6) | rune(b2&0x3F)
			out = append(out, r)
			i += 3
		default:
			return "", wireerr.Decode(nil, "modified-utf8: invalid lead byte 0x%02X at offset %d", b0, i)
		}
	}
	s := string(out)
	if !utf8.ValidString(s) {
		return "", wireerr.Decode(nil, "modified-utf8: decoded string is not valid UTF-8")
	}
	return s, nil
}
