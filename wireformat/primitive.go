package wireformat

import "github.com/redbco/openwire-go/wireerr"

// Primitive value type tags, matching OpenWire's PrimitiveValueNode/
// MarshallingSupport constants (public wire-protocol values, stable across
// broker versions).
const (
	TypeNull      byte = 0
	TypeBool      byte = 1
	TypeByte      byte = 2
	TypeChar      byte = 3
	TypeShort     byte = 4
	TypeInt       byte = 5
	TypeLong      byte = 6
	TypeDouble    byte = 7
	TypeFloat     byte = 8
	TypeString    byte = 9
	TypeByteArray byte = 10
	TypeMap       byte = 11
	TypeList      byte = 12
	TypeBigString byte = 13
)

// Char represents an OpenWire primitive char (a 16-bit unsigned code unit,
// matching Java's char) in a primitive map or list. Plain Go rune/int16
// values decode from TypeChar as Char, never the bare numeric type, so a
// caller can tell a char property apart from a short one.
type Char uint16

// MarshalPrimitive writes a tagged primitive value. Supported Go types:
// nil, bool, byte, int16, int32, int64, float32, float64, string, []byte,
// Char, []any (list), map[string]any (nested map).
func MarshalPrimitive(w *Writer, v any) error {
	switch val := v.(type) {
	case nil:
		return w.WriteByte(TypeNull)
	case bool:
		if err := w.WriteByte(TypeBool); err != nil {
			return err
		}
		return w.WriteBool(val)
	case byte:
		if err := w.WriteByte(TypeByte); err != nil {
			return err
		}
		return w.WriteByte(val)
	case Char:
		if err := w.WriteByte(TypeChar); err != nil {
			return err
		}
		return w.WriteShort(int16(val))
	case int16:
		if err := w.WriteByte(TypeShort); err != nil {
			return err
		}
		return w.WriteShort(val)
	case int32:
		if err := w.WriteByte(TypeInt); err != nil {
			return err
		}
		return w.WriteInt(val)
	case int64:
		if err := w.WriteByte(TypeLong); err != nil {
			return err
		}
		return w.WriteLong(val)
	case float32:
		if err := w.WriteByte(TypeFloat); err != nil {
			return err
		}
		return w.WriteFloat(val)
	case float64:
		if err := w.WriteByte(TypeDouble); err != nil {
			return err
		}
		return w.WriteDouble(val)
	case string:
		return w.WriteString(val)
	case []byte:
		if err := w.WriteByte(TypeByteArray); err != nil {
			return err
		}
		if err := w.WriteInt(int32(len(val))); err != nil {
			return err
		}
		return w.WriteRawBytes(val)
	case []any:
		if err := w.WriteByte(TypeList); err != nil {
			return err
		}
		return WritePrimitiveList(w, val)
	case map[string]any:
		if err := w.WriteByte(TypeMap); err != nil {
			return err
		}
		return WritePrimitiveMap(w, val)
	default:
		return wireerr.Decode(nil, "wireformat: unsupported primitive value type %T", v)
	}
}

// UnmarshalPrimitive reads a tagged primitive value written by MarshalPrimitive.
func UnmarshalPrimitive(r *Reader) (any, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	return unmarshalPrimitiveBody(r, tag)
}

func unmarshalPrimitiveBody(r *Reader, tag byte) (any, error) {
	switch tag {
	case TypeNull:
		return nil, nil
	case TypeBool:
		return r.ReadBool()
	case TypeByte:
		return r.ReadByte()
	case TypeChar:
		v, err := r.ReadShort()
		if err != nil {
			return nil, err
		}
		return Char(uint16(v)), nil
	case TypeShort:
		return r.ReadShort()
	case TypeInt:
		return r.ReadInt()
	case TypeLong:
		return r.ReadLong()
	case TypeFloat:
		return r.ReadFloat()
	case TypeDouble:
		return r.ReadDouble()
	case TypeString:
		n, err := r.ReadShort()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadRawBytes(int(n))
		if err != nil {
			return nil, err
		}
		return DecodeUTF(b)
	case TypeBigString:
		n, err := r.ReadInt()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadRawBytes(int(n))
		if err != nil {
			return nil, err
		}
		return DecodeUTF(b)
	case TypeByteArray:
		n, err := r.ReadInt()
		if err != nil {
			return nil, err
		}
		return r.ReadRawBytes(int(n))
	case TypeList:
		return ReadPrimitiveList(r)
	case TypeMap:
		return ReadPrimitiveMap(r)
	default:
		return nil, wireerr.Decode(nil, "wireformat: unknown primitive type tag 0x%02X", tag)
	}
}

// WritePrimitiveList writes a primitive-list body (entry count, then each
// tagged value in sequence), per spec §3/§4.1.
func WritePrimitiveList(w *Writer, list []any) error {
	if err := w.WriteInt(int32(len(list))); err != nil {
		return err
	}
	for _, v := range list {
		if err := MarshalPrimitive(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadPrimitiveList reads a body written by WritePrimitiveList.
func ReadPrimitiveList(r *Reader) ([]any, error) {
	n, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := UnmarshalPrimitive(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// WritePrimitiveMap writes a primitive-map body: i32 entry count, then per
// entry a u16-length-prefixed key followed by a tagged value (spec §3/§4.1).
func WritePrimitiveMap(w *Writer, m map[string]any) error {
	if err := w.WriteInt(int32(len(m))); err != nil {
		return err
	}
	for k, v := range m {
		if err := w.WriteUTF(k); err != nil {
			return err
		}
		if err := MarshalPrimitive(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadPrimitiveMap reads a body written by WritePrimitiveMap.
func ReadPrimitiveMap(r *Reader) (map[string]any, error) {
	n, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, n)
	for i := int32(0); i < n; i++ {
		k, err := r.ReadUTF()
		if err != nil {
			return nil, err
		}
		v, err := UnmarshalPrimitive(r)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
