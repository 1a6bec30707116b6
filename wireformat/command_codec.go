package wireformat

import (
	"reflect"

	"github.com/redbco/openwire-go/wireerr"
)

// MarshalCommand writes the body of a command struct using reflection and
// the `ow` struct tag, replacing the ~30 hand-written per-command
// marshallers the original protocol implementation carries: every command
// type in this client shares this single marshal/unmarshal pair.
//
// Supported field kinds: bool, byte, int16, int32, int64, float32, float64
// (written unconditionally, OpenWire has no nullable primitives); string,
// []byte, map[string]any, *T (nested struct) and []*T (nested struct slice)
// are nullable and participate in presence tracking.
//
// In tight mode every nullable field's presence is recorded as a single bit
// in a BooleanStream written once up front, depth-first across the whole
// structure; in loose mode each nullable field instead carries its own
// inline presence byte. Both modes carry identical information in identical
// field order — only where the presence flags live differs (spec §4.1).
func MarshalCommand(w *Writer, v any) error {
	return marshalTight(w, v)
}

func marshalTight(w *Writer, v any) error {
	rv, err := derefStruct(v)
	if err != nil {
		return err
	}
	bs := NewBooleanStream()
	if err := collectPresence(rv, bs); err != nil {
		return err
	}
	if err := bs.Marshal(w); err != nil {
		return err
	}
	return writeFields(w, rv, true)
}

// MarshalCommandLoose writes v using loose encoding (inline presence bytes,
// no leading BooleanStream). Exposed separately because loose mode is
// negotiated per-connection (spec §4.1/§4.2, WireFormatNegotiator).
func MarshalCommandLoose(w *Writer, v any) error {
	rv, err := derefStruct(v)
	if err != nil {
		return err
	}
	return writeFields(w, rv, false)
}

// UnmarshalCommand reads a body written by MarshalCommand (tight mode) into
// the struct pointed to by v.
func UnmarshalCommand(r *Reader, v any) error {
	rv, err := derefStruct(v)
	if err != nil {
		return err
	}
	bs, err := UnmarshalBooleanStream(r)
	if err != nil {
		return err
	}
	return readFields(r, rv, bs, true)
}

// UnmarshalCommandLoose reads a body written by MarshalCommandLoose.
func UnmarshalCommandLoose(r *Reader, v any) error {
	rv, err := derefStruct(v)
	if err != nil {
		return err
	}
	return readFields(r, rv, nil, false)
}

func derefStruct(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, wireerr.Decode(nil, "wireformat: command codec requires a non-nil pointer, got %T", v)
	}
	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return reflect.Value{}, wireerr.Decode(nil, "wireformat: command codec requires a struct, got %T", v)
	}
	return elem, nil
}

func isNullableKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Map:
		return true
	case reflect.Slice:
		return true // both []byte and []*T are nullable
	case reflect.Ptr:
		return t.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

func skipField(sf reflect.StructField) bool {
	tag := sf.Tag.Get("ow")
	return tag == "-"
}

// collectPresence appends one bit per nullable field, depth-first, matching
// the traversal order writeFields/readFields use.
func collectPresence(rv reflect.Value, bs *BooleanStream) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if skipField(sf) || sf.PkgPath != "" {
			continue
		}
		fv := rv.Field(i)
		if sf.Type.Kind() == reflect.Struct {
			// Struct-valued fields (anonymous or named) are required and
			// flattened in place: a zero-valued nested struct is still
			// written, so there is no presence bit to record.
			if err := collectPresence(fv, bs); err != nil {
				return err
			}
			continue
		}
		if !isNullableKind(sf.Type) {
			continue
		}
		present := !fv.IsZero()
		bs.WriteBool(present)
		if !present {
			continue
		}
		switch sf.Type.Kind() {
		case reflect.Ptr:
			if err := collectPresence(fv.Elem(), bs); err != nil {
				return err
			}
		case reflect.Slice:
			if sf.Type.Elem().Kind() == reflect.Ptr {
				// One presence bit per element, not just per field: readField's
				// tight-mode slice-of-pointer branch reads exactly fv.Len() bits
				// from the BooleanStream, so a skipped nil element here would
				// desync every bit collected after it.
				for j := 0; j < fv.Len(); j++ {
					elem := fv.Index(j)
					if elem.IsNil() {
						bs.WriteBool(false)
						continue
					}
					bs.WriteBool(true)
					if err := collectPresence(elem.Elem(), bs); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func writeFields(w *Writer, rv reflect.Value, tight bool) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if skipField(sf) || sf.PkgPath != "" {
			continue
		}
		fv := rv.Field(i)
		if sf.Type.Kind() == reflect.Struct {
			if err := writeFields(w, fv, tight); err != nil {
				return err
			}
			continue
		}
		if err := writeField(w, sf.Type, fv, tight); err != nil {
			return err
		}
	}
	return nil
}

func writeField(w *Writer, ft reflect.Type, fv reflect.Value, tight bool) error {
	if !isNullableKind(ft) {
		return writeScalar(w, fv)
	}
	present := !fv.IsZero()
	if !tight {
		if err := w.WriteBool(present); err != nil {
			return err
		}
	}
	if !present {
		return nil
	}
	switch ft.Kind() {
	case reflect.String:
		return w.WriteUTF(fv.String())
	case reflect.Map:
		m, ok := toPrimitiveMap(fv)
		if !ok {
			return wireerr.Decode(nil, "wireformat: unsupported map field type %s", ft)
		}
		return WritePrimitiveMap(w, m)
	case reflect.Slice:
		if ft.Elem().Kind() == reflect.Uint8 {
			b := fv.Bytes()
			if err := w.WriteInt(int32(len(b))); err != nil {
				return err
			}
			return w.WriteRawBytes(b)
		}
		if ft.Elem().Kind() == reflect.Ptr {
			n := fv.Len()
			if err := w.WriteInt(int32(n)); err != nil {
				return err
			}
			for j := 0; j < n; j++ {
				elem := fv.Index(j)
				if elem.IsNil() {
					// Tight mode already recorded this element's presence in
					// the leading BooleanStream (collectPresence); only loose
					// mode carries the bit inline here.
					if !tight {
						if err := w.WriteBool(false); err != nil {
							return err
						}
					}
					continue
				}
				if tight {
					if err := writeFields(w, elem.Elem(), true); err != nil {
						return err
					}
				} else {
					if err := w.WriteBool(true); err != nil {
						return err
					}
					if err := writeFields(w, elem.Elem(), false); err != nil {
						return err
					}
				}
			}
			return nil
		}
		return wireerr.Decode(nil, "wireformat: unsupported slice element type %s", ft.Elem())
	case reflect.Ptr:
		return writeFields(w, fv.Elem(), tight)
	default:
		return wireerr.Decode(nil, "wireformat: unsupported nullable kind %s", ft.Kind())
	}
}

func writeScalar(w *Writer, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Bool:
		return w.WriteBool(fv.Bool())
	case reflect.Uint8:
		return w.WriteByte(byte(fv.Uint()))
	case reflect.Int16:
		return w.WriteShort(int16(fv.Int()))
	case reflect.Int32:
		return w.WriteInt(int32(fv.Int()))
	case reflect.Int64:
		return w.WriteLong(fv.Int())
	case reflect.Float32:
		return w.WriteFloat(float32(fv.Float()))
	case reflect.Float64:
		return w.WriteDouble(fv.Float())
	default:
		return wireerr.Decode(nil, "wireformat: unsupported scalar kind %s", fv.Kind())
	}
}

func readFields(r *Reader, rv reflect.Value, bs *BooleanStream, tight bool) error {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if skipField(sf) || sf.PkgPath != "" {
			continue
		}
		fv := rv.Field(i)
		if sf.Type.Kind() == reflect.Struct {
			if err := readFields(r, fv, bs, tight); err != nil {
				return err
			}
			continue
		}
		if err := readField(r, sf.Type, fv, bs, tight); err != nil {
			return err
		}
	}
	return nil
}

func readField(r *Reader, ft reflect.Type, fv reflect.Value, bs *BooleanStream, tight bool) error {
	if !isNullableKind(ft) {
		return readScalar(r, fv)
	}
	var present bool
	var err error
	if tight {
		present, err = bs.ReadBool()
	} else {
		present, err = r.ReadBool()
	}
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	switch ft.Kind() {
	case reflect.String:
		s, err := r.ReadUTF()
		if err != nil {
			return err
		}
		fv.SetString(s)
		return nil
	case reflect.Map:
		m, err := ReadPrimitiveMap(r)
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(m))
		return nil
	case reflect.Slice:
		if ft.Elem().Kind() == reflect.Uint8 {
			n, err := r.ReadInt()
			if err != nil {
				return err
			}
			b, err := r.ReadRawBytes(int(n))
			if err != nil {
				return err
			}
			fv.SetBytes(b)
			return nil
		}
		if ft.Elem().Kind() == reflect.Ptr {
			n, err := r.ReadInt()
			if err != nil {
				return err
			}
			out := reflect.MakeSlice(ft, 0, int(n))
			for j := int32(0); j < n; j++ {
				var elemPresent bool
				if tight {
					elemPresent, err = bs.ReadBool()
				} else {
					elemPresent, err = r.ReadBool()
				}
				if err != nil {
					return err
				}
				if !elemPresent {
					out = reflect.Append(out, reflect.Zero(ft.Elem()))
					continue
				}
				elem := reflect.New(ft.Elem().Elem())
				if err := readFields(r, elem.Elem(), bs, tight); err != nil {
					return err
				}
				out = reflect.Append(out, elem)
			}
			fv.Set(out)
			return nil
		}
		return wireerr.Decode(nil, "wireformat: unsupported slice element type %s", ft.Elem())
	case reflect.Ptr:
		fv.Set(reflect.New(ft.Elem()))
		return readFields(r, fv.Elem(), bs, tight)
	default:
		return wireerr.Decode(nil, "wireformat: unsupported nullable kind %s", ft.Kind())
	}
}

func readScalar(r *Reader, fv reflect.Value) error {
	switch fv.Kind() {
	case reflect.Bool:
		v, err := r.ReadBool()
		if err != nil {
			return err
		}
		fv.SetBool(v)
		return nil
	case reflect.Uint8:
		v, err := r.ReadByte()
		if err != nil {
			return err
		}
		fv.SetUint(uint64(v))
		return nil
	case reflect.Int16:
		v, err := r.ReadShort()
		if err != nil {
			return err
		}
		fv.SetInt(int64(v))
		return nil
	case reflect.Int32:
		v, err := r.ReadInt()
		if err != nil {
			return err
		}
		fv.SetInt(int64(v))
		return nil
	case reflect.Int64:
		v, err := r.ReadLong()
		if err != nil {
			return err
		}
		fv.SetInt(v)
		return nil
	case reflect.Float32:
		v, err := r.ReadFloat()
		if err != nil {
			return err
		}
		fv.SetFloat(float64(v))
		return nil
	case reflect.Float64:
		v, err := r.ReadDouble()
		if err != nil {
			return err
		}
		fv.SetFloat(v)
		return nil
	default:
		return wireerr.Decode(nil, "wireformat: unsupported scalar kind %s", fv.Kind())
	}
}

func toPrimitiveMap(fv reflect.Value) (map[string]any, bool) {
	if fv.Type() == reflect.TypeOf(map[string]any{}) {
		return fv.Interface().(map[string]any), true
	}
	return nil, false
}
