package wireformat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func roundTripPrimitive(t *testing.T, v any) any {
	t.Helper()
	w := NewWriter()
	require.NoError(t, MarshalPrimitive(w, v))
	r := NewReader(w.Bytes())
	got, err := UnmarshalPrimitive(r)
	require.NoError(t, err)
	require.Equal(t, 0, r.Remaining())
	return got
}

func TestPrimitiveScalarRoundTrip(t *testing.T) {
	require.Nil(t, roundTripPrimitive(t, nil))
	require.Equal(t, true, roundTripPrimitive(t, true))
	require.Equal(t, byte(42), roundTripPrimitive(t, byte(42)))
	require.Equal(t, int16(-7), roundTripPrimitive(t, int16(-7)))
	require.Equal(t, int32(123456), roundTripPrimitive(t, int32(123456)))
	require.Equal(t, int64(-987654321), roundTripPrimitive(t, int64(-987654321)))
	require.Equal(t, float32(3.5), roundTripPrimitive(t, float32(3.5)))
	require.Equal(t, float64(2.71828), roundTripPrimitive(t, float64(2.71828)))
	require.Equal(t, "hello openwire", roundTripPrimitive(t, "hello openwire"))
	require.Equal(t, []byte{1, 2, 3}, roundTripPrimitive(t, []byte{1, 2, 3}))
	require.Equal(t, Char('Q'), roundTripPrimitive(t, Char('Q')))
}

func TestPrimitiveListRoundTrip(t *testing.T) {
	list := []any{int32(1), "two", true, nil, []byte{0xAA}}
	got := roundTripPrimitive(t, list)
	require.Equal(t, list, got)
}

func TestPrimitiveMapRoundTrip(t *testing.T) {
	m := map[string]any{
		"count":   int32(3),
		"name":    "queue://test",
		"enabled": true,
		"nested": map[string]any{
			"inner": int64(99),
		},
		"tags": []any{"a", "b"},
	}
	got := roundTripPrimitive(t, m)
	require.Equal(t, m, got)
}

func TestWriteStringChoosesBigStringPastShortBoundary(t *testing.T) {
	short := make([]byte, 0x7FFF)
	for i := range short {
		short[i] = 'a'
	}
	big := append(short, 'b')

	w1 := NewWriter()
	require.NoError(t, w1.WriteString(string(short)))
	require.Equal(t, TypeString, w1.Bytes()[0])

	w2 := NewWriter()
	require.NoError(t, w2.WriteString(string(big)))
	require.Equal(t, TypeBigString, w2.Bytes()[0])
}

func TestBooleanStreamRoundTrip(t *testing.T) {
	bs := NewBooleanStream()
	bits := []bool{true, false, true, true, false, false, false, true, true, false}
	for _, b := range bits {
		bs.WriteBool(b)
	}
	w := NewWriter()
	require.NoError(t, bs.Marshal(w))

	r := NewReader(w.Bytes())
	decoded, err := UnmarshalBooleanStream(r)
	require.NoError(t, err)

	for _, want := range bits {
		got, err := decoded.ReadBool()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestUnmarshalPrimitiveRejectsUnknownTag(t *testing.T) {
	r := NewReader([]byte{0xFE})
	_, err := UnmarshalPrimitive(r)
	require.Error(t, err)
}
