package wireformat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, 42, []byte("hello")))

	typ, body, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, byte(42), typ)
	require.Equal(t, []byte("hello"), body)
}

func TestFrameEmptyBody(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, 10, nil))

	typ, body, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, byte(10), typ)
	require.Empty(t, body)
}

func TestFrameRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, buf.WriteByte(0xFF))
	require.NoError(t, buf.WriteByte(0xFF))
	require.NoError(t, buf.WriteByte(0xFF))
	require.NoError(t, buf.WriteByte(0xFF))

	_, _, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestFrameTruncatedStreamErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, buf.WriteByte(0x00))
	require.NoError(t, buf.WriteByte(0x00))
	require.NoError(t, buf.WriteByte(0x00))
	require.NoError(t, buf.WriteByte(0x05))
	// declare a 5-byte body but supply none

	_, _, err := ReadFrame(&buf)
	require.Error(t, err)
}
