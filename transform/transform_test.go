package transform

import (
	"testing"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/ids"
	"github.com/stretchr/testify/require"
)

func sampleText() *command.ActiveMQTextMessage {
	return &command.ActiveMQTextMessage{
		Message: command.Message{
			CorrelationId: "corr-1",
			Priority:      7,
			Properties:    map[string]any{"k": "v"},
			Destination:   command.FromDestination(ids.NewDestination(ids.KindQueue, "orders")),
		},
		Text: "hello",
	}
}

func TestTransformTextToBytesCopiesHeadersAndBody(t *testing.T) {
	src := sampleText()
	out, err := TransformTo(src, command.TypeActiveMQBytesMessage)
	require.NoError(t, err)
	bm, ok := out.(*command.ActiveMQBytesMessage)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), bm.Content)
	require.Equal(t, "corr-1", bm.CorrelationId)
	require.EqualValues(t, 7, bm.Priority)
	require.Equal(t, "v", bm.Properties["k"])
}

func TestTransformHeadersAreIndependentCopies(t *testing.T) {
	src := sampleText()
	out, err := TransformTo(src, command.TypeActiveMQBytesMessage)
	require.NoError(t, err)
	bm := out.(*command.ActiveMQBytesMessage)
	bm.Properties["k"] = "mutated"
	require.Equal(t, "v", src.Properties["k"])
}

func TestTransformToMapOnNonMapSourceIsUnsupported(t *testing.T) {
	src := sampleText()
	_, err := TransformTo(src, command.TypeActiveMQMapMessage)
	require.Error(t, err)
}

func TestTransformMapRoundTripsAllEntries(t *testing.T) {
	src := &command.ActiveMQMapMessage{
		Body: map[string]any{"a": int32(1), "b": "two", "c": true},
	}
	out, err := TransformTo(src, command.TypeActiveMQMapMessage)
	require.NoError(t, err)
	mm := out.(*command.ActiveMQMapMessage)
	require.Equal(t, src.Body, mm.Body)
}

func TestTransformObjectMessageBodyIsOpaque(t *testing.T) {
	src := &command.ActiveMQObjectMessage{Content: []byte{0xDE, 0xAD}}
	out, err := TransformTo(src, command.TypeActiveMQObjectMessage)
	require.NoError(t, err)
	om := out.(*command.ActiveMQObjectMessage)
	require.Equal(t, src.Content, om.Content)
}
