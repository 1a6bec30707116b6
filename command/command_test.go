package command

import (
	"testing"

	"github.com/redbco/openwire-go/ids"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripTight(t *testing.T) {
	src := &ConnectionInfo{
		BaseCommand: BaseCommand{CommandID: 1, ResponseRequired: true},
		ConnectionId: ids.NewConnectionId("conn-1"),
		UserName:     "admin",
		ClientId:     "client-a",
	}
	dataType, body, err := Encode(src, true)
	require.NoError(t, err)
	require.Equal(t, byte(TypeConnectionInfo), dataType)

	decoded, err := Decode(dataType, body, true)
	require.NoError(t, err)
	got, ok := decoded.(*ConnectionInfo)
	require.True(t, ok)
	require.Equal(t, src, got)
}

func TestEncodeDecodeRoundTripLoose(t *testing.T) {
	src := &ActiveMQTextMessage{
		Message: Message{
			BaseCommand: BaseCommand{CommandID: 9},
			Destination: FromDestination(ids.NewDestination(ids.KindQueue, "orders")),
			Priority:    4,
		},
		Text: "hello",
	}
	dataType, body, err := Encode(src, false)
	require.NoError(t, err)
	require.Equal(t, byte(TypeActiveMQTextMessage), dataType)

	decoded, err := Decode(dataType, body, false)
	require.NoError(t, err)
	got, ok := decoded.(*ActiveMQTextMessage)
	require.True(t, ok)
	require.Equal(t, src, got)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode(255, nil, true)
	require.Error(t, err)
}

type recordingVisitor struct {
	DefaultVisitor
	sawText bool
}

func (v *recordingVisitor) VisitTextMessage(*ActiveMQTextMessage) error {
	v.sawText = true
	return nil
}

func TestDispatchRoutesToVisitorMethod(t *testing.T) {
	v := &recordingVisitor{}
	err := Dispatch(v, &ActiveMQTextMessage{Text: "hi"})
	require.NoError(t, err)
	require.True(t, v.sawText)
}

func TestDispatchUnknownTypeErrors(t *testing.T) {
	v := &recordingVisitor{}
	err := Dispatch(v, struct{ Command }{})
	require.Error(t, err)
}
