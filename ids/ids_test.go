package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageIdStringForm(t *testing.T) {
	conn := NewConnectionId("conn-1")
	sess := SessionId{ConnectionId: conn, Value: 1}
	prod := ProducerId{SessionId: sess, Value: 2}
	msg := MessageId{ProducerId: prod, ProducerSeqId: 17}

	require.Equal(t, "conn-1:1:2:17", msg.String())
}

func TestMessageIdEqualityIgnoresBrokerSeqId(t *testing.T) {
	conn := NewConnectionId("conn-1")
	sess := SessionId{ConnectionId: conn, Value: 1}
	prod := ProducerId{SessionId: sess, Value: 2}

	a := MessageId{ProducerId: prod, ProducerSeqId: 5, BrokerSeqId: 100}
	b := MessageId{ProducerId: prod, ProducerSeqId: 5, BrokerSeqId: 200}
	require.True(t, a.Equal(b))

	c := MessageId{ProducerId: prod, ProducerSeqId: 6, BrokerSeqId: 100}
	require.False(t, a.Equal(c))
}

func TestDestinationOptionsParsing(t *testing.T) {
	d := NewDestination(KindQueue, "orders?consumer.prefetchSize=10&foo=bar")
	require.Equal(t, "orders", d.Name)
	require.Equal(t, "10", d.Options["consumer.prefetchSize"])
	require.Equal(t, "bar", d.Options["foo"])
}

func TestDestinationNoOptions(t *testing.T) {
	d := NewDestination(KindTopic, "events")
	require.Equal(t, "events", d.Name)
	require.Nil(t, d.Options)
	require.Equal(t, "events", d.PhysicalName())
}

func TestParseLegacyDestination(t *testing.T) {
	d, err := ParseLegacyDestination("/queue/orders")
	require.NoError(t, err)
	require.Equal(t, KindQueue, d.Kind)
	require.Equal(t, "orders", d.Name)

	d, err = ParseLegacyDestination("/temp-topic/abc")
	require.NoError(t, err)
	require.Equal(t, KindTempTopic, d.Kind)
	require.True(t, d.IsTemporary())
	require.True(t, d.IsTopic())
}

func TestParseLegacyDestinationRemoteTempPrefixes(t *testing.T) {
	d, err := ParseLegacyDestination("/remote-temp-queue/ID:broker-1-2-3")
	require.NoError(t, err)
	require.Equal(t, KindTempQueue, d.Kind)
	require.Equal(t, "ID:broker-1-2-3", d.Name)

	d, err = ParseLegacyDestination("/remote-temp-topic/ID:broker-4-5-6")
	require.NoError(t, err)
	require.Equal(t, KindTempTopic, d.Kind)
	require.True(t, d.IsTemporary())
}

func TestParseLegacyDestinationRejectsUnknownPrefix(t *testing.T) {
	_, err := ParseLegacyDestination("nope")
	require.Error(t, err)
}
