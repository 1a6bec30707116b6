// Package ids implements the hierarchical identifier value objects the
// OpenWire protocol uses to name connections, sessions, producers,
// consumers, and messages.
package ids

import "fmt"

// ConnectionId names one client connection. The client generates the value
// for the connection it is opening.
type ConnectionId struct {
	Value string
}

func (c ConnectionId) String() string { return c.Value }

// SessionId names a session scoped to a connection.
type SessionId struct {
	ConnectionId ConnectionId
	Value        int64
}

func (s SessionId) String() string {
	return fmt.Sprintf("%s:%d", s.ConnectionId.Value, s.Value)
}

// ProducerId names a producer scoped to a session.
type ProducerId struct {
	SessionId SessionId
	Value     int64
}

func (p ProducerId) String() string {
	return fmt.Sprintf("%s:%d", p.SessionId.String(), p.Value)
}

// ConsumerId names a consumer scoped to a session.
type ConsumerId struct {
	SessionId SessionId
	Value     int64
}

func (c ConsumerId) String() string {
	return fmt.Sprintf("%s:%d", c.SessionId.String(), c.Value)
}

// MessageId names a message. Its string form is "<producerId>:<sequence>"
// per spec §3; BrokerSeqId carries the broker-assigned sequence number and
// is not part of the string form or of identity (see Equal).
type MessageId struct {
	ProducerId    ProducerId
	ProducerSeqId int64
	BrokerSeqId   int64
}

func (m MessageId) String() string {
	return fmt.Sprintf("%s:%d", m.ProducerId.String(), m.ProducerSeqId)
}

// Equal reports whether two MessageIds name the same message: identity is
// the producer id plus the producer-local sequence number, not the
// broker-assigned sequence id.
func (m MessageId) Equal(other MessageId) bool {
	return m.ProducerId == other.ProducerId && m.ProducerSeqId == other.ProducerSeqId
}

// NewConnectionId returns a ConnectionId built from a pre-generated unique
// value (spec §4.3: the client generates this locally, typically from a
// UUID or a host-unique counter).
func NewConnectionId(value string) ConnectionId {
	return ConnectionId{Value: value}
}
