package command

import "github.com/redbco/openwire-go/ids"

// ConnectionInfo opens a connection: the first command a client sends
// after the wire-format handshake completes (spec §4.3).
type ConnectionInfo struct {
	BaseCommand
	ConnectionId    ids.ConnectionId
	UserName        string
	Password        string
	ClientId        string
	ClientIp        string
	Manageable      bool
	FailoverReconnect bool
}

func (c *ConnectionInfo) DataStructureType() DataStructureType { return TypeConnectionInfo }

// SessionInfo opens a session under an existing connection.
type SessionInfo struct {
	BaseCommand
	SessionId ids.SessionId
}

func (c *SessionInfo) DataStructureType() DataStructureType { return TypeSessionInfo }

// ConsumerInfo subscribes a consumer to a destination.
type ConsumerInfo struct {
	BaseCommand
	ConsumerId            ids.ConsumerId
	Destination           *ActiveMQDestination
	Selector              string
	SubscriptionName      string
	NoLocal               bool
	Exclusive             bool
	Retroactive           bool
	Priority              byte
	PrefetchSize          int32
	MaximumPendingMessageLimit int32
	Browser               bool
	DispatchAsync         bool
	AdditionalPredicate   map[string]any
}

func (c *ConsumerInfo) DataStructureType() DataStructureType { return TypeConsumerInfo }

// ProducerInfo declares a producer on a session, optionally bound to a
// fixed destination.
type ProducerInfo struct {
	BaseCommand
	ProducerId         ids.ProducerId
	Destination        *ActiveMQDestination
	DispatchAsync      bool
	WindowSize         int32
}

func (c *ProducerInfo) DataStructureType() DataStructureType { return TypeProducerInfo }

// ActiveMQDestination is the wire form of ids.Destination: a tagged,
// reflectable struct so the generic command codec can marshal it as a
// nested field (ids.Destination itself carries a map[string]string which
// the codec does not special-case).
type ActiveMQDestination struct {
	Kind    byte
	Name    string
	Options map[string]any
}

// ToDestination converts the wire form to the ids package's value type.
func (d *ActiveMQDestination) ToDestination() ids.Destination {
	if d == nil {
		return ids.Destination{}
	}
	opts := make(map[string]string, len(d.Options))
	for k, v := range d.Options {
		if s, ok := v.(string); ok {
			opts[k] = s
		}
	}
	return ids.Destination{Kind: ids.DestinationKind(d.Kind), Name: d.Name, Options: opts}
}

// FromDestination builds the wire form from an ids.Destination.
func FromDestination(d ids.Destination) *ActiveMQDestination {
	opts := make(map[string]any, len(d.Options))
	for k, v := range d.Options {
		opts[k] = v
	}
	if len(opts) == 0 {
		opts = nil
	}
	return &ActiveMQDestination{Kind: byte(d.Kind), Name: d.Name, Options: opts}
}

// DestinationInfo creates, or removes, a (possibly temporary) destination.
type DestinationInfo struct {
	BaseCommand
	ConnectionId ids.ConnectionId
	Destination  *ActiveMQDestination
	OperationType byte // 0 = add, 1 = remove
	Timeout      int64
}

func (c *DestinationInfo) DataStructureType() DataStructureType { return TypeDestinationInfo }

// Object kinds a RemoveInfo can name.
const (
	ObjectConnection byte = iota
	ObjectSession
	ObjectProducer
	ObjectConsumer
)

// RemoveInfo removes a previously registered object (consumer, producer,
// session, or connection). ObjectId carries that object's String() form
// rather than the original's polymorphic id structure — the concrete id
// type is recovered from ObjectKind by the caller, which always knows
// which registry it is removing from.
type RemoveInfo struct {
	BaseCommand
	ObjectKind byte
	ObjectId   string
	// LastDeliveredSequenceId lets the broker redeliver anything the
	// consumer buffered locally but never acked, per spec §4.4.
	LastDeliveredSequenceId int64
}

func (c *RemoveInfo) DataStructureType() DataStructureType { return TypeRemoveInfo }

// RemoveSubscriptionInfo removes a durable topic subscription by name.
type RemoveSubscriptionInfo struct {
	BaseCommand
	ConnectionId     ids.ConnectionId
	ClientId         string
	SubscriptionName string
}

func (c *RemoveSubscriptionInfo) DataStructureType() DataStructureType {
	return TypeRemoveSubscriptionInfo
}
