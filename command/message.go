package command

import "github.com/redbco/openwire-go/ids"

// Message is the common header shared by every ActiveMQ*Message wire type
// (spec §3 data-plane commands). Concrete message types embed it and add
// their own body representation.
type Message struct {
	BaseCommand
	MessageId              ids.MessageId
	Destination             *ActiveMQDestination
	OriginalDestination     *ActiveMQDestination
	TransactionId           *TransactionId
	OriginalTransactionId   *TransactionId
	GroupID                 string
	GroupSequence           int32
	CorrelationId           string
	Persistent              bool
	Expiration              int64
	Priority                byte
	ReplyTo                 *ActiveMQDestination
	Timestamp               int64
	Type                    string
	Properties              map[string]any
	RedeliveryCounter       int32
	Compressed              bool
	// TargetConsumerId, when non-zero, routes delivery to one specific
	// consumer instead of whichever consumer the broker's dispatch policy
	// selects (used for queue browsers and exclusive consumers).
	TargetConsumerId ids.ConsumerId
}

func (m *Message) DataStructureType() DataStructureType { return TypeActiveMQMessage }

// ActiveMQTextMessage carries a single UTF string body.
type ActiveMQTextMessage struct {
	Message
	Text string
}

func (m *ActiveMQTextMessage) DataStructureType() DataStructureType { return TypeActiveMQTextMessage }

// ActiveMQBytesMessage carries an opaque byte-array body.
type ActiveMQBytesMessage struct {
	Message
	Content []byte
}

func (m *ActiveMQBytesMessage) DataStructureType() DataStructureType {
	return TypeActiveMQBytesMessage
}

// ActiveMQMapMessage carries a primitive-map body (string keys to
// primitive values, spec §3).
type ActiveMQMapMessage struct {
	Message
	Body map[string]any
}

func (m *ActiveMQMapMessage) DataStructureType() DataStructureType { return TypeActiveMQMapMessage }

// ActiveMQStreamMessage carries a sequential list of primitive values,
// pre-encoded with WritePrimitiveList into Content so the generic command
// codec can treat it as an opaque byte field; wireformat.ReadPrimitiveList
// decodes the list on demand.
type ActiveMQStreamMessage struct {
	Message
	Content []byte
}

func (m *ActiveMQStreamMessage) DataStructureType() DataStructureType {
	return TypeActiveMQStreamMessage
}

// ActiveMQObjectMessage carries a serialized-object body. This client never
// interprets the serialized form (spec Non-goals: no Java object graph
// support) — Content is opaque bytes handed back to the caller untouched.
type ActiveMQObjectMessage struct {
	Message
	Content []byte
}

func (m *ActiveMQObjectMessage) DataStructureType() DataStructureType {
	return TypeActiveMQObjectMessage
}

// MessageAck acknowledges the contiguous range FirstMessageId..LastMessageId
// (MessageCount messages; both ids are the same message for a single-message
// ack), with AckType saying how (spec §4.4 ack modes).
type MessageAck struct {
	BaseCommand
	AckType         byte
	ConsumerId      ids.ConsumerId
	Destination     *ActiveMQDestination
	FirstMessageId  *MessageIdWire
	LastMessageId   *MessageIdWire
	MessageCount    int32
	TransactionId   *TransactionId
	// PoisonCause carries broker-supplied diagnostic data for a poison-ack
	// (AckType == poison); this client treats it as an opaque byte blob and
	// never populates it on outbound acks.
	PoisonCause []byte
}

func (m *MessageAck) DataStructureType() DataStructureType { return TypeMessageAck }

// Ack type values (spec §6), matching the wire values ActiveMQ brokers expect.
const (
	AckTypeDelivered   byte = 0
	AckTypePoison      byte = 1
	AckTypeStandard    byte = 2
	AckTypeRedelivered byte = 3
	AckTypeIndividual  byte = 4
)

// MessageIdWire is the nested-struct-safe wire form of ids.MessageId used
// where a MessageId must be an optional (nullable) field: ids.MessageId
// itself is a required value-struct everywhere else, but MessageAck's
// FirstMessageId/LastMessageId are pointers so either may be absent on the wire.
type MessageIdWire struct {
	ProducerId    string
	ProducerSeqId int64
	BrokerSeqId   int64
}

func ToMessageIdWire(id ids.MessageId) *MessageIdWire {
	return &MessageIdWire{
		ProducerId:    id.ProducerId.String(),
		ProducerSeqId: id.ProducerSeqId,
		BrokerSeqId:   id.BrokerSeqId,
	}
}

// MessageDispatch delivers one message to a consumer. MessagePayload is a
// complete encoded command frame (type byte + marshaled body) for whichever
// concrete ActiveMQ*Message subtype the broker is delivering; Decode
// recovers it via the command registry (see registry.go).
type MessageDispatch struct {
	BaseCommand
	ConsumerId        ids.ConsumerId
	Destination       *ActiveMQDestination
	MessagePayload    []byte
	RedeliveryCounter int32
}

func (m *MessageDispatch) DataStructureType() DataStructureType { return TypeMessageDispatch }

// MessageDispatchNotification tells the broker a dispatch already happened
// via a network bridge, without requiring the message body again.
type MessageDispatchNotification struct {
	BaseCommand
	ConsumerId  ids.ConsumerId
	Destination *ActiveMQDestination
	MessageId   MessageIdWire
	DeliverySequenceId int64
}

func (m *MessageDispatchNotification) DataStructureType() DataStructureType {
	return TypeMessageDispatchNotification
}

// MessagePull requests the next message for a consumer in pull (zero
// prefetch) mode, per spec §4.4.
type MessagePull struct {
	BaseCommand
	ConsumerId  ids.ConsumerId
	Destination *ActiveMQDestination
	Timeout     int64
}

func (m *MessagePull) DataStructureType() DataStructureType { return TypeMessagePull }

// ProducerAck flow-controls a producer: the broker returns one for every
// send once Size bytes of the producer's window have been freed (spec §4.4
// ProducerKernel flow control).
type ProducerAck struct {
	BaseCommand
	ProducerId ids.ProducerId
	Size       int32
}

func (m *ProducerAck) DataStructureType() DataStructureType { return TypeProducerAck }
