// Package command defines the OpenWire command set: the data-structure
// type byte values, the Command interface every wire command implements,
// and the CommandVisitor dispatch interface the Connection Kernel uses to
// route inbound commands (spec §3, §4.6).
package command

// DataStructureType identifies the concrete command a frame carries. Values
// are the public OpenWire wire constants, stable across broker versions.
type DataStructureType byte

const (
	TypeWireFormatInfo               DataStructureType = 1
	TypeBrokerInfo                   DataStructureType = 2
	TypeConnectionInfo                DataStructureType = 3
	TypeConsumerInfo                 DataStructureType = 4
	TypeSessionInfo                  DataStructureType = 5
	TypeProducerInfo                 DataStructureType = 6
	TypeTransactionInfo              DataStructureType = 7
	TypeDestinationInfo              DataStructureType = 8
	TypeRemoveSubscriptionInfo       DataStructureType = 9
	TypeKeepAliveInfo                DataStructureType = 10
	TypeShutdownInfo                 DataStructureType = 11
	TypeRemoveInfo                   DataStructureType = 12
	TypeControlCommand               DataStructureType = 14
	TypeFlushCommand                 DataStructureType = 15
	TypeConnectionError              DataStructureType = 16
	TypeConsumerControl              DataStructureType = 17
	TypeConnectionControl            DataStructureType = 18
	TypeProducerAck                  DataStructureType = 19
	TypeMessagePull                  DataStructureType = 20
	TypeMessageDispatch              DataStructureType = 21
	TypeMessageAck                   DataStructureType = 22
	TypeActiveMQMessage              DataStructureType = 23
	TypeActiveMQBytesMessage         DataStructureType = 24
	TypeActiveMQMapMessage           DataStructureType = 25
	TypeActiveMQObjectMessage        DataStructureType = 26
	TypeActiveMQStreamMessage        DataStructureType = 27
	TypeActiveMQTextMessage          DataStructureType = 28
	TypeResponse                     DataStructureType = 30
	TypeExceptionResponse            DataStructureType = 31
	TypeDiscoveryEvent               DataStructureType = 40
	TypePartialCommand               DataStructureType = 60
	TypePartialLastCommand           DataStructureType = 61
	TypeReplayCommand                DataStructureType = 65
	TypeMessageDispatchNotification  DataStructureType = 90
	TypeNetworkBridgeFilter          DataStructureType = 91
)

// Command is implemented by every OpenWire wire command.
type Command interface {
	DataStructureType() DataStructureType
	// CommandID is the request-correlation id assigned by the sender.
	// 0 for commands that never expect (or are not) a response.
	GetCommandID() int32
	SetCommandID(id int32)
	// IsResponseRequired reports whether the sender wants a Response frame
	// correlated back to CommandID.
	IsResponseRequired() bool
	SetResponseRequired(v bool)
}

// BaseCommand is embedded by every concrete Command implementation; it
// supplies the CommandID/ResponseRequired bookkeeping so each command type
// only needs to implement DataStructureType().
type BaseCommand struct {
	CommandID        int32
	ResponseRequired bool
}

func (b *BaseCommand) GetCommandID() int32        { return b.CommandID }
func (b *BaseCommand) SetCommandID(id int32)       { b.CommandID = id }
func (b *BaseCommand) IsResponseRequired() bool    { return b.ResponseRequired }
func (b *BaseCommand) SetResponseRequired(v bool)  { b.ResponseRequired = v }
