package command

import (
	"github.com/redbco/openwire-go/wireerr"
	"github.com/redbco/openwire-go/wireformat"
)

// factory constructs a zero-valued concrete Command for a DataStructureType,
// ready to be passed to wireformat.UnmarshalCommand.
type factory func() Command

var registry = map[DataStructureType]factory{
	TypeWireFormatInfo:              func() Command { return &WireFormatInfo{} },
	TypeBrokerInfo:                  func() Command { return &BrokerInfo{} },
	TypeConnectionInfo:              func() Command { return &ConnectionInfo{} },
	TypeSessionInfo:                 func() Command { return &SessionInfo{} },
	TypeConsumerInfo:                func() Command { return &ConsumerInfo{} },
	TypeProducerInfo:                func() Command { return &ProducerInfo{} },
	TypeTransactionInfo:             func() Command { return &TransactionInfo{} },
	TypeDestinationInfo:             func() Command { return &DestinationInfo{} },
	TypeRemoveSubscriptionInfo:      func() Command { return &RemoveSubscriptionInfo{} },
	TypeKeepAliveInfo:               func() Command { return &KeepAliveInfo{} },
	TypeShutdownInfo:                func() Command { return &ShutdownInfo{} },
	TypeRemoveInfo:                  func() Command { return &RemoveInfo{} },
	TypeControlCommand:              func() Command { return &ControlCommand{} },
	TypeFlushCommand:                func() Command { return &FlushCommand{} },
	TypeConnectionError:             func() Command { return &ConnectionError{} },
	TypeConsumerControl:             func() Command { return &ConsumerControl{} },
	TypeConnectionControl:           func() Command { return &ConnectionControl{} },
	TypeProducerAck:                 func() Command { return &ProducerAck{} },
	TypeMessagePull:                 func() Command { return &MessagePull{} },
	TypeMessageDispatch:             func() Command { return &MessageDispatch{} },
	TypeMessageAck:                  func() Command { return &MessageAck{} },
	TypeActiveMQMessage:             func() Command { return &Message{} },
	TypeActiveMQBytesMessage:        func() Command { return &ActiveMQBytesMessage{} },
	TypeActiveMQMapMessage:          func() Command { return &ActiveMQMapMessage{} },
	TypeActiveMQObjectMessage:       func() Command { return &ActiveMQObjectMessage{} },
	TypeActiveMQStreamMessage:       func() Command { return &ActiveMQStreamMessage{} },
	TypeActiveMQTextMessage:         func() Command { return &ActiveMQTextMessage{} },
	TypeResponse:                    func() Command { return &Response{} },
	TypeExceptionResponse:           func() Command { return &ExceptionResponse{} },
	TypeDiscoveryEvent:              func() Command { return &DiscoveryEvent{} },
	TypePartialCommand:              func() Command { return &PartialCommand{} },
	TypePartialLastCommand:          func() Command { return &PartialCommand{} },
	TypeReplayCommand:               func() Command { return &ReplayCommand{} },
	TypeMessageDispatchNotification: func() Command { return &MessageDispatchNotification{} },
	TypeNetworkBridgeFilter:         func() Command { return &NetworkBridgeFilter{} },
}

// New constructs a zero-valued Command for the given wire type, or an error
// if the type is not one this client understands.
func New(t DataStructureType) (Command, error) {
	f, ok := registry[t]
	if !ok {
		return nil, wireerr.Decode(nil, "command: unknown data structure type %d", t)
	}
	return f(), nil
}

// Decode unmarshals a complete frame body (the DataStructureType byte plus
// the command body that follows it) into the concrete Command it names.
func Decode(dataType byte, body []byte, tight bool) (Command, error) {
	cmd, err := New(DataStructureType(dataType))
	if err != nil {
		return nil, err
	}
	r := wireformat.NewReader(body)
	if tight {
		err = wireformat.UnmarshalCommand(r, cmd)
	} else {
		err = wireformat.UnmarshalCommandLoose(r, cmd)
	}
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

// Encode marshals a Command into a type byte plus its body, ready to be
// passed to wireformat.WriteFrame.
func Encode(cmd Command, tight bool) (dataType byte, body []byte, err error) {
	w := wireformat.NewWriter()
	if tight {
		err = wireformat.MarshalCommand(w, cmd)
	} else {
		err = wireformat.MarshalCommandLoose(w, cmd)
	}
	if err != nil {
		return 0, nil, err
	}
	return byte(cmd.DataStructureType()), w.Bytes(), nil
}
