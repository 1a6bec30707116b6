package command

import "github.com/redbco/openwire-go/wireerr"

// Visitor is the command-router interface: the Connection Kernel
// implements it once and Dispatch routes every inbound Command to the
// matching method, replacing a hand-rolled type-switch with a compiler-
// checked visitor (spec §4.6).
type Visitor interface {
	VisitWireFormatInfo(*WireFormatInfo) error
	VisitBrokerInfo(*BrokerInfo) error
	VisitConnectionInfo(*ConnectionInfo) error
	VisitSessionInfo(*SessionInfo) error
	VisitConsumerInfo(*ConsumerInfo) error
	VisitProducerInfo(*ProducerInfo) error
	VisitTransactionInfo(*TransactionInfo) error
	VisitDestinationInfo(*DestinationInfo) error
	VisitRemoveSubscriptionInfo(*RemoveSubscriptionInfo) error
	VisitKeepAliveInfo(*KeepAliveInfo) error
	VisitShutdownInfo(*ShutdownInfo) error
	VisitRemoveInfo(*RemoveInfo) error
	VisitControlCommand(*ControlCommand) error
	VisitFlushCommand(*FlushCommand) error
	VisitConnectionError(*ConnectionError) error
	VisitConsumerControl(*ConsumerControl) error
	VisitConnectionControl(*ConnectionControl) error
	VisitProducerAck(*ProducerAck) error
	VisitMessagePull(*MessagePull) error
	VisitMessageDispatch(*MessageDispatch) error
	VisitMessageAck(*MessageAck) error
	VisitMessage(*Message) error
	VisitBytesMessage(*ActiveMQBytesMessage) error
	VisitMapMessage(*ActiveMQMapMessage) error
	VisitObjectMessage(*ActiveMQObjectMessage) error
	VisitStreamMessage(*ActiveMQStreamMessage) error
	VisitTextMessage(*ActiveMQTextMessage) error
	VisitResponse(*Response) error
	VisitExceptionResponse(*ExceptionResponse) error
	VisitDiscoveryEvent(*DiscoveryEvent) error
	VisitNetworkBridgeFilter(*NetworkBridgeFilter) error
	VisitPartialCommand(*PartialCommand) error
	VisitReplayCommand(*ReplayCommand) error
	VisitMessageDispatchNotification(*MessageDispatchNotification) error
}

// DefaultVisitor implements Visitor with every method a no-op returning
// nil, so a kernel can embed it and only override the commands it cares
// about (the same pattern as the original's CommandVisitorAdapter).
type DefaultVisitor struct{}

func (DefaultVisitor) VisitWireFormatInfo(*WireFormatInfo) error             { return nil }
func (DefaultVisitor) VisitBrokerInfo(*BrokerInfo) error                    { return nil }
func (DefaultVisitor) VisitConnectionInfo(*ConnectionInfo) error            { return nil }
func (DefaultVisitor) VisitSessionInfo(*SessionInfo) error                  { return nil }
func (DefaultVisitor) VisitConsumerInfo(*ConsumerInfo) error                { return nil }
func (DefaultVisitor) VisitProducerInfo(*ProducerInfo) error                { return nil }
func (DefaultVisitor) VisitTransactionInfo(*TransactionInfo) error          { return nil }
func (DefaultVisitor) VisitDestinationInfo(*DestinationInfo) error          { return nil }
func (DefaultVisitor) VisitRemoveSubscriptionInfo(*RemoveSubscriptionInfo) error { return nil }
func (DefaultVisitor) VisitKeepAliveInfo(*KeepAliveInfo) error              { return nil }
func (DefaultVisitor) VisitShutdownInfo(*ShutdownInfo) error                { return nil }
func (DefaultVisitor) VisitRemoveInfo(*RemoveInfo) error                    { return nil }
func (DefaultVisitor) VisitControlCommand(*ControlCommand) error           { return nil }
func (DefaultVisitor) VisitFlushCommand(*FlushCommand) error                { return nil }
func (DefaultVisitor) VisitConnectionError(*ConnectionError) error          { return nil }
func (DefaultVisitor) VisitConsumerControl(*ConsumerControl) error          { return nil }
func (DefaultVisitor) VisitConnectionControl(*ConnectionControl) error      { return nil }
func (DefaultVisitor) VisitProducerAck(*ProducerAck) error                  { return nil }
func (DefaultVisitor) VisitMessagePull(*MessagePull) error                  { return nil }
func (DefaultVisitor) VisitMessageDispatch(*MessageDispatch) error          { return nil }
func (DefaultVisitor) VisitMessageAck(*MessageAck) error                    { return nil }
func (DefaultVisitor) VisitMessage(*Message) error                         { return nil }
func (DefaultVisitor) VisitBytesMessage(*ActiveMQBytesMessage) error        { return nil }
func (DefaultVisitor) VisitMapMessage(*ActiveMQMapMessage) error            { return nil }
func (DefaultVisitor) VisitObjectMessage(*ActiveMQObjectMessage) error      { return nil }
func (DefaultVisitor) VisitStreamMessage(*ActiveMQStreamMessage) error      { return nil }
func (DefaultVisitor) VisitTextMessage(*ActiveMQTextMessage) error          { return nil }
func (DefaultVisitor) VisitResponse(*Response) error                       { return nil }
func (DefaultVisitor) VisitExceptionResponse(*ExceptionResponse) error      { return nil }
func (DefaultVisitor) VisitDiscoveryEvent(*DiscoveryEvent) error            { return nil }
func (DefaultVisitor) VisitNetworkBridgeFilter(*NetworkBridgeFilter) error  { return nil }
func (DefaultVisitor) VisitPartialCommand(*PartialCommand) error           { return nil }
func (DefaultVisitor) VisitReplayCommand(*ReplayCommand) error             { return nil }
func (DefaultVisitor) VisitMessageDispatchNotification(*MessageDispatchNotification) error {
	return nil
}

// Dispatch routes cmd to the matching Visitor method. It is the single
// place that knows the mapping from concrete Go type to visitor method,
// so adding a command type means adding one case here and one method to
// Visitor — nowhere else.
func Dispatch(v Visitor, cmd Command) error {
	switch c := cmd.(type) {
	case *WireFormatInfo:
		return v.VisitWireFormatInfo(c)
	case *BrokerInfo:
		return v.VisitBrokerInfo(c)
	case *ConnectionInfo:
		return v.VisitConnectionInfo(c)
	case *SessionInfo:
		return v.VisitSessionInfo(c)
	case *ConsumerInfo:
		return v.VisitConsumerInfo(c)
	case *ProducerInfo:
		return v.VisitProducerInfo(c)
	case *TransactionInfo:
		return v.VisitTransactionInfo(c)
	case *DestinationInfo:
		return v.VisitDestinationInfo(c)
	case *RemoveSubscriptionInfo:
		return v.VisitRemoveSubscriptionInfo(c)
	case *KeepAliveInfo:
		return v.VisitKeepAliveInfo(c)
	case *ShutdownInfo:
		return v.VisitShutdownInfo(c)
	case *RemoveInfo:
		return v.VisitRemoveInfo(c)
	case *ControlCommand:
		return v.VisitControlCommand(c)
	case *FlushCommand:
		return v.VisitFlushCommand(c)
	case *ConnectionError:
		return v.VisitConnectionError(c)
	case *ConsumerControl:
		return v.VisitConsumerControl(c)
	case *ConnectionControl:
		return v.VisitConnectionControl(c)
	case *ProducerAck:
		return v.VisitProducerAck(c)
	case *MessagePull:
		return v.VisitMessagePull(c)
	case *MessageDispatch:
		return v.VisitMessageDispatch(c)
	case *MessageAck:
		return v.VisitMessageAck(c)
	case *ActiveMQBytesMessage:
		return v.VisitBytesMessage(c)
	case *ActiveMQMapMessage:
		return v.VisitMapMessage(c)
	case *ActiveMQObjectMessage:
		return v.VisitObjectMessage(c)
	case *ActiveMQStreamMessage:
		return v.VisitStreamMessage(c)
	case *ActiveMQTextMessage:
		return v.VisitTextMessage(c)
	case *Message:
		return v.VisitMessage(c)
	case *Response:
		return v.VisitResponse(c)
	case *ExceptionResponse:
		return v.VisitExceptionResponse(c)
	case *DiscoveryEvent:
		return v.VisitDiscoveryEvent(c)
	case *NetworkBridgeFilter:
		return v.VisitNetworkBridgeFilter(c)
	case *PartialCommand:
		return v.VisitPartialCommand(c)
	case *ReplayCommand:
		return v.VisitReplayCommand(c)
	case *MessageDispatchNotification:
		return v.VisitMessageDispatchNotification(c)
	default:
		return wireerr.Protocol(nil, "command: no visitor route for %T", cmd)
	}
}
