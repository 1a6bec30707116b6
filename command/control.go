package command

import "github.com/redbco/openwire-go/ids"

// WireFormatInfo negotiates the wire-format options both peers will use for
// the rest of the connection (spec §4.2 WireFormatNegotiator).
type WireFormatInfo struct {
	BaseCommand
	Magic                []byte
	Version               int32
	StackTraceEnabled     bool
	TcpNoDelayEnabled     bool
	SizePrefixDisabled    bool
	TightEncodingEnabled  bool
	MaxInactivityDuration int64
	MaxFrameSize          int64
	// CacheEnabled is always written false by this client and the returned
	// value is always ignored: this client never enables the broker's
	// marshaling cache optimization, matching the original's deliberate
	// truncation of that feature.
	CacheEnabled bool
}

func (c *WireFormatInfo) DataStructureType() DataStructureType { return TypeWireFormatInfo }

// OpenWireMagic is the fixed 8-byte preamble every WireFormatInfo carries.
var OpenWireMagic = []byte("ActiveMQ")

// BrokerInfo is sent by the broker immediately after the wire-format
// handshake, describing itself and (optionally) peers it knows about.
type BrokerInfo struct {
	BaseCommand
	BrokerId           string
	BrokerURL          string
	PeerBrokerInfos    []*BrokerInfo
	BrokerName         string
	SlaveBroker        bool
	MasterBroker       bool
	FaultTolerantConfiguration bool
	NetworkConnection  bool
	DuplexConnection   bool
	BrokerUploadUrl    string
	NetworkProperties  string
}

func (c *BrokerInfo) DataStructureType() DataStructureType { return TypeBrokerInfo }

// KeepAliveInfo is the idle-connection heartbeat the InactivityMonitor
// sends and expects (spec §4.2).
type KeepAliveInfo struct {
	BaseCommand
}

func (c *KeepAliveInfo) DataStructureType() DataStructureType { return TypeKeepAliveInfo }

// ShutdownInfo tells the peer the connection is closing cleanly.
type ShutdownInfo struct {
	BaseCommand
}

func (c *ShutdownInfo) DataStructureType() DataStructureType { return TypeShutdownInfo }

// ConnectionError is sent by the broker when a connection-level fault
// occurs that does not correlate to any single in-flight request.
type ConnectionError struct {
	BaseCommand
	Message      string
	ExceptionClass string
	ConnectionId ids.ConnectionId
}

func (c *ConnectionError) DataStructureType() DataStructureType { return TypeConnectionError }

// ConnectionControl lets the broker ask the client to stop/suspend/resume
// sending, or to fail over to a different broker URL.
type ConnectionControl struct {
	BaseCommand
	Close            bool
	Exit             bool
	FaultTolerant    bool
	ResumeConnection bool
	Suspend          bool
	Resume           bool
	ConnectedBrokers string
	ReconnectTo      string
	RebalanceConnection bool
}

func (c *ConnectionControl) DataStructureType() DataStructureType { return TypeConnectionControl }

// ConsumerControl adjusts a live consumer's prefetch or pause state.
type ConsumerControl struct {
	BaseCommand
	Destination   *ActiveMQDestination
	Close         bool
	ConsumerId    ids.ConsumerId
	Prefetch      int32
	Flush         bool
	Start         bool
	Stop          bool
}

func (c *ConsumerControl) DataStructureType() DataStructureType { return TypeConsumerControl }

// ControlCommand is a generic named control signal exchanged between peers.
type ControlCommand struct {
	BaseCommand
	Command string
}

func (c *ControlCommand) DataStructureType() DataStructureType { return TypeControlCommand }

// FlushCommand asks the peer to flush any buffered output immediately.
type FlushCommand struct {
	BaseCommand
}

func (c *FlushCommand) DataStructureType() DataStructureType { return TypeFlushCommand }

// ReplayCommand asks the broker to resend commands in [FirstNakNumber,
// LastNakNumber], used by network bridges recovering from a gap.
type ReplayCommand struct {
	BaseCommand
	FirstNakNumber int32
	LastNakNumber  int32
}

func (c *ReplayCommand) DataStructureType() DataStructureType { return TypeReplayCommand }

// DiscoveryEvent announces a broker discovered via a multicast/zeroconf
// discovery agent. This client never originates or acts on these — it is
// accepted only so the router does not fail on a broker that is part of a
// network-of-brokers (spec Non-goals: broker-to-broker networking).
type DiscoveryEvent struct {
	BaseCommand
	ServiceName string
	BrokerName  string
}

func (c *DiscoveryEvent) DataStructureType() DataStructureType { return TypeDiscoveryEvent }

// NetworkBridgeFilter restricts which destinations a network bridge
// forwards; opaque to this client beyond round-tripping the bytes.
type NetworkBridgeFilter struct {
	BaseCommand
	NetworkTTL          int32
	MessageTTL          int32
	ConsumerTTL         int32
	NetworkBrokerId     string
}

func (c *NetworkBridgeFilter) DataStructureType() DataStructureType { return TypeNetworkBridgeFilter }

// PartialCommand carries one fragment of a command whose encoded size
// exceeded a single frame; PartialLastCommand (same Go type, different
// DataStructureType at the registry level) marks the final fragment.
type PartialCommand struct {
	BaseCommand
	Data []byte
}

func (c *PartialCommand) DataStructureType() DataStructureType { return TypePartialCommand }

// Response correlates a reply to the request CommandID named by
// CorrelationId.
type Response struct {
	BaseCommand
	CorrelationId int32
}

func (c *Response) DataStructureType() DataStructureType { return TypeResponse }

// ExceptionResponse is a Response carrying a broker-side failure instead of
// a result (spec §7 KindBroker).
type ExceptionResponse struct {
	Response
	ExceptionClass string
	Message        string
}

func (c *ExceptionResponse) DataStructureType() DataStructureType { return TypeExceptionResponse }
