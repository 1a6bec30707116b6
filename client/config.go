package client

import (
	"time"

	"github.com/redbco/openwire-go/brokerurl"
)

// Config configures a ConnectionKernel. NewConfig seeds it from a parsed
// broker URL (spec §6) with the defaults below; a Config built by hand gets
// no defaults, and its zero-value fields are used as they are.
type Config struct {
	BrokerURL brokerurl.BrokerURL

	ClientId string
	UserName string
	Password string

	// DialTimeout bounds the initial TCP/TLS connect.
	DialTimeout time.Duration
	// HandshakeTimeout bounds the wire-format negotiation and the
	// subsequent ConnectionInfo request/response.
	HandshakeTimeout time.Duration

	// WireFormatVersion is advertised in the local WireFormatInfo (spec §4.1
	// anchors this client at v5).
	WireFormatVersion int32

	// QueueBrowserPrefetch is the prefetch a QueueBrowser's ConsumerInfo
	// carries (spec §4.4 QueueBrowser).
	QueueBrowserPrefetch int32
	// DefaultPrefetch is used when a consumer's ConsumerOptions.Prefetch is
	// negative; a Prefetch of 0 puts the consumer in pull mode.
	DefaultPrefetch int32
}

// NewConfig builds a Config from a parsed broker URL, applying the
// defaults every other field needs.
func NewConfig(u brokerurl.BrokerURL, clientId, userName, password string) Config {
	return Config{
		BrokerURL:            u,
		ClientId:             clientId,
		UserName:             userName,
		Password:             password,
		DialTimeout:          10 * time.Second,
		HandshakeTimeout:     15 * time.Second,
		WireFormatVersion:    5,
		QueueBrowserPrefetch: 100,
		DefaultPrefetch:      1000,
	}
}
