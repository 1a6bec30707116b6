// Package brokerurl parses the "protocol://host:port?k=v&..." broker URLs
// this client accepts (spec §6), the way the teacher's pkg/config.Config
// holds a flat map of dotted keys with a fixed set of keys it cares about —
// here the "restart keys" become the fixed set of recognized query keys,
// with everything else ignored rather than stored.
package brokerurl

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/redbco/openwire-go/wireerr"
)

// Scheme is the broker protocol named by the URL.
type Scheme string

const (
	SchemeTCP      Scheme = "tcp"
	SchemeSSL      Scheme = "ssl"
	SchemeFailover Scheme = "failover"
)

// recognized query keys, per spec §6. Anything else is parsed but ignored.
const (
	KeyWireFormat                    = "wireFormat"
	KeyTightEncodingEnabled          = "wireFormat.tightEncodingEnabled"
	KeyMaxInactivityDuration         = "wireFormat.maxInactivityDuration"
	KeyUseAsyncSend                  = "connection.useAsyncSend"
	KeyAlwaysSyncSend                = "connection.alwaysSyncSend"
	KeyProducerWindowSize            = "connection.producerWindowSize"
	KeyCommandTracingEnabled         = "transport.commandTracingEnabled"
	KeyTCPTracingEnabled             = "transport.tcpTracingEnabled"
	KeySoLinger                      = "socket.soLinger"
	KeyKeepAlive                     = "socket.keepAlive"
	KeyTCPNoDelay                    = "socket.tcpNoDelay"
)

// BrokerURL is the parsed form of a broker connection URL.
type BrokerURL struct {
	Scheme Scheme
	Host   string
	Port   int

	// Options holds every recognized key this client understands, after
	// type conversion; unrecognized query keys are dropped (spec §6: "Unknown
	// keys are ignored").
	WireFormat            string
	TightEncodingEnabled  bool
	MaxInactivityDuration int64
	UseAsyncSend          bool
	AlwaysSyncSend        bool
	ProducerWindowSize    int32
	CommandTracingEnabled bool
	TCPTracingEnabled     bool
	SoLinger              int
	KeepAlive             bool
	TCPNoDelay            bool
}

// Default values applied when a recognized key is absent from the URL.
func defaults() BrokerURL {
	return BrokerURL{
		WireFormat:            "openwire",
		MaxInactivityDuration: 30000,
		SoLinger:              -1,
		KeepAlive:             true,
		TCPNoDelay:            true,
	}
}

// Parse parses a broker URL of the form "protocol://host:port?k=v&...".
func Parse(raw string) (BrokerURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return BrokerURL{}, wireerr.Protocol(err, "brokerurl: %q is not a valid URL", raw)
	}

	scheme := Scheme(strings.ToLower(u.Scheme))
	switch scheme {
	case SchemeTCP, SchemeSSL, SchemeFailover:
	default:
		return BrokerURL{}, wireerr.Protocol(nil, "brokerurl: unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return BrokerURL{}, wireerr.Protocol(nil, "brokerurl: %q has no host", raw)
	}
	if strings.ContainsAny(host, "(),") {
		return BrokerURL{}, wireerr.Protocol(nil, "brokerurl: %q lists several brokers; only a single host:port is supported", raw)
	}
	port := 61616
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return BrokerURL{}, wireerr.Protocol(err, "brokerurl: invalid port %q", p)
		}
	}

	b := defaults()
	b.Scheme = scheme
	b.Host = host
	b.Port = port

	q := u.Query()
	if v := q.Get(KeyWireFormat); v != "" {
		b.WireFormat = v
	}
	if v, ok := parseBool(q, KeyTightEncodingEnabled); ok {
		b.TightEncodingEnabled = v
	}
	if v, ok := parseInt64(q, KeyMaxInactivityDuration); ok {
		b.MaxInactivityDuration = v
	}
	if v, ok := parseBool(q, KeyUseAsyncSend); ok {
		b.UseAsyncSend = v
	}
	if v, ok := parseBool(q, KeyAlwaysSyncSend); ok {
		b.AlwaysSyncSend = v
	}
	if v, ok := parseInt64(q, KeyProducerWindowSize); ok {
		b.ProducerWindowSize = int32(v)
	}
	if v, ok := parseBool(q, KeyCommandTracingEnabled); ok {
		b.CommandTracingEnabled = v
	}
	if v, ok := parseBool(q, KeyTCPTracingEnabled); ok {
		b.TCPTracingEnabled = v
	}
	if v, ok := parseInt64(q, KeySoLinger); ok {
		b.SoLinger = int(v)
	}
	if v, ok := parseBool(q, KeyKeepAlive); ok {
		b.KeepAlive = v
	}
	if v, ok := parseBool(q, KeyTCPNoDelay); ok {
		b.TCPNoDelay = v
	}
	return b, nil
}

// Addr returns the "host:port" dial address.
func (b BrokerURL) Addr() string {
	return b.Host + ":" + strconv.Itoa(b.Port)
}

// IsTLS reports whether this URL calls for a TLS-wrapped socket.
func (b BrokerURL) IsTLS() bool {
	return b.Scheme == SchemeSSL
}

func parseBool(q url.Values, key string) (bool, bool) {
	v := q.Get(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func parseInt64(q url.Values, key string) (int64, bool) {
	v := q.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
