package ids

import (
	"strings"

	"github.com/redbco/openwire-go/wireerr"
)

// DestinationKind distinguishes the four OpenWire destination variants.
type DestinationKind byte

const (
	KindQueue DestinationKind = iota
	KindTopic
	KindTempQueue
	KindTempTopic
)

func (k DestinationKind) String() string {
	switch k {
	case KindQueue:
		return "queue"
	case KindTopic:
		return "topic"
	case KindTempQueue:
		return "temp-queue"
	case KindTempTopic:
		return "temp-topic"
	default:
		return "unknown"
	}
}

// legacy string-form prefixes recognized on the wire (spec §3/§6). The
// remote-temp variants are what the broker emits for advisory messages
// about a *peer's* temporary destinations; they carry no wire-level
// distinction from an ordinary temp queue/topic once parsed.
const (
	prefixQueue           = "/queue/"
	prefixTopic           = "/topic/"
	prefixTempQueue       = "/temp-queue/"
	prefixTempTopic       = "/temp-topic/"
	prefixRemoteTempQueue = "/remote-temp-queue/"
	prefixRemoteTempTopic = "/remote-temp-topic/"
)

// Destination is the tagged variant naming a queue, topic, or their
// temporary counterparts, with an optional ?k=v&... option suffix.
type Destination struct {
	Kind    DestinationKind
	Name    string
	Options map[string]string
}

// NewDestination parses a destination's physical name, splitting off any
// "?key=value&..." option suffix (spec §3/§6).
func NewDestination(kind DestinationKind, physicalName string) Destination {
	name, opts := splitOptions(physicalName)
	return Destination{Kind: kind, Name: name, Options: opts}
}

func splitOptions(physicalName string) (string, map[string]string) {
	idx := strings.IndexByte(physicalName, '?')
	if idx < 0 {
		return physicalName, nil
	}
	name := physicalName[:idx]
	query := physicalName[idx+1:]
	opts := make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			opts[kv[0]] = kv[1]
		} else {
			opts[kv[0]] = ""
		}
	}
	return name, opts
}

// PhysicalName reassembles Name and Options into the wire-form physical
// name string.
func (d Destination) PhysicalName() string {
	if len(d.Options) == 0 {
		return d.Name
	}
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteByte('?')
	first := true
	for k, v := range d.Options {
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}

// ParseLegacyDestination parses the JMS-bridge string form
// ("/queue/foo", "/topic/bar", ...) used by some broker-facing APIs.
func ParseLegacyDestination(s string) (Destination, error) {
	switch {
	case strings.HasPrefix(s, prefixQueue):
		return NewDestination(KindQueue, s[len(prefixQueue):]), nil
	case strings.HasPrefix(s, prefixTopic):
		return NewDestination(KindTopic, s[len(prefixTopic):]), nil
	case strings.HasPrefix(s, prefixTempQueue):
		return NewDestination(KindTempQueue, s[len(prefixTempQueue):]), nil
	case strings.HasPrefix(s, prefixTempTopic):
		return NewDestination(KindTempTopic, s[len(prefixTempTopic):]), nil
	case strings.HasPrefix(s, prefixRemoteTempQueue):
		return NewDestination(KindTempQueue, s[len(prefixRemoteTempQueue):]), nil
	case strings.HasPrefix(s, prefixRemoteTempTopic):
		return NewDestination(KindTempTopic, s[len(prefixRemoteTempTopic):]), nil
	default:
		return Destination{}, wireerr.Decode(nil, "ids: %q has no recognized destination prefix", s)
	}
}

// Equals reports whether d and other name the same destination (kind and
// physical name; options are not part of destination identity).
func (d Destination) Equals(other Destination) bool {
	return d.Kind == other.Kind && d.Name == other.Name
}

func (d Destination) IsTemporary() bool {
	return d.Kind == KindTempQueue || d.Kind == KindTempTopic
}

func (d Destination) IsTopic() bool {
	return d.Kind == KindTopic || d.Kind == KindTempTopic
}
