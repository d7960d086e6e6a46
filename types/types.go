package types

import (
	"net"
	"net/netip"
	"strconv"
	"time"
)

const (
	DefaultLocalIP    = "0.0.0.0"
	DefaultRemoteIP   = "127.0.0.1"
	DefaultLocalPort  = 9000
	DefaultRemotePort = 9001
)

// Mode selects how payload text is interpreted (tx) or displayed (rx).
type Mode int

const (
	ModeASCII Mode = iota
	ModeHex
)

func (m Mode) String() string {
	if m == ModeHex {
		return "HEX"
	}
	return "ASCII"
}

// ModeOf maps a hex toggle to a Mode.
func ModeOf(hex bool) Mode {
	if hex {
		return ModeHex
	}
	return ModeASCII
}

// EndpointConfig is the local/remote pair a session binds and sends to.
// A session keeps its own copy, so callers may reuse the value freely.
type EndpointConfig struct {
	LocalIP    string
	LocalPort  int
	RemoteIP   string
	RemotePort int
	RxMode     Mode
	TxMode     Mode
}

// DefaultEndpointConfig mirrors the demo setup of a fresh install:
// 127.0.0.1:9000 -> 127.0.0.1:9001, hex both ways.
func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		LocalIP:    "127.0.0.1",
		LocalPort:  DefaultLocalPort,
		RemoteIP:   DefaultRemoteIP,
		RemotePort: DefaultRemotePort,
		RxMode:     ModeHex,
		TxMode:     ModeHex,
	}
}

func (c EndpointConfig) LocalAddr() string {
	return net.JoinHostPort(c.LocalIP, strconv.Itoa(c.LocalPort))
}

func (c EndpointConfig) RemoteAddr() string {
	return net.JoinHostPort(c.RemoteIP, strconv.Itoa(c.RemotePort))
}

type SessionState int

const (
	StateClosed SessionState = iota
	StateOpen
)

func (s SessionState) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

type EventKind int

const (
	EventLog EventKind = iota
	EventPacket
)

// Event is one item delivered through the relay: either a log line or a
// received datagram.
type Event struct {
	Kind EventKind
	Time time.Time

	// Log events
	Line string

	// Packet events
	Data      []byte
	From      netip.AddrPort
	To        netip.AddrPort
	Truncated bool
}

// Len is the number of payload bytes carried by a packet event.
func (e Event) Len() int {
	return len(e.Data)
}

// Profile is a saved session setup loaded from a Lua file.
type Profile struct {
	Name       string
	LocalIP    string
	LocalPort  int
	RemoteIP   string
	RemotePort int
	RxHex      bool
	TxHex      bool
	Presets    []Preset
}

// Preset is a named payload that can be sent with one key press.
type Preset struct {
	Name  string
	Value string
	Hex   bool
}

// Endpoint converts the profile into the config applied to a session.
func (p *Profile) Endpoint() EndpointConfig {
	return EndpointConfig{
		LocalIP:    p.LocalIP,
		LocalPort:  p.LocalPort,
		RemoteIP:   p.RemoteIP,
		RemotePort: p.RemotePort,
		RxMode:     ModeOf(p.RxHex),
		TxMode:     ModeOf(p.TxHex),
	}
}

// ProfileFromEndpoint is the inverse of Profile.Endpoint, used when saving
// a manually entered setup.
func ProfileFromEndpoint(name string, c EndpointConfig) *Profile {
	return &Profile{
		Name:       name,
		LocalIP:    c.LocalIP,
		LocalPort:  c.LocalPort,
		RemoteIP:   c.RemoteIP,
		RemotePort: c.RemotePort,
		RxHex:      c.RxMode == ModeHex,
		TxHex:      c.TxMode == ModeHex,
	}
}
