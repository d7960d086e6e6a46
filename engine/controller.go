package engine

import "github.com/samaelod/netassist/types"

// Backend is what a front end drives: it never touches sockets directly.
type Backend interface {
	// ApplyConfig stores cfg and (re)opens the transport with it.
	ApplyConfig(cfg types.EndpointConfig) bool
	Close()
	SendManual(payload []byte, hex bool) bool
	ClearLog()
}

// Transport is a datagram endpoint the controller can drive. *Session is
// the UDP implementation.
type Transport interface {
	ApplyConfig(cfg *types.EndpointConfig) bool
	Open() bool
	Close()
	Send(payload []byte, hex bool) bool
	State() types.SessionState
}

var _ Transport = (*Session)(nil)

// Controller implements Backend on top of a Transport, logging through the
// same relay the transport reports to.
type Controller struct {
	transport Transport
	relay     *Relay
}

var _ Backend = (*Controller)(nil)

func NewController(t Transport, relay *Relay) *Controller {
	return &Controller{transport: t, relay: relay}
}

func (c *Controller) ApplyConfig(cfg types.EndpointConfig) bool {
	if !c.transport.ApplyConfig(&cfg) {
		return false
	}
	return c.transport.Open()
}

func (c *Controller) Close() {
	c.relay.Log("[NET] close requested")
	c.transport.Close()
}

func (c *Controller) SendManual(payload []byte, hex bool) bool {
	return c.transport.Send(payload, hex)
}

// ClearLog only announces the request; the sink owns its log buffer and
// clears it itself.
func (c *Controller) ClearLog() {
	c.relay.Log("[UI] clear log requested")
}

func (c *Controller) State() types.SessionState {
	return c.transport.State()
}
