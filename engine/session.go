package engine

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/samaelod/netassist/hexdump"
	"github.com/samaelod/netassist/types"
)

const (
	defaultBufferSize   = 2048
	defaultPollInterval = 200 * time.Millisecond
)

// Recorder receives a copy of every datagram the session sends or receives.
type Recorder interface {
	Record(src, dst netip.AddrPort, payload []byte, ts time.Time) error
}

type SessionOption func(*Session)

func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithPollInterval sets how long a single read may block before the
// receive loop re-checks its stop flag.
func WithPollInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithBufferSize sets the largest datagram delivered intact. Longer
// datagrams are cut to this size and flagged as truncated.
func WithBufferSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// Session owns one UDP socket and the goroutine receiving from it.
// ApplyConfig, Open, Close and Send are expected to be called from a single
// command goroutine; the receive goroutine only shares conn, stop and cfg
// with it, all guarded by mu.
type Session struct {
	relay    *Relay
	recorder Recorder
	stats    counters

	pollInterval time.Duration
	bufferSize   int

	mu   sync.Mutex
	cfg  types.EndpointConfig
	conn *net.UDPConn
	stop bool
	recv *receiver
}

// receiver is the handle of a running receive loop.
type receiver struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(relay *Relay, opts ...SessionOption) *Session {
	s := &Session{
		relay:        relay,
		cfg:          types.DefaultEndpointConfig(),
		pollInterval: defaultPollInterval,
		bufferSize:   defaultBufferSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyConfig replaces the endpoint configuration. It does not reopen the
// socket; the send path picks up the new remote endpoint immediately.
func (s *Session) ApplyConfig(cfg *types.EndpointConfig) bool {
	if cfg == nil {
		return false
	}

	c := *cfg
	c.LocalIP = strings.TrimSpace(c.LocalIP)
	c.RemoteIP = strings.TrimSpace(c.RemoteIP)
	if c.LocalIP == "" {
		c.LocalIP = types.DefaultLocalIP
		s.relay.Log("[CFG] local address missing, using %s", c.LocalIP)
	}
	if c.RemoteIP == "" {
		c.RemoteIP = types.DefaultRemoteIP
		s.relay.Log("[CFG] target address missing, using %s", c.RemoteIP)
	}
	if !validPort(c.LocalPort) || !validPort(c.RemotePort) {
		s.relay.Log("[CFG] port out of range: local=%d target=%d", c.LocalPort, c.RemotePort)
		return false
	}

	s.mu.Lock()
	s.cfg = c
	s.mu.Unlock()

	s.relay.Log("[CFG] local=%s target=%s rx=%s tx=%s",
		c.LocalAddr(), c.RemoteAddr(), c.RxMode, c.TxMode)
	return true
}

func validPort(p int) bool {
	return p >= 0 && p <= 65535
}

// Open closes any previous socket, binds a new one to the local endpoint
// and starts its receive loop.
func (s *Session) Open() bool {
	s.Close()

	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	laddr, err := net.ResolveUDPAddr("udp4", cfg.LocalAddr())
	if err != nil {
		s.relay.Log("[NET] bind failed for %s: %v", cfg.LocalAddr(), err)
		return false
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		s.relay.Log("[NET] bind failed for %s: %v", cfg.LocalAddr(), err)
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	rv := &receiver{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.conn = conn
	s.stop = false
	s.recv = rv
	s.mu.Unlock()

	go s.receive(ctx, conn, rv.done)

	s.relay.Log("[NET] UDP bound at %s", conn.LocalAddr())
	return true
}

// Close stops the receive loop, waits for it to exit and releases the
// socket. It is a no-op on a closed session.
func (s *Session) Close() {
	s.mu.Lock()
	conn, rv := s.conn, s.recv
	if conn != nil {
		s.stop = true
		// Unblock a pending read.
		_ = conn.SetReadDeadline(time.Now())
		_ = conn.Close()
	}
	s.mu.Unlock()

	if rv != nil {
		rv.cancel()
		<-rv.done
	}

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		s.recv = nil
	}
	s.mu.Unlock()
}

// Send transmits payload to the configured remote endpoint. In hex mode the
// payload is hex text and is decoded first; nothing is sent if it is
// malformed.
func (s *Session) Send(payload []byte, hex bool) bool {
	if len(payload) == 0 {
		s.relay.Log("[SEND] empty payload skipped")
		return false
	}

	data := payload
	if hex {
		b, err := hexdump.Decode(string(payload))
		if err != nil {
			s.relay.Log("[SEND] hex parse failed: %v", err)
			return false
		}
		if len(b) == 0 {
			s.relay.Log("[SEND] empty payload skipped")
			return false
		}
		data = b
	}

	s.mu.Lock()
	conn, cfg := s.conn, s.cfg
	s.mu.Unlock()

	if conn == nil {
		s.relay.Log("[SEND] socket not ready; apply config first")
		return false
	}

	raddr, err := net.ResolveUDPAddr("udp4", cfg.RemoteAddr())
	if err != nil {
		s.stats.sendErrors.Add(1)
		s.relay.Log("[SEND] failed: %v", err)
		return false
	}

	n, err := conn.WriteToUDP(data, raddr)
	if err != nil {
		s.stats.sendErrors.Add(1)
		s.relay.Log("[SEND] failed: %v", err)
		return false
	}

	s.stats.sentPackets.Add(1)
	s.stats.sentBytes.Add(uint64(n))
	s.record(addrPort(conn.LocalAddr()), unmap(raddr.AddrPort()), data[:n])

	s.relay.Log("[SEND] manual len=%d mode=%s -> %s", n, types.ModeOf(hex), cfg.RemoteAddr())
	return true
}

func (s *Session) record(src, dst netip.AddrPort, payload []byte) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(src, dst, payload, time.Now()); err != nil {
		s.relay.Log("[CAP] write failed: %v", err)
	}
}

// State reports Open while a socket is bound and its receive loop is
// running. A loop that exited on a read error leaves the socket for Close
// to release, but the session already counts as closed.
func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || s.recv == nil {
		return types.StateClosed
	}
	select {
	case <-s.recv.done:
		return types.StateClosed
	default:
		return types.StateOpen
	}
}

// Config returns the configuration currently applied.
func (s *Session) Config() types.EndpointConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// LocalAddr returns the bound address, or the zero value when closed.
func (s *Session) LocalAddr() netip.AddrPort {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return netip.AddrPort{}
	}
	return addrPort(s.conn.LocalAddr())
}

func addrPort(a net.Addr) netip.AddrPort {
	if ua, ok := a.(*net.UDPAddr); ok {
		return unmap(ua.AddrPort())
	}
	return netip.AddrPort{}
}

func unmap(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}
