package engine

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"time"
)

// receive pulls datagrams off conn until the session stops it or a read
// fails hard. It never retries a hard error; reopening the session is the
// only recovery path.
func (s *Session) receive(ctx context.Context, conn *net.UDPConn, done chan<- struct{}) {
	defer close(done)

	// One spare byte tells a datagram that filled the buffer apart from one
	// that overflowed it.
	buf := make([]byte, s.bufferSize+1)
	local := addrPort(conn.LocalAddr())

	for {
		if s.stopping(ctx, conn) {
			s.relay.Log("[RECV] loop stopped")
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.pollInterval))
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if transient(err) {
				continue
			}
			if s.stopping(ctx, conn) {
				s.relay.Log("[RECV] loop stopped")
				return
			}
			s.relay.Log("[RECV] error, exiting loop: %v", err)
			return
		}
		if n == 0 {
			continue
		}

		truncated := n > s.bufferSize
		if truncated {
			n = s.bufferSize
			s.stats.truncated.Add(1)
		}
		s.stats.recvPackets.Add(1)
		s.stats.recvBytes.Add(uint64(n))

		from = unmap(from)
		s.record(from, local, buf[:n])

		if truncated {
			s.relay.Log("[RECV] %d bytes from %s (truncated)", n, from)
		} else {
			s.relay.Log("[RECV] %d bytes from %s", n, from)
		}
		s.relay.Packet(buf[:n], from, local, truncated)
	}
}

func (s *Session) stopping(ctx context.Context, conn *net.UDPConn) bool {
	if ctx.Err() != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop || s.conn != conn
}

// transient reports read errors that just mean "nothing yet".
func transient(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN)
}
