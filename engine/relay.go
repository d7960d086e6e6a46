package engine

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/samaelod/netassist/types"
)

var ErrRelayClosed = errors.New("relay closed")

// Sink is the presentation side of the relay. Its methods are only ever
// called from the goroutine draining the relay.
type Sink interface {
	LogAppend(line string)
	PacketAppend(ev types.Event)
}

// Relay moves events from producer goroutines to a single consumer.
// Producers never block; the queue is unbounded and delivered in FIFO
// order, each event exactly once.
type Relay struct {
	mu     sync.Mutex
	queue  []types.Event
	notify chan struct{}
	closed bool
}

func NewRelay() *Relay {
	return &Relay{notify: make(chan struct{}, 1)}
}

// Emit enqueues ev. It reports false if the relay was already closed.
func (r *Relay) Emit(ev types.Event) bool {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.queue = append(r.queue, ev)
	r.signal()
	return true
}

// signal must be called with r.mu held.
func (r *Relay) signal() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Relay) Log(format string, args ...any) {
	r.Emit(types.Event{Kind: types.EventLog, Line: fmt.Sprintf(format, args...)})
}

// Packet enqueues a copy of data, so the caller may reuse its buffer.
func (r *Relay) Packet(data []byte, from, to netip.AddrPort, truncated bool) {
	r.Emit(types.Event{
		Kind:      types.EventPacket,
		Data:      append([]byte(nil), data...),
		From:      from,
		To:        to,
		Truncated: truncated,
	})
}

// Next blocks until an event is available and removes it from the queue.
// Once the relay is closed and drained it returns ErrRelayClosed.
func (r *Relay) Next(ctx context.Context) (types.Event, error) {
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			ev := r.queue[0]
			r.queue[0] = types.Event{}
			r.queue = r.queue[1:]
			if len(r.queue) > 0 {
				r.signal()
			}
			r.mu.Unlock()
			return ev, nil
		}
		closed := r.closed
		r.mu.Unlock()

		if closed {
			return types.Event{}, ErrRelayClosed
		}

		select {
		case <-r.notify:
		case <-ctx.Done():
			return types.Event{}, ctx.Err()
		}
	}
}

// Run drains the relay into sink on the calling goroutine until ctx is
// done or the relay is closed and empty.
func (r *Relay) Run(ctx context.Context, sink Sink) error {
	for {
		ev, err := r.Next(ctx)
		if errors.Is(err, ErrRelayClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		Deliver(sink, ev)
	}
}

// Deliver hands one event to the matching sink method.
func Deliver(sink Sink, ev types.Event) {
	switch ev.Kind {
	case types.EventLog:
		sink.LogAppend(ev.Line)
	case types.EventPacket:
		sink.PacketAppend(ev)
	}
}

// Len reports the number of queued, undelivered events.
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Close stops accepting events and wakes a waiting consumer. Events already
// queued are still delivered.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.signal()
}
