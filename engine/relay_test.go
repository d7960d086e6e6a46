package engine

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaelod/netassist/types"
)

type recordingSink struct {
	mu      sync.Mutex
	logs    []string
	packets []types.Event
	order   []types.EventKind
}

func (s *recordingSink) LogAppend(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, line)
	s.order = append(s.order, types.EventLog)
}

func (s *recordingSink) PacketAppend(ev types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packets = append(s.packets, ev)
	s.order = append(s.order, types.EventPacket)
}

func TestRelayFIFOSingleProducer(t *testing.T) {
	r := NewRelay()
	const n = 1000

	go func() {
		for i := 0; i < n; i++ {
			r.Log("line %d", i)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < n; i++ {
		ev, err := r.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("line %d", i), ev.Line)
	}
	assert.Equal(t, 0, r.Len())
}

func TestRelayPerProducerOrder(t *testing.T) {
	r := NewRelay()
	const producers, perProducer = 4, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				r.Log("%d:%d", p, i)
			}
		}(p)
	}
	wg.Wait()
	r.Close()

	next := make([]int, producers)
	total := 0
	for {
		ev, err := r.Next(context.Background())
		if err == ErrRelayClosed {
			break
		}
		require.NoError(t, err)
		var p, i int
		_, err = fmt.Sscanf(ev.Line, "%d:%d", &p, &i)
		require.NoError(t, err)
		assert.Equal(t, next[p], i, "producer %d out of order", p)
		next[p] = i + 1
		total++
	}
	assert.Equal(t, producers*perProducer, total, "every event delivered exactly once")
}

func TestRelayPacketCopiesBuffer(t *testing.T) {
	r := NewRelay()
	buf := []byte{1, 2, 3}
	from := netip.MustParseAddrPort("127.0.0.1:5000")
	r.Packet(buf, from, netip.AddrPort{}, false)
	buf[0] = 9

	ev, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.EventPacket, ev.Kind)
	assert.Equal(t, []byte{1, 2, 3}, ev.Data)
	assert.Equal(t, from, ev.From)
	assert.False(t, ev.Time.IsZero())
}

func TestRelayNextHonoursContext(t *testing.T) {
	r := NewRelay()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelayCloseDrainsThenStops(t *testing.T) {
	r := NewRelay()
	r.Log("a")
	r.Log("b")
	r.Close()

	assert.False(t, r.Emit(types.Event{Kind: types.EventLog, Line: "late"}))

	sink := &recordingSink{}
	require.NoError(t, r.Run(context.Background(), sink))
	assert.Equal(t, []string{"a", "b"}, sink.logs)
}

func TestRelayCloseWakesWaiter(t *testing.T) {
	r := NewRelay()
	errCh := make(chan error, 1)
	go func() {
		_, err := r.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	r.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrRelayClosed)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestRelayRunDispatchesByKind(t *testing.T) {
	r := NewRelay()
	r.Log("first")
	r.Packet([]byte("x"), netip.AddrPort{}, netip.AddrPort{}, false)
	r.Log("second")
	r.Close()

	sink := &recordingSink{}
	require.NoError(t, r.Run(context.Background(), sink))
	assert.Equal(t, []types.EventKind{types.EventLog, types.EventPacket, types.EventLog}, sink.order)
	assert.Len(t, sink.packets, 1)
}
