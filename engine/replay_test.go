package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/samaelod/netassist/capture"
)

func TestReplaySendsInOrder(t *testing.T) {
	ft := &fakeTransport{sendOK: true}
	relay := NewRelay()
	dgs := []capture.Datagram{
		{Payload: []byte("a")},
		{Payload: []byte("b"), Delta: 10 * time.Millisecond},
		{Payload: []byte("c"), Delta: 10 * time.Millisecond},
	}

	start := time.Now()
	n, err := Replay(context.Background(), ft, relay, dgs, ReplayOptions{Speed: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, ft.payloads)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	logs := lines(drain(relay))
	assert.Equal(t, "[REPLAY] 3 datagrams", logs[0])
	assert.Equal(t, "[REPLAY] done, 3/3 sent", logs[len(logs)-1])
}

func TestReplayWithLimiterAndCancel(t *testing.T) {
	ft := &fakeTransport{sendOK: true}
	relay := NewRelay()
	dgs := make([]capture.Datagram, 50)
	for i := range dgs {
		dgs[i] = capture.Datagram{Payload: []byte{byte(i)}, Delta: time.Hour}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// One datagram every 20ms: the hour-long gaps are ignored, the deadline
	// cuts the run short.
	lim := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)
	n, err := Replay(ctx, ft, relay, dgs, ReplayOptions{Limiter: lim})
	// The limiter gives up early once it knows the deadline cannot be met,
	// so the error is not necessarily context.DeadlineExceeded.
	assert.Error(t, err)
	assert.Greater(t, n, 0)
	assert.Less(t, n, len(dgs))
}

func TestReplayCountsRejectedSends(t *testing.T) {
	ft := &fakeTransport{sendOK: false}
	relay := NewRelay()
	dgs := []capture.Datagram{{Payload: []byte("a")}, {Payload: []byte("b")}}

	n, err := Replay(context.Background(), ft, relay, dgs, ReplayOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, ft.payloads, 2)
}
