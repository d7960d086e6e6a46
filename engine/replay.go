package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/samaelod/netassist/capture"
)

// ReplayOptions control the pacing of Replay. With a nil Limiter the
// original inter-datagram gaps are reproduced, scaled by Speed.
type ReplayOptions struct {
	Limiter *rate.Limiter
	Speed   float64 // 0 or 1 = real time, 2 = twice as fast
}

// Replay sends the payload of every datagram through t to its configured
// remote endpoint. It returns how many datagrams were accepted by the
// transport; a datagram the transport rejects is skipped, not fatal.
func Replay(ctx context.Context, t Transport, relay *Relay, dgs []capture.Datagram, opts ReplayOptions) (int, error) {
	relay.Log("[REPLAY] %d datagrams", len(dgs))

	sent := 0
	for i, d := range dgs {
		if err := ctx.Err(); err != nil {
			relay.Log("[REPLAY] stopped after %d/%d", i, len(dgs))
			return sent, err
		}

		if err := replayWait(ctx, d, i, opts); err != nil {
			relay.Log("[REPLAY] stopped after %d/%d", i, len(dgs))
			return sent, err
		}

		if t.Send(d.Payload, false) {
			sent++
		}
	}

	relay.Log("[REPLAY] done, %d/%d sent", sent, len(dgs))
	return sent, nil
}

func replayWait(ctx context.Context, d capture.Datagram, index int, opts ReplayOptions) error {
	if opts.Limiter != nil {
		return opts.Limiter.Wait(ctx)
	}
	if index == 0 || d.Delta <= 0 {
		return nil
	}

	wait := d.Delta
	if opts.Speed > 0 {
		wait = time.Duration(float64(wait) / opts.Speed)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
