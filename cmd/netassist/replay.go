package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/samaelod/netassist/capture"
	"github.com/samaelod/netassist/engine"
)

func newReplayCmd(opts *rootOptions) *cobra.Command {
	var (
		dstPort uint16
		pps     float64
		speed   float64
	)

	cmd := &cobra.Command{
		Use:   "replay <capture>",
		Short: "Resend the UDP payloads of a pcap/pcapng file to the target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(cmd, opts)
			if err != nil {
				return err
			}

			dgs, err := capture.ReadUDP(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if dstPort != 0 {
				dgs = capture.FilterDst(dgs, dstPort)
				if len(dgs) == 0 {
					return fmt.Errorf("no datagrams to port %d in %s", dstPort, args[0])
				}
			}

			replayOpts := engine.ReplayOptions{Speed: speed}
			if pps > 0 {
				replayOpts.Limiter = rate.NewLimiter(rate.Limit(pps), 1)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withSession(opts, p, func(c *core) error {
				_, err := engine.Replay(ctx, c.session, c.relay, dgs, replayOpts)
				if ctx.Err() != nil {
					// interrupted by the user
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().Uint16Var(&dstPort, "dst-port", 0, "only replay datagrams sent to this port")
	cmd.Flags().Float64Var(&pps, "rate", 0, "datagrams per second (0 keeps the captured timing)")
	cmd.Flags().Float64Var(&speed, "speed", 1, "timing multiplier when --rate is not set")

	return cmd
}
