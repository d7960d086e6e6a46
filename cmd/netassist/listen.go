package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samaelod/netassist/engine"
	"github.com/samaelod/netassist/types"
)

func newListenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Open the session and print traffic until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withSession(opts, p, func(c *core) error {
				<-ctx.Done()
				c.controller.Close()
				return nil
			})
		},
	}
}

// withSession opens the session described by p, prints its events to
// stdout while fn runs and shuts everything down afterwards.
func withSession(opts *rootOptions, p *types.Profile, fn func(c *core) error) error {
	c, err := newCore(opts)
	if err != nil {
		return err
	}

	logger := engine.NewLogger(c.logPath(p), c.app.LogLines)
	defer logger.Close()

	done := c.runSink(engine.NewTextSink(os.Stdout, logger, types.ModeOf(p.RxHex)))
	defer func() {
		c.Close()
		<-done
	}()

	if !c.controller.ApplyConfig(p.Endpoint()) {
		return errors.New("could not open the session, see log above")
	}

	return fn(c)
}
