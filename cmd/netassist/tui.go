package main

import (
	"github.com/spf13/cobra"

	"github.com/samaelod/netassist/tui"
)

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	c, err := newCore(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	tuiOpts := tui.Options{
		Version: version,
		App:     c.app,
		Relay:   c.relay,
		Backend: c.controller,
		Stats:   c.session,
	}

	if hasEndpointFlags(cmd, opts) || c.app.DefaultProfile != "" {
		p, err := loadProfile(cmd, opts)
		if err != nil {
			return err
		}
		tuiOpts.Profile = p
		tuiOpts.ProfilePath = opts.profilePath
	}

	return tui.Run(tuiOpts)
}
