package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	var (
		hex  bool
		wait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <payload>",
		Short: "Send one payload to the target and print any replies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("hex") {
				p.TxHex = hex
			}

			return withSession(opts, p, func(c *core) error {
				if !c.controller.SendManual([]byte(args[0]), p.TxHex) {
					return errors.New("send failed, see log above")
				}
				if wait > 0 {
					select {
					case <-time.After(wait):
					case <-cmd.Context().Done():
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&hex, "hex", true, "payload is hex (overrides --tx-hex)")
	cmd.Flags().DurationVar(&wait, "wait", 0, "keep listening for replies this long after sending")

	return cmd
}
