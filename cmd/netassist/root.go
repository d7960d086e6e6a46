package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/samaelod/netassist/capture"
	"github.com/samaelod/netassist/config"
	"github.com/samaelod/netassist/engine"
	"github.com/samaelod/netassist/lua"
	"github.com/samaelod/netassist/types"
)

type rootOptions struct {
	configPath  string
	profilePath string
	local       string
	remote      string
	rxHex       bool
	txHex       bool
	capturePath string
	metricsAddr string
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "netassist",
		Short:         "UDP diagnostic endpoint",
		Long:          "netassist binds a local UDP endpoint, sends hex or text payloads to a target and shows every datagram it receives.",
		Version:       version,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "app config file (default: netassist.json, ~/.config/netassist/config.json)")
	f.StringVarP(&opts.profilePath, "profile", "p", "", "Lua session profile")
	f.StringVar(&opts.local, "local", "", "local endpoint ip:port")
	f.StringVar(&opts.remote, "remote", "", "target endpoint ip:port")
	f.BoolVar(&opts.rxHex, "rx-hex", true, "show received payloads as hexdump")
	f.BoolVar(&opts.txHex, "tx-hex", true, "parse sent payloads as hex")
	f.StringVar(&opts.capturePath, "capture", "", "write sent and received datagrams to this pcap file")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Interactive terminal UI (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTUI(cmd, opts)
			},
		},
		newListenCmd(opts),
		newSendCmd(opts),
		newReplayCmd(opts),
	)

	return root
}

// hasEndpointFlags reports whether the command line already describes a
// session, so the UI can skip its source menu.
func hasEndpointFlags(cmd *cobra.Command, opts *rootOptions) bool {
	return opts.profilePath != "" || cmd.Flags().Changed("local") || cmd.Flags().Changed("remote")
}

// loadProfile reads --profile, the config's default_profile or the built-in
// defaults, in that order, and applies the endpoint flags on top.
func loadProfile(cmd *cobra.Command, opts *rootOptions) (*types.Profile, error) {
	if opts.profilePath == "" {
		if app, err := config.Load(opts.configPath); err == nil && app.DefaultProfile != "" {
			opts.profilePath = app.DefaultProfile
		}
	}

	var p *types.Profile
	if opts.profilePath != "" {
		var err error
		p, err = lua.ReadProfile(opts.profilePath)
		if err != nil {
			return nil, fmt.Errorf("load profile %s: %w", opts.profilePath, err)
		}
	} else {
		p = types.ProfileFromEndpoint("quickstart", types.DefaultEndpointConfig())
	}

	flags := cmd.Flags()
	if flags.Changed("local") {
		host, port, err := splitEndpoint(opts.local)
		if err != nil {
			return nil, fmt.Errorf("--local: %w", err)
		}
		p.LocalIP, p.LocalPort = host, port
	}
	if flags.Changed("remote") {
		host, port, err := splitEndpoint(opts.remote)
		if err != nil {
			return nil, fmt.Errorf("--remote: %w", err)
		}
		p.RemoteIP, p.RemotePort = host, port
	}
	if flags.Changed("rx-hex") {
		p.RxHex = opts.rxHex
	}
	if flags.Changed("tx-hex") {
		p.TxHex = opts.txHex
	}

	if err := lua.ValidateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

func splitEndpoint(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

// core is the session stack shared by every subcommand: one relay, one UDP
// session and the controller the front ends drive.
type core struct {
	app        *config.Config
	relay      *engine.Relay
	session    *engine.Session
	controller *engine.Controller
	recorder   *capture.Writer
	metrics    *http.Server
}

func newCore(opts *rootOptions) (*core, error) {
	app, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	c := &core{app: app, relay: engine.NewRelay()}

	sessionOpts := []engine.SessionOption{
		engine.WithPollInterval(app.PollInterval()),
		engine.WithBufferSize(app.BufferSize),
	}

	if opts.capturePath != "" {
		path := opts.capturePath
		if filepath.Base(path) == path {
			path = filepath.Join(app.CapturesDir, path)
		}
		c.recorder, err = capture.Create(path)
		if err != nil {
			return nil, err
		}
		sessionOpts = append(sessionOpts, engine.WithRecorder(c.recorder))
		log.Printf("capturing to %s", path)
	}

	c.session = engine.NewSession(c.relay, sessionOpts...)
	c.controller = engine.NewController(c.session, c.relay)

	if opts.metricsAddr != "" {
		c.serveMetrics(opts.metricsAddr)
	}

	return c, nil
}

func (c *core) serveMetrics(addr string) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		engine.NewCollector(c.session),
		collectors.NewGoCollector(),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	c.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := c.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.relay.Log("[NET] metrics server failed: %v", err)
		}
	}()
	log.Printf("metrics on %s/metrics", addr)
}

// Close stops the session first so no datagram is recorded after the
// capture file is closed.
func (c *core) Close() {
	c.session.Close()
	c.relay.Close()

	if c.recorder != nil {
		log.Printf("capture: %d datagrams written", c.recorder.Count())
		if err := c.recorder.Close(); err != nil {
			log.Printf("close capture: %v", err)
		}
	}
	if c.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		c.metrics.Shutdown(ctx)
	}
}

// runSink drains the relay into sink until the relay is closed. The
// returned channel is closed once every queued event was delivered.
func (c *core) runSink(sink engine.Sink) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.relay.Run(context.Background(), sink)
	}()
	return done
}

func (c *core) logPath(p *types.Profile) string {
	return filepath.Join(c.app.LogsDir, p.Name+".log")
}
