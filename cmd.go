package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"Drawboard/internal/board"
	"Drawboard/internal/export"
	"Drawboard/internal/metrics"
	dnet "Drawboard/internal/net"
)

const (
	defaultHeartbeat       = 30 * time.Second
	defaultLogLevel        = "info"
	defaultDiscoverTimeout = dnet.DefaultBrowseTimeout
	defaultSnapshotTimeout = 30 * time.Second
)

// Config holds the flags shared by every command.
type Config struct {
	URL             string
	Discover        bool
	DiscoverTimeout time.Duration
	Heartbeat       time.Duration
	LogLevel        string
	MetricsAddr     string
	FadePending     bool
}

func defaultConfig() *Config {
	return &Config{
		DiscoverTimeout: defaultDiscoverTimeout,
		Heartbeat:       defaultHeartbeat,
		LogLevel:        defaultLogLevel,
	}
}

func (c *Config) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&c.URL, "url", c.URL, "server address (drawboard://, ws(s)://, http(s):// or host:port)")
	f.BoolVar(&c.Discover, "discover", c.Discover, "join the first server found on the local network")
	f.DurationVar(&c.DiscoverTimeout, "discover-timeout", c.DiscoverTimeout, "how long to browse the local network")
	f.DurationVar(&c.Heartbeat, "heartbeat", c.Heartbeat, "keep-alive interval")
	f.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address, e.g. :9090")
	f.BoolVar(&c.FadePending, "fade-pending", c.FadePending, "draw unacknowledged strokes at half opacity")
}

func (c *Config) sessionSettings() dnet.Settings {
	s := dnet.DefaultSettings()
	if c.Heartbeat > 0 {
		s.Heartbeat = c.Heartbeat
	}
	s.Board.Render.FadePending = c.FadePending
	return s
}

type env struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// setup builds the logger and, if asked for, starts the metrics listener.
func setup(ctx context.Context, cfg *Config) (env, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return env{}, err
	}
	slog.SetDefault(logger)
	gg.SetLogger(logger.With("component", "gg"))

	e := env{logger: logger}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		e.metrics = metrics.New(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, reg, logger); err != nil {
				logger.Error("Metrics listener stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}
	return e, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// resolveURL picks the server: a positional link first, then --url, then
// mDNS discovery.
func resolveURL(ctx context.Context, cfg *Config, args []string, logger *slog.Logger) (string, error) {
	switch {
	case len(args) > 0:
		return args[0], nil
	case cfg.URL != "":
		return cfg.URL, nil
	case cfg.Discover:
		servers, err := dnet.Browse(ctx, cfg.DiscoverTimeout, logger)
		if err != nil {
			return "", err
		}
		if len(servers) == 0 {
			return "", errors.New("no drawboard server found on the local network")
		}
		logger.Info("Discovered server", "instance", servers[0].Instance, "addr", servers[0].HostPort())
		return servers[0].URL(), nil
	default:
		return "", errors.New("no server given: pass a link, --url or --discover")
	}
}

func snapshotCmd(cfg *Config) *cobra.Command {
	var (
		out     string
		settle  time.Duration
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "snapshot [drawboard://host:port]",
		Short: "Join a board without a window and save its canvas",
		Long: `Join a board headless, wait for the canvas snapshot and optionally for
--settle worth of draw batches, then write the canvas to --out and leave.
The format follows the file extension (.png or .pdf).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := export.FormatFromPath(out); err != nil {
				return err
			}
			e, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			serverURL, err := resolveURL(cmd.Context(), cfg, args, e.logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return saveSnapshot(ctx, serverURL, cfg.sessionSettings(), out, settle, e)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "board.png", "output file (.png or .pdf)")
	cmd.Flags().DurationVar(&settle, "settle", 0, "keep applying draw batches this long after the snapshot")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultSnapshotTimeout, "give up after this long")
	return cmd
}

func saveSnapshot(ctx context.Context, serverURL string, settings dnet.Settings, out string, settle time.Duration, e env) error {
	loaded := make(chan struct{}, 1)
	sess, err := dnet.NewSession(serverURL, settings, nil, board.Hooks{
		Visibility: func(visible bool) {
			if visible {
				select {
				case loaded <- struct{}{}:
				default:
				}
			}
		},
		Alert: func(text string) {
			e.logger.Warn("Server alert", "message", text)
		},
	}, e.metrics, e.logger)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- sess.Run(ctx) }()

	select {
	case <-loaded:
	case err := <-errc:
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("left %s before the snapshot arrived: %w", sess.URL(), err)
	}

	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
		}
	}

	img, err := sess.Snapshot(ctx)
	sess.Close()
	if runErr := <-errc; runErr != nil {
		e.logger.Warn("Session ended with error", "error", runErr)
	}
	if err != nil {
		return fmt.Errorf("read canvas: %w", err)
	}

	if err := export.File(out, img); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	e.logger.Info("Saved board", "file", out, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return nil
}

func discoverCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List drawboard servers on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			servers, err := dnet.Browse(cmd.Context(), cfg.DiscoverTimeout, e.logger)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(servers) == 0 {
				fmt.Fprintln(w, "no servers found")
				return nil
			}
			for _, s := range servers {
				name := s.Instance
				if name == "" {
					name = s.Host
				}
				fmt.Fprintf(w, "%s\t%s\n", strings.TrimSpace(name), s.URL())
			}
			return nil
		},
	}
}
