// Command accessordemo runs a host built from a config file and, if
// configured, a declarative topology file: it wires the network, sets the
// host up, and drives it with Iterate on the main goroutine until
// interrupted, its configured iteration count is reached, or its callback
// queue empties.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/comalice/accessorkit"
	"github.com/comalice/accessorkit/internal/config"
	"github.com/comalice/accessorkit/internal/obslog"
	"github.com/comalice/accessorkit/internal/topology"
)

func run() error {
	configPath := flag.String("config", "", "path to a TOML config file (optional)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log_level %q: %w", cfg.LogLevel, err)
	}
	logger := obslog.New("accessordemo", obslog.Profile{
		Level:     level,
		Pretty:    cfg.LogPretty,
		PrettySet: true,
	})

	h, err := accessorkit.NewHost("accessordemo",
		accessorkit.WithHostLogger(logger),
		accessorkit.WithMaxSleepChunk(time.Duration(cfg.MaxSleepChunkMS)*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("new host: %w", err)
	}

	logCollector, err := newLogCollector(logger)
	if err != nil {
		return fmt.Errorf("new log collector: %w", err)
	}
	if err := h.AddChild(logCollector); err != nil {
		return fmt.Errorf("add log collector: %w", err)
	}

	if cfg.TopologyPath != "" {
		if err := loadTopology(h, cfg.TopologyPath); err != nil {
			return fmt.Errorf("load topology %q: %w", cfg.TopologyPath, err)
		}
	}

	if err := h.Setup(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("host starting")
	if err := h.Iterate(ctx, cfg.DefaultIterations); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Info().Str("state", h.State().String()).Msg("host stopped")
	return nil
}

// loadTopology parses path and re-parents each of its top-level children,
// and the connections between them, directly onto h - the topology's own
// root composite only exists to describe the shape of the network, not to
// contain it.
func loadTopology(h *accessorkit.Host, path string) error {
	net, err := topology.Load(path)
	if err != nil {
		return err
	}
	root, err := topology.Build(net)
	if err != nil {
		return err
	}
	for _, child := range root.GetChildren() {
		if err := h.AddChild(child); err != nil {
			return fmt.Errorf("attach %q to host: %w", child.Name(), err)
		}
	}
	for _, conn := range net.Connections {
		if err := h.ConnectChildren(conn.FromChild, conn.FromPort, conn.ToChild, conn.ToPort); err != nil {
			return fmt.Errorf("connect %s.%s -> %s.%s: %w",
				conn.FromChild, conn.FromPort, conn.ToChild, conn.ToPort, err)
		}
	}
	return nil
}

// newLogCollector builds an atomic that logs every value it receives on its
// "in" port - a stand-in sink so a topology file need not declare one of its
// own just to make the demo's output visible.
func newLogCollector(logger zerolog.Logger) (*accessorkit.Atomic, error) {
	a, err := accessorkit.NewAtomic("logCollector", accessorkit.WithInputPorts("in"))
	if err != nil {
		return nil, err
	}
	a.AddInputHandler("in", func(a *accessorkit.Atomic) {
		value, ok, err := a.GetLatestInput("in")
		if err != nil || !ok {
			return
		}
		logger.Info().Interface("value", value).Msg("received")
	})
	return a, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "accessordemo:", err)
		os.Exit(1)
	}
}
