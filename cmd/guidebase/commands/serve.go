package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/guidebase/guidebase/internal/server"
)

// ServeCommand starts the local preview server.
// Usage: guidebase serve [drafts-dir] [--port N] [--host H] [--debug]
func ServeCommand(args []string) error {
	flags := parseArgs(args)

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	if len(flags.positional) > 0 {
		cfg.Serve.DraftsDir = flags.positional[0]
	}
	if v, ok := flags.extra["drafts"]; ok {
		cfg.Serve.DraftsDir = v
	}
	if v, ok := flags.extra["port"]; ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid port: %s", v)
		}
		cfg.Serve.Port = port
	}
	if v, ok := flags.extra["host"]; ok {
		cfg.Serve.Host = v
	}

	if cfg.Serve.DraftsDir != "" {
		abs, err := filepath.Abs(cfg.Serve.DraftsDir)
		if err != nil {
			return fmt.Errorf("resolve drafts dir: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("drafts dir does not exist: %s", cfg.Serve.DraftsDir)
		}
		cfg.Serve.DraftsDir = abs
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, client).Run(ctx)
}
