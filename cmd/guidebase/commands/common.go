// Package commands implements the guidebase CLI subcommands.
package commands

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/guidebase/guidebase/internal/config"
	"github.com/guidebase/guidebase/internal/gateway"
	"github.com/guidebase/guidebase/internal/session"
)

// defaultTimeout bounds a single CLI operation.
const defaultTimeout = 30 * time.Second

// commandFlags holds the flags shared across subcommands. Positional
// arguments are collected in order.
type commandFlags struct {
	configPath string
	format     string
	output     string
	yes        bool
	debug      bool
	positional []string
	extra      map[string]string
}

// parseArgs splits args into flags and positional arguments. Both
// --flag=value and --flag value spellings are accepted.
func parseArgs(args []string) commandFlags {
	flags := commandFlags{format: "table", extra: make(map[string]string)}

	takesValue := map[string]bool{
		"config": true, "format": true, "output": true,
		"port": true, "host": true, "drafts": true, "category": true,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-y" || arg == "--yes":
			flags.yes = true
		case arg == "--debug":
			flags.debug = true
		case arg == "-o" || arg == "--output":
			if i+1 < len(args) {
				flags.output = args[i+1]
				i++
			}
		case arg == "-c" || arg == "--config":
			if i+1 < len(args) {
				flags.configPath = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--"):
			key, value, hasEq := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
			if !hasEq && takesValue[key] && i+1 < len(args) {
				value = args[i+1]
				i++
			}
			switch key {
			case "config":
				flags.configPath = value
			case "format":
				flags.format = value
			case "output":
				flags.output = value
			default:
				flags.extra[key] = value
			}
		default:
			flags.positional = append(flags.positional, arg)
		}
	}

	return flags
}

// loadConfig loads configuration from an explicit path or the defaults.
func loadConfig(flags commandFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.debug {
		cfg.API.Debug = true
		cfg.Serve.Debug = true
	}
	return cfg, nil
}

// newClient builds a gateway client from config.
func newClient(cfg *config.Config) (*gateway.Client, error) {
	return gateway.NewClient(gateway.Options{
		BaseURL:   cfg.API.GetBaseURL(),
		Timeout:   cfg.API.GetTimeout(),
		RPS:       cfg.API.GetRateLimitRPS(),
		Burst:     cfg.API.GetRateLimitBurst(),
		Retry: gateway.RetryConfig{
			MaxRetries: cfg.API.GetRetryMaxRetries(),
			BaseDelay:  cfg.API.GetRetryBaseDelay(),
			MaxDelay:   cfg.API.GetRetryMaxDelay(),
			Multiplier: 2.0,
			EnableLog:  cfg.API.Debug,
		},
		EnableLog: cfg.API.Debug,
	})
}

// newSession builds a session manager backed by the on-disk credential store.
// The caller owns the returned closer.
func newSession(cfg *config.Config, client *gateway.Client) (*session.Manager, func(), error) {
	statePath, err := cfg.GetStatePath()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve state path: %w", err)
	}

	store, err := session.NewSQLiteStore(statePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}

	closer := func() {
		if err := store.Close(); err != nil {
			log.Printf("[session] close store: %v", err)
		}
	}
	return session.NewManager(client, store), closer, nil
}
