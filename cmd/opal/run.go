package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/opalmirror/opal/internal/config"
	"github.com/opalmirror/opal/internal/feed"
	"github.com/opalmirror/opal/internal/logger"
	"github.com/opalmirror/opal/internal/pipeline"
	"github.com/opalmirror/opal/internal/plugin"
	"github.com/opalmirror/opal/internal/scanner"
	"github.com/opalmirror/opal/internal/seen"
	opalerrors "github.com/opalmirror/opal/pkg/errors"
)

type runOptions struct {
	ConfigPath string
	Verbose    bool
}

var runCmdRunner = runBot

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the mirror bot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			return runCmdRunner(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

// runBot keeps the bot alive across transient failures. A cycle that fails
// with anything other than a configuration error tears everything down,
// waits out the cooldown and reconstructs from scratch, so a wedged HTTP
// client or a revoked session never outlives one cycle.
func runBot(opts runOptions) error {
	// Credentials usually arrive via ${VAR} expansion in the config file,
	// so load a .env if one sits next to the process. Missing is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		cooldown, err := buildAndRun(ctx, opts)
		if err == nil || errors.Is(err, context.Canceled) {
			return nil
		}
		if opalerrors.IsFatal(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cooldown):
		}
	}
}

// buildAndRun constructs the full stack for one run cycle and blocks in the
// scan loop until it errors or the context is cancelled. The returned
// duration is how long the caller should wait before reconstructing.
func buildAndRun(ctx context.Context, opts runOptions) (time.Duration, error) {
	cooldown := 60 * time.Second

	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return cooldown, err
	}
	cooldown = cfg.RestartCooldown.Duration

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Human: cfg.Log.Human})
	if err != nil {
		return cooldown, err
	}

	reg := plugin.NewRegistry(cfg, log)
	if err := reg.VerifyAll(cfg); err != nil {
		return cooldown, err
	}

	tokens := feed.NewTokenSource(cfg, log)
	fc, err := feed.NewRedditClient(cfg, tokens, log)
	if err != nil {
		return cooldown, err
	}

	for _, ce := range reg.LoginAll(ctx) {
		log.WithFields(map[string]any{"plugin": ce.Plugin}).Error(ce.Err, "plugin login failed")
	}

	composer, err := pipeline.NewComposer(cfg)
	if err != nil {
		return cooldown, err
	}

	store, err := openSeenStore(cfg)
	if err != nil {
		return cooldown, err
	}
	defer store.Close()

	pipe := pipeline.New(reg, fc, composer, log)
	sc := scanner.New(cfg, fc, pipe, store, tokens, log)

	log.WithFields(map[string]any{
		"subreddit": cfg.Subreddit,
		"plugins":   len(reg.Plugins()),
		"version":   config.Version,
	}).Info("starting scan loop")

	return cooldown, sc.Run(ctx)
}

func openSeenStore(cfg *config.Config) (seen.Store, error) {
	if cfg.SeenDB == "" {
		return seen.NewMemory(cfg.SeenLimit), nil
	}
	return seen.Open(cfg.SeenDB, cfg.SeenLimit)
}
