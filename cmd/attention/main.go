package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/elockenvitz/tesseract/internal/adapters/fixtures"
	"github.com/elockenvitz/tesseract/internal/adapters/repository"
	"github.com/elockenvitz/tesseract/internal/adapters/repository/sqlite"
	service "github.com/elockenvitz/tesseract/internal/app"
	"github.com/elockenvitz/tesseract/internal/collectors"
	"github.com/elockenvitz/tesseract/internal/config"
	"github.com/elockenvitz/tesseract/pkg/logger"
	"github.com/elockenvitz/tesseract/pkg/tracing"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	userID     string
	window     int
	json       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if syncErr := logger.Sync(); syncErr != nil {
		fmt.Fprintln(os.Stderr, "flush logs:", syncErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "attention",
		Short:         "Aggregate what needs a user's attention",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Logs go to stderr so table and JSON output stay clean.
			if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML config file (overrides "+config.EnvConfigPath+")")
	root.PersistentFlags().StringVarP(&flags.userID, "user", "u", "", "user id to act as")
	root.PersistentFlags().IntVarP(&flags.window, "window", "w", 0, "trailing window in hours (0 uses the configured default)")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "output JSON")

	root.AddCommand(
		serveCmd(flags),
		feedCmd(flags),
		boardCmd(flags),
		stateCmd(flags),
		resolveCmd(flags),
	)
	return root
}

// environment is the wired application for one command invocation.
type environment struct {
	cfg     *config.Config
	svc     *service.Service
	desk    *fixtures.Store
	durable bool
	log     logger.Logger
	closers []func(context.Context) error
}

// loadConfig resolves the config file flag before delegating to config.Load.
func loadConfig(ctx context.Context, flags *globalFlags) (*config.Config, error) {
	if flags.configPath != "" {
		if err := os.Setenv(config.EnvConfigPath, flags.configPath); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// build wires config, tracing, fixtures, the state store, the collector
// runner and the service. extra options are applied after the configured ones.
func build(ctx context.Context, cfg *config.Config, extra ...service.Option) (*environment, error) {
	env := &environment{cfg: cfg, log: logger.Named("attention")}

	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	env.closers = append(env.closers, shutdownTracing)

	desk, err := fixtures.Load(cfg.FixturesPath)
	if err != nil {
		return nil, env.abort(ctx, err)
	}
	env.desk = desk

	var state service.StateStore
	if cfg.StateDBPath != "" {
		store, err := sqlite.Open(ctx, cfg.StateDBPath, sqlite.WithLogger(logger.Named("sqlite")))
		if err != nil {
			return nil, env.abort(ctx, err)
		}
		env.closers = append(env.closers, func(context.Context) error { return store.Close() })
		state = store
		env.durable = true
	} else {
		state = repository.NewMemoryStateStore()
	}

	runner := collectors.NewRunner(
		collectors.All(collectors.Sources{
			Projects:      desk,
			Deliverables:  desk,
			Trades:        desk,
			Suggestions:   desk,
			Notifications: desk,
			Notes:         desk,
			Relations:     desk,
		}),
		collectors.WithTimeout(cfg.CollectorTimeout()),
		collectors.WithConcurrency(cfg.CollectorConcurrency),
		collectors.WithLogger(logger.Named("collectors")),
	)

	opts := []service.Option{
		service.WithLogger(logger.Named("service")),
		service.WithCacheSize(cfg.CacheSize),
		service.WithDefaultWindowHours(cfg.DefaultWindowHours),
		service.WithMaxWindowHours(cfg.MaxWindowHours),
		service.WithDecisionSource(desk),
		service.WithResolver(desk),
	}
	env.svc = service.New(runner, state, append(opts, extra...)...)
	return env, nil
}

// abort releases whatever build opened so far and returns err.
func (e *environment) abort(ctx context.Context, err error) error {
	return errors.Join(err, e.Close(ctx))
}

// Close releases resources in reverse order of acquisition.
func (e *environment) Close(ctx context.Context) error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// withEnvironment loads config, builds the environment, runs fn and closes.
func withEnvironment(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *environment) error) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, flags)
	if err != nil {
		return err
	}
	env, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	return errors.Join(fn(ctx, env), env.Close(ctx))
}

func requireUser(flags *globalFlags) error {
	if flags.userID == "" {
		return errors.New("--user is required")
	}
	return nil
}

// out returns the command's stdout writer.
func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
