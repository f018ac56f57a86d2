// Command brainstormd runs the brainstormer HTTP service: a multi-persona
// debate engine that reviews product ideas through six role-scripted model
// calls per round and persists every turn.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/Memomer/brainstormer/agent"
	"github.com/Memomer/brainstormer/config"
	"github.com/Memomer/brainstormer/core"
	"github.com/Memomer/brainstormer/logging"
	"github.com/Memomer/brainstormer/model"
	"github.com/Memomer/brainstormer/model/anthropic"
	"github.com/Memomer/brainstormer/model/openai"
	"github.com/Memomer/brainstormer/runner"
	"github.com/Memomer/brainstormer/server"
	"github.com/Memomer/brainstormer/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brainstormd",
		Short:         "Multi-persona idea debate service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})

	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	llm, err := newModel(cfg)
	if err != nil {
		return err
	}

	pipeline := agent.New(llm, func(o *agent.Options) {
		o.AtomicRuns = cfg.AtomicRuns
		o.MaxModelCalls = cfg.MaxModelCalls
		o.Logger = logger.WithComponent("pipeline")
	})
	app := runner.New(store, pipeline, func(o *runner.Options) {
		o.Logger = logger.WithComponent("runner")
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(app, logger.WithComponent("server")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening addr=%s provider=%s model=%q", cfg.Addr, cfg.Provider, llm.Info().Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStore(cfg *config.Config, logger logging.Logger) (core.Store, error) {
	if cfg.DatabasePath == "" {
		logger.Warn("no database path configured, using the in-memory store")
		return session.NewInMemoryStore(), nil
	}
	return session.NewSQLiteStore(cfg.DatabasePath)
}

func newModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
			o.RequestTimeout = cfg.RequestTimeout
			o.MaxRetries = cfg.MaxRetries
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.ModelName != "" {
				o.Model = anthropicsdk.Model(cfg.ModelName)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
			o.RequestTimeout = cfg.RequestTimeout
			o.MaxRetries = cfg.MaxRetries
		}), nil
	case config.ProviderMock:
		return model.NewMockModel("mock-model", "mock"), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
