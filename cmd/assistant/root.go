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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/petasbytes/go-assistant/internal/config"
	"github.com/petasbytes/go-assistant/internal/logging"
	"github.com/petasbytes/go-assistant/internal/metrics"
	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/runner"
	"github.com/petasbytes/go-assistant/tools"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	client   *provider.Client
	registry *tools.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Chat with an assistant that can call local functions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Init(cfg.LogLevel, cfg.LogPretty)
			a.client = provider.NewOpenAIClient(provider.Options{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
			a.registry = tools.DefaultRegistry()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.chat(cmd)
		},
	}
	root.AddCommand(newToolsCmd(a), newSyncToolsCmd(a))
	return root
}

// signalContext is cancelled on Ctrl-C (SIGINT) or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigch)
		select {
		case <-sigch:
			fmt.Println("\nExiting...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func (a *app) orchestrator() *runner.Orchestrator {
	return runner.NewOrchestrator(a.client, a.registry, runner.Options{
		Poller: runner.PollerOptions{
			Interval:    a.cfg.PollInterval,
			Timeout:     a.cfg.PollTimeout,
			MaxAttempts: a.cfg.RunMaxAttempts,
		},
		Limits: runner.Limits{
			MaxRoundTrips:   a.cfg.TurnMaxRoundTrips,
			MaxErrorBatches: a.cfg.TurnMaxErrorBatches,
		},
		Parallel: a.cfg.ParallelToolCalls,
	}, a.logger)
}

// serveMetrics exposes /metrics until ctx ends.
func (a *app) serveMetrics(ctx context.Context) {
	if !a.cfg.MetricsEnabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", a.cfg.MetricsAddr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
