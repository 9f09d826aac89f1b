package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/moai-flow-core/pkg/hook"
	"github.com/cuemby/moai-flow-core/pkg/log"
	"github.com/cuemby/moai-flow-core/pkg/metrics"
	"github.com/cuemby/moai-flow-core/pkg/pattern"
	"github.com/spf13/cobra"
)

var listenAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the coordination core with its metrics and health endpoints",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&listenAddr, "listen", ":9090", "address for the metrics/health HTTP server")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	coord, store, err := openCoordinator(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	metrics.RegisterComponent("storage", metrics.StatusHealthy, "")
	metrics.RegisterComponent("swarm", metrics.StatusHealthy, "")
	metrics.RegisterComponent("consensus", metrics.StatusHealthy, "")

	collector := pattern.NewCollector(cfg.StorageRoot)
	hooks := hook.New(time.Duration(cfg.HookTimeoutMS) * time.Millisecond)
	hook.RegisterPostTaskHook(hooks, collector)

	metricsCollector := metrics.NewCollector(coord, 5*time.Second)
	metricsCollector.Start()
	defer metricsCollector.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	server := &http.Server{Addr: listenAddr, Handler: mux}
	go func() {
		log.Logger.Info().Str("addr", listenAddr).Msg("serving metrics and health endpoints")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Error().Err(err).Msg("http server failed")
		}
	}()

	_ = hooks.Run(cmd.Context(), hook.PhasePost, map[string]any{"task_id": "startup", "status": "ready"})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
