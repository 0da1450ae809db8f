package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/pool-watch/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll on a schedule and send notifications",
	Long: `Run one cycle immediately, then one per schedule tick until interrupted.
A tick that fires while the previous cycle is still running is dropped.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("schedule", "", "cron spec or descriptor (overrides schedule.spec)")
	runCmd.Flags().String("listen", "", "address for the health/metrics server (overrides server.listen)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spec := cfg.Schedule.Spec
	if s, _ := cmd.Flags().GetString("schedule"); s != "" {
		spec = s
	}
	listen := cfg.Server.Listen
	if l, _ := cmd.Flags().GetString("listen"); l != "" {
		listen = l
	}

	a, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	var srv *http.Server
	if listen != "" {
		api := server.NewServer(a.store, a.runner, a.history, a.registry, a.logger)
		srv = &http.Server{
			Addr:              listen,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.logger.Info("server listening", "listen", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	if err := a.runner.Start(ctx, spec); err != nil {
		return err
	}
	a.logger.Info("poolwatch started",
		"chains", cfg.API.ChainIDs,
		"cooldown", cfg.Cooldown(),
		"growth_ratio", cfg.Notify.GrowthRatio,
		"state", a.store.Path(),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case runErr = <-errCh:
		a.logger.Error("server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown", "error", err)
		}
	}
	a.runner.Stop(shutdownCtx)
	return runErr
}
