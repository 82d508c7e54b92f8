package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the pool and serve health, status, feed and metrics",
		Long: `Keep the pool snapshot fresh and serve the HTTP endpoints:

  /health /ready /status /smiles /donations /donors /leaderboard /feed /metrics
  POST /circuit/reset
  POST /actions/claim   {"score": 82, "message": "gm", "photo_url": "..."}
  POST /actions/donate  {"amount": "250", "asset": "0x...", "rune_id": "..."}

/metrics and /circuit/reset require "Authorization: Bearer $METRICS_API_KEY"
when METRICS_API_KEY is set. The action endpoints exist only when PRIVATE_KEY
is set, always require the key, and report progress through /status.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Pool.Start(ctx)

	server := app.HealthServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		app.Logger.Info("Received termination signal, shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
