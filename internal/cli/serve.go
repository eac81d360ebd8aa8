package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harun/kspar/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Long: `Start the HTTP server:

  POST /v1/sessions   register a new session
  POST /v1/pipeline   run the pipeline on a product record
  GET  /healthz       liveness
  GET  /metrics       Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Close()
	defer a.Close()

	cfg := a.GetConfig()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	srv, err := server.NewServer(server.Config{
		Addr:              addr,
		Pipeline:          a.GetPipeline(),
		Metrics:           a.GetMetrics(),
		SessionContext:    cfg.Session.Context,
		RequestsPerMinute: cfg.Server.RequestsPerMinute,
		MaxConcurrent:     cfg.Server.MaxConcurrent,
		Logger:            log.GetZerolog(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
