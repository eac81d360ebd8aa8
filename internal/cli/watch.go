package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/harun/kspar/internal/watch"
	"github.com/spf13/cobra"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline on records dropped into a directory",
	Long: `Watch a directory for product records (.json, .yaml). Each record is run
through the pipeline once and the result is written next to it as
<name>.out.json. Records that already have a result are skipped.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchDir, "dir", "d", "", "directory to watch")
	_ = watchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Close()
	defer a.Close()

	cfg := a.GetConfig()
	w, err := watch.New(watch.Config{
		Dir:            watchDir,
		Pipeline:       a.GetPipeline(),
		SessionID:      cfg.Runtime.SessionID,
		SessionContext: cfg.Session.Context,
		Logger:         log.GetZerolog(),
	})
	if err != nil {
		return err
	}

	// A fixed session is registered once up front.
	if cfg.Runtime.SessionID != "" {
		if err := registerSession(contextOf(cmd), a, cfg.Runtime.SessionID); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return w.Run(ctx)
}
