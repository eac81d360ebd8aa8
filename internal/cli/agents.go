package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/harun/kspar/internal/app"
	"github.com/harun/kspar/internal/config"
	"github.com/spf13/cobra"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the pipeline agents",
	Long:  `List the agents in pipeline order with the app each is deployed as.`,
	RunE:  runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend: %s\n", cfg.Runtime.Backend)
	if cfg.Runtime.Backend == config.BackendADK {
		fmt.Fprintf(out, "Run URL: %s/run\n", cfg.Runtime.BaseURL)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tROLE\tAPP\tMODEL\tOUTPUT")
	for i, def := range app.BuildRegistry(cfg).All() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, def.Role, def.AppName, def.Model, def.OutputKind)
	}
	return w.Flush()
}
