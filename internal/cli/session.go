package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerSessionID string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage agent runtime sessions",
}

var sessionRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a session with every agent app",
	Long: `Create the session on every agent app with the configured session context.
Every app is attempted even when an earlier one fails.`,
	RunE: runSessionRegister,
}

func init() {
	sessionRegisterCmd.Flags().StringVar(&registerSessionID, "session", "", "session ID (default from config, or generated)")
	sessionCmd.AddCommand(sessionRegisterCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionRegister(cmd *cobra.Command, args []string) error {
	a, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Close()
	defer a.Close()

	id := sessionFor(a, registerSessionID)
	if err := a.GetPipeline().RegisterSession(cmd.Context(), id, a.GetConfig().Session.Context); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
