package cli

import (
	"errors"
	"fmt"

	"github.com/harun/kspar/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errs := config.NewValidator().ValidateConfig(cfg)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(out, "  - %v\n", err)
		}
		return fmt.Errorf("configuration %s is invalid: %w", loader.GetConfigPath(), errors.Join(errs...))
	}

	fmt.Fprintf(out, "Configuration %s is valid\n", loader.GetConfigPath())
	return nil
}
