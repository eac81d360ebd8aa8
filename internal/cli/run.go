package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/harun/kspar/internal/app"
	"github.com/harun/kspar/pkg/pipeline"
	"github.com/harun/kspar/pkg/product"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	runInput        string
	runExample      bool
	runOutput       string
	runFormat       string
	runSession      string
	runSkipRegister bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the four-agent pipeline on a product record",
	Long: `Register the session with every agent app, run the Parser on the product
record and then the Descriptor, FAQ and Comparator agents on its output.
The aggregated result is printed to stdout or written to --output.`,
	Example: `  kspar run --example
  kspar run --input serum.yaml --format yaml
  kspar run --input serum.json --session s_abc --skip-register`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "product record file (.json, .yaml)")
	runCmd.Flags().BoolVar(&runExample, "example", false, "use the built-in example record")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the result to this file instead of stdout")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "json", "output format (json, yaml)")
	runCmd.Flags().StringVar(&runSession, "session", "", "session ID (default from config, or generated)")
	runCmd.Flags().BoolVar(&runSkipRegister, "skip-register", false, "assume the session is already registered")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	raw, err := readRecord()
	if err != nil {
		return err
	}
	if runFormat != "json" && runFormat != "yaml" {
		return fmt.Errorf("invalid format %q (must be json or yaml)", runFormat)
	}

	a, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Close()
	defer a.Close()

	ctx := contextOf(cmd)
	sessionID := sessionFor(a, runSession)
	p := a.GetPipeline()

	if !runSkipRegister {
		if err := registerSession(ctx, a, sessionID); err != nil {
			return err
		}
	}

	result, runErr := p.Run(ctx, sessionID, raw)
	if result != nil {
		if err := writeResult(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("pipeline halted: %w", runErr)
	}

	return nil
}

// registerSession registers sessionID with every agent app. A failure halts
// the command unless pipeline.continue_on_error is set.
func registerSession(ctx context.Context, a *app.App, sessionID string) error {
	cfg := a.GetConfig()
	err := a.GetPipeline().RegisterSession(ctx, sessionID, cfg.Session.Context)
	if err == nil {
		return nil
	}
	if cfg.Pipeline.ContinueOnError {
		a.GetLogger().Warn().Err(err).Msg("Session registration incomplete, continuing")
		return nil
	}
	a.GetLogger().Error().Err(err).Msg("Session registration failed, halting")
	return fmt.Errorf("session registration failed: %w", err)
}

func readRecord() (product.RawProduct, error) {
	switch {
	case runExample && runInput != "":
		return product.RawProduct{}, fmt.Errorf("--input and --example are mutually exclusive")
	case runExample:
		return product.ExampleRaw(), nil
	case runInput != "":
		return product.LoadRaw(runInput)
	default:
		return product.RawProduct{}, fmt.Errorf("a product record is required (--input or --example)")
	}
}

func sessionFor(a *app.App, flag string) string {
	if flag != "" {
		return flag
	}
	return a.SessionID()
}

func writeResult(stdout io.Writer, result *pipeline.Result) error {
	data, err := encodeResult(result, runFormat)
	if err != nil {
		return err
	}

	if runOutput == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(runOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func encodeResult(result *pipeline.Result, format string) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	if format != "yaml" {
		return append(data, '\n'), nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result as YAML: %w", err)
	}
	return out, nil
}
