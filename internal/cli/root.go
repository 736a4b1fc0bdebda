package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "rohan",
		Short:   "Generate k6 API tests from an OpenAPI description",
		Version: version,
		Long: `Rohan reads an OpenAPI description, asks a language model to plan tests
for every operation (or end-to-end scenarios across them) and then turns
the plan into runnable k6 scripts.

  rohan plan openapi.json -o test_plan.json
  rohan build test_plan.json -o tests
  rohan exec tests`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to a config file (default: ./rohan.config.{json,yaml,yml})")
	pf.String("model", "", "Model name; prefix with \"ollama:\" for a local ollama model")
	pf.String("api-base", "", "Base URL of an OpenAI-compatible API")
	pf.String("prompt-dir", "", "Directory with prompt template overrides")
	pf.Int("workers", 0, "Number of concurrent generation workers")
	pf.Int("rpm", 0, "Maximum completion requests per minute (0 = unlimited)")
	pf.Int("batch-size", 0, "Operations per planning request")
	pf.String("pacing", "", "Rate limit pacing: window or smooth")
	pf.Duration("timeout", 0, "Timeout for a single completion request")
	pf.BoolP("verbose", "v", false, "Show debug logs")
	pf.Bool("no-color", false, "Disable colored output")
	pf.String("log-file", "", "Write JSON logs to this file")
	pf.String("log-level", "", "Log file level: debug, info, warn or error")

	root.AddCommand(newPlanCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newExecCmd())
	root.AddCommand(newValidateCmd())
	return root
}

// Execute runs the command line. It is called once by main.
func Execute() error {
	return NewRootCmd().Execute()
}
