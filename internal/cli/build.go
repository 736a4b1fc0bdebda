package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rohan/internal/generator"
	"github.com/wesleyorama2/rohan/internal/sink"
)

const defaultTestsDir = "tests"

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <plan>",
		Short: "Generate k6 scripts from a test plan",
		Long: `Generate one k6 script per planned test (or per scenario for E2E plans).
Scripts are written as they finish, together with a manifest.json listing
them. Existing scripts are kept unless --overwrite is set, so an
interrupted build can be resumed.`,
		Args: cobra.ExactArgs(1),
		RunE: runBuild,
	}
	cmd.Flags().StringP("output", "o", defaultTestsDir, "Directory for generated scripts")
	cmd.Flags().Bool("overwrite", false, "Regenerate scripts that already exist")
	cmd.Flags().Bool("e2e", false, "Expect an end-to-end plan")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	e2e, _ := cmd.Flags().GetBool("e2e")

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	plan, err := generator.LoadPlan(args[0])
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("e2e") && e2e != plan.E2E {
		e.out.Warn("--e2e=%t does not match the plan (e2e=%t), using the plan's mode", e2e, plan.E2E)
	}
	e.out.Success("Loaded %s: %d items for %s %s", args[0], plan.Len(), plan.APITitle, plan.APIVersion)

	out, err := sink.NewFileSink(outputDir, e.cfg.Overwrite, e.log.Logger)
	if err != nil {
		return err
	}

	total, done := plan.Len(), 0
	en, err := e.newEngine(func(r generator.Result) {
		done++
		e.out.Progress(done, total, r, sink.FileName(r.Name))
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	write := func(r generator.Result) (bool, error) {
		script := r.Artifact.(generator.Script)
		return out.Write(script.Name, script.Code)
	}

	e.out.Info("Generating %d scripts with %s...", total, e.cfg.Model)
	start := time.Now()
	report, runErr := en.BuildScripts(ctx, plan, write)
	elapsed := time.Since(start)

	var genErr *generator.Error
	if errors.As(runErr, &genErr) {
		return runErr
	}

	manifestPath, flushErr := out.Flush()
	e.summary(en, report, elapsed)
	if flushErr != nil {
		return fmt.Errorf("writing manifest: %w", flushErr)
	}
	e.out.Success("Manifest written to %s", manifestPath)
	if runErr != nil {
		return fmt.Errorf("build interrupted: %w", runErr)
	}

	e.out.K6Instructions(filepath.ToSlash(out.Dir()), e.cfg.Target, out.Manifest().Entries())
	return nil
}
