package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rohan/internal/generator"
	"github.com/wesleyorama2/rohan/internal/openapi"
)

const defaultPlanFile = "test_plan.json"

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <spec>",
		Short: "Create a test plan from an OpenAPI description",
		Long: `Ask the model to plan tests for every operation in an OpenAPI description.
With --e2e the model first proposes end-to-end user journeys and then
plans each one as a scenario of ordered steps.

The plan is written as JSON, or YAML when the output ends in .yaml/.yml.`,
		Args: cobra.ExactArgs(1),
		RunE: runPlan,
	}
	cmd.Flags().StringP("output", "o", defaultPlanFile, "Plan file to write")
	cmd.Flags().Bool("e2e", false, "Plan end-to-end scenarios instead of per-operation tests")
	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	e2e, _ := cmd.Flags().GetBool("e2e")

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	doc, err := openapi.Load(args[0])
	if err != nil {
		return err
	}
	e.out.Success("Loaded %s", args[0])
	e.out.Spec(doc.Title, doc.Version, doc.Paths, len(doc.Operations))

	total, done := len(doc.Operations), 0
	if e2e {
		total = 0 // scenarios are not known until outlines are derived
	}
	en, err := e.newEngine(func(r generator.Result) {
		done++
		e.out.Progress(done, total, r, "")
	})
	if err != nil {
		return err
	}

	in := generator.PlanInput{
		APITitle:   doc.Title,
		APIVersion: doc.Version,
		SpecText:   doc.JSON,
	}
	for _, op := range doc.Operations {
		in.Operations = append(in.Operations, generator.OperationItem{
			Name:     op.Name,
			Method:   op.Method,
			Path:     op.Path,
			Fragment: op.Fragment,
		})
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	mode := "unit tests"
	if e2e {
		mode = "end-to-end scenarios"
	}
	e.out.Info("Planning %s with %s...", mode, e.cfg.Model)

	start := time.Now()
	plan, report, err := en.CreatePlan(ctx, in, e2e)
	elapsed := time.Since(start)
	if plan == nil {
		return err
	}
	e.summary(en, report, elapsed)
	if err != nil {
		return fmt.Errorf("planning interrupted, %s not written: %w", outputPath, err)
	}
	if plan.Len() == 0 {
		return errors.New("no tests were planned")
	}

	if err := plan.Save(outputPath); err != nil {
		return err
	}
	e.out.Success("Wrote %d %s to %s", plan.Len(), mode, outputPath)
	e.out.PlanPreview(plan)

	e2eFlag := ""
	if e2e {
		e2eFlag = " --e2e"
	}
	e.out.Info("Next: rohan build %s%s", outputPath, e2eFlag)
	return nil
}
