package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rohan/internal/sink"
)

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <tests-dir>",
		Short: "Show how to run generated scripts with k6",
		Args:  cobra.ExactArgs(1),
		RunE:  runExec,
	}
	cmd.Flags().String("target", "", "Base URL of the API under test")
	return cmd
}

func runExec(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	entries, err := sink.LoadManifest(args[0])
	if err != nil {
		return err
	}
	e.out.Success("Found %d generated tests in %s", len(entries), args[0])
	e.out.K6Instructions(filepath.ToSlash(args[0]), e.cfg.Target, entries)
	return nil
}
