package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/rohan/internal/openapi"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec>",
		Short: "Check that an OpenAPI description can be planned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			doc, err := openapi.Load(args[0])
			if err != nil {
				return err
			}
			e.out.Success("%s is valid", args[0])
			e.out.Spec(doc.Title, doc.Version, doc.Paths, len(doc.Operations))
			return nil
		},
	}
}
