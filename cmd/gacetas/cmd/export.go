package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/municipiolabs/gacetas/internal/appcontext"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
)

// NewExportCommand creates the export command.
func NewExportCommand(app appcontext.Interface) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as a JSON backup",
		Long: `Export writes a portable JSON snapshot of the whole catalog, files
and categories included. Available without logging in.`,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()

			store, cleanup, err := app.Store(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := store.ExportJSON()
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := os.Stdout.Write(append(data, '\n'))
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errs.WrapIO("write", output, err)
			}
			fmt.Fprintf(c.OutOrStdout(), "Backup written to %s (%d files, %d categories)\n",
				output, len(store.Files()), len(store.Categories()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
