package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/municipiolabs/gacetas/internal/appcontext"
	errs "github.com/municipiolabs/gacetas/pkg/errors"
)

// NewImportCommand creates the import command.
func NewImportCommand(app appcontext.Interface) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <backup.json>",
		Short: "Replace the catalog from a JSON backup",
		Long: `Import discards the current catalog and replaces it with the contents
of a backup file. Requires an active admin session (see "gacetas
login").`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()

			if !yes {
				fmt.Fprint(c.OutOrStdout(), "This replaces the entire catalog. Continue? [y/N] ")
				line, err := bufio.NewReader(c.InOrStdin()).ReadString('\n')
				if err != nil {
					return err
				}
				switch strings.ToLower(strings.TrimSpace(line)) {
				case "y", "yes":
				default:
					fmt.Fprintln(c.OutOrStdout(), "Aborted")
					return nil
				}
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return errs.WrapIO("read", args[0], err)
			}

			store, cleanup, err := app.Store(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.Import(ctx, data); err != nil {
				return err
			}

			fmt.Fprintf(c.OutOrStdout(), "Catalog replaced: %d files, %d categories\n",
				len(store.Files()), len(store.Categories()))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}
