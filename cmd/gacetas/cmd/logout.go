package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/municipiolabs/gacetas/internal/appcontext"
)

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session",
		RunE: func(c *cobra.Command, _ []string) error {
			if err := app.Session().Logout(); err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), "Admin session closed")
			return nil
		},
	}
}
