package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/municipiolabs/gacetas/internal/appcontext"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(app appcontext.Interface) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start an admin session",
		Long: `Login validates the admin credentials and persists the session so
subsequent commands run in admin mode until logout.`,
		RunE: func(c *cobra.Command, _ []string) error {
			reader := bufio.NewReader(c.InOrStdin())

			if username == "" {
				fmt.Fprint(c.OutOrStdout(), "Username: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Fprint(c.OutOrStdout(), "Password: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimSpace(line)
			}

			if err := app.Session().Login(username, password); err != nil {
				return err
			}

			user, _ := app.Session().CurrentUser()
			fmt.Fprintf(c.OutOrStdout(), "Welcome %s, admin mode active\n", user.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password")

	return cmd
}
