package userscmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

const addLongDesc string = `Add a user to the directory.

The role decides which document partitions the user's questions can draw
from. Valid roles: engineering, finance, hr, marketing, general, c-level,
admin.

Examples:
  rolechat users add dana --password danapass --role hr
  rolechat users add ops-admin --password s3cret --role admin`

const addShortDesc string = "Add a user"

func newAddCmd() *cobra.Command {
	var password string
	var roleStr string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: addShortDesc,
		Long:  addLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := rbac.ParseRole(roleStr)
			if err != nil {
				return fmt.Errorf("unknown role %q (valid: %s, admin)",
					roleStr, strings.Join(rbac.Strings(rbac.DocumentRoles), ", "))
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			user, err := store.Create(context.Background(), args[0], password, role)
			if err != nil {
				return err
			}

			fmt.Printf("Added %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password for the new user (required)")
	cmd.Flags().StringVarP(&roleStr, "role", "r", "general", "Role for the new user")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
