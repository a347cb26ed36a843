// Package userscmder provides the users command for managing the principal
// directory from the CLI.
package userscmder

import (
	"github.com/spf13/cobra"

	"github.com/canopyhq/rolechat/pkg/config"
	"github.com/canopyhq/rolechat/pkg/users"
)

const usersLongDesc string = `Manage the rolechat user directory.

Users authenticate with HTTP Basic credentials; the role attached to each
user decides which document partitions their questions can draw from.

Use subcommands to inspect and change the directory:
  rolechat users list                 List all users
  rolechat users add <username>       Add a user
  rolechat users remove <username>    Remove a user
  rolechat users seed                 Insert the demo accounts into an empty store`

const usersShortDesc string = "Manage the user directory"

func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: usersShortDesc,
		Long:  usersLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newSeedCmd())

	return cmd
}

// openStore resolves the configured SQLite path and opens the user store.
func openStore(cmd *cobra.Command) (*users.SQLiteStore, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	cfg := config.FromViper(v)
	return users.NewSQLiteStore(cfg.Users.SQLitePath)
}
