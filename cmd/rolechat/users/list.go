package userscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const listShortDesc string = "List all users"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(context.Background())
			if err != nil {
				return fmt.Errorf("listing users: %w", err)
			}

			if len(list) == 0 {
				fmt.Println("No users. Run `rolechat users seed` to insert the demo accounts.")
				return nil
			}

			for _, user := range list {
				fmt.Printf("%-16s %s\n", user.Username, user.Role)
			}
			return nil
		},
	}

	return cmd
}
