package userscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const removeShortDesc string = "Remove a user"

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <username>",
		Short: removeShortDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(context.Background(), args[0]); err != nil {
				return err
			}

			fmt.Printf("Removed %s\n", args[0])
			return nil
		},
	}

	return cmd
}
