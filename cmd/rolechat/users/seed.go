package userscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

const seedLongDesc string = `Insert the demo accounts into an empty store.

A store that already holds users is left untouched, so seeding is safe to
repeat. The demo set covers one account per role plus an admin.`

const seedShortDesc string = "Insert the demo accounts"

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: seedShortDesc,
		Long:  seedLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			if err := store.Seed(ctx); err != nil {
				return err
			}

			list, err := store.List(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Store holds %d users.\n", len(list))
			return nil
		},
	}

	return cmd
}
