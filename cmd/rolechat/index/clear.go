package indexcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopyhq/rolechat/cmd/rolechat/wiring"
	"github.com/canopyhq/rolechat/pkg/config"
	"github.com/canopyhq/rolechat/pkg/logger"
)

const clearLongDesc string = `Remove every record from the vector store.

The collection itself survives, so a subsequent index run does not need to
re-initialize it. Searches return nothing until the corpus is re-indexed.`

const clearShortDesc string = "Clear the vector store"

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			return runClear(config.FromViper(v), debug)
		},
	}

	return cmd
}

func runClear(cfg *config.Config, debug bool) error {
	log := logger.NewLogger(debug)
	defer log.Sync()

	stack, err := wiring.Build(cfg, log)
	if err != nil {
		return err
	}
	defer stack.Close()

	if err := stack.Driver.Clear(context.Background()); err != nil {
		return fmt.Errorf("clearing vector store: %w", err)
	}

	fmt.Println("Vector store cleared.")
	return nil
}
