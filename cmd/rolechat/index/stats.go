package indexcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canopyhq/rolechat/cmd/rolechat/wiring"
	"github.com/canopyhq/rolechat/pkg/config"
	"github.com/canopyhq/rolechat/pkg/logger"
)

const statsLongDesc string = `Show statistics about the indexed documents.

Reports the total chunk count, the per-role breakdown, and the collection's
vector dimensionality.`

const statsShortDesc string = "Show index statistics"

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			return runStats(config.FromViper(v), debug)
		},
	}

	return cmd
}

func runStats(cfg *config.Config, debug bool) error {
	log := logger.NewLogger(debug)
	defer log.Sync()

	stack, err := wiring.Build(cfg, log)
	if err != nil {
		return err
	}
	defer stack.Close()

	stats, err := stack.Driver.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("querying index stats: %w", err)
	}

	fmt.Printf("Collection: %s\n", stats.Collection)
	fmt.Printf("Chunks:     %d\n", stats.Total)
	fmt.Printf("Dimensions: %d\n", stats.Dimensions)
	printPerRole(stats.PerRole)

	return nil
}
