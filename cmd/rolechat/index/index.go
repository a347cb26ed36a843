// Package indexcmder provides the index command for corpus ingestion runs.
package indexcmder

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/cmd/rolechat/wiring"
	"github.com/canopyhq/rolechat/pkg/cliui"
	"github.com/canopyhq/rolechat/pkg/config"
	"github.com/canopyhq/rolechat/pkg/indexer"
	"github.com/canopyhq/rolechat/pkg/logger"
	"github.com/canopyhq/rolechat/pkg/rbac"
)

type indexCommander struct {
	corpusRoot    string
	embeddingProv string
	vectorProv    string
	reindex       bool
	debug         bool
	logger        *zap.Logger
}

const indexLongDesc string = `Index the role-partitioned document corpus.

Walks the corpus root, chunks every supported document, embeds the chunks,
and upserts them into the vector store. Use --reindex to clear the store
before the run so removed documents disappear from the index.

Use subcommands to inspect or reset the index:
  rolechat index stats    Show per-role chunk counts
  rolechat index clear    Remove every record from the vector store`

const indexShortDesc string = "Index the document corpus"

// printPrecision rounds the reported run duration for display.
const printPrecision = time.Millisecond

var indexFlags = []string{
	config.FlagCorpusRoot,
	config.FlagEmbeddingProv,
	config.FlagVectorProvider,
}

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, indexFlags)

			return cmder.run(config.FromViper(v))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagCorpusRoot, &cmder.corpusRoot)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProvider, &cmder.vectorProv)
	cmd.Flags().BoolVar(&cmder.reindex, "reindex", false, "Clear the vector store before indexing")

	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newClearCmd())

	return cmd
}

func (c *indexCommander) run(cfg *config.Config) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	stack, err := wiring.Build(cfg, c.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx := context.Background()

	var report *indexer.Report
	err = cliui.Step(os.Stderr, "Indexing corpus", func() error {
		var stepErr error
		if c.reindex {
			report, stepErr = stack.Indexer.Reindex(ctx)
		} else {
			report, stepErr = stack.Indexer.IndexAll(ctx)
		}
		return stepErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d files (%d skipped), %d chunks in %s\n",
		report.FilesIndexed, report.FilesSkipped, report.Chunks, report.Duration.Round(printPrecision))

	printPerRole(report.ChunksPerRole)

	return nil
}

// printPerRole prints role counts in a stable order.
func printPerRole(perRole map[rbac.Role]int) {
	roles := make([]string, 0, len(perRole))
	for role := range perRole {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)

	for _, role := range roles {
		fmt.Printf("  %-12s %d\n", role, perRole[rbac.Role(role)])
	}
}
