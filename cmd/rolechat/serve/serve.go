// Package servecmder provides the serve command for the rolechat HTTP API.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/api"
	"github.com/canopyhq/rolechat/cmd/rolechat/wiring"
	"github.com/canopyhq/rolechat/pkg/config"
	"github.com/canopyhq/rolechat/pkg/logger"
)

type ServeCommander struct {
	listen        string
	corpusRoot    string
	usersDB       string
	embeddingProv string
	llmProv       string
	topK          uint
	debug         bool
	logger        *zap.Logger
}

const serveLongDesc string = `Run the rolechat HTTP API server.

The server exposes the authenticated chat endpoint plus the admin surfaces
for index runs and user management. All settings resolve through the usual
precedence chain: flags, then ROLECHAT_ environment variables, then
config.toml, then built-in defaults.`

const serveShortDesc string = "Run the rolechat API server"

// serveFlags are the registry keys this command binds.
var serveFlags = []string{
	config.FlagListen,
	config.FlagCorpusRoot,
	config.FlagUsersSQLitePath,
	config.FlagEmbeddingProv,
	config.FlagLLMProvider,
	config.FlagTopK,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
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
			config.BindRegisteredFlags(v, cmd, config.Flags, serveFlags)

			return cmder.run(config.FromViper(v))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagCorpusRoot, &cmder.corpusRoot)
	config.AddStringFlag(cmd, config.Flags, config.FlagUsersSQLitePath, &cmder.usersDB)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProv)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)

	return cmd
}

func (c *ServeCommander) run(cfg *config.Config) error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	stack, err := wiring.Build(cfg, c.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	if cfg.Users.Seed {
		if err := stack.Users.Seed(context.Background()); err != nil {
			return fmt.Errorf("seeding users: %w", err)
		}
	}

	server := api.NewServer(
		api.Config{
			ListenAddr: cfg.API.Listen,
			TopK:       int(cfg.Retrieval.TopK),
		},
		stack.Users,
		stack.Retriever,
		stack.Generator,
		stack.Indexer,
		stack.Driver,
		c.logger,
	)

	c.logger.Info("starting rolechat",
		zap.String("listen", cfg.API.Listen),
		zap.String("corpus", cfg.Corpus.Root),
		zap.String("vector_provider", cfg.VectorStore.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("llm_provider", cfg.LLM.Provider),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
