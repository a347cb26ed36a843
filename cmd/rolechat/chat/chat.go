// Package chatcmder provides a one-shot chat command that answers a
// question from the local index without going through the HTTP API.
package chatcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/cmd/rolechat/wiring"
	"github.com/canopyhq/rolechat/pkg/answer"
	"github.com/canopyhq/rolechat/pkg/cliui"
	"github.com/canopyhq/rolechat/pkg/config"
	"github.com/canopyhq/rolechat/pkg/logger"
	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

type chatCommander struct {
	role     string
	llmModel string
	topK     uint
	debug    bool

	logger *zap.Logger
}

const chatLongDesc string = `Ask a question against the indexed corpus.

Embeds the question, retrieves the highest-scoring chunks the given
role is permitted to see, and generates a grounded answer. Retrieval is
scoped exactly as it is for API callers: a role only ever sees chunks
from document partitions it has been granted.

Examples:
  rolechat chat "What is our deployment process?" --role engineering
  rolechat chat "What was the Q3 budget?" --role c-level`

const chatShortDesc string = "Ask a question against the indexed corpus"

var chatFlags = []string{
	config.FlagLLMModel,
	config.FlagTopK,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			config.BindRegisteredFlags(v, cmd, config.Flags, chatFlags)

			return cmder.run(config.FromViper(v), args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.role, "role", "r", string(rbac.RoleGeneral), "Role to retrieve as")
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMModel, &cmder.llmModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)

	return cmd
}

func (c *chatCommander) run(cfg *config.Config, question string) error {
	callerRole, err := rbac.ParseRole(c.role)
	if err != nil {
		return fmt.Errorf("%w (valid roles: %s)",
			err, strings.Join(append(rbac.Strings(rbac.DocumentRoles), string(rbac.RoleAdmin)), ", "))
	}

	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	stack, err := wiring.Build(cfg, c.logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx := context.Background()

	var results []vector.Result
	err = cliui.Step(os.Stderr, "Retrieving", func() error {
		results, err = stack.Retriever.Retrieve(ctx, question, callerRole, int(cfg.Retrieval.TopK))
		return err
	})
	if err != nil {
		return err
	}

	var rendered string
	err = cliui.Step(os.Stderr, "Generating answer", func() error {
		ans, err := stack.Generator.Generate(ctx, question, callerRole, results)
		if err != nil {
			return err
		}
		rendered = formatAnswer(ans.Text, answerSources(ans))
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println(rendered)

	return nil
}

// answerSources collects unique reference sources in answer order.
func answerSources(ans *answer.Answer) []string {
	seen := make(map[string]bool, len(ans.References))
	sources := make([]string, 0, len(ans.References))
	for _, ref := range ans.References {
		if seen[ref.Source] {
			continue
		}
		seen[ref.Source] = true
		sources = append(sources, ref.Source)
	}
	return sources
}

func formatAnswer(text string, sources []string) string {
	var b strings.Builder
	b.WriteString(text)
	if len(sources) > 0 {
		b.WriteString("\n\n**Sources:** ")
		b.WriteString(strings.Join(sources, ", "))
	}

	rendered, err := cliui.RenderMarkdown(b.String())
	if err != nil {
		return b.String()
	}
	return rendered
}
