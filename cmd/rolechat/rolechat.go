// Package rolechatcmder assembles the rolechat root command.
package rolechatcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	chatcmder "github.com/canopyhq/rolechat/cmd/rolechat/chat"
	configcmder "github.com/canopyhq/rolechat/cmd/rolechat/config"
	indexcmder "github.com/canopyhq/rolechat/cmd/rolechat/index"
	servecmder "github.com/canopyhq/rolechat/cmd/rolechat/serve"
	userscmder "github.com/canopyhq/rolechat/cmd/rolechat/users"
	"github.com/canopyhq/rolechat/pkg/utils"
)

const rolechatLongDesc string = `Rolechat is a role-scoped RAG chatbot for internal documents.

Documents live in role-named directories; every answer is grounded in the
chunks the caller's role is allowed to see, and nothing else.

Run services and tools using:
  rolechat serve       Run the HTTP API server
  rolechat index       Index the document corpus
  rolechat chat        Ask a one-shot question from the terminal
  rolechat users       Manage the user directory
  rolechat config      Manage persistent configuration`

const rolechatShortDesc string = "Rolechat - Role-Scoped Document Chat"

func NewRolechatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rolechat",
		Short:   rolechatShortDesc,
		Long:    rolechatLongDesc,
		Version: fmt.Sprintf("%s (%s, built %s)", utils.Version, utils.Sha, utils.Buildtime),
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.toml (default: working directory)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(userscmder.NewUsersCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())

	return cmd
}
