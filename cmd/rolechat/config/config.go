// Package configcmder provides the config command for managing persistent
// rolechat configuration stored as config.toml.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent rolechat configuration.

Configuration is stored as config.toml and provides default values for
command flags. CLI flags and ROLECHAT_ environment variables always take
precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, corpus.root,
  vector_store.provider, vector_store.host, vector_store.port,
  embedding.provider, embedding.model, embedding.dimensions,
  llm.provider, llm.model,
  retrieval.top_k, retrieval.min_score,
  users.sqlite_path, events.provider, events.topic

Use subcommands to get, set, or list configuration values:
  rolechat config set <key> <value>    Set a configuration value
  rolechat config get <key>            Get a configuration value
  rolechat config list                 List all configuration values

Examples:
  rolechat config set llm.model llama3.2
  rolechat config set vector_store.host qdrant.internal
  rolechat config get retrieval.top_k
  rolechat config list`

const configShortDesc string = "Manage persistent rolechat configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
