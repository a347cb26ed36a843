package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopyhq/rolechat/pkg/cliui"
	"github.com/canopyhq/rolechat/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file in
the config directory. Keys use dotted notation matching the TOML
section structure.

Valid keys:
  api.listen, corpus.root,
  vector_store.provider, vector_store.host, vector_store.port,
  vector_store.collection, vector_store.sqlite_path,
  embedding.provider, embedding.target, embedding.model,
  embedding.dimensions,
  llm.provider, llm.target, llm.model,
  retrieval.top_k, retrieval.min_score,
  users.sqlite_path, events.provider, events.topic

Examples:
  rolechat config set llm.model llama3.2
  rolechat config set vector_store.host qdrant.internal
  rolechat config set embedding.dimensions 768`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(args[0], args[1], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	printTarget(cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Printf("  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
