// Package configcmder provides the config command for managing persistent
// memoire configuration stored in the .memoire/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent memoire configuration.

Configuration is stored as config.toml in the .memoire/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path, api.listen,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  chunking.min_chunk_words, chunking.max_chunk_words,
  search.similarity_threshold, search.max_results,
  intelligence.provider, intelligence.target, intelligence.model,
  events.enabled, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  memoire config set <key> <value>    Set a configuration value
  memoire config get <key>            Get a configuration value
  memoire config list                 List all configuration values
  memoire config preset <name>        Apply a provider preset

Examples:
  memoire config set embedding.model nomic-embed-text
  memoire config set vector_store.provider qdrant
  memoire config get intelligence.model
  memoire config preset openai
  memoire config list`

const configShortDesc string = "Manage persistent memoire configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newPresetCmd())

	return cmd
}
