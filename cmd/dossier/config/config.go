// Package configcmder provides the config command for managing persistent
// dossier configuration stored in the .dossier/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent dossier configuration.

Configuration is stored as config.toml in the .dossier/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path, storage.corpus_dir, storage.playbook_dir,
  storage.telemetry_path, storage.max_raw_files,
  api.listen,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  llm.provider, llm.target, llm.model,
  curation.location_hint, curation.top_k,
  telemetry.kafka_brokers, telemetry.kafka_topic

Use subcommands to get, set, or list configuration values:
  dossier config set <key> <value>    Set a configuration value
  dossier config get <key>            Get a configuration value
  dossier config list                 List all configuration values

Examples:
  dossier config set vector_store.provider qdrant
  dossier config set embedding.model nomic-embed-text
  dossier config get llm.provider
  dossier config list`

const configShortDesc string = "Manage persistent dossier configuration"

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
