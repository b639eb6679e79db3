// Package dossiercmder
package dossiercmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/quarryhq/dossier/cmd/dossier/config"
	playbookcmder "github.com/quarryhq/dossier/cmd/dossier/playbook"
	servecmder "github.com/quarryhq/dossier/cmd/dossier/serve"
	statscmder "github.com/quarryhq/dossier/cmd/dossier/stats"
	versioncmder "github.com/quarryhq/dossier/cmd/version"
)

const dossierLongDesc string = `Dossier is an entity knowledge cache for research agents.

Documents gathered while researching an entity are curated into compact
entries, indexed for semantic search, and folded into one playbook per
entity. Later sessions retrieve the playbook plus the most relevant raw
evidence instead of starting from scratch.

Common commands:
  dossier serve             Run the HTTP API and MCP server
  dossier playbook list     List cached entity playbooks
  dossier stats             Show cache statistics
  dossier config list       List configuration values`

const dossierShortDesc string = "Dossier - Entity Knowledge Cache"

func NewDossierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dossier",
		Short: dossierShortDesc,
		Long:  dossierLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .dossier/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(playbookcmder.NewPlaybookCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
