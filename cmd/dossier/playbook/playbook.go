// Package playbookcmder provides the playbook command for inspecting and
// maintaining cached entity playbooks.
package playbookcmder

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/cmd/dossier/setup"
	"github.com/quarryhq/dossier/pkg/config"
	"github.com/quarryhq/dossier/pkg/logger"
	"github.com/quarryhq/dossier/pkg/playbook"
)

const playbookLongDesc string = `Inspect and maintain cached entity playbooks.

Each entity has one live playbook (a markdown file) plus timestamped
archived versions written every time the playbook is updated.

Use subcommands to list, show, or prune playbooks:
  dossier playbook list                 List all playbooks
  dossier playbook show <slug>          Show a playbook
  dossier playbook versions <slug>      List archived versions
  dossier playbook prune <slug>         Prune archived versions

Examples:
  dossier playbook show acme-corp
  dossier playbook show acme-corp --version 20260115093042
  dossier playbook prune acme-corp --keep 5
  dossier playbook prune --all --keep 5`

const playbookShortDesc string = "Inspect and maintain entity playbooks"

func NewPlaybookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbook",
		Short: playbookShortDesc,
		Long:  playbookLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newVersionsCmd())
	cmd.AddCommand(newPruneCmd())

	return cmd
}

// openStore opens the configured playbook store for a subcommand.
func openStore(cmd *cobra.Command) (*playbook.Store, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	log := zap.NewNop()
	if debug {
		log = logger.NewZap(true)
	}

	return setup.OpenPlaybooks(v, configDir, log)
}
