package playbookcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhq/dossier/pkg/cliui"
)

const showLongDesc string = `Show an entity playbook.

Prints the live playbook for the given slug, rendered for the terminal.
Pass --version to show an archived version instead, or --raw to print
the unrendered markdown.

Examples:
  dossier playbook show acme-corp
  dossier playbook show acme-corp --version 20260115093042
  dossier playbook show acme-corp --raw`

const showShortDesc string = "Show a playbook"

func newShowCmd() *cobra.Command {
	var version string
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: showShortDesc,
		Long:  showLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], version, raw)
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "Archived version to show (default: live playbook)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown without terminal rendering")

	return cmd
}

func runShow(cmd *cobra.Command, slug, version string, raw bool) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	content, err := store.Show(slug, version)
	if err != nil {
		return err
	}

	if raw {
		fmt.Print(content)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(content)
	if err != nil {
		// Fall back to raw output if the renderer fails.
		fmt.Print(content)
		return nil
	}

	fmt.Print(rendered)
	return nil
}
