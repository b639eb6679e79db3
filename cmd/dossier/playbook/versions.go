package playbookcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhq/dossier/pkg/cliui"
)

const versionsLongDesc string = `List archived versions of a playbook.

Versions are named by the timestamp at which they were archived,
newest first. Use with 'dossier playbook show --version'.

Examples:
  dossier playbook versions acme-corp`

const versionsShortDesc string = "List archived playbook versions"

func newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions <slug>",
		Short: versionsShortDesc,
		Long:  versionsLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersions(cmd, args[0])
		},
	}

	return cmd
}

func runVersions(cmd *cobra.Command, slug string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	versions, err := store.Versions(slug)
	if err != nil {
		return fmt.Errorf("listing versions: %w", err)
	}

	if len(versions) == 0 {
		fmt.Printf("  %s No archived versions for %s.\n", cliui.DimStyle.Render("●"), slug)
		return nil
	}

	fmt.Printf("\n  %s\n\n", cliui.KeyStyle.Render(fmt.Sprintf("%d versions of %s", len(versions), slug)))
	for _, v := range versions {
		fmt.Printf("  %s\n", cliui.ValueStyle.Render(v))
	}
	fmt.Println()

	return nil
}
