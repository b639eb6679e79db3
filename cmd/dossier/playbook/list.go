package playbookcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhq/dossier/pkg/cliui"
)

const listLongDesc string = `List all cached entity playbooks.

Shows each playbook's slug, size, and last update time.

Examples:
  dossier playbook list`

const listShortDesc string = "List all playbooks"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	infos, err := store.List()
	if err != nil {
		return fmt.Errorf("listing playbooks: %w", err)
	}

	if len(infos) == 0 {
		fmt.Printf("  %s No playbooks cached yet.\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Printf("\n  %s\n\n", cliui.KeyStyle.Render(fmt.Sprintf("%d playbooks", len(infos))))
	for _, info := range infos {
		fmt.Printf("  %s  %s  %s\n",
			cliui.ValueStyle.Render(fmt.Sprintf("%-32s", info.Slug)),
			cliui.DimStyle.Render(fmt.Sprintf("%6d bytes", info.Size)),
			cliui.DimStyle.Render(info.UpdatedAt.Format("2006-01-02 15:04")),
		)
	}
	fmt.Println()

	return nil
}
