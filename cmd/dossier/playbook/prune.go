package playbookcmder

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhq/dossier/pkg/cliui"
)

const pruneLongDesc string = `Prune archived playbook versions.

Deletes the oldest archived versions of a playbook, keeping the newest
--keep of them. The live playbook is never touched. Pass --all to prune
every entity's archive instead of a single slug.

Examples:
  dossier playbook prune acme-corp --keep 5
  dossier playbook prune --all --keep 5`

const pruneShortDesc string = "Prune archived playbook versions"

func newPruneCmd() *cobra.Command {
	var keep int
	var all bool

	cmd := &cobra.Command{
		Use:   "prune [slug]",
		Short: pruneShortDesc,
		Long:  pruneLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) > 0 {
					return errors.New("cannot combine --all with a slug")
				}
				return runPruneAll(cmd, keep)
			}
			if len(args) == 0 {
				return errors.New("a slug is required unless --all is set")
			}
			return runPrune(cmd, args[0], keep)
		},
	}

	cmd.Flags().IntVarP(&keep, "keep", "k", 10, "Number of archived versions to keep")
	cmd.Flags().BoolVar(&all, "all", false, "Prune archives for all entities")

	return cmd
}

func runPrune(cmd *cobra.Command, slug string, keep int) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	deleted, err := store.PruneArchives(slug, keep)
	if err != nil {
		return fmt.Errorf("pruning archives: %w", err)
	}

	fmt.Printf("  %s Pruned %d versions of %s\n",
		cliui.SuccessMark,
		deleted,
		cliui.KeyStyle.Render(slug),
	)
	return nil
}

func runPruneAll(cmd *cobra.Command, keep int) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	deleted, err := store.PruneAll(keep)
	if err != nil {
		return fmt.Errorf("pruning archives: %w", err)
	}

	total := 0
	for slug, n := range deleted {
		if n > 0 {
			fmt.Printf("  %s %s: %d versions\n", cliui.SuccessMark, cliui.KeyStyle.Render(slug), n)
		}
		total += n
	}

	fmt.Printf("  %s Pruned %d versions across %d entities\n",
		cliui.SuccessMark,
		total,
		len(deleted),
	)
	return nil
}
