// Package statscmder provides the stats command for displaying cache-wide
// statistics from the local stores and the telemetry log.
package statscmder

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/cmd/dossier/setup"
	"github.com/quarryhq/dossier/pkg/cliui"
	"github.com/quarryhq/dossier/pkg/config"
	"github.com/quarryhq/dossier/pkg/corpus"
	"github.com/quarryhq/dossier/pkg/logger"
	"github.com/quarryhq/dossier/pkg/playbook"
	"github.com/quarryhq/dossier/pkg/telemetry"
)

const statsLongDesc string = `Show cache statistics.

Reports the number of tracked entities, playbooks, and raw snapshots,
plus a curation telemetry summary over the requested window.

Examples:
  dossier stats
  dossier stats --window 1h`

const statsShortDesc string = "Show cache statistics"

func NewStatsCmd() *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, window)
		},
	}

	cmd.Flags().DurationVarP(&window, "window", "w", 24*time.Hour, "Telemetry summary window")

	return cmd
}

func runStats(cmd *cobra.Command, window time.Duration) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if debug {
		log = logger.NewZap(true)
	}

	paths, err := setup.ResolvePaths(v, configDir)
	if err != nil {
		return err
	}

	corpusStore, err := corpus.NewStore(paths.Corpus, v.GetInt("storage.max_raw_files"), log)
	if err != nil {
		return fmt.Errorf("opening corpus store: %w", err)
	}

	playbookStore, err := playbook.NewStore(paths.Playbooks, log)
	if err != nil {
		return fmt.Errorf("opening playbook store: %w", err)
	}

	entities, err := corpusStore.Entities()
	if err != nil {
		return fmt.Errorf("listing entities: %w", err)
	}

	infos, err := playbookStore.List()
	if err != nil {
		return fmt.Errorf("listing playbooks: %w", err)
	}

	snapshots := 0
	for _, slug := range entities {
		n, err := corpusStore.Count(slug)
		if err != nil {
			continue
		}
		snapshots += n
	}

	fmt.Printf("\n  %s %d\n", cliui.KeyStyle.Render("Entities: "), len(entities))
	fmt.Printf("  %s %d\n", cliui.KeyStyle.Render("Playbooks:"), len(infos))
	fmt.Printf("  %s %d\n\n", cliui.KeyStyle.Render("Snapshots:"), snapshots)

	telemetryLog, err := telemetry.NewLog(paths.Telemetry, log)
	if err != nil {
		return fmt.Errorf("opening telemetry log: %w", err)
	}

	summary, err := telemetryLog.Summarize(window)
	if err != nil {
		return fmt.Errorf("summarizing telemetry: %w", err)
	}

	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Curation events"), cliui.DimStyle.Render(fmt.Sprintf("(last %s)", window)))
	fmt.Printf("    events:       %d\n", summary.Events)
	fmt.Printf("    input chars:  %d\n", summary.InputChars)
	fmt.Printf("    output chars: %d\n", summary.OutputChars)

	for entity, stats := range summary.PerEntity {
		fmt.Printf("    %s %s\n",
			cliui.ValueStyle.Render(fmt.Sprintf("%-32s", entity)),
			cliui.DimStyle.Render(fmt.Sprintf("%d events, %d in, %d out", stats.Events, stats.InputChars, stats.OutputChars)),
		)
	}
	fmt.Println()

	return nil
}
