package main

import (
	"fmt"
	"time"

	"github.com/jamesainslie/unfolder/pkg/unfolder/config"
	"github.com/jamesainslie/unfolder/pkg/unfolder/journal"
	"github.com/jamesainslie/unfolder/pkg/unfolder/output"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View past unfold, refold and abandon runs",
	Long: `View the journal of runs, newest first.

The journal lives in $XDG_DATA_HOME/unfolder/journal unless journal.path
says otherwise. Use --match to select roots with a glob pattern, where *
stays within one directory and ** spans several.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove runs older than the retention period",
	Long:  `Remove journal records older than journal.retention_days.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
	historyMatch string
	historyOp    string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", config.DefaultHistoryLimit, "maximum number of entries to show (0 for all)")
	historyCmd.Flags().StringVarP(&historyMatch, "match", "m", "", "only runs whose root matches this glob")
	historyCmd.Flags().StringVar(&historyOp, "operation", "", "only runs of this operation (unfold, refold, abandon)")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// historyFilter builds the journal filter from the history flags.
func historyFilter() (journal.Filter, error) {
	var filters []journal.Filter
	if historyMatch != "" {
		f, err := journal.MatchRoot(historyMatch)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	if historyOp != "" {
		op := journal.Operation(historyOp)
		switch op {
		case journal.OpUnfold, journal.OpRefold, journal.OpAbandon:
		default:
			return nil, fmt.Errorf("unknown operation %q", historyOp)
		}
		filters = append(filters, journal.ForOperation(op))
	}
	return journal.All(filters...), nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	filter, err := historyFilter()
	if err != nil {
		return err
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	records, err := j.List(historyLimit, filter)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}
	return render(cmd, output.FromHistory(records))
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	rec, err := j.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get run %s: %w", args[0], err)
	}
	return render(cmd, output.FromHistory([]*journal.Record{rec}))
}

func runHistoryClean(cmd *cobra.Command, args []string) error {
	retentionDays := cfg.Journal.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed, err := j.Prune(cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	cliLog().Info("journal pruned", "removed", removed, "retention_days", retentionDays)
	printInfo(cmd, "Removed %d run(s) older than %d days.", removed, retentionDays)
	return nil
}
