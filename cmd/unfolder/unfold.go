package main

import (
	"time"

	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/journal"
	"github.com/jamesainslie/unfolder/pkg/unfolder/output"
	"github.com/spf13/cobra"
)

var unfoldCmd = &cobra.Command{
	Use:   "unfold <dir>",
	Short: "Move every file under a directory into the directory itself",
	Long: `Unfold flattens dir: each file beneath it is moved into dir and named
after its path, so a/b/x.txt becomes a-b-x.txt. Emptied subdirectories are
removed and every move is recorded in dir/.refolding for refold.

With --shorter-names a file keeps as few parent names as it needs to stay
unique, so a/b/x.txt becomes x.txt when nothing else is called that.

Unfold refuses to run on a directory that still has a .refolding file.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnfold,
}

func init() {
	unfoldCmd.Flags().BoolP("absolute-paths", "a", false, "record absolute paths in .refolding")
	unfoldCmd.Flags().BoolP("shorter-names", "s", false, "use the shortest unique flattened names")
	rootCmd.AddCommand(unfoldCmd)
}

func runUnfold(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args[0])
	if err != nil {
		return err
	}

	return withLock(root, func() error {
		progress := newProgress(cmd.ErrOrStderr(), root, cfg.Verbosity)
		strategy := strategyName(cfg.ShorterNames)
		started := time.Now()

		printInfo(cmd, "Unfolding %s...", root)
		res, err := fold.Unfold(root, foldOptions(progress))

		rec := &journal.Record{
			Operation: journal.OpUnfold,
			Root:      root,
			Absolute:  cfg.AbsolutePaths,
			Strategy:  strategy,
			Elapsed:   time.Since(started),
		}
		if res != nil {
			rec.Files = len(res.Entries)
			rec.Bytes = res.Bytes
			rec.Complete = true
		} else {
			rec.Files = progress.moves
		}
		record(rec, err)

		if err != nil {
			return err
		}
		return render(cmd, output.FromUnfold(res, strategy))
	})
}
