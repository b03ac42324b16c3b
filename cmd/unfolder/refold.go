package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/journal"
	"github.com/jamesainslie/unfolder/pkg/unfolder/output"
	"github.com/jamesainslie/unfolder/pkg/unfolder/watch"
	"github.com/spf13/cobra"
)

var refoldCmd = &cobra.Command{
	Use:   "refold <dir>",
	Short: "Rebuild a directory tree from its .refolding file",
	Long: `Refold moves every flattened file listed in dir/.refolding back to where
it came from, recreating directories as needed.

Files that are missing, or whose original location is taken, are left in
.refolding and reported; run refold again once they are back. When every
file has been restored .refolding is deleted.

With --watch, refold keeps running and retries whenever a file appears in
dir, until nothing is left or it is interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefold,
}

var refoldWatch bool

func init() {
	refoldCmd.Flags().BoolVarP(&refoldWatch, "watch", "w", false, "keep retrying as missing files return")
	rootCmd.AddCommand(refoldCmd)
}

func runRefold(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args[0])
	if err != nil {
		return err
	}

	return withLock(root, func() error {
		if !refoldWatch {
			_, err := refoldOnce(cmd, root)
			return err
		}
		return refoldWatching(cmd, root)
	})
}

// refoldOnce runs a single pass, records it and prints its report. It
// reports whether the manifest was consumed.
func refoldOnce(cmd *cobra.Command, root string) (bool, error) {
	progress := newProgress(cmd.ErrOrStderr(), root, cfg.Verbosity)
	started := time.Now()

	printInfo(cmd, "Refolding %s...", root)
	res, err := fold.Refold(root, foldOptions(progress))

	rec := &journal.Record{
		Operation: journal.OpRefold,
		Root:      root,
		Elapsed:   time.Since(started),
	}
	if res != nil {
		rec.Absolute = res.UsesAbsolutePaths
		rec.Files = len(res.Restored)
		rec.Missing = res.Remaining()
		rec.Bytes = res.Bytes
		rec.Complete = res.Complete()
	} else {
		rec.Files = progress.moves
	}
	record(rec, err)

	if err != nil {
		return false, err
	}
	if err := render(cmd, output.FromRefold(res)); err != nil {
		return false, err
	}
	return res.Complete(), nil
}

func refoldWatching(cmd *cobra.Command, root string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(root)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	err = w.Run(ctx, func(context.Context) (bool, error) {
		done, err := refoldOnce(cmd, root)
		if err == nil && !done {
			printInfo(cmd, "Waiting for missing files in %s (Ctrl+C to stop)...", root)
		}
		return done, err
	})
	if errors.Is(err, context.Canceled) {
		cliLog().Info("watch stopped", "root", root)
		return nil
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
