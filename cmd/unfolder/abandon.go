package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/journal"
	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
	"github.com/jamesainslie/unfolder/pkg/unfolder/output"
	"github.com/jamesainslie/unfolder/pkg/unfolder/trash"
	"github.com/spf13/cobra"
)

var abandonCmd = &cobra.Command{
	Use:   "abandon <dir>",
	Short: "Give up on refolding a directory",
	Long: `Abandon discards dir/.refolding so the flattened files stay where they
are and the directory can be unfolded again. The file goes to the system
trash when one is available, so it can be restored by hand.

A damaged .refolding can be abandoned too.`,
	Args: cobra.ExactArgs(1),
	RunE: runAbandon,
}

var abandonDelete bool

func init() {
	abandonCmd.Flags().BoolVar(&abandonDelete, "delete", false, "delete .refolding instead of moving it to the trash")
	rootCmd.AddCommand(abandonCmd)
}

func runAbandon(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args[0])
	if err != nil {
		return err
	}

	return withLock(root, func() error {
		started := time.Now()

		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", fold.ErrDirectoryNotFound, root)
		}

		exists, err := manifest.Exists(root)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%s: %w", manifest.Path(root), manifest.ErrNotFound)
		}

		entries := 0
		m, err := manifest.Load(root)
		switch {
		case err == nil:
			entries = m.Len()
		case errors.Is(err, manifest.ErrMalformed):
			cliLog().Warn("abandoning damaged manifest", "root", root, "error", err)
		default:
			return err
		}

		discarder := trash.New()
		if abandonDelete {
			discarder = trash.DeleteOnly()
		}
		method, err := discarder.Discard(commandContext(cmd), manifest.Path(root))

		record(&journal.Record{
			Operation: journal.OpAbandon,
			Root:      root,
			Files:     entries,
			Complete:  err == nil,
			Elapsed:   time.Since(started),
		}, err)

		if err != nil {
			return err
		}
		cliLog().Info("manifest abandoned", "root", root, "entries", entries, "method", method)
		return render(cmd, output.FromAbandon(root, manifest.Path(root), entries, string(method)))
	})
}
