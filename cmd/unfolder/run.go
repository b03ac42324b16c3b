package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/unfolder/pkg/unfolder/config"
	"github.com/jamesainslie/unfolder/pkg/unfolder/encoder"
	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/journal"
	"github.com/jamesainslie/unfolder/pkg/unfolder/lock"
	"github.com/jamesainslie/unfolder/pkg/unfolder/output"
	"github.com/spf13/cobra"
)

// resolveRoot expands ~ and makes the root absolute.
func resolveRoot(arg string) (string, error) {
	expanded, err := config.ExpandPath(arg)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", arg, err)
	}
	return abs, nil
}

// withLock runs fn while holding the lock for root.
func withLock(root string, fn func() error) error {
	l, err := lock.Acquire(config.DefaultLockDir(), root)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			cliLog().Warn("failed to release lock", "root", root, "error", err)
		}
	}()

	cliLog().Debug("lock acquired", "root", root, "lock", l.Path())
	return fn()
}

// foldOptions builds engine options from the loaded configuration.
func foldOptions(observer fold.Observer) fold.Options {
	return fold.Options{
		UsesAbsolutePaths: cfg.AbsolutePaths,
		UseShorterNames:   cfg.ShorterNames,
		Separator:         cfg.Separator,
		Observer:          observer,
	}
}

// openJournal opens the configured journal.
func openJournal() (*journal.Journal, error) {
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return j, nil
}

// record appends r to the journal when it is enabled. A journal failure
// never fails the command.
func record(r *journal.Record, runErr error) {
	if cfg == nil || !cfg.Journal.Enabled {
		return
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}

	j, err := openJournal()
	if err != nil {
		cliLog().Warn("journal unavailable", "error", err)
		return
	}
	defer func() {
		if err := j.Close(); err != nil {
			cliLog().Warn("failed to close journal", "error", err)
		}
	}()

	if err := j.Append(r); err != nil {
		cliLog().Warn("failed to record run", "operation", r.Operation, "root", r.Root, "error", err)
	}
}

// render writes report in the configured format.
func render(cmd *cobra.Command, report *output.Report) error {
	formatter, err := output.Get(cfg.Output)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// strategyName names the naming strategy for reports and the journal.
func strategyName(shorter bool) string {
	if shorter {
		return encoder.StrategyShortest.String()
	}
	return encoder.StrategyFull.String()
}
