package fold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
)

// Refold restores the files listed in root's manifest to their original
// locations.
//
// Entries whose flattened file is absent, or whose original location is
// already taken, are left in the manifest and reported in the result;
// the pass carries on. Afterwards the manifest is rewritten with the
// leftovers, or deleted when none remain. Running Refold again only ever
// consumes entries whose flattened file is present, so repeated runs are
// safe.
//
// A missing manifest returns manifest.ErrNotFound and a malformed one
// returns manifest.ErrMalformed, both before any file is touched. If a
// move fails for any other reason, the manifest is rewritten to hold
// every entry not yet restored and the error is returned.
func Refold(root string, opts Options) (*RefoldResult, error) {
	start := time.Now()

	absRoot, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(absRoot)
	if err != nil {
		return nil, err
	}

	targets, err := m.ResolveAll(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifest.Path(absRoot), err)
	}

	logger.Info("refold started", "root", absRoot, "entries", m.Len(), "absolute", m.UsesAbsolutePaths)

	result := &RefoldResult{
		Root:              absRoot,
		ManifestPath:      manifest.Path(absRoot),
		UsesAbsolutePaths: m.UsesAbsolutePaths,
		Restored:          []manifest.Entry{},
		Missing:           []Missing{},
	}

	restored := make([]bool, len(targets))
	for i, t := range targets {
		ok, reason, err := refoldEntry(t, opts, result)
		if err != nil {
			return nil, saveRemaining(absRoot, m, restored, err)
		}
		if !ok {
			result.Missing = append(result.Missing, Missing{Entry: t.Entry, Flat: t.Flat, Reason: reason})
			opts.emit(Event{Kind: EventFileMissing, Path: t.Flat})
			logger.Warn("file not restored", "flat", t.Flat, "reason", reason)
			continue
		}
		restored[i] = true
		result.Restored = append(result.Restored, t.Entry)
	}

	m.Retain(func(i int, _ manifest.Entry) bool { return !restored[i] })

	if m.Len() > 0 {
		if err := manifest.Save(absRoot, m); err != nil {
			return nil, fmt.Errorf("rewriting manifest: %w", err)
		}
		logger.Warn("refold incomplete", "root", absRoot, "restored", len(result.Restored), "remaining", m.Len())
	} else {
		if err := manifest.Remove(absRoot); err != nil {
			return nil, err
		}
		logger.Info("refold complete", "root", absRoot, "restored", len(result.Restored))
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// refoldEntry moves one flattened file back. It returns false with a
// reason when the entry has to wait for a later pass.
func refoldEntry(t manifest.Target, opts Options, result *RefoldResult) (bool, MissingReason, error) {
	present, err := isRegularFile(t.Flat)
	if err != nil {
		return false, "", fmt.Errorf("checking %s: %w", t.Flat, err)
	}
	if !present {
		return false, ReasonMissing, nil
	}

	info, err := os.Lstat(t.Flat)
	if err != nil {
		return false, "", fmt.Errorf("stat %s: %w", t.Flat, err)
	}

	if t.Flat == t.Original {
		result.Bytes += info.Size()
		return true, "", nil
	}

	created, err := ensureParents(t.Original)
	for _, dir := range created {
		result.DirsCreated++
		opts.emit(Event{Kind: EventDirCreated, Path: dir})
	}
	if err != nil {
		return false, "", err
	}

	if err := moveFile(t.Flat, t.Original); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, ReasonOccupied, nil
		}
		return false, "", fmt.Errorf("restoring %s: %w", t.Original, err)
	}

	result.Bytes += info.Size()
	opts.emit(Event{Kind: EventFileMoved, From: t.Flat, To: t.Original})
	logger.Debug("file restored", "from", t.Flat, "to", t.Original)
	return true, "", nil
}

// saveRemaining rewrites the manifest without the entries restored so far
// and returns cause, joined with any error from the rewrite.
func saveRemaining(root string, m *manifest.Manifest, restored []bool, cause error) error {
	m.Retain(func(i int, _ manifest.Entry) bool { return !restored[i] })

	logger.Error("refold aborted", "root", root, "remaining", m.Len(), "error", cause)
	if err := manifest.Save(root, m); err != nil {
		return errors.Join(cause, fmt.Errorf("rewriting manifest: %w", err))
	}
	return cause
}
