package output

import (
	"fmt"

	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/journal"
	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
)

// FromUnfold builds a report for a finished unfold.
func FromUnfold(res *fold.UnfoldResult, strategy string) *Report {
	return &Report{
		Kind:         KindUnfold,
		Root:         res.Root,
		ManifestPath: res.ManifestPath,
		ManifestKept: true,
		Absolute:     res.UsesAbsolutePaths,
		Strategy:     strategy,
		Moves:        moves(res.Entries),
		Pending:      []Pending{},
		DirsRemoved:  res.DirsRemoved,
		Bytes:        res.Bytes,
		Elapsed:      res.Elapsed,
	}
}

// FromRefold builds a report for a refold pass. An incomplete pass carries
// a warning telling the user how to finish.
func FromRefold(res *fold.RefoldResult) *Report {
	r := &Report{
		Kind:         KindRefold,
		Root:         res.Root,
		ManifestPath: res.ManifestPath,
		ManifestKept: !res.Complete(),
		Absolute:     res.UsesAbsolutePaths,
		Moves:        moves(res.Restored),
		Pending:      pending(res.Missing),
		DirsCreated:  res.DirsCreated,
		Bytes:        res.Bytes,
		Elapsed:      res.Elapsed,
	}
	if !res.Complete() {
		r.Warnings = append(r.Warnings, fmt.Sprintf(
			"%d file(s) could not be restored. Put them back and run refold again, or run abandon to drop %s.",
			res.Remaining(), manifest.FileName))
	}
	return r
}

// FromStatus builds a report for an outstanding manifest.
func FromStatus(res *fold.StatusResult) *Report {
	return &Report{
		Kind:         KindStatus,
		Root:         res.Root,
		ManifestPath: res.ManifestPath,
		ManifestKept: true,
		Absolute:     res.UsesAbsolutePaths,
		Moves:        moves(res.Ready),
		Pending:      pending(res.Missing),
		Total:        res.Total,
	}
}

// FromAbandon builds a report for a discarded manifest.
func FromAbandon(root, manifestPath string, entries int, method string) *Report {
	return &Report{
		Kind:         KindAbandon,
		Root:         root,
		ManifestPath: manifestPath,
		Total:        entries,
		Moves:        []Move{},
		Pending:      []Pending{},
		Discarded:    method,
	}
}

// FromHistory builds a report listing journal records.
func FromHistory(records []*journal.Record) *Report {
	rows := make([]HistoryRow, len(records))
	for i, rec := range records {
		rows[i] = HistoryRow{
			ID:        rec.ID,
			Time:      rec.Time,
			Operation: string(rec.Operation),
			Root:      rec.Root,
			Files:     rec.Files,
			Missing:   rec.Missing,
			Bytes:     rec.Bytes,
			Complete:  rec.Complete,
			Error:     rec.Error,
			Elapsed:   rec.Elapsed,
		}
	}
	return &Report{
		Kind:    KindHistory,
		Moves:   []Move{},
		Pending: []Pending{},
		History: rows,
	}
}

func moves(entries []manifest.Entry) []Move {
	out := make([]Move, len(entries))
	for i, e := range entries {
		out[i] = Move{From: e.OldPath, To: e.NewPath}
	}
	return out
}

func pending(missing []fold.Missing) []Pending {
	out := make([]Pending, len(missing))
	for i, m := range missing {
		out[i] = Pending{Original: m.Entry.OldPath, Flat: m.Entry.NewPath, Reason: string(m.Reason)}
	}
	return out
}
