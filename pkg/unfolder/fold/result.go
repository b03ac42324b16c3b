package fold

import (
	"time"

	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
)

// MissingReason explains why an entry could not be restored.
type MissingReason string

const (
	// ReasonMissing means the flattened file is not in the root.
	ReasonMissing MissingReason = "missing"
	// ReasonOccupied means the original location already holds a file.
	ReasonOccupied MissingReason = "occupied"
)

// Missing is an entry left in the manifest after a refold pass.
type Missing struct {
	Entry  manifest.Entry `json:"entry" yaml:"entry"`
	Flat   string         `json:"flat" yaml:"flat"`
	Reason MissingReason  `json:"reason" yaml:"reason"`
}

// UnfoldResult summarizes a successful unfold.
type UnfoldResult struct {
	// Root is the absolute unfold root.
	Root string

	// ManifestPath is where the manifest was written.
	ManifestPath string

	// UsesAbsolutePaths is the manifest path mode.
	UsesAbsolutePaths bool

	// Entries are the recorded moves in visitation order.
	Entries []manifest.Entry

	// Bytes is the total size of the moved files.
	Bytes int64

	// DirsRemoved is the number of emptied directories deleted.
	DirsRemoved int

	// Elapsed is the wall time of the operation.
	Elapsed time.Duration
}

// RefoldResult summarizes a refold pass. A pass that leaves entries
// behind is still a success; Complete reports whether anything remains.
type RefoldResult struct {
	// Root is the absolute refold root.
	Root string

	// ManifestPath is the manifest location, rewritten or deleted.
	ManifestPath string

	// UsesAbsolutePaths is the manifest path mode.
	UsesAbsolutePaths bool

	// Restored are the entries moved back during this pass.
	Restored []manifest.Entry

	// Missing are the entries left for a later pass.
	Missing []Missing

	// DirsCreated is the number of ancestor directories recreated.
	DirsCreated int

	// Bytes is the total size of the restored files.
	Bytes int64

	// Elapsed is the wall time of the operation.
	Elapsed time.Duration
}

// Remaining returns the number of entries still in the manifest.
func (r *RefoldResult) Remaining() int {
	return len(r.Missing)
}

// Complete reports whether the manifest was fully consumed and removed.
func (r *RefoldResult) Complete() bool {
	return len(r.Missing) == 0
}

// StatusResult describes an outstanding manifest without changing it.
type StatusResult struct {
	Root              string
	ManifestPath      string
	UsesAbsolutePaths bool

	// Total is the number of entries in the manifest.
	Total int

	// Ready are the entries that the next refold would restore.
	Ready []manifest.Entry

	// Missing are the entries the next refold would leave behind.
	Missing []Missing
}
