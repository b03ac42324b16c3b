// Package manifest models the restore plan written by an unfold and
// consumed by a refold, and persists it as XML at <root>/.refolding.
//
// The document layout is frozen for compatibility with manifests written
// by earlier runs:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<RefoldingInfo UsesAbsolutePaths="False">
//	  <RefoldingEntry>
//	    <NewPath>a-b-x.txt</NewPath>
//	    <OldPath>a/b/x.txt</OldPath>
//	  </RefoldingEntry>
//	</RefoldingInfo>
package manifest

import (
	"errors"
	"fmt"
)

// FileName is the name of the manifest inside the unfold root.
const FileName = ".refolding"

var (
	// ErrNotFound is returned when the root has no manifest.
	ErrNotFound = errors.New("refolding manifest not found")

	// ErrMalformed is returned when the manifest cannot be parsed or is
	// missing required fields.
	ErrMalformed = errors.New("refolding manifest is malformed")
)

// MalformedError describes what made a manifest unusable.
type MalformedError struct {
	// Entry is the zero-based index of the offending entry, or -1 when the
	// problem is in the document root.
	Entry int

	// Field names the missing or invalid element or attribute.
	Field string

	// Err is the underlying cause, if any.
	Err error
}

func (e *MalformedError) Error() string {
	msg := ErrMalformed.Error()
	if e.Entry >= 0 {
		msg = fmt.Sprintf("%s: entry %d", msg, e.Entry)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is reports ErrMalformed so callers can use errors.Is.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Entry records where one file was before an unfold and where it went.
type Entry struct {
	// OldPath is the original location: relative to the root with forward
	// slashes, or absolute.
	OldPath string `json:"old_path" yaml:"old_path"`

	// NewPath is the flattened location: the bare flat name, or absolute.
	NewPath string `json:"new_path" yaml:"new_path"`
}

// Manifest is the restore plan for one unfold root.
type Manifest struct {
	// UsesAbsolutePaths is fixed when the manifest is created. It applies
	// to every entry.
	UsesAbsolutePaths bool

	// Entries are kept in file-visitation order.
	Entries []Entry
}

// New returns an empty manifest in the given path mode.
func New(usesAbsolutePaths bool) *Manifest {
	return &Manifest{
		UsesAbsolutePaths: usesAbsolutePaths,
		Entries:           []Entry{},
	}
}

// Add appends an entry.
func (m *Manifest) Add(oldPath, newPath string) {
	m.Entries = append(m.Entries, Entry{OldPath: oldPath, NewPath: newPath})
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// Retain keeps only the entries for which keep returns true, preserving
// order.
func (m *Manifest) Retain(keep func(i int, e Entry) bool) {
	kept := m.Entries[:0]
	for i, e := range m.Entries {
		if keep(i, e) {
			kept = append(kept, e)
		}
	}
	m.Entries = kept
}
