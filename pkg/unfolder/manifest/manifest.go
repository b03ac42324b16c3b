package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

	attrTrue  = "True"
	attrFalse = "False"
)

// xmlDocument mirrors the on-disk layout. Pointer fields distinguish a
// missing element from an empty one.
type xmlDocument struct {
	XMLName           xml.Name   `xml:"RefoldingInfo"`
	UsesAbsolutePaths *string    `xml:"UsesAbsolutePaths,attr"`
	Entries           []xmlEntry `xml:"RefoldingEntry"`
}

// xmlEntry keeps NewPath before OldPath; the order is part of the format.
type xmlEntry struct {
	NewPath *string `xml:"NewPath"`
	OldPath *string `xml:"OldPath"`
}

// Path returns the manifest location for root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// tempSuffix marks the file written before the atomic rename in Save.
const tempSuffix = ".tmp"

// IsReserved reports whether a flat name would clash with the manifest or
// its temporary file.
func IsReserved(name string) bool {
	return name == FileName || name == FileName+tempSuffix
}

// Exists reports whether root has a manifest.
func Exists(root string) (bool, error) {
	_, err := os.Stat(Path(root))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking manifest: %w", err)
}

// Load reads and validates the manifest in root.
func Load(root string) (*Manifest, error) {
	path := Path(root)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	m, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes m to root atomically, replacing any existing manifest.
func Save(root string, m *Manifest) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}

	path := Path(root)
	tmpPath := path + tempSuffix
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write temp manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp manifest: %w", err)
	}
	return nil
}

// Remove deletes the manifest in root. A missing manifest is not an error.
func Remove(root string) error {
	if err := os.Remove(Path(root)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing manifest: %w", err)
	}
	return nil
}

// Encode writes m as an XML document.
func (m *Manifest) Encode(w io.Writer) error {
	mode := attrFalse
	if m.UsesAbsolutePaths {
		mode = attrTrue
	}

	doc := xmlDocument{
		UsesAbsolutePaths: &mode,
		Entries:           make([]xmlEntry, len(m.Entries)),
	}
	for i := range m.Entries {
		e := &m.Entries[i]
		if err := checkEntry(e, !m.UsesAbsolutePaths); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		doc.Entries[i] = xmlEntry{NewPath: &e.NewPath, OldPath: &e.OldPath}
	}

	if _, err := io.WriteString(w, xmlHeader); err != nil {
		return fmt.Errorf("writing manifest header: %w", err)
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// Decode parses an XML manifest. Every structural problem is reported as
// a *MalformedError.
func Decode(r io.Reader) (*Manifest, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &MalformedError{Entry: -1, Field: "RefoldingInfo", Err: err}
	}

	if doc.UsesAbsolutePaths == nil {
		return nil, &MalformedError{Entry: -1, Field: "UsesAbsolutePaths"}
	}
	abs, err := parseBool(*doc.UsesAbsolutePaths)
	if err != nil {
		return nil, &MalformedError{Entry: -1, Field: "UsesAbsolutePaths", Err: err}
	}

	m := New(abs)
	for i, e := range doc.Entries {
		// Whitespace is significant: " " is a valid file name.
		if e.OldPath == nil || *e.OldPath == "" {
			return nil, &MalformedError{Entry: i, Field: "OldPath"}
		}
		if e.NewPath == nil || *e.NewPath == "" {
			return nil, &MalformedError{Entry: i, Field: "NewPath"}
		}
		oldPath, newPath := *e.OldPath, *e.NewPath
		if !abs {
			oldPath, newPath = normalizeLegacy(oldPath), normalizeLegacy(newPath)
		}
		m.Add(oldPath, newPath)
	}
	return m, nil
}

func checkEntry(e *Entry, relative bool) error {
	if err := CheckPath(e.OldPath, relative); err != nil {
		return err
	}
	return CheckPath(e.NewPath, relative)
}

// parseBool accepts the attribute values written by this and earlier
// versions, case-insensitively.
func parseBool(s string) (bool, error) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), attrTrue):
		return true, nil
	case strings.EqualFold(strings.TrimSpace(s), attrFalse):
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
