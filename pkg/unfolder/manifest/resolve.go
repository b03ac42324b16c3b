package manifest

import (
	"fmt"
	"path/filepath"
)

// Target is an entry resolved to concrete filesystem paths.
type Target struct {
	Entry

	// Flat is the absolute path of the flattened file.
	Flat string

	// Original is the absolute path the file is restored to.
	Original string
}

// Resolve turns e into absolute paths. In relative mode both paths are
// joined onto root and must stay inside it; in absolute mode both must
// already be absolute.
func (m *Manifest) Resolve(root string, e Entry) (Target, error) {
	if m.UsesAbsolutePaths {
		flat := filepath.FromSlash(e.NewPath)
		orig := filepath.FromSlash(e.OldPath)
		if !filepath.IsAbs(flat) {
			return Target{}, fmt.Errorf("NewPath %q is not absolute", e.NewPath)
		}
		if !filepath.IsAbs(orig) {
			return Target{}, fmt.Errorf("OldPath %q is not absolute", e.OldPath)
		}
		return Target{Entry: e, Flat: filepath.Clean(flat), Original: filepath.Clean(orig)}, nil
	}

	flat, err := joinLocal(root, e.NewPath)
	if err != nil {
		return Target{}, fmt.Errorf("NewPath: %w", err)
	}
	orig, err := joinLocal(root, e.OldPath)
	if err != nil {
		return Target{}, fmt.Errorf("OldPath: %w", err)
	}
	return Target{Entry: e, Flat: flat, Original: orig}, nil
}

// ResolveAll resolves every entry up front so that a bad entry is caught
// before any file is touched.
func (m *Manifest) ResolveAll(root string) ([]Target, error) {
	targets := make([]Target, len(m.Entries))
	for i, e := range m.Entries {
		t, err := m.Resolve(root, e)
		if err != nil {
			return nil, &MalformedError{Entry: i, Err: err}
		}
		targets[i] = t
	}
	return targets, nil
}

// joinLocal joins a slash-separated relative path onto root, refusing
// paths that would leave it.
func joinLocal(root, rel string) (string, error) {
	p := filepath.FromSlash(rel)
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("path %q escapes the root", rel)
	}
	return filepath.Join(root, p), nil
}
