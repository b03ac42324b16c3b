package fold

import (
	"fmt"
	"os"

	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
)

// Status reports what the next Refold of root would do, without moving
// anything.
func Status(root string) (*StatusResult, error) {
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

	result := &StatusResult{
		Root:              absRoot,
		ManifestPath:      manifest.Path(absRoot),
		UsesAbsolutePaths: m.UsesAbsolutePaths,
		Total:             len(targets),
		Ready:             []manifest.Entry{},
		Missing:           []Missing{},
	}

	for _, t := range targets {
		present, err := isRegularFile(t.Flat)
		if err != nil {
			return nil, fmt.Errorf("checking %s: %w", t.Flat, err)
		}
		if !present {
			result.Missing = append(result.Missing, Missing{Entry: t.Entry, Flat: t.Flat, Reason: ReasonMissing})
			continue
		}
		if t.Flat != t.Original {
			if _, err := os.Lstat(t.Original); err == nil {
				result.Missing = append(result.Missing, Missing{Entry: t.Entry, Flat: t.Flat, Reason: ReasonOccupied})
				continue
			}
		}
		result.Ready = append(result.Ready, t.Entry)
	}

	return result, nil
}
