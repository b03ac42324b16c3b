package output

import (
	"errors"
	"strings"

	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/lock"
	"github.com/jamesainslie/unfolder/pkg/unfolder/manifest"
)

// Hint returns a suggestion for recovering from err, or "" when there is
// none.
func Hint(err error) string {
	switch {
	case errors.Is(err, manifest.ErrNotFound):
		return "Refolding data not found. Was this directory unfolded?"
	case errors.Is(err, manifest.ErrMalformed):
		return "The refolding manifest is damaged. Nothing was moved."
	case errors.Is(err, manifest.ErrUnrepresentable):
		return "Rename the file first. Nothing was moved."
	case errors.Is(err, fold.ErrRefoldPending):
		return "Run refold first, or abandon to discard the manifest."
	case errors.Is(err, fold.ErrMoveCollision):
		return "Files moved so far are recorded; run refold to put them back, then retry with --shorter-names or another --separator."
	case errors.Is(err, lock.ErrLocked):
		return "Another unfolder is working on this directory."
	default:
		return ""
	}
}

// RenderError formats err, with its hint, for a terminal. Plain output
// skips the box.
func RenderError(err error, styled bool) string {
	lines := []string{"Error: " + err.Error()}
	if hint := Hint(err); hint != "" {
		lines = append(lines, hint)
	}

	if !styled {
		return strings.Join(lines, "\n") + "\n"
	}

	lines[0] = ErrorStyle.Bold(true).Render(lines[0])
	for i := 1; i < len(lines); i++ {
		lines[i] = MutedStyle.Render(lines[i])
	}
	return ErrorBox.Render(strings.Join(lines, "\n")) + "\n"
}
