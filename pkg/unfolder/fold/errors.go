package fold

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectoryNotFound is returned when the root does not exist or is
	// not a directory.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrMoveCollision is returned when an unfold would overwrite a file
	// already present in the root.
	ErrMoveCollision = errors.New("flattened name collides with an existing file")

	// ErrRefoldPending is returned by Unfold when the root still has a
	// manifest from an earlier unfold.
	ErrRefoldPending = errors.New("root has an outstanding refold")
)

// CollisionError reports the file that could not be placed.
type CollisionError struct {
	// Source is the file that was being moved.
	Source string

	// Destination is the occupied flat path.
	Destination string

	// Previous is the original relative path of the file placed at
	// Destination earlier in the same run. Empty when Destination was
	// occupied before the unfold started.
	Previous string
}

func (e *CollisionError) Error() string {
	if e.Previous != "" {
		return fmt.Sprintf("%s: %s and %s both flatten to %s",
			ErrMoveCollision, e.Previous, e.Source, e.Destination)
	}
	return fmt.Sprintf("%s: cannot move %s to %s", ErrMoveCollision, e.Source, e.Destination)
}

// Is reports ErrMoveCollision so callers can use errors.Is.
func (e *CollisionError) Is(target error) bool {
	return target == ErrMoveCollision
}
