// Package encoder turns a file's location inside a tree into a single flat
// file name.
//
// Two strategies exist. Full encoding joins every path segment with the
// separator ("a/b/x.txt" becomes "a-b-x.txt"). Shortest-unique encoding
// starts from the bare file name and prepends enclosing directory names,
// innermost first, only while the candidate already exists in the
// destination directory.
package encoder

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultSeparator joins path segments in flat names.
const DefaultSeparator = "-"

var (
	// ErrNoSegments is returned when asked to encode an empty path.
	ErrNoSegments = errors.New("no path segments to encode")

	// ErrInvalidSeparator is returned for separators that are empty or
	// contain a path separator.
	ErrInvalidSeparator = errors.New("invalid separator")
)

// Strategy selects how flat names are built.
type Strategy int

const (
	// StrategyFull joins all segments.
	StrategyFull Strategy = iota
	// StrategyShortest uses the shortest non-colliding suffix of segments.
	StrategyShortest
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyFull:
		return "full"
	case StrategyShortest:
		return "shortest"
	default:
		return "unknown"
	}
}

// ExistsFunc reports whether a flat name is already taken in the
// destination directory.
type ExistsFunc func(name string) bool

// Options configures an Encoder.
type Options struct {
	// Strategy selects full or shortest-unique encoding.
	Strategy Strategy

	// Separator joins segments. Empty means DefaultSeparator.
	Separator string

	// Exists is consulted by StrategyShortest. It is required for that
	// strategy and ignored otherwise.
	Exists ExistsFunc
}

// Encoder maps path segments to flat names.
type Encoder struct {
	strategy Strategy
	sep      string
	exists   ExistsFunc
}

// New creates an Encoder from opts.
func New(opts Options) (*Encoder, error) {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	if err := ValidateSeparator(sep); err != nil {
		return nil, err
	}

	switch opts.Strategy {
	case StrategyFull:
	case StrategyShortest:
		if opts.Exists == nil {
			return nil, errors.New("shortest-unique encoding requires an exists check")
		}
	default:
		return nil, fmt.Errorf("unknown encoding strategy %d", opts.Strategy)
	}

	return &Encoder{
		strategy: opts.Strategy,
		sep:      sep,
		exists:   opts.Exists,
	}, nil
}

// Strategy returns the configured strategy.
func (e *Encoder) Strategy() Strategy {
	return e.strategy
}

// Separator returns the configured separator.
func (e *Encoder) Separator() string {
	return e.sep
}

// Encode returns the flat name for segments, ordered outermost directory
// first and ending with the file name.
func (e *Encoder) Encode(segments []string) (string, error) {
	if len(segments) == 0 {
		return "", ErrNoSegments
	}
	for _, s := range segments {
		if s == "" {
			return "", fmt.Errorf("empty segment in %q", strings.Join(segments, "/"))
		}
	}

	if e.strategy == StrategyShortest {
		return ShortestUnique(segments, e.sep, e.exists), nil
	}
	return Full(segments, e.sep), nil
}

// Full joins every segment with sep.
func Full(segments []string, sep string) string {
	return strings.Join(segments, sep)
}

// ShortestUnique returns the file name prefixed by as few enclosing
// directory names as needed for exists to report false. When every
// segment has been used the fully joined name is returned even if it
// exists; the caller's move then fails on the collision.
//
// A single segment (a file directly in the root) is returned as is.
func ShortestUnique(segments []string, sep string, exists ExistsFunc) string {
	name := segments[len(segments)-1]
	for i := len(segments) - 2; i >= 0; i-- {
		if !exists(name) {
			return name
		}
		name = segments[i] + sep + name
	}
	return name
}

// ValidateSeparator checks that sep can appear inside a file name.
func ValidateSeparator(sep string) error {
	if sep == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSeparator)
	}
	if strings.ContainsRune(sep, '/') || strings.ContainsRune(sep, os.PathSeparator) || strings.ContainsRune(sep, 0) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidSeparator, sep)
	}
	return nil
}
