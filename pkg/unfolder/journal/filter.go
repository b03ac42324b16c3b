package journal

import (
	"fmt"

	"github.com/gobwas/glob"
)

// MatchRoot returns a Filter selecting records whose root matches the glob
// pattern. "*" stops at "/" and "**" crosses it.
func MatchRoot(pattern string) (Filter, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid root pattern %q: %w", pattern, err)
	}
	return func(r *Record) bool {
		return g.Match(r.Root)
	}, nil
}

// ForOperation returns a Filter selecting records of one operation.
func ForOperation(op Operation) Filter {
	return func(r *Record) bool {
		return r.Operation == op
	}
}

// All combines filters; a record must match every one. Nil filters are
// skipped.
func All(filters ...Filter) Filter {
	return func(r *Record) bool {
		for _, f := range filters {
			if f != nil && !f(r) {
				return false
			}
		}
		return true
	}
}
