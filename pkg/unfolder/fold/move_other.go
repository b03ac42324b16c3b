//go:build !linux

package fold

// renameNoReplace falls back to a checked rename on platforms without
// renameat2.
func renameNoReplace(from, to string) error {
	return renameChecked(from, to)
}
