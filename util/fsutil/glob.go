package fsutil

import (
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob returns the files under root whose root-relative path matches
// pattern, in lexical order. A missing root yields no files.
// Patterns use github.com/bmatcuk/doublestar syntax, so "**/*.json" descends
// into subdirectories while "*.json" does not.
func Glob(root, pattern string) ([]Hostfile, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	files, err := WalkFiles(root)
	if err != nil {
		return nil, err
	}

	var out []Hostfile
	for _, f := range files {
		ok, err := doublestar.Match(pattern, f.Rel)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}
