package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Snapshot artifact suffixes. Files carrying these never count as test
// inputs, so a pattern like tests/expand/*.rs cannot pick up its own
// snapshots.
const (
	SuffixOutRS  = ".out.rs"
	SuffixOutTxt = ".out.txt"
	SuffixErrTxt = ".err.txt"
)

// ErrNoPatterns is returned when a suite is configured with an empty pattern
// list. This is a hard pre-execution failure.
var ErrNoPatterns = errors.New("no file patterns provided")

// EmptyFileSetError is returned when one or more patterns matched zero files.
// An empty match usually signals a typo and must never pass vacuously.
type EmptyFileSetError struct {
	Patterns []string
}

func (e *EmptyFileSetError) Error() string {
	var b strings.Builder
	b.WriteString("no matching files found for:")
	for _, pattern := range e.Patterns {
		b.WriteString("\n    ")
		b.WriteString(pattern)
	}
	return b.String()
}

// TestFile is one resolved input source file.
type TestFile struct {
	// Path is the file's path as resolved from the pattern.
	Path string

	// Stem is the path with the extension removed; snapshot artifacts derive
	// from it.
	Stem string

	// Pattern is the glob that matched the file.
	Pattern string
}

// ResolveFiles expands the given glob patterns into a deduplicated, sorted
// set of test files. Every pattern must match at least one non-snapshot file.
func ResolveFiles(patterns []string) ([]TestFile, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	seen := make(map[string]bool)
	var files []TestFile
	var empty []string

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}

		matched := false
		for _, path := range matches {
			if isSnapshotArtifact(path) {
				continue
			}
			matched = true
			if seen[path] {
				continue
			}
			seen[path] = true
			files = append(files, TestFile{
				Path:    path,
				Stem:    strings.TrimSuffix(path, filepath.Ext(path)),
				Pattern: pattern,
			})
		}
		if !matched {
			empty = append(empty, pattern)
		}
	}

	if len(empty) > 0 {
		sort.Strings(empty)
		return nil, &EmptyFileSetError{Patterns: empty}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return files, nil
}

func isSnapshotArtifact(path string) bool {
	return strings.HasSuffix(path, SuffixOutRS) ||
		strings.HasSuffix(path, SuffixOutTxt) ||
		strings.HasSuffix(path, SuffixErrTxt)
}
