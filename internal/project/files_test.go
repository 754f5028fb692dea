package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}\n"), 0o644))
}

func TestResolveFiles_NoPatterns(t *testing.T) {
	_, err := ResolveFiles(nil)
	require.ErrorIs(t, err, ErrNoPatterns)

	_, err = ResolveFiles([]string{})
	require.ErrorIs(t, err, ErrNoPatterns)
}

func TestResolveFiles_EmptyMatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "expand", "ok.rs"))

	pattern := filepath.Join(dir, "expnad", "*.rs") // typo on purpose
	_, err := ResolveFiles([]string{pattern})
	require.Error(t, err)

	var emptyErr *EmptyFileSetError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, []string{pattern}, emptyErr.Patterns)
}

func TestResolveFiles_FiltersSnapshots(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "case.rs"))
	touch(t, filepath.Join(dir, "case.out.rs"))
	touch(t, filepath.Join(dir, "other.err.txt"))

	files, err := ResolveFiles([]string{filepath.Join(dir, "*")})
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "case.rs"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "case"), files[0].Stem)
}

func TestResolveFiles_DeduplicatesAndSorts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.rs"))
	touch(t, filepath.Join(dir, "a.rs"))

	files, err := ResolveFiles([]string{
		filepath.Join(dir, "*.rs"),
		filepath.Join(dir, "a.rs"),
	})
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.rs"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.rs"), files[1].Path)
}

func TestResolveFiles_DoublestarPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "group", "nested", "deep.rs"))
	touch(t, filepath.Join(dir, "top.rs"))

	files, err := ResolveFiles([]string{filepath.Join(dir, "**", "*.rs")})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
