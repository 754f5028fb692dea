// Package manifest locates and reads the host package's Cargo.toml.
//
// The reader resolves three things the synthesizer needs:
//   - the enclosing package manifest (walking up from a starting path)
//   - the workspace root, if the package is a workspace member
//   - the effective dependency and feature sets, with workspace-inherited
//     fields already substituted
//
// Dev-dependencies are part of the effective set: test sources routinely
// exercise them, so the synthesized project must carry them too.
//
// The package is read-only; it never writes to the filesystem.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrManifestNotFound is returned when no Cargo.toml encloses the start path.
var ErrManifestNotFound = errors.New("no enclosing Cargo.toml found")

// ParseError wraps a TOML decoding failure with the offending path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Package holds the identity fields of the host package.
type Package struct {
	Name        string
	Version     string
	Edition     string
	RustVersion string
}

// DependencyKind distinguishes the three Cargo dependency tables.
type DependencyKind string

const (
	KindNormal DependencyKind = "normal"
	KindDev    DependencyKind = "dev"
	KindBuild  DependencyKind = "build"
)

// Dependency is one resolved dependency declaration.
//
// After Load returns, Workspace is always false: workspace-inherited entries
// have been substituted with the workspace's own declaration, with the
// member's extra features appended.
type Dependency struct {
	Version         string
	Path            string
	Registry        string
	Package         string // rename, if the dependency is aliased
	Features        []string
	Optional        bool
	DefaultFeatures bool
	Workspace       bool
}

// Manifest is the immutable result of reading the host package.
type Manifest struct {
	Package Package

	// Dir is the directory containing the package's Cargo.toml.
	Dir string

	// WorkspaceRoot is the directory containing the workspace manifest,
	// or empty if the package is not a workspace member.
	WorkspaceRoot string

	Dependencies      map[string]Dependency
	DevDependencies   map[string]Dependency
	BuildDependencies map[string]Dependency

	// Features maps feature name to the features it enables.
	Features map[string][]string
}

// LockPath returns the path of the lock file that pins this package's
// resolution: the workspace's Cargo.lock for workspace members, the package's
// own otherwise. The file is not guaranteed to exist.
func (m *Manifest) LockPath() string {
	if m.WorkspaceRoot != "" {
		return filepath.Join(m.WorkspaceRoot, "Cargo.lock")
	}
	return filepath.Join(m.Dir, "Cargo.lock")
}
