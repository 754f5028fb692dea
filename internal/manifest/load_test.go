package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_StandalonePackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), `
[package]
name = "my-macros"
version = "0.3.1"
edition = "2021"
rust-version = "1.70"

[dependencies]
serde = { version = "1.0", features = ["derive"] }
quote = "1.0"
local-helper = { path = "../helper" }

[dev-dependencies]
trybuild = "1.0"

[features]
default = ["std"]
std = []
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "my-macros", m.Package.Name)
	assert.Equal(t, "0.3.1", m.Package.Version)
	assert.Equal(t, "2021", m.Package.Edition)
	assert.Equal(t, "1.70", m.Package.RustVersion)
	assert.Equal(t, dir, m.Dir)
	assert.Empty(t, m.WorkspaceRoot)

	require.Contains(t, m.Dependencies, "serde")
	assert.Equal(t, "1.0", m.Dependencies["serde"].Version)
	assert.Equal(t, []string{"derive"}, m.Dependencies["serde"].Features)
	assert.True(t, m.Dependencies["serde"].DefaultFeatures)

	assert.Equal(t, "1.0", m.Dependencies["quote"].Version)
	assert.Equal(t, "../helper", m.Dependencies["local-helper"].Path)

	require.Contains(t, m.DevDependencies, "trybuild")
	assert.Equal(t, []string{"std"}, m.Features["default"])
}

func TestLoad_StartInsideNestedDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), `
[package]
name = "pkg"
version = "0.1.0"
edition = "2018"
`)
	nested := filepath.Join(dir, "tests", "expand")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	m, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, "pkg", m.Package.Name)
	assert.Equal(t, dir, m.Dir)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	require.ErrorIs(t, err, ErrManifestNotFound)
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), `[package
name = broken
`)

	_, err := Load(dir)
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, filepath.Join(dir, "Cargo.toml"), parseErr.Path)
}

func TestLoad_WorkspaceInheritance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), `
[workspace]
members = ["member"]

[workspace.package]
version = "2.0.0"
edition = "2021"

[workspace.dependencies]
serde = { version = "1.0.188", default-features = false }
anyhow = "1.0"
`)
	member := filepath.Join(root, "member")
	writeFile(t, filepath.Join(member, "Cargo.toml"), `
[package]
name = "member"
version = { workspace = true }
edition = { workspace = true }

[dependencies]
serde = { workspace = true, features = ["derive"] }
anyhow = { workspace = true }
`)

	m, err := Load(member)
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", m.Package.Version)
	assert.Equal(t, "2021", m.Package.Edition)
	assert.Equal(t, root, m.WorkspaceRoot)
	assert.Equal(t, filepath.Join(root, "Cargo.lock"), m.LockPath())

	serde := m.Dependencies["serde"]
	assert.Equal(t, "1.0.188", serde.Version)
	assert.False(t, serde.DefaultFeatures)
	assert.Equal(t, []string{"derive"}, serde.Features)
	assert.False(t, serde.Workspace)

	assert.Equal(t, "1.0", m.Dependencies["anyhow"].Version)
}

func TestLoad_WorkspaceDependencyMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), `
[workspace]
members = ["member"]
`)
	member := filepath.Join(root, "member")
	writeFile(t, filepath.Join(member, "Cargo.toml"), `
[package]
name = "member"
version = "0.1.0"

[dependencies]
ghost = { workspace = true }
`)

	_, err := Load(member)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestLoad_DefaultEdition(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Cargo.toml"), `
[package]
name = "old"
version = "0.1.0"
`)

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "2015", m.Package.Edition)
}
