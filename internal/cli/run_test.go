package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMissingSuiteFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunRequiresArgument(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "run", "suites.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

// stubCargo writes an executable standing in for cargo: any subcommand
// prints a fixed expansion and exits zero.
func stubCargo(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tool script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "cargo-stub")
	script := "#!/bin/sh\necho 'fn main() {}'\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// fixturePackage writes a cargo package with one test file and a suite
// definition targeting it.
func fixturePackage(t *testing.T) (pkgDir, suitePath string) {
	t.Helper()
	pkgDir = t.TempDir()

	manifest := `[package]
name = "cli-demo"
version = "0.1.0"
edition = "2021"
`
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "Cargo.toml"), []byte(manifest), 0o644))

	testsDir := filepath.Join(pkgDir, "tests", "expand")
	require.NoError(t, os.MkdirAll(testsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(testsDir, "basic.rs"), []byte("demo!();\n"), 0o644))

	suitePath = filepath.Join(pkgDir, "suites.yaml")
	content := fmt.Sprintf(`
suites:
  - name: expand
    dir: %q
    patterns: [%q]
`, pkgDir, filepath.Join(testsDir, "*.rs"))
	require.NoError(t, os.WriteFile(suitePath, []byte(content), 0o644))

	return pkgDir, suitePath
}

func TestRunUpdateThenCompare(t *testing.T) {
	pkgDir, suitePath := fixturePackage(t)
	t.Setenv("CARGO", stubCargo(t))
	t.Setenv("EXPANDTEST", "expect")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--update", suitePath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "suite expand")
	assert.Contains(t, buf.String(), "1 updated")

	snapshot := filepath.Join(pkgDir, "tests", "expand", "basic.out.rs")
	written, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(written))

	// Comparison run against the freshly written snapshot passes.
	t.Setenv("EXPANDTEST", "expect")
	buf = &bytes.Buffer{}
	cmd = NewRunCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{suitePath})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var reports []SuiteReport
	require.NoError(t, json.Unmarshal(payload, &reports))
	require.Len(t, reports, 1)
	assert.True(t, reports[0].OK)
	assert.Equal(t, 1, reports[0].Pass)
}

func TestRunMismatchExitsWithFailure(t *testing.T) {
	pkgDir, suitePath := fixturePackage(t)
	t.Setenv("CARGO", stubCargo(t))
	t.Setenv("EXPANDTEST", "expect")

	snapshot := filepath.Join(pkgDir, "tests", "expand", "basic.out.rs")
	require.NoError(t, os.WriteFile(snapshot, []byte("fn other() {}\n"), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{suitePath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "FAILED")
}
