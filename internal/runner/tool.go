// Package runner executes the pipeline of build-tool subcommands for one
// synthesized project.
//
// The build tool is an opaque collaborator reached through the Tool
// interface: a subcommand either starts and runs to completion (yielding an
// exit status and both output streams) or fails to start. Orchestration
// logic is unit-tested against scripted Tool implementations without
// spawning processes.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Result is the captured outcome of one subprocess execution.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Tool runs one build-tool subcommand to completion.
//
// Implementations block until the subprocess exits; there is no internal
// timeout or retry. Hang detection belongs to the external test-runner.
type Tool interface {
	Run(dir, subcommand string, args, env []string) (Result, error)
}

// CargoTool is the real Tool, spawning cargo subprocesses.
type CargoTool struct {
	// Bin is the cargo executable, usually just "cargo".
	Bin string
}

// NewCargoTool resolves the cargo binary from the CARGO environment variable
// cargo itself sets, falling back to lookup via PATH.
func NewCargoTool() *CargoTool {
	bin := os.Getenv("CARGO")
	if bin == "" {
		bin = "cargo"
	}
	return &CargoTool{Bin: bin}
}

// Run spawns `cargo <subcommand> <args...>` in dir with the given extra
// environment, capturing both streams. No terminal is inherited. A non-zero
// exit is not an error; failing to start the process is.
func (t *CargoTool) Run(dir, subcommand string, args, env []string) (Result, error) {
	cmd := exec.Command(t.Bin, append([]string{subcommand}, args...)...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return Result{}, fmt.Errorf("running %s %s: %w", t.Bin, subcommand, err)
	}

	return result, nil
}
