// Package testutil provides deterministic test doubles for the harness.
package testutil

import (
	"fmt"
	"sync"

	"github.com/hollowmere/expandtest/internal/runner"
)

// Invocation records one Run call on a ScriptedTool.
type Invocation struct {
	Dir        string
	Subcommand string
	Args       []string
	Env        []string
}

// Bin extracts the `--bin` argument of the invocation, if any.
func (i Invocation) Bin() string {
	for n, arg := range i.Args {
		if arg == "--bin" && n+1 < len(i.Args) {
			return i.Args[n+1]
		}
	}
	return ""
}

// ScriptedTool is a runner.Tool replaying canned results, so orchestration
// logic can be tested without spawning real processes.
//
// Results are scripted per subcommand, optionally narrowed to one binary
// target. Every call is recorded.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type ScriptedTool struct {
	mu          sync.Mutex
	results     map[string]runner.Result
	errs        map[string]error
	invocations []Invocation
}

// NewScriptedTool creates an empty scripted tool. Unscripted subcommands
// yield a zero-exit Result with empty streams.
func NewScriptedTool() *ScriptedTool {
	return &ScriptedTool{
		results: make(map[string]runner.Result),
		errs:    make(map[string]error),
	}
}

// Script sets the result replayed for every invocation of subcommand.
func (t *ScriptedTool) Script(subcommand string, result runner.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[subcommand] = result
}

// ScriptBin sets the result replayed for invocations of subcommand against
// one specific binary target, taking precedence over Script.
func (t *ScriptedTool) ScriptBin(subcommand, bin string, result runner.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[key(subcommand, bin)] = result
}

// ScriptError makes every invocation of subcommand fail to start.
func (t *ScriptedTool) ScriptError(subcommand string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errs[subcommand] = err
}

// Run implements runner.Tool.
func (t *ScriptedTool) Run(dir, subcommand string, args, env []string) (runner.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	inv := Invocation{Dir: dir, Subcommand: subcommand, Args: args, Env: env}
	t.invocations = append(t.invocations, inv)

	if err := t.errs[subcommand]; err != nil {
		return runner.Result{}, err
	}
	if result, ok := t.results[key(subcommand, inv.Bin())]; ok {
		return result, nil
	}
	return t.results[subcommand], nil
}

// Invocations returns a copy of all recorded calls.
func (t *ScriptedTool) Invocations() []Invocation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Invocation, len(t.invocations))
	copy(out, t.invocations)
	return out
}

// Calls counts recorded invocations of subcommand; "" counts everything.
func (t *ScriptedTool) Calls(subcommand string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if subcommand == "" {
		return len(t.invocations)
	}
	n := 0
	for _, inv := range t.invocations {
		if inv.Subcommand == subcommand {
			n++
		}
	}
	return n
}

func key(subcommand, bin string) string {
	return fmt.Sprintf("%s\x00%s", subcommand, bin)
}
