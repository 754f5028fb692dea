package runner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hollowmere/expandtest/internal/normalize"
	"github.com/hollowmere/expandtest/internal/project"
)

// Status is the evaluation of one pipeline stage.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failure"
}

// ActionResult is the outcome of one (file, stage) execution with raw
// captured streams. Normalization happens later.
type ActionResult struct {
	Stage  Stage
	Status Status
	Stdout string
	Stderr string
}

// InvocationError reports a subprocess that failed to start. It is fatal for
// the affected file's remaining stages only; sibling files still run.
type InvocationError struct {
	Stage Stage
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// OutputEmptyError reports a required-but-empty output stream: a succeeding
// expansion with no stdout, or a failing stage with no diagnostics. Silently
// treating either as success would hide tool misbehavior.
type OutputEmptyError struct {
	Stage  Stage
	Stream string // "stdout" or "stderr"
}

func (e *OutputEmptyError) Error() string {
	return fmt.Sprintf("%s stage produced no %s where output was required", e.Stage, e.Stream)
}

// Pipeline executes stages for one synthesized project's targets.
type Pipeline struct {
	Tool    Tool
	Project *project.Project

	// ExtraArgs and ExtraEnv come from the suite configuration and apply to
	// every invocation.
	ExtraArgs []string
	ExtraEnv  []string

	Logger *slog.Logger
}

// Run executes the requested stages for one target, in order.
//
// When expectFailure is set, only the Expand stage is evaluated against the
// expectation and later stages are skipped. Otherwise the pipeline halts at
// the first failing stage. Results for attempted stages are returned even
// alongside an InvocationError.
func (p *Pipeline) Run(target project.Target, stages []Stage, expectFailure bool) ([]ActionResult, error) {
	var results []ActionResult

	for _, stage := range stages {
		subcommand, args := p.command(stage, target.Bin)

		p.Logger.Debug("invoking tool",
			slog.String("stage", stage.String()),
			slog.String("bin", target.Bin))

		raw, err := p.Tool.Run(p.Project.Dir, subcommand, args, p.env())
		if err != nil {
			return results, &InvocationError{Stage: stage, Err: err}
		}

		result := evaluate(stage, raw)
		results = append(results, result)

		if expectFailure {
			// Under expect-failure only the expansion outcome matters.
			break
		}
		if result.Status == StatusFailure {
			break
		}
	}

	return results, nil
}

func (p *Pipeline) command(stage Stage, bin string) (string, []string) {
	args := []string{"--bin", bin}
	if stage == StageExpand {
		args = append(args, "--theme", "none")
	}
	return stage.Subcommand(), append(args, p.ExtraArgs...)
}

// env confines the invocation to the shared build-output directory and
// disables color on both the cargo and tool side.
func (p *Pipeline) env() []string {
	env := []string{
		"CARGO_TARGET_DIR=" + p.Project.TargetDir,
		"CARGO_TERM_COLOR=never",
		"NO_COLOR=1",
	}
	return append(env, p.ExtraEnv...)
}

// evaluate decides stage success. Expansion needs more than a zero exit:
// cargo expand is known to exit zero with an empty expansion or with error
// diagnostics on stderr, so both are checked explicitly.
func evaluate(stage Stage, raw Result) ActionResult {
	result := ActionResult{
		Stage:  stage,
		Stdout: raw.Stdout,
		Stderr: raw.Stderr,
		Status: StatusSuccess,
	}

	if raw.ExitCode != 0 {
		result.Status = StatusFailure
		return result
	}

	if stage == StageExpand {
		if strings.TrimSpace(raw.Stdout) == "" || stderrHasErrors(raw.Stderr) {
			result.Status = StatusFailure
		}
	}

	return result
}

func stderrHasErrors(stderr string) bool {
	for _, line := range strings.Split(stderr, "\n") {
		if normalize.LineIsError(line) {
			return true
		}
	}
	return false
}
