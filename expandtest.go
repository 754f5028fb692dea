package expandtest

import (
	"regexp"

	"github.com/hollowmere/expandtest/internal/normalize"
	"github.com/hollowmere/expandtest/internal/runner"
)

// TestingT is the subset of *testing.T the harness reports through.
type TestingT interface {
	Helper()
	Logf(format string, args ...any)
	Errorf(format string, args ...any)
	FailNow()
}

// Expand builds a suite that expands every file matching the patterns and
// verifies the expansion against the `.out.rs` snapshot beside each file.
// Further pipeline stages may be chained before the terminal expectation.
func Expand(patterns ...string) *ExpandSuite {
	return &ExpandSuite{suite: newSuite(patterns)}
}

// Check expands every matching file and additionally type-checks the
// expansion with `cargo check`.
func Check(patterns ...string) *BuildSuite {
	return Expand(patterns...).AndCheck()
}

// Run expands every matching file, builds it as a binary, executes it, and
// verifies the captured stdout against the `.out.txt` snapshot.
func Run(patterns ...string) *BuildSuite {
	return Expand(patterns...).AndRun()
}

// RunTests expands every matching file and runs its embedded `#[test]`
// functions, verifying the harness output against the `.out.txt` snapshot.
func RunTests(patterns ...string) *BuildSuite {
	return Expand(patterns...).AndRunTests()
}

// ExpandSuite is a suite whose only pipeline stage is expansion. Chaining
// one of the And methods upgrades it to a BuildSuite.
type ExpandSuite struct {
	suite *suite
}

// Arg appends one argument to every tool invocation of the suite.
func (s *ExpandSuite) Arg(arg string) *ExpandSuite {
	s.suite.arg(arg)
	return s
}

// Args appends arguments to every tool invocation of the suite.
func (s *ExpandSuite) Args(args ...string) *ExpandSuite {
	s.suite.args(args)
	return s
}

// Env sets one environment variable for every tool invocation.
func (s *ExpandSuite) Env(key, value string) *ExpandSuite {
	s.suite.env(key, value)
	return s
}

// Envs sets environment variables for every tool invocation. Entries must
// be in KEY=VALUE form.
func (s *ExpandSuite) Envs(entries ...string) *ExpandSuite {
	s.suite.envs(entries)
	return s
}

// Features enables cargo features of the host package inside the
// synthesized project.
func (s *ExpandSuite) Features(features ...string) *ExpandSuite {
	s.suite.featureList(features)
	return s
}

// FilterStdout registers a rewrite applied to captured stdout before
// snapshot comparison. Every match of pattern is replaced by replacement.
func (s *ExpandSuite) FilterStdout(pattern *regexp.Regexp, replacement string) *ExpandSuite {
	s.suite.filter(normalize.StreamStdout, pattern, replacement)
	return s
}

// FilterStderr registers a rewrite applied to captured stderr before
// snapshot comparison. Every match of pattern is replaced by replacement.
func (s *ExpandSuite) FilterStderr(pattern *regexp.Regexp, replacement string) *ExpandSuite {
	s.suite.filter(normalize.StreamStderr, pattern, replacement)
	return s
}

// SkipOverwrite pins the suite to comparison mode even when the process
// runs with EXPANDTEST=overwrite. Useful for suites whose output is
// intentionally unstable.
func (s *ExpandSuite) SkipOverwrite() *ExpandSuite {
	s.suite.skipOverwriteMode()
	return s
}

// InDir resolves the host package manifest starting from dir instead of the
// working directory.
func (s *ExpandSuite) InDir(dir string) *ExpandSuite {
	s.suite.inDir(dir)
	return s
}

// AndCheck type-checks the expansion of every file after expanding it.
func (s *ExpandSuite) AndCheck() *BuildSuite {
	s.suite.addStage(runner.StageCheck)
	return &BuildSuite{suite: s.suite}
}

// AndRun builds and executes every file after expanding it.
func (s *ExpandSuite) AndRun() *BuildSuite {
	s.suite.addStage(runner.StageRun)
	return &BuildSuite{suite: s.suite}
}

// AndRunTests runs the embedded tests of every file after expanding it.
func (s *ExpandSuite) AndRunTests() *BuildSuite {
	s.suite.addStage(runner.StageRunTests)
	return &BuildSuite{suite: s.suite}
}

// ExpectPass executes the suite and fails t unless every file passes all
// requested stages and matches its snapshots.
func (s *ExpandSuite) ExpectPass(t TestingT) SuiteOutcome {
	t.Helper()
	return s.suite.execute(t, runner.StatusSuccess)
}

// ExpectFail executes the suite and fails t unless expansion fails for
// every file and the emitted diagnostics match the `.err.txt` snapshots.
func (s *ExpandSuite) ExpectFail(t TestingT) SuiteOutcome {
	t.Helper()
	return s.suite.execute(t, runner.StatusFailure)
}

// BuildSuite is a suite with at least one pipeline stage beyond expansion.
type BuildSuite struct {
	suite *suite
}

// Arg appends one argument to every tool invocation of the suite.
func (s *BuildSuite) Arg(arg string) *BuildSuite {
	s.suite.arg(arg)
	return s
}

// Args appends arguments to every tool invocation of the suite.
func (s *BuildSuite) Args(args ...string) *BuildSuite {
	s.suite.args(args)
	return s
}

// Env sets one environment variable for every tool invocation.
func (s *BuildSuite) Env(key, value string) *BuildSuite {
	s.suite.env(key, value)
	return s
}

// Envs sets environment variables for every tool invocation. Entries must
// be in KEY=VALUE form.
func (s *BuildSuite) Envs(entries ...string) *BuildSuite {
	s.suite.envs(entries)
	return s
}

// Features enables cargo features of the host package inside the
// synthesized project.
func (s *BuildSuite) Features(features ...string) *BuildSuite {
	s.suite.featureList(features)
	return s
}

// FilterStdout registers a rewrite applied to captured stdout before
// snapshot comparison. Every match of pattern is replaced by replacement.
func (s *BuildSuite) FilterStdout(pattern *regexp.Regexp, replacement string) *BuildSuite {
	s.suite.filter(normalize.StreamStdout, pattern, replacement)
	return s
}

// FilterStderr registers a rewrite applied to captured stderr before
// snapshot comparison. Every match of pattern is replaced by replacement.
func (s *BuildSuite) FilterStderr(pattern *regexp.Regexp, replacement string) *BuildSuite {
	s.suite.filter(normalize.StreamStderr, pattern, replacement)
	return s
}

// SkipOverwrite pins the suite to comparison mode even when the process
// runs with EXPANDTEST=overwrite.
func (s *BuildSuite) SkipOverwrite() *BuildSuite {
	s.suite.skipOverwriteMode()
	return s
}

// InDir resolves the host package manifest starting from dir instead of the
// working directory.
func (s *BuildSuite) InDir(dir string) *BuildSuite {
	s.suite.inDir(dir)
	return s
}

// ExpectPass executes the suite and fails t unless every file passes all
// requested stages and matches its snapshots.
func (s *BuildSuite) ExpectPass(t TestingT) SuiteOutcome {
	t.Helper()
	return s.suite.execute(t, runner.StatusSuccess)
}

// ExpectFail executes the suite and fails t unless the pipeline fails for
// every file and the emitted diagnostics match the `.err.txt` snapshots.
func (s *BuildSuite) ExpectFail(t TestingT) SuiteOutcome {
	t.Helper()
	return s.suite.execute(t, runner.StatusFailure)
}
