package expandtest

import (
	"regexp"
	"strings"

	"github.com/hollowmere/expandtest/internal/normalize"
	"github.com/hollowmere/expandtest/internal/runner"
)

type suiteState int

const (
	// stateConfiguring accepts builder mutations.
	stateConfiguring suiteState = iota

	// stateResolved is entered when a terminal expectation starts resolving
	// files and manifest. Configuration is frozen from here on; a suite that
	// fails during resolution stays in this state and cannot be re-run.
	stateResolved

	// stateExecuted is terminal. Any further mutation or execution panics.
	stateExecuted
)

// suite is the shared configuration behind ExpandSuite and BuildSuite. The
// two exported wrappers exist only to keep stage chaining well-typed.
type suite struct {
	patterns []string
	stages   []runner.Stage

	extraArgs []string
	extraEnv  []string
	features  []string
	filters   []normalize.Filter

	skipOverwrite bool
	startDir      string

	// tool replaces the real cargo invoker in tests.
	tool runner.Tool

	state suiteState
}

func newSuite(patterns []string) *suite {
	return &suite{
		patterns: patterns,
		stages:   []runner.Stage{runner.StageExpand},
		startDir: ".",
	}
}

// mutable guards every builder method. Configuration is frozen once the
// suite has executed; late mutation is a harness misuse, not a test failure.
func (s *suite) mutable() {
	if s.state != stateConfiguring {
		panic("expandtest: suite mutated after execution")
	}
}

func (s *suite) arg(arg string) {
	s.mutable()
	s.extraArgs = append(s.extraArgs, arg)
}

func (s *suite) args(args []string) {
	s.mutable()
	s.extraArgs = append(s.extraArgs, args...)
}

func (s *suite) env(key, value string) {
	s.mutable()
	s.extraEnv = append(s.extraEnv, key+"="+value)
}

func (s *suite) envs(entries []string) {
	s.mutable()
	for _, entry := range entries {
		if !strings.Contains(entry, "=") {
			panic("expandtest: env entry not in KEY=VALUE form: " + entry)
		}
	}
	s.extraEnv = append(s.extraEnv, entries...)
}

func (s *suite) featureList(features []string) {
	s.mutable()
	s.features = append(s.features, features...)
}

func (s *suite) filter(stream normalize.Stream, pattern *regexp.Regexp, replacement string) {
	s.mutable()
	s.filters = append(s.filters, normalize.Filter{
		Stream:      stream,
		Pattern:     pattern,
		Replacement: replacement,
	})
}

func (s *suite) skipOverwriteMode() {
	s.mutable()
	s.skipOverwrite = true
}

func (s *suite) inDir(dir string) {
	s.mutable()
	s.startDir = dir
}

func (s *suite) addStage(stage runner.Stage) {
	s.mutable()
	if len(s.stages) > 1 {
		panic("expandtest: suite already has a post-expansion stage")
	}
	s.stages = append(s.stages, stage)
}
