package expandtest

import (
	"os"
	"strings"

	"github.com/hollowmere/expandtest/internal/config"
	"github.com/hollowmere/expandtest/internal/manifest"
	"github.com/hollowmere/expandtest/internal/normalize"
	"github.com/hollowmere/expandtest/internal/project"
	"github.com/hollowmere/expandtest/internal/report"
	"github.com/hollowmere/expandtest/internal/runner"
	"github.com/hollowmere/expandtest/internal/snapshot"
)

// execute resolves the suite and runs the pipeline for every file. It is
// the single terminal path behind ExpectPass and ExpectFail.
//
// Resolution failures (bad patterns, empty matches, unreadable manifest,
// project synthesis) fail t before any subprocess is spawned.
func (s *suite) execute(t TestingT, expectation runner.Status) SuiteOutcome {
	t.Helper()

	if s.state != stateConfiguring {
		panic("expandtest: suite executed twice")
	}
	s.state = stateResolved

	cfg, err := config.FromEnv()
	if err != nil {
		return fatal(t, err)
	}
	logger := cfg.Logger()

	files, err := project.ResolveFiles(s.patterns)
	if err != nil {
		return fatal(t, err)
	}

	m, err := manifest.Load(s.startDir)
	if err != nil {
		return fatal(t, err)
	}

	proj, err := project.New(m, files, project.Options{Features: s.features}, cfg, logger)
	if err != nil {
		return fatal(t, err)
	}
	defer proj.Close()
	s.state = stateExecuted

	tool := s.tool
	if tool == nil {
		tool = runner.NewCargoTool()
	}

	pipeline := &runner.Pipeline{
		Tool:      tool,
		Project:   proj,
		ExtraArgs: s.extraArgs,
		ExtraEnv:  s.extraEnv,
		Logger:    logger,
	}

	overwrite := cfg.Mode == config.ModeOverwrite && !s.skipOverwrite
	engine := snapshot.NewEngine(overwrite, logger)
	reporter := report.New(os.Stderr)

	maxLines := normalize.DefaultMaxLines
	if cfg.NoTruncate {
		maxLines = 0
	}

	var outcome SuiteOutcome
	for _, target := range proj.Targets {
		norm := normalize.New(normalize.Replacements{
			CrateName: proj.Name,
			BinName:   target.Bin,
			Dirs:      []string{proj.HostDir, proj.Dir, proj.TargetDir},
		}, s.filters, maxLines)

		status := s.runTarget(pipeline, engine, reporter, norm, target, expectation)
		outcome.record(target.File.Path, status)
	}

	reporter.Summary(outcome.Pass, outcome.Fail, outcome.Updated, outcome.Missing)

	if outcome.Failed() {
		t.Errorf("expandtest: %d of %d files failed", outcome.Fail+outcome.Missing, outcome.Files())
		for _, path := range outcome.Failures {
			t.Logf("    %s", path)
		}
		t.FailNow()
	}

	return outcome
}

// runTarget executes the pipeline for one file and reconciles its snapshot
// artifacts. An unmet expectation short-circuits snapshotting.
func (s *suite) runTarget(
	pipeline *runner.Pipeline,
	engine *snapshot.Engine,
	reporter *report.Reporter,
	norm *normalize.Normalizer,
	target project.Target,
	expectation runner.Status,
) FileStatus {
	path := target.File.Path
	expectFailure := expectation == runner.StatusFailure

	results, err := pipeline.Run(target, s.stages, expectFailure)
	if err != nil {
		reporter.CommandFailure(path, err)
		return FileFail
	}

	observed := combinedStatus(results)
	last := results[len(results)-1]

	if observed != expectation {
		if err := divergenceError(last, expectFailure); err != nil {
			reporter.CommandFailure(path, err)
		} else if expectFailure {
			reporter.UnexpectedSuccess(path, last.Stdout, last.Stderr)
		} else {
			reporter.UnexpectedFailure(path, last.Stdout, last.Stderr)
		}
		return FileFail
	}

	artifacts := collectArtifacts(results, norm)

	if expectFailure && !artifacts[snapshot.KindStderr].present {
		reporter.CommandFailure(path, &runner.OutputEmptyError{Stage: last.Stage, Stream: "stderr"})
		return FileFail
	}

	status := FilePass
	for _, kind := range []snapshot.Kind{snapshot.KindCode, snapshot.KindStdout, snapshot.KindStderr} {
		artifact := artifacts[kind]
		obs, err := engine.Reconcile(target.File.Stem, kind, artifact.content, artifact.present)
		if err != nil {
			reporter.CommandFailure(path, err)
			return FileFail
		}
		if obs == nil {
			continue
		}
		reporter.Observation(path, obs)

		switch obs.Verdict {
		case snapshot.VerdictMatched:
		case snapshot.VerdictCreated, snapshot.VerdictUpdated:
			if status == FilePass {
				status = FileUpdated
			}
		case snapshot.VerdictMissing:
			if status != FileFail {
				status = FileMissing
			}
		default:
			status = FileFail
		}
	}

	return status
}

// divergenceError classifies an unmet expectation whose telltale stream is
// empty: an unexpected success should have produced stdout to echo, an
// unexpected failure should have produced stderr. Both get the distinct
// empty-output error instead of a blank echo.
func divergenceError(result runner.ActionResult, expectFailure bool) error {
	if expectFailure {
		if strings.TrimSpace(result.Stdout) == "" {
			return &runner.OutputEmptyError{Stage: result.Stage, Stream: "stdout"}
		}
		return nil
	}
	if strings.TrimSpace(result.Stderr) == "" {
		return &runner.OutputEmptyError{Stage: result.Stage, Stream: "stderr"}
	}
	return nil
}

// combinedStatus folds per-stage results. The pipeline halts on first
// failure, so any failing result means the file failed.
func combinedStatus(results []runner.ActionResult) runner.Status {
	for _, result := range results {
		if result.Status == runner.StatusFailure {
			return runner.StatusFailure
		}
	}
	return runner.StatusSuccess
}

type artifactContent struct {
	content string
	present bool
}

// collectArtifacts folds the per-stage raw streams into the three snapshot
// artifacts. Expansion stdout becomes the code artifact, the final stage's
// run or test stdout becomes the stdout artifact, and the final stage's
// stderr becomes the diagnostics artifact. Build stages (expand, check) get
// the diagnostics treatment on stderr; for run and test stages the program's
// own stderr is preserved instead.
func collectArtifacts(results []runner.ActionResult, norm *normalize.Normalizer) map[snapshot.Kind]artifactContent {
	artifacts := map[snapshot.Kind]artifactContent{
		snapshot.KindCode:   {},
		snapshot.KindStdout: {},
		snapshot.KindStderr: {},
	}

	for _, result := range results {
		switch result.Stage {
		case runner.StageExpand:
			content, present := norm.ExpandCode(result.Stdout)
			artifacts[snapshot.KindCode] = artifactContent{content, present}
		case runner.StageRun:
			content, present := norm.RunOutput(result.Stdout)
			artifacts[snapshot.KindStdout] = artifactContent{content, present}
		case runner.StageRunTests:
			content, present := norm.TestOutput(result.Stdout)
			artifacts[snapshot.KindStdout] = artifactContent{content, present}
		}
	}

	last := results[len(results)-1]
	var content string
	var present bool
	switch last.Stage {
	case runner.StageRun, runner.StageRunTests:
		content, present = norm.ProgramStderr(last.Stderr)
	default:
		content, present = norm.Diagnostics(last.Stderr)
	}
	artifacts[snapshot.KindStderr] = artifactContent{content, present}

	return artifacts
}

func fatal(t TestingT, err error) SuiteOutcome {
	t.Helper()
	t.Errorf("expandtest: %v", err)
	t.FailNow()
	return SuiteOutcome{}
}
