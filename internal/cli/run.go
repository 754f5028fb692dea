package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hollowmere/expandtest"
	"github.com/hollowmere/expandtest/internal/config"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Update bool
	Keep   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <suites.yaml>",
		Short: "Execute declarative snapshot suites",
		Long: `Execute the suites defined in a YAML file against the enclosing
cargo package.

Each suite entry mirrors the library's fluent builder: glob patterns, an
optional post-expansion stage (check, run or test), extra arguments,
environment entries, features, and a pass/fail expectation.

Example:
  expandtest run suites.yaml
  expandtest run --update suites.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "write snapshots instead of comparing")
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "retain synthesized project directories")

	return cmd
}

// SuiteReport is the per-suite payload of the run command's output.
type SuiteReport struct {
	Name    string `json:"name"`
	Files   int    `json:"files"`
	Pass    int    `json:"pass"`
	Fail    int    `json:"fail"`
	Updated int    `json:"updated"`
	Missing int    `json:"missing"`
	OK      bool   `json:"ok"`
}

func runSuites(opts *RunOptions, path string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})))

	file, err := LoadSuiteFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading suites", err)
	}

	// The harness reads its switches from the environment once per suite,
	// so the flags translate to env entries for this process.
	if opts.Update {
		if err := os.Setenv(config.EnvMode, "overwrite"); err != nil {
			return WrapExitError(ExitCommandError, "setting mode", err)
		}
	}
	if opts.Keep {
		if err := os.Setenv(config.EnvKeepArtifacts, "1"); err != nil {
			return WrapExitError(ExitCommandError, "setting retention", err)
		}
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	reports := make([]SuiteReport, 0, len(file.Suites))
	failed := 0
	for _, def := range file.Suites {
		slog.Info("running suite", "name", def.Name, "patterns", strings.Join(def.Patterns, " "))

		report, err := executeSuite(def)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("suite %q", def.Name), err)
		}
		if !report.OK {
			failed++
		}
		reports = append(reports, report)
	}

	if opts.Format == "json" {
		if err := formatter.Success(reports); err != nil {
			return WrapExitError(ExitCommandError, "encoding output", err)
		}
	} else {
		printReports(formatter, reports)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d suites failed", failed, len(reports)))
	}
	return nil
}

// executeSuite translates one definition into the fluent builder and runs
// it. Builder errors (bad patterns, missing manifest) come back through the
// collector rather than failing a *testing.T.
func executeSuite(def SuiteDef) (SuiteReport, error) {
	collector := &collectingT{}

	builder := expandtest.Expand(def.Patterns...).
		InDir(def.Dir).
		Args(def.Args...).
		Envs(def.Env...).
		Features(def.Features...)
	if def.SkipOverwrite {
		builder = builder.SkipOverwrite()
	}

	var outcome expandtest.SuiteOutcome
	switch {
	case len(def.Stages) == 2:
		staged := chainStage(builder, def.Stages[1])
		if def.Expect == "fail" {
			outcome = staged.ExpectFail(collector)
		} else {
			outcome = staged.ExpectPass(collector)
		}
	default:
		if def.Expect == "fail" {
			outcome = builder.ExpectFail(collector)
		} else {
			outcome = builder.ExpectPass(collector)
		}
	}

	// A failure with nothing tallied happened before any file ran: bad
	// patterns, unreadable manifest, or project synthesis.
	if collector.failed && outcome.Files() == 0 {
		return SuiteReport{}, fmt.Errorf("%s", strings.Join(collector.logs, "; "))
	}

	return SuiteReport{
		Name:    def.Name,
		Files:   outcome.Files(),
		Pass:    outcome.Pass,
		Fail:    outcome.Fail,
		Updated: outcome.Updated,
		Missing: outcome.Missing,
		OK:      !collector.failed,
	}, nil
}

func chainStage(builder *expandtest.ExpandSuite, stage string) *expandtest.BuildSuite {
	switch stage {
	case "check":
		return builder.AndCheck()
	case "run":
		return builder.AndRun()
	default:
		return builder.AndRunTests()
	}
}

func printReports(f *OutputFormatter, reports []SuiteReport) {
	for _, r := range reports {
		verdict := "ok"
		if !r.OK {
			verdict = "FAILED"
		}
		fmt.Fprintf(f.Writer, "suite %-24s %s  (%d files: %d pass, %d fail, %d updated, %d missing)\n",
			r.Name, verdict, r.Files, r.Pass, r.Fail, r.Updated, r.Missing)
	}
}

// collectingT adapts the library's TestingT to CLI error collection.
type collectingT struct {
	failed bool
	logs   []string
}

var _ expandtest.TestingT = (*collectingT)(nil)

func (c *collectingT) Helper() {}

func (c *collectingT) Logf(format string, args ...any) {
	c.logs = append(c.logs, fmt.Sprintf(format, args...))
}

func (c *collectingT) Errorf(format string, args ...any) {
	c.failed = true
	c.logs = append(c.logs, fmt.Sprintf(format, args...))
}

// FailNow records the failure; the harness returns right after calling it.
func (c *collectingT) FailNow() {}
