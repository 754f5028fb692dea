// Package report renders per-file outcomes, diffs, and the suite summary to
// a terminal-oriented writer.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/hollowmere/expandtest/internal/snapshot"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

const separator = "--------------------------"

// Reporter writes human-readable outcome reports.
type Reporter struct {
	w io.Writer
}

func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Observation reports one snapshot reconciliation for a test file.
func (r *Reporter) Observation(filePath string, obs *snapshot.Observation) {
	switch obs.Verdict {
	case snapshot.VerdictMatched:
		fmt.Fprintf(r.w, "%s - %s\n", filePath, okStyle.Render("ok"))
	case snapshot.VerdictCreated:
		fmt.Fprintf(r.w, "%s - %s\n", filePath, noteStyle.Render("created"))
		r.block(func() {
			fmt.Fprintln(r.w, okStyle.Render("Snapshot created at "+obs.Path))
		})
	case snapshot.VerdictUpdated:
		fmt.Fprintf(r.w, "%s - %s\n", filePath, noteStyle.Render("updated"))
		r.block(func() {
			fmt.Fprintln(r.w, okStyle.Render("Snapshot updated at "+obs.Path))
			fmt.Fprintln(r.w)
			r.diff(obs.Expected, obs.Actual)
		})
	case snapshot.VerdictMismatched:
		fmt.Fprintf(r.w, "%s - %s\n", filePath, failStyle.Render("MISMATCH"))
		r.block(func() {
			fmt.Fprintf(r.w, "Unexpected mismatch in snapshot %s:\n\n", obs.Path)
			r.diff(obs.Expected, obs.Actual)
			fmt.Fprintln(r.w)
			r.overwriteHint()
		})
	case snapshot.VerdictMissing:
		fmt.Fprintf(r.w, "%s - %s\n", filePath, failStyle.Render("MISSING"))
		r.block(func() {
			fmt.Fprintln(r.w, failStyle.Render("Expected snapshot at "+obs.Path+" with content:"))
			fmt.Fprintln(r.w)
			r.lines(obs.Actual, failStyle)
			fmt.Fprintln(r.w)
			r.overwriteHint()
		})
	case snapshot.VerdictUnexpected:
		fmt.Fprintf(r.w, "%s - %s\n", filePath, failStyle.Render("ERROR"))
		r.block(func() {
			fmt.Fprintln(r.w, failStyle.Render("Unexpected snapshot at "+obs.Path+" with content:"))
			fmt.Fprintln(r.w)
			r.lines(obs.Expected, failStyle)
			fmt.Fprintln(r.w)
			fmt.Fprintln(r.w, hintStyle.Render("help: To remove the stale snapshot run `rm "+obs.Path+"`."))
		})
	}
}

// UnexpectedSuccess reports a file that succeeded while the suite expected
// failure.
func (r *Reporter) UnexpectedSuccess(filePath, stdout, stderr string) {
	fmt.Fprintf(r.w, "%s - %s\n", filePath, failStyle.Render("ERROR"))
	r.block(func() {
		fmt.Fprintln(r.w, failStyle.Render("Unexpected success!"))
		r.streams(stdout, stderr)
	})
}

// UnexpectedFailure reports a file that failed while the suite expected
// success.
func (r *Reporter) UnexpectedFailure(filePath, stdout, stderr string) {
	fmt.Fprintf(r.w, "%s - %s\n", filePath, failStyle.Render("ERROR"))
	r.block(func() {
		fmt.Fprintln(r.w, failStyle.Render("Unexpected failure!"))
		r.streams(stdout, stderr)
	})
}

// CommandFailure reports a subprocess that could not be executed at all.
func (r *Reporter) CommandFailure(filePath string, err error) {
	fmt.Fprintf(r.w, "%s - %s\n", filePath, failStyle.Render("ERROR"))
	r.block(func() {
		fmt.Fprintln(r.w, failStyle.Render("Command failure:"))
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, failStyle.Render(strings.TrimSpace(err.Error())))
		if strings.Contains(err.Error(), "no such command: `expand`") ||
			strings.Contains(err.Error(), "no such subcommand: `expand`") {
			fmt.Fprintln(r.w)
			fmt.Fprintln(r.w, hintStyle.Render("help: Perhaps `cargo expand` is not installed?"))
			fmt.Fprintln(r.w, hintStyle.Render("      Install it by running:"))
			fmt.Fprintln(r.w)
			fmt.Fprintln(r.w, hintStyle.Render("      $ cargo install cargo-expand"))
		}
	})
}

// Summary renders the aggregate counts after all files ran.
func (r *Reporter) Summary(pass, fail, updated, missing int) {
	fmt.Fprintf(r.w, "\n%d passed, %d failed, %d updated, %d missing\n",
		pass, fail, updated, missing)
}

func (r *Reporter) block(body func()) {
	fmt.Fprintln(r.w, separator)
	body()
	fmt.Fprintln(r.w, separator)
}

func (r *Reporter) streams(stdout, stderr string) {
	if strings.TrimSpace(stdout) != "" {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, "STDOUT:")
		fmt.Fprintln(r.w)
		r.lines(stdout, lipgloss.NewStyle())
	}
	if strings.TrimSpace(stderr) != "" {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, "STDERR:")
		fmt.Fprintln(r.w)
		r.lines(stderr, failStyle)
	}
}

func (r *Reporter) lines(text string, style lipgloss.Style) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintln(r.w, style.Render(line))
	}
}

func (r *Reporter) overwriteHint() {
	fmt.Fprintln(r.w, hintStyle.Render("help: To update snapshots run your tests with `EXPANDTEST=overwrite`."))
}

// diff renders a line-oriented diff of expected vs actual.
func (r *Reporter) diff(expected, actual string) {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(expected, actual)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	for _, d := range diffs {
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				fmt.Fprintln(r.w, removedStyle.Render("- "+line))
			case diffmatchpatch.DiffInsert:
				fmt.Fprintln(r.w, addedStyle.Render("+ "+line))
			default:
				fmt.Fprintln(r.w, "  "+line)
			}
		}
	}
}
