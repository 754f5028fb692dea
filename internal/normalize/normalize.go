// Package normalize rewrites raw captured tool output into a canonical,
// environment-independent form suitable for snapshot comparison.
//
// Normalizing the same raw output twice yields identical text regardless of
// the invoking machine's paths or terminal: identity-bearing strings (the
// ephemeral crate name, the synthetic binary name, absolute source paths)
// become stable placeholders, ANSI escapes are stripped, and text is
// NFC-canonicalized. Oversized output is truncated to a configurable line
// count with a trailing marker.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLines bounds snapshot artifacts unless truncation is disabled.
const DefaultMaxLines = 100

// Placeholder strings substituted for environment-specific values.
const (
	PlaceholderCrate = "<CRATE>"
	PlaceholderBin   = "<BIN>"
	PlaceholderTime  = "<TIME>"
)

// Stream distinguishes the two captured output streams for filter targeting.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

// Filter is a caller-supplied regex rewrite applied to one stream.
type Filter struct {
	Stream      Stream
	Pattern     *regexp.Regexp
	Replacement string
}

// Replacements carries the per-run identity strings to scrub from output.
type Replacements struct {
	// CrateName is the synthesized crate's name, replaced by <CRATE>.
	CrateName string

	// BinName is the synthetic binary target's name, replaced by <BIN>.
	BinName string

	// Dirs are absolute directories stripped from output: the host source
	// dir, the synthesized project dir, and the shared build-output dir.
	Dirs []string
}

// Normalizer applies one suite's normalization settings. Immutable.
type Normalizer struct {
	repl     Replacements
	filters  []Filter
	maxLines int // 0 disables truncation
}

// New builds a normalizer. maxLines of 0 disables truncation.
func New(repl Replacements, filters []Filter, maxLines int) *Normalizer {
	return &Normalizer{repl: repl, filters: filters, maxLines: maxLines}
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

// ExpandCode normalizes the expanded source captured from the expand stage's
// stdout. Returns false when nothing remains.
func (n *Normalizer) ExpandCode(raw string) (string, bool) {
	lines := splitKeep(stripANSI(raw))
	kept := lines[:0]
	for _, line := range lines {
		if lineIsPrelude(line) {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = n.applyFilters(out, StreamStdout)
	return n.finish(out)
}

// Diagnostics normalizes a stderr capture. Everything before the first
// diagnostic line is build chatter and gets dropped, as do warnings; lines
// opening with a bracketed error code survive untouched so the code remains
// a stable matcher.
func (n *Normalizer) Diagnostics(raw string) (string, bool) {
	lines := splitKeep(strings.TrimSpace(stripANSI(raw)))

	start := 0
	for ; start < len(lines); start++ {
		if LineIsError(lines[start]) {
			break
		}
	}

	var kept []string
	for _, line := range lines[start:] {
		if LineShouldBeOmitted(line) || LineIsWarning(line) {
			continue
		}
		kept = append(kept, n.applyReplacements(line))
	}

	out := n.applyFilters(strings.Join(kept, "\n"), StreamStderr)
	return n.finish(out)
}

// ProgramStderr normalizes stderr captured from the run and test stages.
// Unlike build diagnostics, a program's own stderr carries no chatter to
// strip: every line survives, with replacements and filters applied.
func (n *Normalizer) ProgramStderr(raw string) (string, bool) {
	lines := splitKeep(strings.TrimSpace(stripANSI(raw)))
	for i, line := range lines {
		lines[i] = n.applyReplacements(line)
	}
	out := n.applyFilters(strings.Join(lines, "\n"), StreamStderr)
	return n.finish(out)
}

// RunOutput normalizes stdout captured from the run stage.
func (n *Normalizer) RunOutput(raw string) (string, bool) {
	lines := splitKeep(strings.TrimSpace(stripANSI(raw)))
	for i, line := range lines {
		lines[i] = n.applyReplacements(line)
	}
	out := n.applyFilters(strings.Join(lines, "\n"), StreamStdout)
	return n.finish(out)
}

var testTimeRe = regexp.MustCompile(`; finished in .+$`)

// TestOutput normalizes stdout captured from the test stage. The harness
// summary line carries wall-clock timing, rewritten to <TIME>.
func (n *Normalizer) TestOutput(raw string) (string, bool) {
	lines := splitKeep(strings.TrimSpace(stripANSI(raw)))
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "test result:") {
			line = testTimeRe.ReplaceAllString(line, "; finished in "+PlaceholderTime)
		}
		lines[i] = n.applyReplacements(line)
	}
	out := n.applyFilters(strings.Join(lines, "\n"), StreamStdout)
	return n.finish(out)
}

func (n *Normalizer) applyReplacements(line string) string {
	if n.repl.BinName != "" {
		line = strings.ReplaceAll(line, n.repl.BinName, PlaceholderBin)
	}
	if n.repl.CrateName != "" {
		line = strings.ReplaceAll(line, n.repl.CrateName, PlaceholderCrate)
	}
	for _, dir := range n.repl.Dirs {
		if dir != "" {
			line = strings.ReplaceAll(line, dir, "")
		}
	}
	return line
}

func (n *Normalizer) applyFilters(text string, stream Stream) string {
	for _, filter := range n.filters {
		if filter.Stream != stream {
			continue
		}
		text = filter.Pattern.ReplaceAllString(text, filter.Replacement)
	}
	return text
}

// finish applies the stage-independent tail of the pipeline: NFC
// canonicalization, truncation, trailing-newline guarantee. Whitespace-only
// output is reported as absent.
func (n *Normalizer) finish(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	text = norm.NFC.String(text)
	text = n.truncate(text)

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, true
}

func (n *Normalizer) truncate(text string) string {
	if n.maxLines <= 0 {
		return text
	}
	lines := splitKeep(strings.TrimRight(text, "\n"))
	if len(lines) <= n.maxLines {
		return text
	}
	dropped := len(lines) - n.maxLines
	kept := lines[:n.maxLines]
	kept = append(kept, fmt.Sprintf("... (%d lines truncated)", dropped))
	return strings.Join(kept, "\n")
}

func stripANSI(text string) string {
	if !strings.ContainsRune(text, '\x1b') {
		return text
	}
	return ansiRe.ReplaceAllString(text, "")
}

// splitKeep splits into lines without a trailing phantom element for a final
// newline.
func splitKeep(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
