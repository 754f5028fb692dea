// Package snapshot loads, compares, and conditionally writes the persisted
// expected-output artifacts.
//
// Snapshots live beside their test file and are the durable source of truth,
// meant to be version-controlled. One artifact exists per (file stem, kind):
//
//	<stem>.out.rs   expanded code
//	<stem>.out.txt  captured stdout of later stages
//	<stem>.err.txt  captured diagnostics
//
// Comparison is whole-content, never partial. A snapshot is rewritten only
// when its on-disk content differs from the freshly normalized content; the
// comparison uses the value already read, never a second read, so identical
// rewrites never show up as "updated".
package snapshot

import "fmt"

// Kind selects one of the three artifact files of a test file.
type Kind int

const (
	// KindCode holds successfully expanded source.
	KindCode Kind = iota

	// KindStdout holds captured stdout of the run and test stages.
	KindStdout

	// KindStderr holds captured diagnostics.
	KindStderr
)

func (k Kind) suffix() string {
	switch k {
	case KindCode:
		return ".out.rs"
	case KindStdout:
		return ".out.txt"
	case KindStderr:
		return ".err.txt"
	default:
		return ".unknown"
	}
}

func (k Kind) String() string {
	switch k {
	case KindCode:
		return "code"
	case KindStdout:
		return "stdout"
	case KindStderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Path returns the artifact path for a test file stem and kind.
func Path(stem string, kind Kind) string {
	return stem + kind.suffix()
}

// Verdict classifies one snapshot reconciliation.
type Verdict int

const (
	// VerdictMatched: on-disk content equals the normalized actual content.
	VerdictMatched Verdict = iota

	// VerdictMismatched: both exist and differ. Fails the file.
	VerdictMismatched

	// VerdictMissing: output was produced but no snapshot exists and the run
	// is not allowed to write one. Fails the file.
	VerdictMissing

	// VerdictUnexpected: a snapshot exists but the run produced no content
	// for it. Fails the file; the stale artifact should be removed.
	VerdictUnexpected

	// VerdictCreated: overwrite mode wrote a snapshot that did not exist.
	VerdictCreated

	// VerdictUpdated: overwrite mode replaced differing content.
	VerdictUpdated
)

func (v Verdict) String() string {
	switch v {
	case VerdictMatched:
		return "matched"
	case VerdictMismatched:
		return "mismatched"
	case VerdictMissing:
		return "missing"
	case VerdictUnexpected:
		return "unexpected"
	case VerdictCreated:
		return "created"
	case VerdictUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Pass reports whether the verdict leaves the file passing.
func (v Verdict) Pass() bool {
	switch v {
	case VerdictMatched, VerdictCreated, VerdictUpdated:
		return true
	default:
		return false
	}
}

// Observation is the result of reconciling one artifact.
type Observation struct {
	Kind    Kind
	Path    string
	Verdict Verdict

	// Expected is the on-disk content before reconciliation, when any.
	Expected string

	// Actual is the freshly normalized content, when any.
	Actual string
}

// IOError wraps a filesystem failure on a snapshot artifact.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s snapshot %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
