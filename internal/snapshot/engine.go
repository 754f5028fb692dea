package snapshot

import (
	"log/slog"
	"os"
)

// Engine reconciles normalized output against on-disk artifacts for one
// suite run. Immutable after construction.
type Engine struct {
	overwrite bool
	logger    *slog.Logger
}

// NewEngine builds a snapshot engine. overwrite selects write/update
// semantics instead of comparison; a suite that suppresses snapshot writing
// simply constructs the engine with overwrite false.
func NewEngine(overwrite bool, logger *slog.Logger) *Engine {
	return &Engine{overwrite: overwrite, logger: logger}
}

// Resolve reads the artifact for (stem, kind). exists is false when the
// artifact is absent.
func (e *Engine) Resolve(stem string, kind Kind) (content string, exists bool, err error) {
	path := Path(stem, kind)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &IOError{Op: "reading", Path: path, Err: err}
	}
	return string(data), true, nil
}

// Reconcile compares the actual normalized content for (stem, kind) against
// the persisted artifact, writing in overwrite mode. present is false when
// the stage produced no content for this artifact.
//
// A nil observation means there was nothing to reconcile (no content and no
// artifact, or overwrite mode with nothing new to persist).
func (e *Engine) Reconcile(stem string, kind Kind, actual string, present bool) (*Observation, error) {
	path := Path(stem, kind)

	expected, exists, err := e.Resolve(stem, kind)
	if err != nil {
		return nil, err
	}

	if e.overwrite {
		return e.reconcileOverwriting(path, kind, expected, exists, actual, present)
	}
	return reconcileExpecting(path, kind, expected, exists, actual, present), nil
}

func (e *Engine) reconcileOverwriting(path string, kind Kind, expected string, exists bool, actual string, present bool) (*Observation, error) {
	if !present {
		// Nothing to persist. A stale artifact is left in place; removal is
		// a manual decision.
		return nil, nil
	}

	if exists && expected == actual {
		// Byte-for-byte identical: no write, no "updated" report.
		return nil, nil
	}

	if err := write(path, actual); err != nil {
		return nil, err
	}

	obs := &Observation{Kind: kind, Path: path, Actual: actual}
	if exists {
		obs.Verdict = VerdictUpdated
		obs.Expected = expected
	} else {
		obs.Verdict = VerdictCreated
	}

	e.logger.Debug("snapshot written",
		slog.String("path", path),
		slog.String("verdict", obs.Verdict.String()))

	return obs, nil
}

func reconcileExpecting(path string, kind Kind, expected string, exists bool, actual string, present bool) *Observation {
	switch {
	case !present && !exists:
		return nil
	case !present:
		return &Observation{Kind: kind, Path: path, Verdict: VerdictUnexpected, Expected: expected}
	case !exists:
		return &Observation{Kind: kind, Path: path, Verdict: VerdictMissing, Actual: actual}
	case expected == actual:
		return &Observation{Kind: kind, Path: path, Verdict: VerdictMatched, Expected: expected, Actual: actual}
	default:
		return &Observation{Kind: kind, Path: path, Verdict: VerdictMismatched, Expected: expected, Actual: actual}
	}
}

func write(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &IOError{Op: "writing", Path: path, Err: err}
	}
	return nil
}
