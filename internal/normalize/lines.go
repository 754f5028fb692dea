package normalize

import (
	"regexp"
	"strings"
)

// errorLineRe matches the first line of a rustc diagnostic, optionally
// carrying a bracketed error code, e.g. `error[E0277]: ...`.
var errorLineRe = regexp.MustCompile(`^error(\[([A-Z]\d{4})\])?(: |$)`)

// LineIsError reports whether the line opens a diagnostic. Cargo sometimes
// exits zero despite emitting one of these, so callers also use this to
// second-guess exit statuses.
func LineIsError(line string) bool {
	return errorLineRe.MatchString(line)
}

// ErrorCode extracts the bracketed error identifier from a diagnostic line,
// e.g. "E0277". These identifiers are stable across toolchain versions even
// when the surrounding prose changes, so they are preserved verbatim.
func ErrorCode(line string) (string, bool) {
	m := errorLineRe.FindStringSubmatch(line)
	if m == nil || m[2] == "" {
		return "", false
	}
	return m[2], true
}

// LineIsWarning reports whether the line opens a warning diagnostic.
// Warnings vary wildly between toolchain versions and are dropped from
// diagnostic snapshots.
func LineIsWarning(line string) bool {
	return strings.HasPrefix(line, "warning") &&
		(strings.HasPrefix(line, "warning: ") || strings.HasPrefix(line, "warning["))
}

// Cargo progress chatter. These lines carry timings and paths that differ
// between machines and runs.
var omittedPrefixes = []string{
	"Compiling ",
	"Checking ",
	"Finished ",
	"Running ",
	"Fresh ",
	"Downloading ",
	"Downloaded ",
	"Updating ",
	"Locking ",
	"Blocking ",
	"Adding ",
}

// LineShouldBeOmitted reports whether the line is cargo build chatter rather
// than diagnostic content.
func LineShouldBeOmitted(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	for _, prefix := range omittedPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Lines cargo expand injects around the expanded source. They are toolchain
// artifacts, not macro output.
var preludeLines = []string{
	"#![feature(prelude_import)]",
	"#[prelude_import]",
	"use std::prelude::",
	"#[macro_use]",
	"extern crate std;",
}

func lineIsPrelude(line string) bool {
	for _, prefix := range preludeLines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
