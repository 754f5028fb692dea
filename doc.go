// Package expandtest is a snapshot test harness for macro expansion.
//
// It lets macro authors assert that their macros expand to stable code and
// produce stable diagnostics across toolchain versions. A minimal setup
// looks like this:
//
//	func TestExpand(t *testing.T) {
//		expandtest.Expand("tests/expand/*.rs").ExpectPass(t)
//	}
//
// For every source file matching the pattern the harness invokes
// `cargo expand` inside an ephemeral project that mirrors the host package's
// dependencies and features, normalizes the captured output, and compares it
// against the `<stem>.out.rs` snapshot beside the file. Later pipeline
// stages can be chained:
//
//	expandtest.Expand("tests/expand/*.rs").AndRunTests().ExpectPass(t)
//
// or requested directly via Check, Run, and RunTests. Diagnostics of
// expected failures are verified the same way:
//
//	expandtest.Expand("tests/fail/*.rs").ExpectFail(t)
//
// Snapshots are written (rather than compared) when the process runs with
// EXPANDTEST=overwrite; see internal/config for the remaining environment
// switches. Snapshot files are the durable source of truth and belong in
// version control.
//
// Suites sharing one glob share one synthesized project, so the host's
// dependency tree compiles once per suite. The harness runs every subprocess
// to completion and performs no internal locking over the shared build
// directory: whole-suite test functions are expected to run serially, under
// the standard test runner's per-function parallelism only.
package expandtest
