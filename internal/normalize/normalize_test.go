package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer() *Normalizer {
	return New(Replacements{
		CrateName: "my_macros_ab12cd34ef56",
		BinName:   "my_macros_ab12cd34ef56_9f8e7d6c5b4a",
		Dirs:      []string{"/home/ci/work/my-macros", "/tmp/target/tests/my_macros_ab12cd34ef56-1a2b3c4d"},
	}, nil, DefaultMaxLines)
}

func TestExpandCode_StripsPrelude(t *testing.T) {
	raw := `#![feature(prelude_import)]
#[prelude_import]
use std::prelude::rust_2021::*;
#[macro_use]
extern crate std;
fn main() {
    println!("hello");
}
`
	out, ok := testNormalizer().ExpandCode(raw)
	require.True(t, ok)
	assert.Equal(t, "fn main() {\n    println!(\"hello\");\n}\n", out)
}

func TestExpandCode_EmptyIsAbsent(t *testing.T) {
	_, ok := testNormalizer().ExpandCode("   \n  \n")
	assert.False(t, ok)
}

func TestDiagnostics_DropsChatterBeforeFirstError(t *testing.T) {
	raw := `    Compiling my_macros_ab12cd34ef56 v0.0.0 (/tmp/target/tests/my_macros_ab12cd34ef56-1a2b3c4d)
warning: unused variable
error[E0277]: the trait bound ` + "`String: Copy`" + ` is not satisfied
 --> /home/ci/work/my-macros/tests/expand/fail.rs:4:5
    Finished dev [unoptimized] target(s) in 0.45s
`
	out, ok := testNormalizer().Diagnostics(raw)
	require.True(t, ok)

	assert.Contains(t, out, "error[E0277]")
	assert.NotContains(t, out, "Compiling")
	assert.NotContains(t, out, "Finished")
	assert.NotContains(t, out, "warning")
	assert.Contains(t, out, " --> /tests/expand/fail.rs:4:5")
}

func TestDiagnostics_ReplacesProjectIdentity(t *testing.T) {
	raw := "error: could not compile `my_macros_ab12cd34ef56` (bin \"my_macros_ab12cd34ef56_9f8e7d6c5b4a\") due to previous error\n"

	out, ok := testNormalizer().Diagnostics(raw)
	require.True(t, ok)
	assert.Equal(t, "error: could not compile `<CRATE>` (bin \"<BIN>\") due to previous error\n", out)
}

func TestProgramStderr_PreservesPlainOutput(t *testing.T) {
	raw := "hello from program stderr\nwarning: this is the program talking\n"
	out, ok := testNormalizer().ProgramStderr(raw)
	require.True(t, ok)
	assert.Equal(t, raw, out)

	// The same capture run through the build-diagnostics path vanishes.
	_, ok = testNormalizer().Diagnostics(raw)
	assert.False(t, ok)
}

func TestProgramStderr_ReplacesProjectIdentity(t *testing.T) {
	raw := "panicked in my_macros_ab12cd34ef56_9f8e7d6c5b4a at /home/ci/work/my-macros/tests/expand/a.rs\n"
	out, ok := testNormalizer().ProgramStderr(raw)
	require.True(t, ok)
	assert.Equal(t, "panicked in <BIN> at /tests/expand/a.rs\n", out)
}

func TestNormalize_Deterministic(t *testing.T) {
	raw := "error: something at /home/ci/work/my-macros/src/lib.rs\n\x1b[31mcolored\x1b[0m\n"

	n := testNormalizer()
	first, ok := n.Diagnostics(raw)
	require.True(t, ok)
	second, ok := n.Diagnostics(raw)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.NotContains(t, first, "\x1b")
	assert.NotContains(t, first, "/home/ci")
}

func TestTestOutput_RewritesTiming(t *testing.T) {
	raw := `running 2 tests
test basic ... ok
test derive ... ok

test result: ok. 2 passed; 0 failed; 0 ignored; 0 measured; 0 filtered out; finished in 0.02s
`
	out, ok := testNormalizer().TestOutput(raw)
	require.True(t, ok)
	assert.Contains(t, out, "finished in <TIME>")
	assert.NotContains(t, out, "0.02s")
}

func TestRunOutput_AppliesFilters(t *testing.T) {
	filters := []Filter{
		{Stream: StreamStdout, Pattern: regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), Replacement: "YYYY-MM-DD"},
		{Stream: StreamStderr, Pattern: regexp.MustCompile(`.*`), Replacement: "UNUSED"},
	}
	n := New(Replacements{}, filters, DefaultMaxLines)

	out, ok := n.RunOutput("started at 2026-08-26\n")
	require.True(t, ok)
	assert.Equal(t, "started at YYYY-MM-DD\n", out)
}

func TestTruncation(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}

	t.Run("enabled by default", func(t *testing.T) {
		out, ok := New(Replacements{}, nil, DefaultMaxLines).RunOutput(b.String())
		require.True(t, ok)

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		require.Len(t, lines, DefaultMaxLines+1)
		assert.Equal(t, "... (150 lines truncated)", lines[DefaultMaxLines])
	})

	t.Run("disabled", func(t *testing.T) {
		out, ok := New(Replacements{}, nil, 0).RunOutput(b.String())
		require.True(t, ok)

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		assert.Len(t, lines, 250)
		assert.NotContains(t, out, "truncated")
	})
}

func TestErrorCode(t *testing.T) {
	code, ok := ErrorCode("error[E0277]: the trait bound is not satisfied")
	require.True(t, ok)
	assert.Equal(t, "E0277", code)

	_, ok = ErrorCode("error: plain failure")
	assert.False(t, ok)

	_, ok = ErrorCode("note: required by a bound")
	assert.False(t, ok)
}

func TestDiagnostics_Golden(t *testing.T) {
	raw := `   Compiling proc-macro2 v1.0.86
   Compiling my_macros_ab12cd34ef56 v0.0.0 (/tmp/target/tests/my_macros_ab12cd34ef56-1a2b3c4d)
error[E0599]: no method named ` + "`missing`" + ` found for struct ` + "`Thing`" + ` in the current scope
 --> /home/ci/work/my-macros/tests/expand/fail.rs:9:11
  |
9 |     thing.missing();
  |           ^^^^^^^ method not found in ` + "`Thing`" + `
error: could not compile ` + "`my_macros_ab12cd34ef56`" + ` (bin "my_macros_ab12cd34ef56_9f8e7d6c5b4a") due to 1 previous error
`
	out, ok := testNormalizer().Diagnostics(raw)
	require.True(t, ok)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "diagnostics_basic", []byte(out))
}
