package expandtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowmere/expandtest/internal/runner"
)

func TestDivergenceError(t *testing.T) {
	cases := []struct {
		name          string
		result        runner.ActionResult
		expectFailure bool
		wantStream    string // "" means no distinct error
	}{
		{
			name:          "unexpected success with empty stdout",
			result:        runner.ActionResult{Stage: runner.StageRun, Status: runner.StatusSuccess},
			expectFailure: true,
			wantStream:    "stdout",
		},
		{
			name: "unexpected success with stdout",
			result: runner.ActionResult{
				Stage:  runner.StageExpand,
				Status: runner.StatusSuccess,
				Stdout: "fn main() {}\n",
			},
			expectFailure: true,
		},
		{
			name:          "unexpected failure with empty stderr",
			result:        runner.ActionResult{Stage: runner.StageCheck, Status: runner.StatusFailure},
			expectFailure: false,
			wantStream:    "stderr",
		},
		{
			name: "unexpected failure with diagnostics",
			result: runner.ActionResult{
				Stage:  runner.StageExpand,
				Status: runner.StatusFailure,
				Stderr: "error: oh no\n",
			},
			expectFailure: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := divergenceError(tc.result, tc.expectFailure)
			if tc.wantStream == "" {
				assert.NoError(t, err)
				return
			}
			var emptyErr *runner.OutputEmptyError
			require.True(t, errors.As(err, &emptyErr))
			assert.Equal(t, tc.wantStream, emptyErr.Stream)
			assert.Equal(t, tc.result.Stage, emptyErr.Stage)
		})
	}
}
