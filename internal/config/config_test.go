package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ModeExpect, cfg.Mode)
	assert.False(t, cfg.KeepArtifacts)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.NoTruncate)
	assert.Empty(t, cfg.TargetDir)
}

func TestFromEnv_Overwrite(t *testing.T) {
	t.Setenv(EnvMode, "overwrite")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ModeOverwrite, cfg.Mode)
}

func TestFromEnv_UnrecognizedMode(t *testing.T) {
	t.Setenv(EnvMode, "overwirte")

	_, err := FromEnv()
	require.Error(t, err)

	var envErr *UnrecognizedEnvError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, EnvMode, envErr.Key)
}

func TestFromEnv_BoolSwitches(t *testing.T) {
	tests := []struct {
		value string
		want  bool
		ok    bool
	}{
		{"1", true, true},
		{"yes", true, true},
		{"true", true, true},
		{"0", false, true},
		{"no", false, true},
		{"false", false, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(EnvKeepArtifacts, tt.value)

			cfg, err := FromEnv()
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.KeepArtifacts)
		})
	}
}

func TestFromEnv_TargetDirOverride(t *testing.T) {
	t.Setenv(EnvTargetDir, "/tmp/shared-target")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/shared-target", cfg.TargetDir)
}
