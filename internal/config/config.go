// Package config reads the process-wide harness switches from the
// environment, once, into an immutable value.
//
// The value is threaded explicitly through every component call. Nothing in
// the harness consults the environment after suite start, which keeps the
// core independently testable.
package config

import (
	"fmt"
	"log/slog"
	"os"
)

// Environment variables recognized by the harness.
const (
	// EnvMode selects snapshot behavior: "expect" (default) compares against
	// existing snapshots, "overwrite" writes or updates them.
	EnvMode = "EXPANDTEST"

	// EnvKeepArtifacts retains the synthesized project directory after the
	// suite finishes.
	EnvKeepArtifacts = "EXPANDTEST_KEEP_ARTIFACTS"

	// EnvDebug enables debug-level logging.
	EnvDebug = "EXPANDTEST_DEBUG"

	// EnvNoTruncate disables output truncation in the normalizer.
	EnvNoTruncate = "EXPANDTEST_NO_TRUNCATE"

	// EnvTargetDir overrides the shared build-output directory.
	EnvTargetDir = "EXPANDTEST_TARGET_DIR"
)

const (
	modeExpect    = "expect"
	modeOverwrite = "overwrite"
)

// Mode is the snapshot reconciliation behavior for a suite run.
type Mode int

const (
	// ModeExpect compares captured output against existing snapshots.
	ModeExpect Mode = iota

	// ModeOverwrite writes snapshots instead of comparing, creating missing
	// ones and updating stale ones.
	ModeOverwrite
)

// UnrecognizedEnvError reports an environment variable set to a value the
// harness does not understand. Misspelled values must not silently fall back
// to a default.
type UnrecognizedEnvError struct {
	Key   string
	Value string
}

func (e *UnrecognizedEnvError) Error() string {
	return fmt.Sprintf("unrecognized value of %s env var: %q", e.Key, e.Value)
}

// Config is the ambient harness configuration. Immutable after FromEnv.
type Config struct {
	Mode          Mode
	KeepArtifacts bool
	Debug         bool
	NoTruncate    bool

	// TargetDir overrides the shared build-output location when non-empty.
	TargetDir string
}

// FromEnv reads all harness switches from the environment.
func FromEnv() (Config, error) {
	cfg := Config{}

	if value, ok := os.LookupEnv(EnvMode); ok {
		switch value {
		case "", modeExpect:
			cfg.Mode = ModeExpect
		case modeOverwrite:
			cfg.Mode = ModeOverwrite
		default:
			return Config{}, &UnrecognizedEnvError{Key: EnvMode, Value: value}
		}
	}

	var err error
	if cfg.KeepArtifacts, err = boolEnv(EnvKeepArtifacts); err != nil {
		return Config{}, err
	}
	if cfg.Debug, err = boolEnv(EnvDebug); err != nil {
		return Config{}, err
	}
	if cfg.NoTruncate, err = boolEnv(EnvNoTruncate); err != nil {
		return Config{}, err
	}

	cfg.TargetDir = os.Getenv(EnvTargetDir)

	return cfg, nil
}

func boolEnv(key string) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return false, nil
	}
	switch value {
	case "1", "yes", "true":
		return true, nil
	case "0", "no", "false":
		return false, nil
	default:
		return false, &UnrecognizedEnvError{Key: key, Value: value}
	}
}

// Logger builds the suite logger at the level selected by cfg.
func (c Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
