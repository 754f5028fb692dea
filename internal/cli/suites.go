package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SuiteFile is the root of a declarative suite definition file.
type SuiteFile struct {
	Suites []SuiteDef `yaml:"suites"`
}

// SuiteDef describes one suite the way the fluent library API would build
// it.
type SuiteDef struct {
	Name     string   `yaml:"name"`
	Dir      string   `yaml:"dir"`      // manifest discovery start, default "."
	Patterns []string `yaml:"patterns"` // glob patterns, required
	Stages   []string `yaml:"stages"`   // expand [+ check|run|test], default [expand]
	Expect   string   `yaml:"expect"`   // pass (default) or fail
	Args     []string `yaml:"args"`
	Env      []string `yaml:"env"` // KEY=VALUE entries
	Features []string `yaml:"features"`

	// SkipOverwrite pins the suite to comparison mode.
	SkipOverwrite bool `yaml:"skip_overwrite"`
}

var validPostStages = map[string]bool{"check": true, "run": true, "test": true}

// LoadSuiteFile parses and validates a suite definition file.
func LoadSuiteFile(path string) (*SuiteFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	var file SuiteFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing suite file %s: %w", path, err)
	}

	if len(file.Suites) == 0 {
		return nil, fmt.Errorf("suite file %s defines no suites", path)
	}

	seen := make(map[string]bool)
	for i := range file.Suites {
		def := &file.Suites[i]
		if err := def.validate(); err != nil {
			return nil, fmt.Errorf("suite %q: %w", def.Name, err)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("duplicate suite name %q", def.Name)
		}
		seen[def.Name] = true
	}

	return &file, nil
}

func (d *SuiteDef) validate() error {
	if d.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(d.Patterns) == 0 {
		return fmt.Errorf("missing patterns")
	}
	if d.Dir == "" {
		d.Dir = "."
	}

	switch d.Expect {
	case "":
		d.Expect = "pass"
	case "pass", "fail":
	default:
		return fmt.Errorf("expect must be \"pass\" or \"fail\", got %q", d.Expect)
	}

	if len(d.Stages) == 0 {
		d.Stages = []string{"expand"}
	}
	if d.Stages[0] != "expand" {
		return fmt.Errorf("first stage must be \"expand\", got %q", d.Stages[0])
	}
	if len(d.Stages) > 2 {
		return fmt.Errorf("at most one stage may follow expand")
	}
	if len(d.Stages) == 2 && !validPostStages[d.Stages[1]] {
		return fmt.Errorf("unknown stage %q", d.Stages[1])
	}

	for _, entry := range d.Env {
		if !strings.Contains(entry, "=") {
			return fmt.Errorf("env entry %q not in KEY=VALUE form", entry)
		}
	}

	return nil
}
