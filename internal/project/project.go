// Package project synthesizes the ephemeral buildable crate that hosts a
// suite's test files.
//
// The synthesized crate mirrors the host package's dependency closure
// (including dev-dependencies) and feature table, pins the host's resolved
// lock state, and declares one binary target per test file. All files of a
// suite share one build-output directory so dependencies compile once.
package project

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/hollowmere/expandtest/internal/config"
	"github.com/hollowmere/expandtest/internal/manifest"
)

// SynthesisError reports a filesystem or encoding failure while building the
// ephemeral project. It is fatal for the whole suite.
type SynthesisError struct {
	Step string
	Err  error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesizing project (%s): %v", e.Step, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// Target is one synthetic binary rooted at a test file.
type Target struct {
	File TestFile

	// Bin is the target's unique binary name within the synthesized crate.
	Bin string
}

// Options carries the synthesis-relevant part of the suite configuration.
type Options struct {
	// Features of the host package to enable on the synthesized crate's
	// dependency edge.
	Features []string
}

// Project is a synthesized crate, exclusively owned by one suite run.
type Project struct {
	// Dir is the project root (contains the generated Cargo.toml).
	Dir string

	// TargetDir is the shared build-output directory for all files of the
	// suite.
	TargetDir string

	// Name is the synthesized crate's name.
	Name string

	// HostName and HostDir identify the package under test.
	HostName string
	HostDir  string

	Targets []Target

	keep   bool
	logger *slog.Logger
}

// New synthesizes a project for the given host manifest and file set.
//
// The project directory name combines an identity hash of the suite with a
// random disambiguator so concurrent suites never collide. Leftover
// directories from interrupted previous runs with the same name are removed
// before writing.
func New(m *manifest.Manifest, files []TestFile, opts Options, cfg config.Config, logger *slog.Logger) (*Project, error) {
	if len(files) == 0 {
		return nil, &EmptyFileSetError{}
	}

	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = file.Path
	}

	name := fmt.Sprintf("%s_%s", sanitizeName(m.Package.Name), suiteID(m.Package.Name, paths))
	disambiguator := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	testsDir := filepath.Join(buildRoot(m, cfg), "tests")
	dir := filepath.Join(testsDir, name+"-"+disambiguator)
	targetDir := filepath.Join(testsDir, "expandtest-target")

	targets := make([]Target, len(files))
	for i, file := range files {
		targets[i] = Target{
			File: file,
			Bin:  fmt.Sprintf("%s_%s", name, targetID(file.Path)),
		}
	}

	p := &Project{
		Dir:       dir,
		TargetDir: targetDir,
		Name:      name,
		HostName:  m.Package.Name,
		HostDir:   m.Dir,
		Targets:   targets,
		keep:      cfg.KeepArtifacts,
		logger:    logger,
	}

	if err := p.write(m, opts); err != nil {
		// Partial writes are still removed on the error path.
		if !p.keep {
			_ = os.RemoveAll(p.Dir)
		}
		return nil, err
	}

	logger.Debug("synthesized project",
		slog.String("dir", p.Dir),
		slog.Int("targets", len(p.Targets)))

	return p, nil
}

// Close removes the project directory unless artifact retention was
// requested. Safe to call more than once.
func (p *Project) Close() error {
	if p.keep {
		p.logger.Debug("keeping artifacts", slog.String("dir", p.Dir))
		return nil
	}
	if err := os.RemoveAll(p.Dir); err != nil {
		return &SynthesisError{Step: "cleanup", Err: err}
	}
	return nil
}

func (p *Project) write(m *manifest.Manifest, opts Options) error {
	if _, err := os.Stat(p.Dir); err == nil {
		// Remnants of a run that was killed before cleanup.
		if err := os.RemoveAll(p.Dir); err != nil {
			return &SynthesisError{Step: "removing stale directory", Err: err}
		}
	}

	for _, dir := range []string{p.Dir, filepath.Join(p.Dir, ".cargo"), p.TargetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &SynthesisError{Step: "creating directories", Err: err}
		}
	}

	manifestTOML, err := toml.Marshal(p.generateManifest(m, opts))
	if err != nil {
		return &SynthesisError{Step: "encoding manifest", Err: err}
	}
	if err := os.WriteFile(filepath.Join(p.Dir, "Cargo.toml"), manifestTOML, 0o644); err != nil {
		return &SynthesisError{Step: "writing manifest", Err: err}
	}

	if err := os.WriteFile(filepath.Join(p.Dir, "lib.rs"), []byte("\n"), 0o644); err != nil {
		return &SynthesisError{Step: "writing lib.rs", Err: err}
	}

	cargoConfig := []byte("[term]\ncolor = \"never\"\n")
	if err := os.WriteFile(filepath.Join(p.Dir, ".cargo", "config.toml"), cargoConfig, 0o644); err != nil {
		return &SynthesisError{Step: "writing cargo config", Err: err}
	}

	if err := p.pinLock(m); err != nil {
		return err
	}

	return nil
}

// pinLock copies the host's resolved lock state so the synthesized project
// cannot diverge from the versions the host actually builds against.
func (p *Project) pinLock(m *manifest.Manifest) error {
	lock, err := os.ReadFile(m.LockPath())
	if os.IsNotExist(err) {
		// The host has never been resolved; cargo will generate a fresh lock.
		return nil
	}
	if err != nil {
		return &SynthesisError{Step: "reading host lock", Err: err}
	}
	if err := os.WriteFile(filepath.Join(p.Dir, "Cargo.lock"), lock, 0o644); err != nil {
		return &SynthesisError{Step: "pinning lock", Err: err}
	}
	return nil
}

// Generated manifest layout. An explicit empty [workspace] table detaches the
// synthesized crate from any enclosing workspace.
type genManifest struct {
	Package           genPackage          `toml:"package"`
	Workspace         genWorkspace        `toml:"workspace"`
	Lib               genLib              `toml:"lib"`
	Dependencies      map[string]genDep   `toml:"dependencies,omitempty"`
	BuildDependencies map[string]genDep   `toml:"build-dependencies,omitempty"`
	Features          map[string][]string `toml:"features,omitempty"`
	Bins              []genBin            `toml:"bin"`
}

type genPackage struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Edition     string `toml:"edition,omitempty"`
	RustVersion string `toml:"rust-version,omitempty"`
	Publish     bool   `toml:"publish"`
}

type genWorkspace struct{}

type genLib struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type genBin struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type genDep struct {
	Version         string   `toml:"version,omitempty"`
	Path            string   `toml:"path,omitempty"`
	Registry        string   `toml:"registry,omitempty"`
	Package         string   `toml:"package,omitempty"`
	Features        []string `toml:"features,omitempty"`
	Optional        bool     `toml:"optional,omitempty"`
	DefaultFeatures bool     `toml:"default-features"`
}

func (p *Project) generateManifest(m *manifest.Manifest, opts Options) genManifest {
	deps := convertDeps(m.Dependencies, m.Dir)

	// Dev-dependencies fold into [dependencies]: the synthesized targets are
	// binaries, which cannot see a [dev-dependencies] table, yet test files
	// exercise exactly those crates. Normal declarations win on collision.
	for name, dep := range convertDeps(m.DevDependencies, m.Dir) {
		if _, ok := deps[name]; !ok {
			deps[name] = dep
		}
	}

	// The host package itself becomes a path dependency, so test files can
	// use the macros under test exactly as downstream code would.
	deps[m.Package.Name] = genDep{
		Path:            m.Dir,
		Features:        opts.Features,
		DefaultFeatures: true,
	}

	// Re-export the host's features so `--features foo` keeps working
	// against the synthesized crate.
	features := make(map[string][]string, len(m.Features))
	for feature := range m.Features {
		features[feature] = []string{fmt.Sprintf("%s/%s", m.Package.Name, feature)}
	}

	bins := make([]genBin, len(p.Targets))
	for i, target := range p.Targets {
		path, err := filepath.Abs(target.File.Path)
		if err != nil {
			path = target.File.Path
		}
		bins[i] = genBin{Name: target.Bin, Path: path}
	}
	sort.Slice(bins, func(i, j int) bool { return bins[i].Name < bins[j].Name })

	return genManifest{
		Package: genPackage{
			Name:        p.Name,
			Version:     "0.0.0",
			Edition:     m.Package.Edition,
			RustVersion: m.Package.RustVersion,
			Publish:     false,
		},
		Lib: genLib{
			Name: strings.ReplaceAll(p.Name, "-", "_"),
			Path: "lib.rs",
		},
		Dependencies:      deps,
		BuildDependencies: convertDeps(m.BuildDependencies, m.Dir),
		Features:          features,
		Bins:              bins,
	}
}

// convertDeps copies dependency declarations verbatim, re-anchoring relative
// path dependencies so they still resolve from the synthesized location.
func convertDeps(deps map[string]manifest.Dependency, hostDir string) map[string]genDep {
	out := make(map[string]genDep, len(deps))
	for name, dep := range deps {
		path := dep.Path
		if path != "" && !filepath.IsAbs(path) {
			path = filepath.Join(hostDir, path)
		}
		out[name] = genDep{
			Version:         dep.Version,
			Path:            path,
			Registry:        dep.Registry,
			Package:         dep.Package,
			Features:        dep.Features,
			Optional:        dep.Optional,
			DefaultFeatures: dep.DefaultFeatures,
		}
	}
	return out
}

// buildRoot picks the directory whose target/ subtree hosts synthesized
// projects: the ambient override, CARGO_TARGET_DIR, or the host's own target
// directory.
func buildRoot(m *manifest.Manifest, cfg config.Config) string {
	if cfg.TargetDir != "" {
		return cfg.TargetDir
	}
	if dir := os.Getenv("CARGO_TARGET_DIR"); dir != "" {
		return dir
	}
	root := m.Dir
	if m.WorkspaceRoot != "" {
		root = m.WorkspaceRoot
	}
	return filepath.Join(root, "target")
}

func sanitizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
