package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// rawManifest mirrors the subset of Cargo.toml the harness cares about.
// Dependency tables decode as map[string]any because entries are either a
// bare version string or an inline table.
type rawManifest struct {
	Package           *rawPackage         `toml:"package"`
	Workspace         *rawWorkspace       `toml:"workspace"`
	Dependencies      map[string]any      `toml:"dependencies"`
	DevDependencies   map[string]any      `toml:"dev-dependencies"`
	BuildDependencies map[string]any      `toml:"build-dependencies"`
	Features          map[string][]string `toml:"features"`
}

type rawPackage struct {
	Name        string `toml:"name"`
	Version     any    `toml:"version"`
	Edition     any    `toml:"edition"`
	RustVersion any    `toml:"rust-version"`
}

type rawWorkspace struct {
	Members      []string       `toml:"members"`
	Package      map[string]any `toml:"package"`
	Dependencies map[string]any `toml:"dependencies"`
}

// Load locates the Cargo.toml enclosing start and returns the resolved
// manifest. If the package belongs to a workspace, inherited package fields
// and workspace dependencies are substituted before returning.
func Load(start string) (*Manifest, error) {
	dir, raw, err := findManifest(start)
	if err != nil {
		return nil, err
	}

	wsDir, ws, err := findWorkspace(dir, raw)
	if err != nil {
		return nil, err
	}

	if raw.Package == nil {
		return nil, &ParseError{
			Path: filepath.Join(dir, "Cargo.toml"),
			Err:  fmt.Errorf("manifest has no [package] table"),
		}
	}

	pkg, err := resolvePackage(raw.Package, ws)
	if err != nil {
		return nil, &ParseError{Path: filepath.Join(dir, "Cargo.toml"), Err: err}
	}

	m := &Manifest{
		Package:       pkg,
		Dir:           dir,
		WorkspaceRoot: wsDir,
		Features:      raw.Features,
	}

	if m.Dependencies, err = resolveDeps(raw.Dependencies, ws); err != nil {
		return nil, &ParseError{Path: filepath.Join(dir, "Cargo.toml"), Err: err}
	}
	if m.DevDependencies, err = resolveDeps(raw.DevDependencies, ws); err != nil {
		return nil, &ParseError{Path: filepath.Join(dir, "Cargo.toml"), Err: err}
	}
	if m.BuildDependencies, err = resolveDeps(raw.BuildDependencies, ws); err != nil {
		return nil, &ParseError{Path: filepath.Join(dir, "Cargo.toml"), Err: err}
	}

	return m, nil
}

// findManifest walks up from start until it finds a Cargo.toml with a
// [package] table. A bare [workspace] manifest (a virtual manifest) is not a
// package, so the walk continues past it only if start itself was the
// workspace root; otherwise the first Cargo.toml wins.
func findManifest(start string) (string, *rawManifest, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		path := filepath.Join(dir, "Cargo.toml")
		if _, err := os.Stat(path); err == nil {
			raw, err := decode(path)
			if err != nil {
				return "", nil, err
			}
			if raw.Package != nil {
				return dir, raw, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, ErrManifestNotFound
		}
		dir = parent
	}
}

// findWorkspace returns the workspace root directory and its [workspace]
// table, or empty values when the package is standalone. The package's own
// manifest may carry the [workspace] table; otherwise ancestors are searched.
func findWorkspace(pkgDir string, pkgRaw *rawManifest) (string, *rawWorkspace, error) {
	if pkgRaw.Workspace != nil {
		return pkgDir, pkgRaw.Workspace, nil
	}

	dir := pkgDir
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent

		path := filepath.Join(dir, "Cargo.toml")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		raw, err := decode(path)
		if err != nil {
			return "", nil, err
		}
		if raw.Workspace != nil {
			return dir, raw.Workspace, nil
		}
	}
}

func decode(path string) (*rawManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &raw, nil
}

// resolvePackage substitutes `field.workspace = true` markers with the
// workspace's [workspace.package] values.
func resolvePackage(raw *rawPackage, ws *rawWorkspace) (Package, error) {
	pkg := Package{Name: raw.Name}
	if pkg.Name == "" {
		return pkg, fmt.Errorf("package has no name")
	}

	var err error
	if pkg.Version, err = inheritable(raw.Version, "version", ws); err != nil {
		return pkg, err
	}
	if pkg.Edition, err = inheritable(raw.Edition, "edition", ws); err != nil {
		return pkg, err
	}
	if pkg.RustVersion, err = inheritable(raw.RustVersion, "rust-version", ws); err != nil {
		return pkg, err
	}
	if pkg.Edition == "" {
		pkg.Edition = "2015"
	}
	return pkg, nil
}

// inheritable resolves a package field that is either a literal string or an
// inline table `{ workspace = true }` deferring to [workspace.package].
func inheritable(value any, field string, ws *rawWorkspace) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		inherits, _ := v["workspace"].(bool)
		if !inherits {
			return "", fmt.Errorf("package.%s: unsupported table value", field)
		}
		if ws == nil || ws.Package == nil {
			return "", fmt.Errorf("package.%s inherits from workspace, but no workspace was found", field)
		}
		inherited, ok := ws.Package[field].(string)
		if !ok {
			return "", fmt.Errorf("workspace.package.%s is missing or not a string", field)
		}
		return inherited, nil
	default:
		return "", fmt.Errorf("package.%s: unsupported value %T", field, value)
	}
}

func resolveDeps(raw map[string]any, ws *rawWorkspace) (map[string]Dependency, error) {
	if len(raw) == 0 {
		return map[string]Dependency{}, nil
	}

	deps := make(map[string]Dependency, len(raw))
	for name, entry := range raw {
		dep, err := decodeDep(name, entry)
		if err != nil {
			return nil, err
		}
		if dep.Workspace {
			resolved, err := inheritDep(name, dep, ws)
			if err != nil {
				return nil, err
			}
			dep = resolved
		}
		deps[name] = dep
	}
	return deps, nil
}

func decodeDep(name string, entry any) (Dependency, error) {
	switch v := entry.(type) {
	case string:
		return Dependency{Version: v, DefaultFeatures: true}, nil
	case map[string]any:
		dep := Dependency{DefaultFeatures: true}
		if s, ok := v["version"].(string); ok {
			dep.Version = s
		}
		if s, ok := v["path"].(string); ok {
			dep.Path = s
		}
		if s, ok := v["registry"].(string); ok {
			dep.Registry = s
		}
		if s, ok := v["package"].(string); ok {
			dep.Package = s
		}
		if b, ok := v["optional"].(bool); ok {
			dep.Optional = b
		}
		if b, ok := v["default-features"].(bool); ok {
			dep.DefaultFeatures = b
		}
		if b, ok := v["workspace"].(bool); ok {
			dep.Workspace = b
		}
		if features, ok := v["features"].([]any); ok {
			for _, f := range features {
				if s, ok := f.(string); ok {
					dep.Features = append(dep.Features, s)
				}
			}
		}
		return dep, nil
	default:
		return Dependency{}, fmt.Errorf("dependency %q: unsupported value %T", name, entry)
	}
}

// inheritDep replaces a `workspace = true` dependency with the workspace's
// declaration. Features requested by the member are appended to the
// workspace's feature list, matching cargo's merge semantics.
func inheritDep(name string, member Dependency, ws *rawWorkspace) (Dependency, error) {
	if ws == nil || ws.Dependencies == nil {
		return Dependency{}, fmt.Errorf("dependency %q inherits from workspace, but no workspace was found", name)
	}
	entry, ok := ws.Dependencies[name]
	if !ok {
		return Dependency{}, fmt.Errorf("dependency %q is not declared in workspace.dependencies", name)
	}
	dep, err := decodeDep(name, entry)
	if err != nil {
		return Dependency{}, err
	}
	dep.Features = append(dep.Features, member.Features...)
	if member.Optional {
		dep.Optional = true
	}
	dep.Workspace = false
	return dep, nil
}
