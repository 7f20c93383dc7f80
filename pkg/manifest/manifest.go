// Package manifest reads package manifests: dependency declarations, binary
// mappings, scripts, export maps, and workspace globs.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mamaar/sweeper/pkg/types"
)

// FileName is the manifest file name expected in every workspace directory.
const FileName = "package.json"

// Manifest models the subset of package.json the analyzer consumes.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Main            string            `json:"main"`
	Bin             BinField          `json:"bin"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
	Workspaces      WorkspacesField   `json:"workspaces"`
	Exports         json.RawMessage   `json:"exports"`

	// Dir is the directory the manifest was loaded from.
	Dir string `json:"-"`
}

// Load reads and decodes the manifest in dir. A missing manifest is not an
// error; it returns (nil, nil) so single-file trees still analyze.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.AnalysisError{Type: types.FileSystemError, Message: err.Error(), File: path, Cause: err}
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, &types.AnalysisError{
			Type:    types.ConfigError,
			Message: fmt.Sprintf("malformed manifest: %v", err),
			File:    path,
			Cause:   err,
		}
	}
	m.Dir = dir
	return m, nil
}

// Declarations converts the dependency blocks into declaration records owned
// by the given workspace. Invalid semver ranges are kept (the dependency is
// still declared) and reported through the warn callback.
func (m *Manifest) Declarations(ws *types.Workspace, warn func(pkg, rng string)) []*types.DependencyDeclaration {
	decls := make([]*types.DependencyDeclaration, 0, len(m.Dependencies)+len(m.DevDependencies))
	add := func(deps map[string]string, dev bool) {
		for pkg, rng := range deps {
			internal := IsInternalRange(rng)
			if !internal && !ValidRange(rng) && warn != nil {
				warn(pkg, rng)
			}
			decls = append(decls, &types.DependencyDeclaration{
				Workspace: ws,
				Package:   pkg,
				Range:     rng,
				Dev:       dev,
				Internal:  internal,
			})
		}
	}
	add(m.Dependencies, false)
	add(m.DevDependencies, true)
	return decls
}

// IsInternalRange reports whether a range points inside the tree rather than
// at the registry: workspace, file, link, and portal protocols.
func IsInternalRange(rng string) bool {
	for _, prefix := range []string{"workspace:", "file:", "link:", "portal:"} {
		if strings.HasPrefix(rng, prefix) {
			return true
		}
	}
	return false
}

// ValidRange reports whether a declared range parses as a semver constraint.
// Registry tags ("latest", "next") and URLs are accepted as-is.
func ValidRange(rng string) bool {
	if rng == "" || rng == "*" || rng == "latest" || rng == "next" {
		return true
	}
	if strings.Contains(rng, "://") || strings.HasPrefix(rng, "npm:") || strings.HasPrefix(rng, "github:") {
		return true
	}
	_, err := semver.NewConstraint(rng)
	return err == nil
}

// BinNames returns the executable names this package installs.
func (m *Manifest) BinNames() []string {
	if len(m.Bin.Entries) > 0 {
		names := make([]string, 0, len(m.Bin.Entries))
		for name := range m.Bin.Entries {
			names = append(names, name)
		}
		return names
	}
	if m.Bin.Single != "" && m.Name != "" {
		// A bare bin string installs under the unscoped package name.
		name := m.Name
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		return []string{name}
	}
	return nil
}

// ExportTargets returns the relative file paths named by the export map.
// Files listed there are publicly exported and treated as entry candidates.
func (m *Manifest) ExportTargets() []string {
	if len(m.Exports) == 0 {
		return nil
	}
	var targets []string
	var walk func(raw json.RawMessage)
	walk = func(raw json.RawMessage) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if strings.HasPrefix(s, "./") {
				targets = append(targets, strings.TrimPrefix(s, "./"))
			}
			return
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			for _, v := range obj {
				walk(v)
			}
		}
	}
	walk(m.Exports)
	return targets
}

// BinField decodes both manifest bin forms: a bare string or a name->path map.
type BinField struct {
	Single  string
	Entries map[string]string
}

func (b *BinField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Single = s
		return nil
	}
	return json.Unmarshal(data, &b.Entries)
}

// WorkspacesField decodes both workspace declaration forms: a bare glob list
// or an object with a "packages" list.
type WorkspacesField struct {
	Globs []string
}

func (w *WorkspacesField) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		w.Globs = list
		return nil
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	w.Globs = obj.Packages
	return nil
}
