package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mamaar/sweeper/pkg/manifest"
)

// InstalledPackage is one installed-package record: where it lives and which
// executable names its manifest maps.
type InstalledPackage struct {
	Name string
	Dir  string
	Bins []string
}

// InstalledIndex indexes the packages installed under one node_modules
// directory, keyed by package name.
type InstalledIndex struct {
	pkgs map[string]*InstalledPackage
}

// NewInstalledIndex returns an empty index.
func NewInstalledIndex() *InstalledIndex {
	return &InstalledIndex{pkgs: make(map[string]*InstalledPackage)}
}

// ScanNodeModules reads the manifests installed under dir/node_modules,
// including scoped packages. A missing node_modules directory yields an
// empty index, not an error.
func ScanNodeModules(dir string) (*InstalledIndex, error) {
	ix := NewInstalledIndex()
	nm := filepath.Join(dir, "node_modules")
	entries, err := os.ReadDir(nm)
	if os.IsNotExist(err) {
		return ix, nil
	}
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(name, "@") {
			scoped, err := os.ReadDir(filepath.Join(nm, name))
			if err != nil {
				continue
			}
			for _, sub := range scoped {
				if sub.IsDir() {
					ix.addPackage(filepath.Join(nm, name, sub.Name()))
				}
			}
			continue
		}
		ix.addPackage(filepath.Join(nm, name))
	}
	return ix, nil
}

func (ix *InstalledIndex) addPackage(dir string) {
	m, err := manifest.Load(dir)
	if err != nil || m == nil || m.Name == "" {
		return
	}
	ix.pkgs[m.Name] = &InstalledPackage{
		Name: m.Name,
		Dir:  dir,
		Bins: m.BinNames(),
	}
}

// Add records a package directly. Used by tests and by workspace linking.
func (ix *InstalledIndex) Add(pkg *InstalledPackage) {
	ix.pkgs[pkg.Name] = pkg
}

// Has reports whether the named package is installed.
func (ix *InstalledIndex) Has(name string) bool {
	_, ok := ix.pkgs[name]
	return ok
}

// Lookup returns the installed record for name, or nil.
func (ix *InstalledIndex) Lookup(name string) *InstalledPackage {
	return ix.pkgs[name]
}

// BinaryProvider returns the name of the installed package whose manifest
// maps the given executable name, or "".
func (ix *InstalledIndex) BinaryProvider(bin string) string {
	for _, pkg := range ix.pkgs {
		for _, b := range pkg.Bins {
			if b == bin {
				return pkg.Name
			}
		}
	}
	return ""
}

// Merge returns an index containing both receivers' records, with the
// receiver's entries taking precedence over other's.
func (ix *InstalledIndex) Merge(other *InstalledIndex) *InstalledIndex {
	merged := NewInstalledIndex()
	if other != nil {
		for name, pkg := range other.pkgs {
			merged.pkgs[name] = pkg
		}
	}
	for name, pkg := range ix.pkgs {
		merged.pkgs[name] = pkg
	}
	return merged
}
