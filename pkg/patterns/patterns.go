// Package patterns expands glob-style entry, project, and ignore patterns
// into concrete file sets. Negation is handled as an ordered fold with
// last-match-wins semantics, matching conventional ignore-file behavior.
package patterns

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mamaar/sweeper/pkg/types"
)

// Pattern is one glob with its sign. Declaration order is the slice order.
type Pattern struct {
	Glob    string
	Negated bool
}

// Parse validates a list of glob strings and splits off negation prefixes.
// Invalid syntax is a fatal configuration error.
func Parse(globs []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(globs))
	for _, g := range globs {
		p := Pattern{Glob: g}
		if strings.HasPrefix(g, "!") {
			p.Negated = true
			p.Glob = g[1:]
		}
		if !doublestar.ValidatePattern(p.Glob) {
			return nil, types.NewConfigError(fmt.Sprintf("invalid glob pattern %q", g), nil)
		}
		out = append(out, p)
	}
	return out, nil
}

// Directories never worth walking.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".hg":          true,
	".svn":         true,
}

// Resolver materializes the candidate file list of one workspace directory
// and evaluates pattern sets against it.
type Resolver struct {
	root  string
	files []string // slash-separated, relative to root, sorted
}

// NewResolver walks root and collects every regular file, skipping package
// installation and VCS directories plus any explicitly excluded subtrees
// (used to keep child workspaces out of the parent's candidate set).
// A missing root is a fatal configuration error.
func NewResolver(root string, exclude []string) (*Resolver, error) {
	r := &Resolver{root: root}
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[filepath.ToSlash(e)] = true
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return types.NewConfigError(fmt.Sprintf("workspace path does not exist: %s", root), err)
			}
			return nil // unreadable entries degrade, they do not abort
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || excluded[rel]) {
				return filepath.SkipDir
			}
			return nil
		}
		r.files = append(r.files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(r.files)
	return r, nil
}

// Root returns the resolver's workspace directory.
func (r *Resolver) Root() string { return r.root }

// Abs converts a relative slash path back to an absolute path.
func (r *Resolver) Abs(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

// Match folds the patterns in declaration order over the candidate file list.
// A later pattern touching a file overrides the sign of an earlier one.
func (r *Resolver) Match(pats []Pattern) map[string]bool {
	set := make(map[string]bool)
	for _, file := range r.files {
		member := false
		touched := false
		for _, p := range pats {
			if doublestar.MatchUnvalidated(p.Glob, file) {
				member = !p.Negated
				touched = true
			}
		}
		if touched && member {
			set[file] = true
		}
	}
	return set
}

// Sets computes the entry and project sets of a workspace. The ignore set
// removes membership from both regardless of declaration order elsewhere,
// and entry files are members of the project set by construction.
func (r *Resolver) Sets(entry, project, ignore []Pattern) (entrySet, projectSet map[string]bool) {
	entrySet = r.Match(entry)
	projectSet = r.Match(project)
	ignoreSet := r.Match(ignore)

	for file := range ignoreSet {
		delete(entrySet, file)
		delete(projectSet, file)
	}
	for file := range entrySet {
		projectSet[file] = true
	}
	return entrySet, projectSet
}

// MatchSpecifier reports whether any pattern matches the given name. Used for
// ignoreDependencies, ignoreBinaries, and ignoreUnresolved rules, which match
// names rather than files.
func MatchSpecifier(pats []Pattern, name string) bool {
	matched := false
	for _, p := range pats {
		if doublestar.MatchUnvalidated(p.Glob, name) {
			matched = !p.Negated
		}
	}
	return matched
}
