// Package resolve maps raw import specifiers to project files, external
// package names, or an unresolved marker. Resolution is a pure function of
// the specifier, the referencing file, and static configuration, so results
// are memoized without correctness risk.
package resolve

import (
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mamaar/sweeper/pkg/patterns"
)

// Kind is the outcome of a resolution.
type Kind int

const (
	// ResolvedFile means the specifier names a file in some workspace's
	// project set.
	ResolvedFile Kind = iota
	// ResolvedPackage means the specifier names an external package.
	ResolvedPackage
	// Unresolved means no strategy applied.
	Unresolved
)

// Resolution is the result of resolving one specifier.
type Resolution struct {
	Kind    Kind
	File    string // absolute path when Kind is ResolvedFile
	Package string // package name when Kind is ResolvedPackage
	Subpath string // package subpath, "" for the package root
	// Installed reports whether the package was found in the consulted
	// installed-package records. Only meaningful for ResolvedPackage.
	Installed bool
	// Ignored marks an unresolved specifier matched by an ignoreUnresolved
	// rule: no edge is added and no issue is reported.
	Ignored bool
}

// FileIndex answers membership questions about the union of all workspaces'
// project sets.
type FileIndex interface {
	Has(path string) bool
}

// Options is the static configuration of a resolver.
type Options struct {
	// BaseDir anchors alias substitutions, usually the workspace directory.
	BaseDir string
	// Extensions tried in order when a path-like specifier has no match.
	Extensions []string
	// Paths is the alias table: prefix pattern -> substitution targets.
	Paths map[string][]string
	// IgnoreUnresolved suppresses reporting for matching specifiers.
	IgnoreUnresolved []patterns.Pattern
	// Installed is the merged installed-package record set for the workspace.
	Installed *InstalledIndex
	// CacheSize bounds the memoization cache; 0 uses a default.
	CacheSize int
}

// DefaultExtensions is the extension probe order when none is configured.
var DefaultExtensions = []string{
	".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs", ".json",
}

// Resolver resolves specifiers for one workspace.
type Resolver struct {
	opts      Options
	index     FileIndex
	cache     *lru.Cache[string, Resolution]
	aliasKeys []string // most specific match first
}

// New creates a resolver over the given project-file index.
func New(opts Options, index FileIndex) (*Resolver, error) {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	size := opts.CacheSize
	if size <= 0 {
		size = 8192
	}
	cache, err := lru.New[string, Resolution](size)
	if err != nil {
		return nil, err
	}
	return &Resolver{opts: opts, index: index, cache: cache, aliasKeys: sortAliasKeys(opts.Paths)}, nil
}

// sortAliasKeys fixes the alias match order: longest literal prefix first,
// exact keys before wildcard keys of the same prefix, then lexicographic.
// Mirrors compiler paths semantics, where "@a/b" beats "@a/*" for "@a/b".
func sortAliasKeys(paths map[string][]string) []string {
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		pa, wa := strings.CutSuffix(keys[a], "*")
		pb, wb := strings.CutSuffix(keys[b], "*")
		if len(pa) != len(pb) {
			return len(pa) > len(pb)
		}
		if wa != wb {
			return !wa
		}
		return keys[a] < keys[b]
	})
	return keys
}

// Resolve maps a specifier appearing in fromFile to its target.
func (r *Resolver) Resolve(specifier, fromFile string) Resolution {
	key := specifier + "\x00" + fromFile
	if res, ok := r.cache.Get(key); ok {
		return res
	}
	res := r.resolve(specifier, fromFile)
	r.cache.Add(key, res)
	return res
}

func (r *Resolver) resolve(specifier, fromFile string) Resolution {
	if specifier == "" {
		return r.unresolved(specifier)
	}

	// Step 1: relative and absolute path-like specifiers.
	if isPathLike(specifier) {
		base := filepath.Dir(fromFile)
		if strings.HasPrefix(specifier, "/") {
			base = ""
		}
		if file, ok := r.probe(filepath.Join(base, filepath.FromSlash(specifier))); ok {
			return Resolution{Kind: ResolvedFile, File: file}
		}
		return r.unresolved(specifier)
	}

	// Step 2: path-alias substitution, then retry step 1 semantics.
	if res, ok := r.resolveAlias(specifier); ok {
		return res
	}

	// Step 3: package specifier. Scheme-prefixed specifiers other than
	// node: builtins (virtual:, data:, https:) belong to bundlers and
	// stay unresolved so ignoreUnresolved patterns can claim them.
	if idx := strings.IndexByte(specifier, ':'); idx >= 0 && !strings.HasPrefix(specifier, "node:") {
		return r.unresolved(specifier)
	}
	name, subpath, ok := SplitPackage(specifier)
	if !ok {
		return r.unresolved(specifier)
	}
	res := Resolution{Kind: ResolvedPackage, Package: name, Subpath: subpath}
	if r.opts.Installed != nil && r.opts.Installed.Has(name) {
		res.Installed = true
	}
	return res
}

// probe tries the exact path, each configured extension, and index-file
// conventions, and returns the first project-set member.
func (r *Resolver) probe(path string) (string, bool) {
	path = filepath.Clean(path)
	if r.index.Has(path) {
		return path, true
	}
	for _, ext := range r.opts.Extensions {
		if cand := path + ext; r.index.Has(cand) {
			return cand, true
		}
	}
	for _, ext := range r.opts.Extensions {
		if cand := filepath.Join(path, "index"+ext); r.index.Has(cand) {
			return cand, true
		}
	}
	return "", false
}

// resolveAlias matches the specifier against the alias table. Alias keys may
// end in "/*"; the matched suffix substitutes the "*" of each target.
func (r *Resolver) resolveAlias(specifier string) (Resolution, bool) {
	for _, key := range r.aliasKeys {
		targets := r.opts.Paths[key]
		prefix, wildcard := strings.CutSuffix(key, "*")
		var suffix string
		if wildcard {
			if !strings.HasPrefix(specifier, prefix) {
				continue
			}
			suffix = strings.TrimPrefix(specifier, prefix)
		} else if specifier != key {
			continue
		}
		for _, target := range targets {
			substituted := target
			if wildcard {
				substituted = strings.Replace(target, "*", suffix, 1)
			}
			if file, ok := r.probe(filepath.Join(r.opts.BaseDir, filepath.FromSlash(substituted))); ok {
				return Resolution{Kind: ResolvedFile, File: file}, true
			}
		}
		// An alias prefix matched but no target file exists: an unresolved
		// path alias, not a package.
		return r.unresolved(specifier), true
	}
	return Resolution{}, false
}

func (r *Resolver) unresolved(specifier string) Resolution {
	res := Resolution{Kind: Unresolved}
	if patterns.MatchSpecifier(r.opts.IgnoreUnresolved, specifier) {
		res.Ignored = true
	}
	return res
}

func isPathLike(specifier string) bool {
	return strings.HasPrefix(specifier, "./") ||
		strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "/")
}

// SplitPackage splits a package specifier into its package name and subpath,
// respecting scoped-package syntax. Returns ok=false for syntactically
// invalid names.
func SplitPackage(specifier string) (name, subpath string, ok bool) {
	if specifier == "" || strings.HasPrefix(specifier, ".") {
		return "", "", false
	}
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") {
		if len(parts) < 2 || parts[1] == "" {
			return "", "", false
		}
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = parts[2]
		}
		return name, subpath, true
	}
	name = parts[0]
	if len(parts) > 1 {
		subpath = strings.Join(parts[1:], "/")
	}
	return name, subpath, true
}

// StripQueryAndHash removes bundler-style query and fragment suffixes
// ("./styles.css?inline") before resolution.
func StripQueryAndHash(specifier string) string {
	if idx := strings.IndexAny(specifier, "?#"); idx >= 0 {
		return specifier[:idx]
	}
	return specifier
}
