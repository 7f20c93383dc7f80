// Package analysis wires configuration, workspace discovery, module-graph
// construction, and issue tracking into one run.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mamaar/sweeper/pkg/config"
	"github.com/mamaar/sweeper/pkg/graph"
	"github.com/mamaar/sweeper/pkg/manifest"
	"github.com/mamaar/sweeper/pkg/patterns"
	"github.com/mamaar/sweeper/pkg/plugins"
	"github.com/mamaar/sweeper/pkg/resolve"
	"github.com/mamaar/sweeper/pkg/scripts"
	"github.com/mamaar/sweeper/pkg/types"
)

// Options configures one analysis run.
type Options struct {
	// Dir is the analysis root, usually the repository root.
	Dir string
	// ConfigPath names an explicit configuration file; when empty the root
	// directory is probed for the default file names.
	ConfigPath string
	// Workers bounds parse parallelism; 0 uses the CPU count.
	Workers int

	// IncludeEntryExports also reports unused exports of entry files.
	IncludeEntryExports bool
	// ClassMembers enables unused class member reporting.
	ClassMembers bool
	// NoEnumMembers disables unused enum member reporting.
	NoEnumMembers bool
	// ExternalTypes also reports type re-exports from external packages.
	ExternalTypes bool
	// NoNamespaceHeuristic makes enumerated namespace imports count only
	// their named member accesses.
	NoNamespaceHeuristic bool

	// Include and Exclude override the configuration's issue filters.
	Include []string
	Exclude []string
	// Workspace restricts the report to one workspace by name.
	Workspace string

	Logger *slog.Logger
}

// Runner executes the analysis pipeline.
type Runner struct {
	opts     Options
	logger   *slog.Logger
	registry *plugins.Registry
}

func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Runner{opts: opts, logger: logger, registry: plugins.NewRegistry()}
}

// wsState carries the per-workspace context assembled during discovery.
type wsState struct {
	ws     *types.Workspace
	cfg    *config.WorkspaceConfig
	man    *manifest.Manifest
	active []plugins.Plugin
	pctx   *plugins.Context

	extensions       []string
	ignoreUnresolved []patterns.Pattern
	ignoreDeps       []patterns.Pattern
	ignoreBins       []patterns.Pattern
	settings         ExportSettings
}

// Run performs a full analysis and returns the filtered, sorted report.
// Configuration and filesystem failures are fatal; parse, resolution, and
// plugin failures degrade to warnings on the report.
func (r *Runner) Run(ctx context.Context) (*types.Report, error) {
	report := types.NewReport()

	root, err := filepath.Abs(r.opts.Dir)
	if err != nil {
		return nil, types.NewConfigError("resolving analysis root", err)
	}

	var cfg *config.Config
	if r.opts.ConfigPath != "" {
		cfg, err = config.LoadFile(r.opts.ConfigPath)
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, err
	}

	states, err := r.discoverWorkspaces(root, cfg, report)
	if err != nil {
		return nil, err
	}
	workspaces := make([]*types.Workspace, len(states))
	for i, st := range states {
		workspaces[i] = st.ws
	}
	r.logger.Debug("workspaces discovered", "count", len(workspaces))

	g := graph.New()
	for _, st := range states {
		if err := r.populateWorkspace(st, report); err != nil {
			return nil, err
		}
		g.AddWorkspace(st.ws)
	}

	installed := r.scanInstalled(states, report)

	resolvers := make(map[*types.Workspace]*resolve.Resolver, len(states))
	for _, st := range states {
		exts := append(append([]string(nil), resolve.DefaultExtensions...), st.extensions...)
		res, err := resolve.New(resolve.Options{
			BaseDir:          st.ws.Dir,
			Extensions:       exts,
			Paths:            st.cfg.Paths,
			IgnoreUnresolved: st.ignoreUnresolved,
			Installed:        installed[st.ws],
		}, g)
		if err != nil {
			return nil, err
		}
		resolvers[st.ws] = res
	}

	builder := graph.NewBuilder(r.logger, r.opts.Workers)
	if err := builder.Build(ctx, g, workspaces, resolvers); err != nil {
		return nil, err
	}
	report.Warnings = append(report.Warnings, g.Warnings...)

	traversal := graph.Traverse(workspaces, r.opts.NoNamespaceHeuristic)
	r.logger.Debug("traversal complete", "reachable", len(traversal.Reachable))

	r.reportUnusedFiles(states, traversal, report)
	r.reportUnresolved(traversal, report)

	binaries := r.collectBinaries(states, root, report)
	pluginDeps := r.collectPluginDeps(states, report)

	depIn := DependencyInput{
		Workspaces:         workspaces,
		Reachable:          traversal.Reachable,
		Binaries:           binaries,
		PluginDeps:         pluginDeps,
		Installed:          installed,
		IgnoreDependencies: map[*types.Workspace][]patterns.Pattern{},
		IgnoreBinaries:     map[*types.Workspace][]patterns.Pattern{},
	}
	settings := make(map[*types.Workspace]ExportSettings, len(states))
	for _, st := range states {
		depIn.IgnoreDependencies[st.ws] = st.ignoreDeps
		depIn.IgnoreBinaries[st.ws] = st.ignoreBins
		settings[st.ws] = st.settings
	}
	NewDependencyTracker(r.logger).Track(depIn, report)

	NewExportTracker(r.logger).Track(ExportInput{
		Workspaces: workspaces,
		Reachable:  traversal.Reachable,
		Options: ExportOptions{
			ClassMembers:  r.opts.ClassMembers,
			EnumMembers:   !r.opts.NoEnumMembers,
			ExternalTypes: r.opts.ExternalTypes,
		},
		Settings: settings,
	}, report)

	include, exclude, err := r.filters(cfg)
	if err != nil {
		return nil, err
	}
	return Classify(report, include, exclude, r.opts.Workspace), nil
}

// discoverWorkspaces builds the workspace tree from the root manifest's
// workspace globs plus the configuration's workspace keys. Only directories
// carrying a manifest become workspaces; the root always does.
func (r *Runner) discoverWorkspaces(root string, cfg *config.Config, report *types.Report) ([]*wsState, error) {
	rootMan, err := manifest.Load(root)
	if err != nil {
		return nil, err
	}

	dirSet := map[string]bool{".": true}
	var globs []string
	if rootMan != nil {
		globs = append(globs, rootMan.Workspaces.Globs...)
	}
	for key := range cfg.Workspaces {
		if key != "." {
			globs = append(globs, key)
		}
	}
	sort.Strings(globs)

	fsys := os.DirFS(root)
	for _, glob := range globs {
		matches, err := doublestar.Glob(fsys, glob)
		if err != nil {
			report.Warn("config", "", fmt.Sprintf("invalid workspace glob %q: %v", glob, err))
			continue
		}
		for _, rel := range matches {
			rel = filepath.ToSlash(rel)
			info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel), manifest.FileName)); err != nil {
				continue
			}
			dirSet[rel] = true
		}
	}

	rels := make([]string, 0, len(dirSet))
	for rel := range dirSet {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	byRel := make(map[string]*types.Workspace, len(rels))
	states := make([]*wsState, 0, len(rels))
	for _, rel := range rels {
		dir := root
		if rel != "." {
			dir = filepath.Join(root, filepath.FromSlash(rel))
		}

		var m *manifest.Manifest
		if rel == "." {
			m = rootMan
		} else {
			m, err = manifest.Load(dir)
			if err != nil {
				// A broken child manifest degrades that workspace, not the run.
				report.Warn("config", filepath.Join(dir, manifest.FileName), err.Error())
				m = nil
			}
		}

		ws := &types.Workspace{
			Dir:        dir,
			Files:      make(map[string]*types.ProjectFile),
			EntryFiles: make(map[string]*types.ProjectFile),
		}
		switch {
		case m != nil && m.Name != "":
			ws.Name = m.Name
		case rel == ".":
			ws.Name = filepath.Base(root)
		default:
			ws.Name = rel
		}

		if rel != "." {
			parentRel := path.Dir(rel)
			for parentRel != "." && byRel[parentRel] == nil {
				parentRel = path.Dir(parentRel)
			}
			parent := byRel[parentRel]
			ws.Parent = parent
			parent.Children = append(parent.Children, ws)
		}
		byRel[rel] = ws

		if m != nil {
			ws.Scripts = m.Scripts
			manPath := filepath.Join(dir, manifest.FileName)
			ws.Declarations = m.Declarations(ws, func(pkg, rng string) {
				report.Warn("config", manPath, fmt.Sprintf("dependency %s declares unparseable range %q", pkg, rng))
			})
		}

		wc := cfg.ForWorkspace(rel)
		st := &wsState{ws: ws, cfg: wc, man: m}
		st.settings = ExportSettings{
			IncludeEntryExports:     wc.IncludeEntryExports || r.opts.IncludeEntryExports,
			IgnoreExportsUsedInFile: wc.IgnoreExportsUsedInFile,
		}
		if st.ignoreDeps, err = patterns.Parse(wc.IgnoreDependencies); err != nil {
			return nil, err
		}
		if st.ignoreBins, err = patterns.Parse(wc.IgnoreBinaries); err != nil {
			return nil, err
		}
		if st.ignoreUnresolved, err = patterns.Parse(wc.IgnoreUnresolved); err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, nil
}

// populateWorkspace computes the workspace's entry and project sets and
// materializes its project files. Plugin entry patterns extend the
// configured ones, but ignore rules dominate every entry source.
func (r *Runner) populateWorkspace(st *wsState, report *types.Report) error {
	ws := st.ws
	st.pctx = &plugins.Context{Dir: ws.Dir, Logger: r.logger}
	st.active = r.registry.Detect(st.pctx)
	for _, p := range st.active {
		r.logger.Debug("plugin active", "plugin", p.Name(), "workspace", ws.Name)
	}

	entryGlobs := append([]string(nil), st.cfg.Entry...)
	for _, p := range st.active {
		pats, err := plugins.SafeEntryPatterns(p, st.pctx)
		if err != nil {
			report.Warn("plugin", "", fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		entryGlobs = append(entryGlobs, pats...)
		st.extensions = append(st.extensions, p.Extensions()...)
	}

	entryPats, err := patterns.Parse(entryGlobs)
	if err != nil {
		return err
	}
	projectPats, err := patterns.Parse(st.cfg.Project)
	if err != nil {
		return err
	}
	ignorePats, err := patterns.Parse(st.cfg.Ignore)
	if err != nil {
		return err
	}

	var exclude []string
	for _, child := range ws.Children {
		if rel, err := filepath.Rel(ws.Dir, child.Dir); err == nil {
			exclude = append(exclude, rel)
		}
	}
	resolver, err := patterns.NewResolver(ws.Dir, exclude)
	if err != nil {
		return err
	}
	entrySet, projectSet := resolver.Sets(entryPats, projectPats, ignorePats)

	for _, rel := range r.manifestEntries(st) {
		rel = path.Clean(filepath.ToSlash(rel))
		if rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if patterns.MatchSpecifier(ignorePats, rel) {
			continue
		}
		abs := filepath.Join(ws.Dir, filepath.FromSlash(rel))
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			continue
		}
		entrySet[rel] = true
		projectSet[rel] = true
	}

	for rel := range projectSet {
		abs := resolver.Abs(rel)
		file := &types.ProjectFile{Path: abs, Workspace: ws, Kind: types.KindForPath(abs)}
		ws.Files[abs] = file
		if entrySet[rel] {
			ws.EntryFiles[abs] = file
		}
	}
	r.logger.Debug("workspace populated",
		"workspace", ws.Name, "files", len(ws.Files), "entries", len(ws.EntryFiles))
	return nil
}

// manifestEntries returns entry candidates declared by the manifest itself:
// the main field, bin targets, export map targets, and file arguments of
// scripts.
func (r *Runner) manifestEntries(st *wsState) []string {
	if st.man == nil {
		return nil
	}
	var rels []string
	if st.man.Main != "" {
		rels = append(rels, st.man.Main)
	}
	if st.man.Bin.Single != "" {
		rels = append(rels, st.man.Bin.Single)
	}
	for _, target := range st.man.Bin.Entries {
		rels = append(rels, target)
	}
	rels = append(rels, st.man.ExportTargets()...)
	for _, script := range st.man.Scripts {
		rels = append(rels, scripts.ExtractFileArgs(script)...)
	}
	return rels
}

// scanInstalled reads each workspace's node_modules and merges ancestor
// indexes in, nearest first, mirroring hoisted installation lookup.
func (r *Runner) scanInstalled(states []*wsState, report *types.Report) map[*types.Workspace]*resolve.InstalledIndex {
	own := make(map[*types.Workspace]*resolve.InstalledIndex, len(states))
	for _, st := range states {
		ix, err := resolve.ScanNodeModules(st.ws.Dir)
		if err != nil {
			report.Warn("installation", st.ws.Dir, err.Error())
			ix = resolve.NewInstalledIndex()
		}
		own[st.ws] = ix
	}
	merged := make(map[*types.Workspace]*resolve.InstalledIndex, len(states))
	for _, st := range states {
		ix := own[st.ws]
		for w := st.ws.Parent; w != nil; w = w.Parent {
			ix = ix.Merge(own[w])
		}
		merged[st.ws] = ix
	}
	return merged
}

func (r *Runner) reportUnusedFiles(states []*wsState, traversal *graph.Traversal, report *types.Report) {
	for _, st := range states {
		for _, file := range traversal.UnusedFiles(st.ws) {
			report.Add(&types.Issue{
				Type:      types.IssueUnusedFiles,
				Workspace: st.ws.Name,
				File:      file.Path,
			})
		}
	}
}

// reportUnresolved surfaces unresolved specifiers on reachable files.
// Unreachable files are reported whole; their imports are not.
func (r *Runner) reportUnresolved(traversal *graph.Traversal, report *types.Report) {
	paths := make([]string, 0, len(traversal.Reachable))
	for p := range traversal.Reachable {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		file := traversal.Reachable[p]
		for _, edge := range file.Edges {
			if edge.Unresolved() && !edge.Ignored {
				report.Add(&types.Issue{
					Type:      types.IssueUnresolvedImports,
					Workspace: file.Workspace.Name,
					File:      file.Path,
					Line:      edge.Line,
					Symbol:    edge.Specifier,
				})
			}
		}
	}
}

// collectBinaries extracts executable references from manifest scripts,
// shell files in the project set, and CI workflow run blocks. Workflows
// always belong to the root workspace.
func (r *Runner) collectBinaries(states []*wsState, root string, report *types.Report) []*types.BinaryReference {
	var refs []*types.BinaryReference
	for _, st := range states {
		ws := st.ws
		manPath := filepath.Join(ws.Dir, manifest.FileName)
		names := make([]string, 0, len(ws.Scripts))
		for name := range ws.Scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, bin := range scripts.ExtractBinaries(ws.Scripts[name]) {
				refs = append(refs, &types.BinaryReference{Workspace: ws, Owner: manPath, Binary: bin})
			}
		}

		paths := make([]string, 0, len(ws.Files))
		for p := range ws.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			if !strings.HasSuffix(p, ".sh") {
				continue
			}
			data, err := os.ReadFile(p)
			if err != nil {
				report.Warn("parse", p, err.Error())
				continue
			}
			for _, bin := range scripts.ExtractBinaries(string(data)) {
				refs = append(refs, &types.BinaryReference{Workspace: ws, Owner: p, Binary: bin})
			}
		}
	}

	rootWs := states[0].ws.Root()
	wfDir := filepath.Join(root, ".github", "workflows")
	entries, err := os.ReadDir(wfDir)
	if err != nil {
		return refs
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
			continue
		}
		p := filepath.Join(wfDir, name)
		blocks, err := scripts.WorkflowRunBlocks(p)
		if err != nil {
			report.Warn("parse", p, err.Error())
			continue
		}
		for _, block := range blocks {
			for _, bin := range scripts.ExtractBinaries(block) {
				refs = append(refs, &types.BinaryReference{Workspace: rootWs, Owner: p, Binary: bin})
			}
		}
	}
	return refs
}

// collectPluginDeps asks each active plugin about configuration-looking
// files in its workspace.
func (r *Runner) collectPluginDeps(states []*wsState, report *types.Report) map[*types.Workspace][]string {
	deps := make(map[*types.Workspace][]string)
	for _, st := range states {
		if len(st.active) == 0 {
			continue
		}
		paths := make([]string, 0, len(st.ws.Files))
		for p := range st.ws.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			if !strings.Contains(filepath.Base(p), "config") {
				continue
			}
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			for _, plugin := range st.active {
				found, err := plugins.SafeFindDependencies(plugin, p, data)
				if err != nil {
					report.Warn("plugin", p, fmt.Sprintf("%s: %v", plugin.Name(), err))
					continue
				}
				deps[st.ws] = append(deps[st.ws], found...)
			}
		}
	}
	return deps
}

// filters resolves the effective issue filters. Command-line filters
// override the configuration's when given.
func (r *Runner) filters(cfg *config.Config) (include, exclude []types.IssueType, err error) {
	include, exclude, err = cfg.IssueFilters()
	if err != nil {
		return nil, nil, err
	}
	if len(r.opts.Include) > 0 {
		if include, err = parseIssueTypes(r.opts.Include); err != nil {
			return nil, nil, err
		}
	}
	if len(r.opts.Exclude) > 0 {
		if exclude, err = parseIssueTypes(r.opts.Exclude); err != nil {
			return nil, nil, err
		}
	}
	return include, exclude, nil
}

func parseIssueTypes(names []string) ([]types.IssueType, error) {
	out := make([]types.IssueType, 0, len(names))
	for _, name := range names {
		t, err := types.ParseIssueType(strings.TrimSpace(name))
		if err != nil {
			return nil, types.NewConfigError(err.Error(), nil)
		}
		out = append(out, t)
	}
	return out, nil
}
