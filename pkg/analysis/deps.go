package analysis

import (
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mamaar/sweeper/pkg/manifest"
	"github.com/mamaar/sweeper/pkg/patterns"
	"github.com/mamaar/sweeper/pkg/resolve"
	"github.com/mamaar/sweeper/pkg/scripts"
	"github.com/mamaar/sweeper/pkg/types"
)

// DependencyInput gathers everything dependency tracking consumes: the
// workspace tree, the reachable file set, extracted binary references,
// plugin-contributed package names, and per-workspace installed indexes
// and ignore rules.
type DependencyInput struct {
	Workspaces []*types.Workspace
	Reachable  map[string]*types.ProjectFile
	Binaries   []*types.BinaryReference
	PluginDeps map[*types.Workspace][]string
	Installed  map[*types.Workspace]*resolve.InstalledIndex

	IgnoreDependencies map[*types.Workspace][]patterns.Pattern
	IgnoreBinaries     map[*types.Workspace][]patterns.Pattern
}

// DependencyTracker classifies manifest declarations as used or unused and
// referenced packages as listed or unlisted. A declaration is used when any
// reachable file in the declaring workspace's subtree references the package;
// a reference is unlisted when neither the owning workspace nor one of its
// ancestors declares it.
type DependencyTracker struct {
	logger *slog.Logger
}

func NewDependencyTracker(logger *slog.Logger) *DependencyTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DependencyTracker{logger: logger}
}

// Track appends dependency and binary issues to the report.
func (t *DependencyTracker) Track(in DependencyInput, report *types.Report) {
	referenced := t.collectReferences(in, report)

	for _, ws := range in.Workspaces {
		for _, decl := range ws.Declarations {
			if decl.Internal {
				continue
			}
			if patterns.MatchSpecifier(in.IgnoreDependencies[ws], decl.Package) {
				continue
			}
			if t.declarationUsed(decl, referenced) {
				t.checkInstalled(ws, decl.Package, in.Installed[ws], report)
				continue
			}
			report.Add(&types.Issue{
				Type:      types.IssueUnusedDependencies,
				Workspace: ws.Name,
				File:      filepath.Join(ws.Dir, manifest.FileName),
				Symbol:    decl.Package,
			})
		}
	}

	for _, ws := range in.Workspaces {
		pkgs := make([]string, 0, len(referenced[ws]))
		for pkg := range referenced[ws] {
			pkgs = append(pkgs, pkg)
		}
		sort.Strings(pkgs)
		for _, pkg := range pkgs {
			if IsNodeBuiltin(pkg) {
				continue
			}
			if patterns.MatchSpecifier(in.IgnoreDependencies[ws], pkg) {
				continue
			}
			if declaredInChain(ws, pkg) != nil {
				continue
			}
			report.Add(&types.Issue{
				Type:      types.IssueUnlistedDependencies,
				Workspace: ws.Name,
				File:      filepath.Join(ws.Dir, manifest.FileName),
				Symbol:    pkg,
			})
		}
	}
}

// collectReferences attributes every external edge on a reachable file to the
// file's workspace, folds in plugin-reported packages, and resolves binary
// references to their providing packages.
func (t *DependencyTracker) collectReferences(in DependencyInput, report *types.Report) map[*types.Workspace]map[string]bool {
	referenced := make(map[*types.Workspace]map[string]bool, len(in.Workspaces))
	for _, ws := range in.Workspaces {
		referenced[ws] = make(map[string]bool)
	}

	for _, file := range in.Reachable {
		for _, edge := range file.Edges {
			if edge.External() {
				referenced[file.Workspace][edge.Package] = true
			}
		}
	}

	for ws, pkgs := range in.PluginDeps {
		for _, pkg := range pkgs {
			referenced[ws][pkg] = true
		}
	}

	for _, ref := range in.Binaries {
		ws := ref.Workspace
		if scripts.IsOSBinary(ref.Binary) {
			continue
		}
		if patterns.MatchSpecifier(in.IgnoreBinaries[ws], ref.Binary) {
			continue
		}
		if provider := binaryProvider(ws, ref.Binary, in.Installed); provider != "" {
			referenced[ws][provider] = true
			continue
		}
		// A declared dependency sharing the binary's name provides it even
		// before installation.
		if decl := declaredInChain(ws, ref.Binary); decl != nil {
			referenced[ws][ref.Binary] = true
			continue
		}
		report.Add(&types.Issue{
			Type:      types.IssueUnlistedBinaries,
			Workspace: ws.Name,
			File:      ref.Owner,
			Line:      ref.Line,
			Symbol:    ref.Binary,
		})
	}

	return referenced
}

// declarationUsed reports whether any workspace in the declaring workspace's
// subtree references the package. A root declaration is satisfied by a match
// anywhere in the tree.
func (t *DependencyTracker) declarationUsed(decl *types.DependencyDeclaration, referenced map[*types.Workspace]map[string]bool) bool {
	for _, ws := range decl.Workspace.Subtree() {
		if referenced[ws][decl.Package] {
			return true
		}
	}
	return false
}

// checkInstalled warns when a used, declared package is missing from the
// workspace's installed records. Running the analysis below the repository
// root commonly produces this.
func (t *DependencyTracker) checkInstalled(ws *types.Workspace, pkg string, ix *resolve.InstalledIndex, report *types.Report) {
	if ix == nil || ix.Has(pkg) {
		return
	}
	report.Warn("installation", filepath.Join(ws.Dir, manifest.FileName),
		"package "+pkg+" is declared but not installed in this workspace")
}

// declaredInChain walks from the workspace to the root looking for a
// declaration. Hoisted installs make ancestor declarations available to
// every descendant.
func declaredInChain(ws *types.Workspace, pkg string) *types.DependencyDeclaration {
	for w := ws; w != nil; w = w.Parent {
		if decl := w.Declares(pkg); decl != nil {
			return decl
		}
	}
	return nil
}

// binaryProvider resolves a binary name against the workspace's installed
// index, falling back to the root index when the workspace has none.
func binaryProvider(ws *types.Workspace, bin string, installed map[*types.Workspace]*resolve.InstalledIndex) string {
	if ix := installed[ws]; ix != nil {
		if provider := ix.BinaryProvider(bin); provider != "" {
			return provider
		}
	}
	if root := ws.Root(); root != ws {
		if ix := installed[root]; ix != nil {
			return ix.BinaryProvider(bin)
		}
	}
	return ""
}
