// Package graph builds the module graph: file parsing fans out across a
// worker pool, results merge single-threaded in path order so diagnostics
// stay deterministic, and reachability runs over the fully-merged graph.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/mamaar/sweeper/pkg/jsparse"
	"github.com/mamaar/sweeper/pkg/resolve"
	"github.com/mamaar/sweeper/pkg/types"
)

// ModuleGraph holds every project file across all workspaces, keyed by
// absolute path. It doubles as the project-set index the specifier resolver
// probes against.
type ModuleGraph struct {
	Files    map[string]*types.ProjectFile
	Warnings []types.Warning
}

// New creates an empty graph.
func New() *ModuleGraph {
	return &ModuleGraph{Files: make(map[string]*types.ProjectFile)}
}

// AddWorkspace registers a workspace's project files.
func (g *ModuleGraph) AddWorkspace(ws *types.Workspace) {
	for path, file := range ws.Files {
		g.Files[path] = file
	}
}

// Has implements resolve.FileIndex over the union of all project sets.
func (g *ModuleGraph) Has(path string) bool {
	_, ok := g.Files[path]
	return ok
}

// SortedPaths returns every file path in lexical order.
func (g *ModuleGraph) SortedPaths() []string {
	paths := make([]string, 0, len(g.Files))
	for path := range g.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Builder parses project files and attaches edges and exports.
type Builder struct {
	logger  *slog.Logger
	workers int
}

// NewBuilder creates a builder with the given parallelism; workers <= 0
// uses the number of CPUs.
func NewBuilder(logger *slog.Logger, workers int) *Builder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Builder{logger: logger, workers: workers}
}

type parseResult struct {
	path string
	info *jsparse.FileInfo
	err  error
}

// Build scans every file of every workspace in parallel and merges the
// results into the graph single-threaded, resolving specifiers with each
// workspace's resolver. Per-file parse failures degrade that file's
// contribution and continue the run.
func (b *Builder) Build(
	ctx context.Context,
	graph *ModuleGraph,
	workspaces []*types.Workspace,
	resolvers map[*types.Workspace]*resolve.Resolver,
) error {
	paths := graph.SortedPaths()
	b.logger.Debug("parsing project files", "files", len(paths), "workers", b.workers)

	jobs := make(chan string, len(paths))
	results := make(chan parseResult, len(paths))
	var wg sync.WaitGroup

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results <- parseOne(path)
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	parsed := make(map[string]parseResult, len(paths))
	for res := range results {
		parsed[res.path] = res
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Single-threaded merge in path order keeps warnings and edge order
	// identical between runs.
	for _, path := range paths {
		res, ok := parsed[path]
		if !ok {
			continue
		}
		file := graph.Files[path]
		if res.err != nil {
			file.ParseErr = res.err
			graph.Warnings = append(graph.Warnings, types.Warning{
				Kind: "parse", File: path, Message: res.err.Error(),
			})
			continue
		}
		b.merge(graph, file, res.info, resolvers[file.Workspace])
	}
	return nil
}

func parseOne(path string) parseResult {
	// Files whose extension the scanner does not understand contribute no
	// edges but stay members of the project set.
	if types.KindForPath(path) == types.FileOther {
		return parseResult{path: path, info: &jsparse.FileInfo{}}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return parseResult{path: path, err: err}
	}
	info, err := jsparse.Scan(path, src)
	return parseResult{path: path, info: info, err: err}
}

func (b *Builder) merge(graph *ModuleGraph, file *types.ProjectFile, info *jsparse.FileInfo, resolver *resolve.Resolver) {
	file.LocalRefs = info.Idents
	for _, gap := range info.Gaps {
		graph.Warnings = append(graph.Warnings, types.Warning{
			Kind: "resolution", File: file.Path,
			Message: fmt.Sprintf("line %d: %s", gap.Line, gap.Reason),
		})
	}

	for _, raw := range info.Imports {
		edge := &types.ImportEdge{
			From:       file,
			Specifier:  raw.Specifier,
			Kind:       raw.Kind,
			Names:      raw.Names,
			Namespace:  raw.Namespace,
			Enumerated: raw.Enumerated,
			Line:       raw.Line,
		}
		if resolver != nil {
			res := resolver.Resolve(resolve.StripQueryAndHash(raw.Specifier), file.Path)
			switch res.Kind {
			case resolve.ResolvedFile:
				edge.To = graph.Files[res.File]
			case resolve.ResolvedPackage:
				edge.Package = res.Package
			case resolve.Unresolved:
				edge.Ignored = res.Ignored
			}
		}
		file.Edges = append(file.Edges, edge)
	}

	for _, raw := range info.Exports {
		file.Exports = append(file.Exports, &types.ExportSymbol{
			File:         file,
			Name:         raw.Name,
			Kind:         raw.Kind,
			Line:         raw.Line,
			Col:          raw.Col,
			Parent:       raw.Parent,
			ReExportFrom: raw.From,
			Source:       raw.Source,
			Suppressed:   raw.Suppressed,
		})
	}
}
