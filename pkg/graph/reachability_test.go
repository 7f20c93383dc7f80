package graph

import (
	"testing"

	"github.com/mamaar/sweeper/pkg/types"
)

func newTestWorkspace(name string) *types.Workspace {
	return &types.Workspace{
		Name:       name,
		Dir:        "/" + name,
		Files:      make(map[string]*types.ProjectFile),
		EntryFiles: make(map[string]*types.ProjectFile),
	}
}

func addFile(ws *types.Workspace, path string, entry bool) *types.ProjectFile {
	file := &types.ProjectFile{Path: path, Workspace: ws, Kind: types.KindForPath(path)}
	ws.Files[path] = file
	if entry {
		ws.EntryFiles[path] = file
	}
	return file
}

func addEdge(from, to *types.ProjectFile, kind types.EdgeKind, names ...string) *types.ImportEdge {
	edge := &types.ImportEdge{From: from, To: to, Kind: kind, Names: names}
	if to != nil {
		edge.Specifier = to.Path
	}
	from.Edges = append(from.Edges, edge)
	return edge
}

func addExport(file *types.ProjectFile, name string) *types.ExportSymbol {
	exp := &types.ExportSymbol{File: file, Name: name, Kind: types.SymbolValue, Source: name}
	file.Exports = append(file.Exports, exp)
	return exp
}

func TestTraverseReachability(t *testing.T) {
	ws := newTestWorkspace("app")
	entry := addFile(ws, "/app/index.ts", true)
	used := addFile(ws, "/app/used.ts", false)
	transitively := addFile(ws, "/app/deep.ts", false)
	orphan := addFile(ws, "/app/orphan.ts", false)
	addEdge(entry, used, types.EdgeStatic)
	addEdge(used, transitively, types.EdgeStatic)
	addEdge(orphan, used, types.EdgeStatic) // edges from unreachable files do not help

	tr := Traverse([]*types.Workspace{ws}, false)

	for _, path := range []string{"/app/index.ts", "/app/used.ts", "/app/deep.ts"} {
		if _, ok := tr.Reachable[path]; !ok {
			t.Errorf("%s should be reachable", path)
		}
	}
	if _, ok := tr.Reachable["/app/orphan.ts"]; ok {
		t.Error("orphan should not be reachable")
	}

	unused := tr.UnusedFiles(ws)
	if len(unused) != 1 || unused[0] != orphan {
		t.Fatalf("UnusedFiles = %+v", unused)
	}
}

func TestTraverseCycle(t *testing.T) {
	ws := newTestWorkspace("app")
	entry := addFile(ws, "/app/index.ts", true)
	a := addFile(ws, "/app/a.ts", false)
	b := addFile(ws, "/app/b.ts", false)
	addEdge(entry, a, types.EdgeStatic)
	addEdge(a, b, types.EdgeStatic)
	addEdge(b, a, types.EdgeStatic)

	tr := Traverse([]*types.Workspace{ws}, false)
	if len(tr.Reachable) != 3 {
		t.Fatalf("cycle should terminate with 3 reachable files, got %d", len(tr.Reachable))
	}
}

func TestExportReferenceCounting(t *testing.T) {
	ws := newTestWorkspace("app")
	entry := addFile(ws, "/app/index.ts", true)
	lib := addFile(ws, "/app/lib.ts", false)
	used := addExport(lib, "used")
	unused := addExport(lib, "unused")
	addEdge(entry, lib, types.EdgeStatic, "used")

	Traverse([]*types.Workspace{ws}, false)

	if used.Refs != 1 {
		t.Errorf("used.Refs = %d", used.Refs)
	}
	if unused.Refs != 0 {
		t.Errorf("unused.Refs = %d", unused.Refs)
	}
}

func TestUnreachableImporterAddsNoRefs(t *testing.T) {
	ws := newTestWorkspace("app")
	addFile(ws, "/app/index.ts", true)
	lib := addFile(ws, "/app/lib.ts", false)
	orphan := addFile(ws, "/app/orphan.ts", false)
	exp := addExport(lib, "x")
	addEdge(orphan, lib, types.EdgeStatic, "x")

	Traverse([]*types.Workspace{ws}, false)
	if exp.Refs != 0 {
		t.Errorf("reference from unreachable file counted: Refs = %d", exp.Refs)
	}
}

func TestRenamedReExportPropagates(t *testing.T) {
	ws := newTestWorkspace("app")
	entry := addFile(ws, "/app/index.ts", true)
	barrel := addFile(ws, "/app/barrel.ts", false)
	impl := addFile(ws, "/app/impl.ts", false)

	implExp := addExport(impl, "original")
	barrelExp := &types.ExportSymbol{
		File: barrel, Name: "renamed", Kind: types.SymbolValue,
		ReExportFrom: "./impl", Source: "original",
	}
	barrel.Exports = append(barrel.Exports, barrelExp)
	reEdge := addEdge(barrel, impl, types.EdgeReExport, "original")
	reEdge.Specifier = "./impl"

	addEdge(entry, barrel, types.EdgeStatic, "renamed")

	Traverse([]*types.Workspace{ws}, false)

	if barrelExp.Refs != 1 {
		t.Errorf("barrel symbol Refs = %d", barrelExp.Refs)
	}
	if implExp.Refs != 1 {
		t.Errorf("re-export must propagate to the declaration, Refs = %d", implExp.Refs)
	}
}

func TestStarReExportResolvesNames(t *testing.T) {
	ws := newTestWorkspace("app")
	entry := addFile(ws, "/app/index.ts", true)
	barrel := addFile(ws, "/app/barrel.ts", false)
	impl := addFile(ws, "/app/impl.ts", false)
	exp := addExport(impl, "helper")
	other := addExport(impl, "other")
	addEdge(barrel, impl, types.EdgeReExport, "*")
	addEdge(entry, barrel, types.EdgeStatic, "helper")

	Traverse([]*types.Workspace{ws}, false)

	if exp.Refs != 1 {
		t.Errorf("helper.Refs = %d", exp.Refs)
	}
	if other.Refs != 0 {
		t.Errorf("unrequested symbol counted through star re-export: %d", other.Refs)
	}
}

func TestReExportEdgeAloneIsNotAReference(t *testing.T) {
	ws := newTestWorkspace("app")
	entry := addFile(ws, "/app/index.ts", true)
	barrel := addFile(ws, "/app/barrel.ts", false)
	impl := addFile(ws, "/app/impl.ts", false)
	exp := addExport(impl, "x")
	addEdge(barrel, impl, types.EdgeReExport, "*")
	addEdge(entry, barrel, types.EdgeStatic) // bare import, no names

	Traverse([]*types.Workspace{ws}, false)

	if exp.Refs != 0 {
		t.Errorf("passing through a barrel must not count as usage, Refs = %d", exp.Refs)
	}
}

func TestDynamicImportReferencesWholeNamespace(t *testing.T) {
	ws := newTestWorkspace("app")
	entry := addFile(ws, "/app/index.ts", true)
	lazy := addFile(ws, "/app/lazy.ts", false)
	a := addExport(lazy, "a")
	b := addExport(lazy, "b")
	addEdge(entry, lazy, types.EdgeDynamic)

	Traverse([]*types.Workspace{ws}, false)

	if a.Refs == 0 || b.Refs == 0 {
		t.Errorf("dynamic import must reference every export: a=%d b=%d", a.Refs, b.Refs)
	}
}

func TestNamespaceEnumerationHeuristic(t *testing.T) {
	build := func() (*types.Workspace, *types.ExportSymbol, *types.ExportSymbol) {
		ws := newTestWorkspace("app")
		entry := addFile(ws, "/app/index.ts", true)
		lib := addFile(ws, "/app/lib.ts", false)
		named := addExport(lib, "named")
		other := addExport(lib, "other")
		edge := addEdge(entry, lib, types.EdgeStatic, "named")
		edge.Namespace = true
		edge.Enumerated = true
		return ws, named, other
	}

	ws, named, other := build()
	Traverse([]*types.Workspace{ws}, false)
	if named.Refs == 0 || other.Refs == 0 {
		t.Errorf("heuristic on: enumeration references everything, named=%d other=%d", named.Refs, other.Refs)
	}

	ws, named, other = build()
	Traverse([]*types.Workspace{ws}, true)
	if named.Refs != 1 || other.Refs != 0 {
		t.Errorf("heuristic off: only named member accesses count, named=%d other=%d", named.Refs, other.Refs)
	}
}

func TestTraverseSpansWorkspaces(t *testing.T) {
	app := newTestWorkspace("app")
	lib := newTestWorkspace("lib")
	entry := addFile(app, "/app/index.ts", true)
	shared := addFile(lib, "/lib/shared.ts", false)
	addEdge(entry, shared, types.EdgeStatic)

	tr := Traverse([]*types.Workspace{app, lib}, false)
	if _, ok := tr.Reachable["/lib/shared.ts"]; !ok {
		t.Error("cross-workspace edges must be traversed")
	}
	if unused := tr.UnusedFiles(lib); len(unused) != 0 {
		t.Errorf("shared file is used: %+v", unused)
	}
}
