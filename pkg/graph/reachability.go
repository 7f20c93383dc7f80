package graph

import (
	"github.com/mamaar/sweeper/pkg/types"
)

// Traversal is the result of the reachability pass: the reachable-file set
// and export reference counts updated in place on the graph's symbols.
type Traversal struct {
	// Reachable maps path -> file for every file reachable from any entry,
	// entries included.
	Reachable map[string]*types.ProjectFile
}

// Traverse walks the graph from the union of all workspaces' entry sets and
// attributes export references. Only the existence of a path matters, so
// iteration order cannot change the result. When noNamespaceHeuristic is set,
// enumerated namespace imports count only their named member accesses.
func Traverse(workspaces []*types.Workspace, noNamespaceHeuristic bool) *Traversal {
	t := &Traversal{Reachable: make(map[string]*types.ProjectFile)}

	var queue []*types.ProjectFile
	for _, ws := range workspaces {
		for _, entry := range ws.EntryFiles {
			if _, seen := t.Reachable[entry.Path]; !seen {
				t.Reachable[entry.Path] = entry
				queue = append(queue, entry)
			}
		}
	}

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		for _, edge := range file.Edges {
			if edge.To == nil {
				continue
			}
			if _, seen := t.Reachable[edge.To.Path]; !seen {
				t.Reachable[edge.To.Path] = edge.To
				queue = append(queue, edge.To)
			}
		}
	}

	t.countReferences(noNamespaceHeuristic)
	return t
}

// countReferences increments export reference counts for every edge whose
// source file is reachable. Re-export symbols propagate transitively to the
// underlying declaration.
func (t *Traversal) countReferences(noNamespaceHeuristic bool) {
	for _, file := range t.Reachable {
		for _, edge := range file.Edges {
			if edge.To == nil {
				continue
			}
			// Re-export edges transfer references only when the re-exported
			// symbol itself is referenced; they are handled by reference
			// propagation, not by the edge's existence.
			if edge.Kind == types.EdgeReExport {
				continue
			}
			switch {
			case edge.Kind == types.EdgeDynamic && len(edge.Names) == 0:
				// A dynamic import yields the whole namespace object.
				t.markAll(edge.To, nil)
			case edge.Enumerated && !noNamespaceHeuristic:
				t.markAll(edge.To, nil)
			default:
				for _, name := range edge.Names {
					t.addRef(edge.To, name, nil)
				}
			}
		}
	}
}

type refKey struct {
	file *types.ProjectFile
	name string
}

// addRef increments the named export of file, following renamed and starred
// re-exports to the files that actually declare the symbol.
func (t *Traversal) addRef(file *types.ProjectFile, name string, visited map[refKey]bool) {
	if file == nil || name == "" {
		return
	}
	if name == "*" {
		t.markAll(file, visited)
		return
	}
	if visited == nil {
		visited = make(map[refKey]bool)
	}
	key := refKey{file, name}
	if visited[key] {
		return
	}
	visited[key] = true

	if exp := file.ExportNamed(name); exp != nil {
		exp.Refs++
		if exp.ReExportFrom != "" {
			if target := t.reExportTarget(file, exp.ReExportFrom); target != nil {
				t.addRef(target, exp.Source, visited)
			}
		}
		return
	}

	// Not declared locally: the name may arrive through a star re-export.
	for _, edge := range file.Edges {
		if edge.Kind == types.EdgeReExport && edge.To != nil && isStar(edge.Names) {
			t.addRef(edge.To, name, visited)
		}
	}
}

// markAll references every export of file, propagating through re-exports.
func (t *Traversal) markAll(file *types.ProjectFile, visited map[refKey]bool) {
	if file == nil {
		return
	}
	if visited == nil {
		visited = make(map[refKey]bool)
	}
	key := refKey{file, "*"}
	if visited[key] {
		return
	}
	visited[key] = true

	for _, exp := range file.Exports {
		exp.Refs++
		if exp.ReExportFrom != "" {
			if target := t.reExportTarget(file, exp.ReExportFrom); target != nil {
				t.addRef(target, exp.Source, visited)
			}
		}
	}
	for _, edge := range file.Edges {
		if edge.Kind == types.EdgeReExport && edge.To != nil && isStar(edge.Names) {
			t.markAll(edge.To, visited)
		}
	}
}

// reExportTarget finds the file a re-export specifier resolved to.
func (t *Traversal) reExportTarget(file *types.ProjectFile, specifier string) *types.ProjectFile {
	for _, edge := range file.Edges {
		if edge.Specifier == specifier && edge.To != nil {
			return edge.To
		}
	}
	return nil
}

func isStar(names []string) bool {
	return len(names) == 1 && names[0] == "*"
}

// UnusedFiles returns the workspace's project files that are neither entries
// nor reachable, in no particular order.
func (t *Traversal) UnusedFiles(ws *types.Workspace) []*types.ProjectFile {
	var unused []*types.ProjectFile
	for path, file := range ws.Files {
		if _, ok := ws.EntryFiles[path]; ok {
			continue
		}
		if _, ok := t.Reachable[path]; ok {
			continue
		}
		unused = append(unused, file)
	}
	return unused
}
