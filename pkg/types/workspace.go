package types

// Workspace represents an independently-versioned unit within a source tree.
// The root workspace has a nil Parent; a single-package repository is modeled
// as a tree with only the root.
type Workspace struct {
	Name     string // manifest name, or directory relative to the root when unnamed
	Dir      string // absolute path to the workspace directory
	Parent   *Workspace
	Children []*Workspace

	Files        map[string]*ProjectFile // project set, keyed by absolute path
	EntryFiles   map[string]*ProjectFile // entry set, always a subset of Files
	Declarations []*DependencyDeclaration
	Scripts      map[string]string // manifest script name -> command line
}

// IsRoot reports whether this is the root of the workspace tree.
func (w *Workspace) IsRoot() bool {
	return w.Parent == nil
}

// Root returns the root of the workspace tree.
func (w *Workspace) Root() *Workspace {
	ws := w
	for ws.Parent != nil {
		ws = ws.Parent
	}
	return ws
}

// Subtree returns this workspace and all its descendants, depth first.
func (w *Workspace) Subtree() []*Workspace {
	result := []*Workspace{w}
	for _, child := range w.Children {
		result = append(result, child.Subtree()...)
	}
	return result
}

// Declares returns the declaration for the given package name, or nil.
func (w *Workspace) Declares(pkg string) *DependencyDeclaration {
	for _, d := range w.Declarations {
		if d.Package == pkg {
			return d
		}
	}
	return nil
}

// FileKind classifies a project file by its resolved extension.
type FileKind int

const (
	FileJS FileKind = iota
	FileJSX
	FileTS
	FileTSX
	FileDTS
	FileOther
)

// KindForPath returns the file kind for a path based on its extension.
func KindForPath(path string) FileKind {
	switch {
	case hasSuffix(path, ".d.ts"), hasSuffix(path, ".d.mts"), hasSuffix(path, ".d.cts"):
		return FileDTS
	case hasSuffix(path, ".tsx"):
		return FileTSX
	case hasSuffix(path, ".ts"), hasSuffix(path, ".mts"), hasSuffix(path, ".cts"):
		return FileTS
	case hasSuffix(path, ".jsx"):
		return FileJSX
	case hasSuffix(path, ".js"), hasSuffix(path, ".mjs"), hasSuffix(path, ".cjs"):
		return FileJS
	default:
		return FileOther
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// ProjectFile is a single source file scoped to exactly one workspace.
// Edges and Exports are attached once by the graph builder; the record is
// immutable afterwards except for export reference counts.
type ProjectFile struct {
	Path      string // absolute
	Workspace *Workspace
	Kind      FileKind
	Edges     []*ImportEdge
	Exports   []*ExportSymbol
	ParseErr  error // non-fatal; file contributes no edges or exports when set
	// LocalRefs counts identifier occurrences per name within the file,
	// declaration included. Supports the ignoreExportsUsedInFile setting.
	LocalRefs map[string]int
}

// ExportNamed returns the export symbol with the given name, or nil.
func (f *ProjectFile) ExportNamed(name string) *ExportSymbol {
	for _, e := range f.Exports {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// EdgeKind distinguishes the import forms the graph builder recognizes.
type EdgeKind int

const (
	EdgeStatic EdgeKind = iota
	EdgeReExport
	EdgeTypeOnly
	EdgeDynamic // dynamic import with a static string argument
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeStatic:
		return "static"
	case EdgeReExport:
		return "re-export"
	case EdgeTypeOnly:
		return "type-only"
	case EdgeDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// ImportEdge is one resolved import. Exactly one of To and Package is set for
// a resolved edge; both are empty for an unresolved specifier.
type ImportEdge struct {
	From      *ProjectFile
	Specifier string
	To        *ProjectFile // non-nil when resolved to a project file
	Package   string       // external package name when resolved to a package
	Kind      EdgeKind
	Names     []string // imported symbol names; empty for bare or namespace imports
	Namespace bool     // import * as ns
	// Enumerated marks a namespace import whose binding is consumed by
	// iteration, spread, or dynamic indexing rather than named member access.
	Enumerated bool
	Line       int
	// Ignored marks an unresolved specifier matched by an ignoreUnresolved rule.
	Ignored bool
}

// ResolvedToFile reports whether the edge targets a project file.
func (e *ImportEdge) ResolvedToFile() bool { return e.To != nil }

// External reports whether the edge resolved to an external package.
func (e *ImportEdge) External() bool { return e.To == nil && e.Package != "" }

// Unresolved reports whether the specifier could not be resolved at all.
func (e *ImportEdge) Unresolved() bool { return e.To == nil && e.Package == "" }

// SymbolKind classifies an exported symbol.
type SymbolKind int

const (
	SymbolValue SymbolKind = iota
	SymbolType
	SymbolClassMember
	SymbolEnumMember
	SymbolNamespace
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolValue:
		return "value"
	case SymbolType:
		return "type"
	case SymbolClassMember:
		return "class member"
	case SymbolEnumMember:
		return "enum member"
	case SymbolNamespace:
		return "namespace"
	default:
		return "unknown"
	}
}

// ExportSymbol is one exported symbol of a project file. Refs is monotonically
// non-decreasing within a run.
type ExportSymbol struct {
	File   *ProjectFile
	Name   string
	Kind   SymbolKind
	Line   int
	Col    int
	Refs   int
	Parent string // owning class or enum name for member symbols
	// ReExportFrom holds the raw specifier for `export { X } from './b'`
	// forms; empty for local declarations.
	ReExportFrom string
	// Source is the original name behind a renamed re-export
	// (`export { a as b } from ...` stores "a"); equal to Name otherwise.
	Source string
	// Suppressed is set when the preceding doc comment carries a recognized
	// suppression tag.
	Suppressed bool
}

// DependencyDeclaration is one entry of a workspace manifest's dependency or
// devDependency block. Immutable after manifest load.
type DependencyDeclaration struct {
	Workspace *Workspace
	Package   string
	Range     string
	Dev       bool
	// Internal marks workspace-protocol and file-protocol ranges, which point
	// inside the tree and are never reported against the registry.
	Internal bool
}

// BinaryReference is a leading executable token extracted from script-like
// text: manifest scripts, shell files, or CI workflow run blocks.
type BinaryReference struct {
	Workspace *Workspace
	Owner     string // manifest or script file the command was found in
	Binary    string
	Line      int
}
