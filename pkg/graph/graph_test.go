package graph

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mamaar/sweeper/pkg/resolve"
	"github.com/mamaar/sweeper/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSource(t *testing.T, root, rel, src string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestBuildResolvesEdges(t *testing.T) {
	root := t.TempDir()
	index := writeSource(t, root, "index.ts", `
import { helper } from './lib'
import lodash from 'lodash'
import gone from './missing'
`)
	lib := writeSource(t, root, "lib.ts", `export const helper = 1`)

	ws := newTestWorkspace("app")
	ws.Dir = root
	entryFile := &types.ProjectFile{Path: index, Workspace: ws, Kind: types.KindForPath(index)}
	libFile := &types.ProjectFile{Path: lib, Workspace: ws, Kind: types.KindForPath(lib)}
	ws.Files[index] = entryFile
	ws.Files[lib] = libFile
	ws.EntryFiles[index] = entryFile

	g := New()
	g.AddWorkspace(ws)
	resolver, err := resolve.New(resolve.Options{BaseDir: root}, g)
	if err != nil {
		t.Fatalf("resolve.New: %v", err)
	}

	builder := NewBuilder(discardLogger(), 2)
	err = builder.Build(context.Background(), g, []*types.Workspace{ws},
		map[*types.Workspace]*resolve.Resolver{ws: resolver})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(entryFile.Edges) != 3 {
		t.Fatalf("edges = %+v", entryFile.Edges)
	}
	byspec := func(spec string) *types.ImportEdge {
		for _, e := range entryFile.Edges {
			if e.Specifier == spec {
				return e
			}
		}
		t.Fatalf("no edge for %q", spec)
		return nil
	}

	if e := byspec("./lib"); !e.ResolvedToFile() || e.To != libFile {
		t.Errorf("./lib edge: %+v", e)
	}
	if e := byspec("lodash"); !e.External() || e.Package != "lodash" {
		t.Errorf("lodash edge: %+v", e)
	}
	if e := byspec("./missing"); !e.Unresolved() {
		t.Errorf("./missing edge: %+v", e)
	}

	if libFile.ExportNamed("helper") == nil {
		t.Error("lib exports should be attached")
	}
}

func TestBuildParseErrorDegrades(t *testing.T) {
	root := t.TempDir()
	good := writeSource(t, root, "good.ts", `export const ok = 1`)
	bad := writeSource(t, root, "bad.ts", "const s = 'unterminated\n")

	ws := newTestWorkspace("app")
	ws.Dir = root
	for _, p := range []string{good, bad} {
		ws.Files[p] = &types.ProjectFile{Path: p, Workspace: ws, Kind: types.KindForPath(p)}
	}

	g := New()
	g.AddWorkspace(ws)
	resolver, err := resolve.New(resolve.Options{BaseDir: root}, g)
	if err != nil {
		t.Fatalf("resolve.New: %v", err)
	}

	builder := NewBuilder(discardLogger(), 1)
	err = builder.Build(context.Background(), g, []*types.Workspace{ws},
		map[*types.Workspace]*resolve.Resolver{ws: resolver})
	if err != nil {
		t.Fatalf("a parse error must not abort the build: %v", err)
	}

	if ws.Files[bad].ParseErr == nil {
		t.Error("bad file should carry its parse error")
	}
	if len(g.Warnings) != 1 || g.Warnings[0].Kind != "parse" {
		t.Errorf("warnings = %+v", g.Warnings)
	}
	if ws.Files[good].ExportNamed("ok") == nil {
		t.Error("good file should still be merged")
	}
}

func TestBuildOtherKindFilesAreInert(t *testing.T) {
	root := t.TempDir()
	css := writeSource(t, root, "styles.css", ".a { color: red }")

	ws := newTestWorkspace("app")
	ws.Dir = root
	ws.Files[css] = &types.ProjectFile{Path: css, Workspace: ws, Kind: types.KindForPath(css)}

	g := New()
	g.AddWorkspace(ws)
	resolver, err := resolve.New(resolve.Options{BaseDir: root}, g)
	if err != nil {
		t.Fatalf("resolve.New: %v", err)
	}

	builder := NewBuilder(discardLogger(), 1)
	err = builder.Build(context.Background(), g, []*types.Workspace{ws},
		map[*types.Workspace]*resolve.Resolver{ws: resolver})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	file := ws.Files[css]
	if file.ParseErr != nil || len(file.Edges) != 0 || len(file.Exports) != 0 {
		t.Errorf("non-script file should contribute nothing: %+v", file)
	}
}
