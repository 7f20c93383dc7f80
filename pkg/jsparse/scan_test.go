package jsparse

import (
	"errors"
	"testing"

	"github.com/mamaar/sweeper/pkg/types"
)

func scan(t *testing.T, src string) *FileInfo {
	t.Helper()
	info, err := Scan("test.ts", []byte(src))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return info
}

func findImport(t *testing.T, info *FileInfo, specifier string) *RawImport {
	t.Helper()
	for i := range info.Imports {
		if info.Imports[i].Specifier == specifier {
			return &info.Imports[i]
		}
	}
	t.Fatalf("no import of %q in %+v", specifier, info.Imports)
	return nil
}

func findExport(t *testing.T, info *FileInfo, name string) *RawExport {
	t.Helper()
	for i := range info.Exports {
		if info.Exports[i].Name == name {
			return &info.Exports[i]
		}
	}
	t.Fatalf("no export named %q in %+v", name, info.Exports)
	return nil
}

func hasName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

func TestScanImportForms(t *testing.T) {
	info := scan(t, `
import './side-effect'
import def from './default'
import { a, b as c } from './named'
import def2, { d } from './mixed'
import * as ns from './star'
import type { T } from './types'
const x = require('./req')
`)

	if imp := findImport(t, info, "./side-effect"); len(imp.Names) != 0 || imp.Namespace {
		t.Errorf("bare import: %+v", imp)
	}
	if imp := findImport(t, info, "./default"); !hasName(imp.Names, "default") {
		t.Errorf("default import should reference \"default\": %+v", imp)
	}
	imp := findImport(t, info, "./named")
	if !hasName(imp.Names, "a") || !hasName(imp.Names, "b") || hasName(imp.Names, "c") {
		t.Errorf("named import should hold original names: %+v", imp)
	}
	if imp := findImport(t, info, "./mixed"); !hasName(imp.Names, "default") || !hasName(imp.Names, "d") {
		t.Errorf("mixed import: %+v", imp)
	}
	if imp := findImport(t, info, "./star"); !imp.Namespace || imp.Alias != "ns" {
		t.Errorf("namespace import: %+v", imp)
	}
	if imp := findImport(t, info, "./types"); imp.Kind != types.EdgeTypeOnly {
		t.Errorf("type-only import: %+v", imp)
	}
	if imp := findImport(t, info, "./req"); imp.Kind != types.EdgeStatic {
		t.Errorf("require: %+v", imp)
	}
}

func TestScanDynamicImport(t *testing.T) {
	info := scan(t, `
const a = await import('./literal')
const b = await import('./concat' + '.ts')
const c = await import(somePath)
const d = await import('./with-opts', { with: { type: 'json' } })
`)

	if imp := findImport(t, info, "./literal"); imp.Kind != types.EdgeDynamic {
		t.Errorf("literal dynamic import: %+v", imp)
	}
	findImport(t, info, "./concat.ts")
	findImport(t, info, "./with-opts")
	if len(info.Gaps) != 1 {
		t.Fatalf("non-literal argument should record one gap, got %+v", info.Gaps)
	}
}

func TestScanJoinedArguments(t *testing.T) {
	info := scan(t, `
const a = await import(path.join('./lib', 'util.ts'))
const b = require(join('./tasks/', 'run.js'))
const c = await import(path.join(baseDir, 'x.ts'))
`)

	if imp := findImport(t, info, "./lib/util.ts"); imp.Kind != types.EdgeDynamic {
		t.Errorf("joined dynamic import: %+v", imp)
	}
	if imp := findImport(t, info, "./tasks/run.js"); imp.Kind != types.EdgeStatic {
		t.Errorf("joined require: %+v", imp)
	}
	if len(info.Gaps) != 1 {
		t.Fatalf("non-literal join argument should record one gap, got %+v", info.Gaps)
	}
}

func TestScanTemplateArguments(t *testing.T) {
	info := scan(t, "const a = await import(`./plain`)\nconst b = await import(`./x${dir}`)\n")
	findImport(t, info, "./plain")
	if len(info.Gaps) != 1 {
		t.Fatalf("substitution template should be a gap, got %+v", info.Gaps)
	}
}

func TestScanExportForms(t *testing.T) {
	info := scan(t, `
export const one = 1, two = 2
export const { x, y: z } = pair
export function fn() {}
export default function main() {}
export class Box {}
export interface Shape {}
export type Alias = string
export enum Color { Red, Green }
`)

	findExport(t, info, "one")
	findExport(t, info, "two")
	findExport(t, info, "x")
	findExport(t, info, "z")
	if e := findExport(t, info, "fn"); e.Kind != types.SymbolValue {
		t.Errorf("fn: %+v", e)
	}
	findExport(t, info, "default")
	findExport(t, info, "Box")
	if e := findExport(t, info, "Shape"); e.Kind != types.SymbolType {
		t.Errorf("interface should be a type symbol: %+v", e)
	}
	if e := findExport(t, info, "Alias"); e.Kind != types.SymbolType {
		t.Errorf("type alias should be a type symbol: %+v", e)
	}
	if e := findExport(t, info, "Color"); e.Kind != types.SymbolValue {
		t.Errorf("enum: %+v", e)
	}
	if e := findExport(t, info, "Red"); e.Kind != types.SymbolEnumMember || e.Parent != "Color" {
		t.Errorf("enum member: %+v", e)
	}
}

func TestScanReExports(t *testing.T) {
	info := scan(t, `
export { a, b as c } from './other'
export * from './star'
export * as ns from './named-star'
`)

	if e := findExport(t, info, "c"); e.From != "./other" || e.Source != "b" {
		t.Errorf("renamed re-export: %+v", e)
	}
	if e := findExport(t, info, "a"); e.From != "./other" || e.Source != "a" {
		t.Errorf("re-export: %+v", e)
	}
	imp := findImport(t, info, "./star")
	if imp.Kind != types.EdgeReExport || !hasName(imp.Names, "*") {
		t.Errorf("star re-export edge: %+v", imp)
	}
	if e := findExport(t, info, "ns"); e.Kind != types.SymbolNamespace {
		t.Errorf("named star re-export: %+v", e)
	}
}

func TestScanLocalReExportList(t *testing.T) {
	info := scan(t, `
const helper = 1
export { helper }
`)
	if e := findExport(t, info, "helper"); e.From != "" {
		t.Errorf("local export list: %+v", e)
	}
}

func TestScanClassMembers(t *testing.T) {
	info := scan(t, `
export class Service {
	private secret = 1
	#hidden = 2
	constructor(arg: string) {}
	run() { return this.#hidden }
	static create(): Service { return new Service('') }
}
`)

	findExport(t, info, "run")
	if e := findExport(t, info, "create"); e.Parent != "Service" || e.Kind != types.SymbolClassMember {
		t.Errorf("static member: %+v", e)
	}
	for _, e := range info.Exports {
		if e.Name == "secret" || e.Name == "hidden" || e.Name == "constructor" {
			t.Errorf("non-public member leaked: %+v", e)
		}
	}
}

func TestScanNamespaceMemberAccess(t *testing.T) {
	info := scan(t, `
import * as utils from './utils'
utils.format(utils.trim(x))
`)
	imp := findImport(t, info, "./utils")
	if imp.Enumerated {
		t.Error("member access alone must not mark enumeration")
	}
	if !hasName(imp.Names, "format") || !hasName(imp.Names, "trim") {
		t.Errorf("member accesses should be recorded: %+v", imp.Names)
	}
}

func TestScanNamespaceEnumeration(t *testing.T) {
	cases := map[string]string{
		"iteration": "import * as all from './m'\nfor (const k in all) {}\n",
		"spread":    "import * as all from './m'\nconst copy = { ...all }\n",
		"indexing":  "import * as all from './m'\nconst v = all[key]\n",
		"escape":    "import * as all from './m'\nregister(all)\n",
	}
	for name, src := range cases {
		info := scan(t, src)
		if imp := findImport(t, info, "./m"); !imp.Enumerated {
			t.Errorf("%s: expected enumeration, got %+v", name, imp)
		}
	}
}

func TestScanSuppressionTag(t *testing.T) {
	info := scan(t, `
/** @public */
export const api = 1
export const internal = 2
`)
	if e := findExport(t, info, "api"); !e.Suppressed {
		t.Errorf("tagged export should be suppressed: %+v", e)
	}
	if e := findExport(t, info, "internal"); e.Suppressed {
		t.Errorf("untagged export must not be suppressed: %+v", e)
	}
}

func TestScanStringAndCommentOpacity(t *testing.T) {
	info := scan(t, `
const s = "import { fake } from './nope'"
// import './commented'
/* export const ghost = 1 */
const re = /import '.\/regex'/
`)
	if len(info.Imports) != 0 || len(info.Exports) != 0 {
		t.Fatalf("tokens inside strings, comments, and regexes must be inert: %+v %+v",
			info.Imports, info.Exports)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := Scan("bad.ts", []byte("const s = 'unterminated\n"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	var aerr *types.AnalysisError
	if !errors.As(err, &aerr) || aerr.Type != types.ParseError {
		t.Fatalf("expected a parse error, got %v", err)
	}
}

func TestScanIdentCounts(t *testing.T) {
	info := scan(t, `
export function helper() {}
const v = helper()
`)
	if info.Idents["helper"] < 2 {
		t.Fatalf("ident count: %+v", info.Idents)
	}
}
