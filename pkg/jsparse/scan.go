// Package jsparse statically extracts import edges and export symbols from
// JS/TS source. It is a best-effort scanner, not a full parser: it recognizes
// import/export syntax, require and dynamic-import calls with literal
// arguments, and a namespace-enumeration heuristic, and skips everything else.
package jsparse

import (
	"strings"

	"github.com/mamaar/sweeper/pkg/types"
)

// SuppressionTag marks an export as intentionally public; tagged symbols are
// excluded from unused-export reporting regardless of reference count.
const SuppressionTag = "@public"

// RawImport is one discovered import prior to specifier resolution.
type RawImport struct {
	Specifier string
	Kind      types.EdgeKind
	Names     []string // referenced symbol names in the target module
	Namespace bool
	Alias     string // namespace binding name
	Line      int
	// Enumerated marks a namespace import consumed by iteration, spread, or
	// dynamic indexing.
	Enumerated bool
}

// RawExport is one discovered export symbol.
type RawExport struct {
	Name       string
	Kind       types.SymbolKind
	Line       int
	Col        int
	From       string // re-export specifier, "" for local declarations
	Source     string // original name behind a renamed re-export
	Parent     string // owning class or enum for member symbols
	Suppressed bool
}

// Gap records a dynamic import whose argument could not be evaluated
// statically. It produces no edge.
type Gap struct {
	Line   int
	Reason string
}

// FileInfo is the extraction result for a single file.
type FileInfo struct {
	Imports []RawImport
	Exports []RawExport
	Gaps    []Gap
	// Idents counts identifier token occurrences by name, declarations
	// included.
	Idents map[string]int
}

// Scan extracts imports and exports from one source file. The returned error,
// if any, is a non-fatal per-file parse error.
func Scan(path string, src []byte) (*FileInfo, error) {
	tokens, err := lex(path, src)
	if err != nil {
		return nil, err
	}
	s := &scanner{tokens: tokens, info: &FileInfo{Idents: map[string]int{}}}
	for _, t := range tokens {
		if t.kind == tIdent {
			s.info.Idents[t.text]++
		}
	}
	s.run()
	s.analyzeNamespaceUsage()
	return s.info, nil
}

type scanner struct {
	tokens []token
	info   *FileInfo
}

func (s *scanner) at(i int) token {
	if i < 0 || i >= len(s.tokens) {
		return token{kind: tPunct}
	}
	return s.tokens[i]
}

func (s *scanner) text(i int) string { return s.at(i).text }

func (s *scanner) run() {
	depth := 0
	for i := 0; i < len(s.tokens); i++ {
		tok := s.tokens[i]
		switch {
		case tok.kind == tPunct && tok.text == "{":
			depth++
		case tok.kind == tPunct && tok.text == "}":
			// Sub-parsers consume matched braces themselves, so never let
			// a closing brace they already balanced push the depth negative.
			if depth > 0 {
				depth--
			}
		case tok.kind != tIdent:
			continue
		case s.text(i-1) == "." || s.text(i-1) == "?.":
			continue // member access, not a keyword
		case tok.text == "import" && s.text(i+1) == "(":
			i = s.parseDynamicImport(i)
		case tok.text == "require" && s.text(i+1) == "(":
			i = s.parseRequire(i)
		case tok.text == "import":
			i = s.parseImport(i)
		case tok.text == "export" && depth == 0:
			i = s.parseExport(i)
		}
	}
}

// parseDynamicImport handles import(arg). Only a string literal, a template
// without substitutions, or a concatenation of literals yields an edge;
// anything else is a resolution gap.
func (s *scanner) parseDynamicImport(i int) int {
	line := s.at(i).line
	j := i + 2 // past "import ("
	spec, end, ok := s.staticArgument(j)
	if !ok {
		s.info.Gaps = append(s.info.Gaps, Gap{Line: line, Reason: "dynamic import with non-literal argument"})
		return end
	}
	s.info.Imports = append(s.info.Imports, RawImport{
		Specifier: spec,
		Kind:      types.EdgeDynamic,
		Line:      line,
	})
	return end
}

func (s *scanner) parseRequire(i int) int {
	line := s.at(i).line
	spec, end, ok := s.staticArgument(i + 2)
	if !ok {
		s.info.Gaps = append(s.info.Gaps, Gap{Line: line, Reason: "require with non-literal argument"})
		return end
	}
	s.info.Imports = append(s.info.Imports, RawImport{
		Specifier: spec,
		Kind:      types.EdgeStatic,
		Line:      line,
	})
	return end
}

// staticArgument evaluates the call argument starting at j: literal strings,
// substitution-free templates, '+'-concatenations of those, and path.join
// calls over such literals. Returns the index of the closing parenthesis.
func (s *scanner) staticArgument(j int) (spec string, end int, ok bool) {
	if s.isJoinCall(j) {
		return s.joinArgument(j)
	}
	var parts []string
	static := true
	inOptions := false
	depth := 1
	for ; j < len(s.tokens); j++ {
		tok := s.at(j)
		switch {
		case tok.kind == tPunct && (tok.text == "(" || tok.text == "{" || tok.text == "["):
			depth++
			if !inOptions {
				static = false
			}
		case tok.kind == tPunct && (tok.text == "}" || tok.text == "]"):
			depth--
		case tok.kind == tPunct && tok.text == ")":
			depth--
			if depth == 0 {
				if static && len(parts) > 0 {
					return strings.Join(parts, ""), j, true
				}
				return "", j, false
			}
		case inOptions:
			// trailing import attributes, not part of the specifier
		case tok.kind == tString:
			parts = append(parts, tok.text)
		case tok.kind == tTemplate:
			if tok.hasSubst {
				static = false
			} else {
				parts = append(parts, tok.text)
			}
		case tok.kind == tPunct && tok.text == "+":
			// concatenation, keep collecting
		case tok.kind == tPunct && tok.text == "," && depth == 1:
			inOptions = true
		default:
			static = false
		}
	}
	return "", j, false
}

func (s *scanner) isJoinCall(j int) bool {
	if s.text(j) == "join" && s.text(j+1) == "(" {
		return true
	}
	return s.text(j) == "path" && s.text(j+1) == "." && s.text(j+2) == "join" && s.text(j+3) == "("
}

// joinArgument folds path.join('./lib', 'util.ts') over string literals into
// a single slash-joined specifier. Any non-literal argument leaves a gap.
func (s *scanner) joinArgument(j int) (spec string, end int, ok bool) {
	for j < len(s.tokens) && s.text(j) != "(" {
		j++
	}
	j++ // past the join call's open paren
	var parts []string
	static := true
	depth := 2 // the join call plus the enclosing import or require call
	for ; j < len(s.tokens); j++ {
		tok := s.at(j)
		switch {
		case tok.kind == tPunct && (tok.text == "(" || tok.text == "{" || tok.text == "["):
			if depth >= 2 {
				// nesting inside the join call itself
				static = false
			}
			depth++
		case tok.kind == tPunct && (tok.text == "}" || tok.text == "]"):
			depth--
		case tok.kind == tPunct && tok.text == ")":
			depth--
			if depth == 0 {
				if static && len(parts) > 0 {
					return strings.Join(parts, "/"), j, true
				}
				return "", j, false
			}
		case depth == 1:
			// trailing import attributes, not part of the specifier
		case tok.kind == tString:
			parts = append(parts, strings.TrimSuffix(tok.text, "/"))
		case tok.kind == tTemplate && !tok.hasSubst:
			parts = append(parts, strings.TrimSuffix(tok.text, "/"))
		case tok.kind == tPunct && tok.text == ",":
			// argument separator
		default:
			static = false
		}
	}
	return "", j, false
}

// parseImport handles static import statements in all their binding forms.
func (s *scanner) parseImport(i int) int {
	imp := RawImport{Kind: types.EdgeStatic, Line: s.at(i).line}
	j := i + 1

	if s.text(j) == "type" && s.text(j+1) != "from" && s.at(j+1).kind != tString && s.text(j+1) != "," {
		imp.Kind = types.EdgeTypeOnly
		j++
	}

	// Bare side-effect import.
	if s.at(j).kind == tString {
		imp.Specifier = s.text(j)
		s.info.Imports = append(s.info.Imports, imp)
		return j
	}

	for j < len(s.tokens) {
		tok := s.at(j)
		switch {
		case tok.kind == tIdent && tok.text == "from":
			j++
			if s.at(j).kind == tString {
				imp.Specifier = s.text(j)
				s.info.Imports = append(s.info.Imports, imp)
			}
			return j
		case tok.kind == tIdent:
			// Default binding references the target's default export.
			imp.Names = appendUnique(imp.Names, "default")
			j++
		case tok.text == "*":
			if s.text(j+1) == "as" && s.at(j+2).kind == tIdent {
				imp.Namespace = true
				imp.Alias = s.text(j + 2)
				j += 3
			} else {
				j++
			}
		case tok.text == "{":
			originals, _, end := s.parseNameList(j)
			for _, name := range originals {
				imp.Names = appendUnique(imp.Names, name)
			}
			j = end
		case tok.text == ",":
			j++
		default:
			return j
		}
	}
	return j
}

// parseNameList reads a { a, b as c, type d } binding list starting at the
// opening brace. It returns original names, exported aliases, and the index
// past the closing brace.
func (s *scanner) parseNameList(j int) (originals, aliases []string, end int) {
	j++ // past "{"
	for j < len(s.tokens) {
		tok := s.at(j)
		switch {
		case tok.text == "}":
			return originals, aliases, j + 1
		case tok.text == ",":
			j++
		case tok.kind == tIdent && tok.text == "type" && s.at(j+1).kind == tIdent && s.text(j+1) != "as":
			j++ // inline type modifier
		case tok.kind == tIdent || tok.kind == tString:
			name := tok.text
			alias := name
			j++
			if s.text(j) == "as" && (s.at(j+1).kind == tIdent || s.at(j+1).kind == tString) {
				alias = s.text(j + 1)
				j += 2
			}
			originals = append(originals, name)
			aliases = append(aliases, alias)
		default:
			j++
		}
	}
	return originals, aliases, j
}

// Modifier keywords skipped while parsing export declarations.
var declModifiers = map[string]bool{
	"declare": true, "abstract": true, "async": true,
}

func (s *scanner) parseExport(i int) int {
	suppressed := strings.Contains(s.at(i).doc, SuppressionTag)
	line := s.at(i).line
	col := s.at(i).col
	j := i + 1

	typeOnly := false
	if s.text(j) == "type" && (s.text(j+1) == "{" || s.text(j+1) == "*") {
		typeOnly = true
		j++
	}

	for declModifiers[s.text(j)] {
		j++
	}

	switch tok := s.at(j); {
	case tok.text == "default":
		s.addExport(RawExport{Name: "default", Kind: types.SymbolValue, Line: line, Col: col, Suppressed: suppressed})
		return j

	case tok.text == "{":
		originals, aliases, end := s.parseNameList(j)
		kind := types.SymbolValue
		if typeOnly {
			kind = types.SymbolType
		}
		if s.text(end) == "from" && s.at(end+1).kind == tString {
			spec := s.text(end + 1)
			edgeKind := types.EdgeReExport
			s.info.Imports = append(s.info.Imports, RawImport{
				Specifier: spec, Kind: edgeKind, Names: originals, Line: line,
			})
			for k, alias := range aliases {
				s.addExport(RawExport{
					Name: alias, Kind: kind, Line: line, Col: col,
					From: spec, Source: originals[k], Suppressed: suppressed,
				})
			}
			return end + 1
		}
		for k, alias := range aliases {
			s.addExport(RawExport{Name: alias, Kind: kind, Line: line, Col: col, Source: originals[k], Suppressed: suppressed})
		}
		return end - 1

	case tok.text == "*":
		alias := ""
		if s.text(j+1) == "as" && s.at(j+2).kind == tIdent {
			alias = s.text(j + 2)
			j += 2
		}
		if s.text(j+1) == "from" && s.at(j+2).kind == tString {
			spec := s.text(j + 2)
			s.info.Imports = append(s.info.Imports, RawImport{
				Specifier: spec, Kind: types.EdgeReExport, Names: []string{"*"}, Line: line,
			})
			name := alias
			if name == "" {
				name = "*"
			}
			s.addExport(RawExport{
				Name: name, Kind: types.SymbolNamespace, Line: line, Col: col,
				From: spec, Source: "*", Suppressed: suppressed,
			})
			return j + 2
		}
		return j

	case tok.text == "const" || tok.text == "let" || tok.text == "var":
		if s.text(j+1) == "enum" {
			return s.parseEnum(j+1, line, col, suppressed)
		}
		for _, name := range s.bindingNames(j + 1) {
			s.addExport(RawExport{Name: name, Kind: types.SymbolValue, Line: line, Col: col, Suppressed: suppressed})
		}
		return j

	case tok.text == "function":
		k := j + 1
		if s.text(k) == "*" {
			k++
		}
		if s.at(k).kind == tIdent {
			s.addExport(RawExport{Name: s.text(k), Kind: types.SymbolValue, Line: line, Col: col, Suppressed: suppressed})
		}
		return k

	case tok.text == "class":
		return s.parseClass(j, line, col, suppressed)

	case tok.text == "enum":
		return s.parseEnum(j, line, col, suppressed)

	case tok.text == "interface":
		if s.at(j+1).kind == tIdent {
			s.addExport(RawExport{Name: s.text(j + 1), Kind: types.SymbolType, Line: line, Col: col, Suppressed: suppressed})
		}
		return j + 1

	case tok.text == "type":
		if s.at(j+1).kind == tIdent {
			s.addExport(RawExport{Name: s.text(j + 1), Kind: types.SymbolType, Line: line, Col: col, Suppressed: suppressed})
		}
		return j + 1

	case tok.text == "namespace" || tok.text == "module":
		if s.at(j+1).kind == tIdent {
			s.addExport(RawExport{Name: s.text(j + 1), Kind: types.SymbolNamespace, Line: line, Col: col, Suppressed: suppressed})
		}
		return j + 1
	}
	return j
}

// bindingNames extracts declared names from a (possibly destructuring)
// binding starting at j.
func (s *scanner) bindingNames(j int) []string {
	tok := s.at(j)
	if tok.kind == tIdent {
		return []string{tok.text}
	}
	if tok.text != "{" && tok.text != "[" {
		return nil
	}
	var names []string
	depth := 1
	for j++; j < len(s.tokens) && depth > 0; j++ {
		t := s.at(j)
		switch {
		case t.text == "{" || t.text == "[":
			depth++
		case t.text == "}" || t.text == "]":
			depth--
		case t.kind == tIdent && depth == 1:
			if s.text(j+1) == ":" && s.at(j+2).kind == tIdent {
				// {a: renamed} binds the rename target
				names = append(names, s.text(j+2))
				j += 2
			} else if s.text(j-1) != ":" {
				names = append(names, t.text)
			}
		}
	}
	return names
}

// Class member modifiers that precede a member name.
var memberModifiers = map[string]bool{
	"static": true, "readonly": true, "public": true, "override": true,
	"async": true, "get": true, "set": true, "accessor": true,
}

// parseClass records the class export and its public member symbols.
func (s *scanner) parseClass(j int, line, col int, suppressed bool) int {
	if s.at(j+1).kind != tIdent {
		return j
	}
	className := s.text(j + 1)
	s.addExport(RawExport{Name: className, Kind: types.SymbolValue, Line: line, Col: col, Suppressed: suppressed})

	// Skip heritage clauses up to the class body.
	k := j + 2
	for k < len(s.tokens) && s.text(k) != "{" {
		k++
	}
	depth := 0
	for ; k < len(s.tokens); k++ {
		tok := s.at(k)
		switch {
		case tok.text == "{":
			depth++
		case tok.text == "}":
			depth--
			if depth == 0 {
				return k
			}
		case tok.kind == tIdent && depth == 1:
			if memberModifiers[tok.text] && s.at(k+1).kind == tIdent {
				continue
			}
			if tok.text == "constructor" || tok.text == "private" || tok.text == "protected" {
				k = s.skipMember(k)
				continue
			}
			if prev := s.text(k - 1); prev == "#" || prev == "." || prev == "@" {
				continue
			}
			if prev := s.text(k - 1); prev == "private" || prev == "protected" {
				continue
			}
			next := s.text(k + 1)
			if next == "(" || next == "=" || next == ":" || next == ";" || next == "<" {
				memberDoc := s.at(k).doc
				if memberDoc == "" && memberModifiers[s.text(k-1)] {
					memberDoc = s.at(k - 1).doc
				}
				s.addExport(RawExport{
					Name: tok.text, Kind: types.SymbolClassMember,
					Line: tok.line, Col: tok.col, Parent: className,
					Suppressed: suppressed || strings.Contains(memberDoc, SuppressionTag),
				})
				k = s.skipMember(k)
			}
		}
	}
	return k
}

// skipMember advances past a member body or initializer so local identifiers
// are not mistaken for further members.
func (s *scanner) skipMember(k int) int {
	depth := 0
	for ; k < len(s.tokens); k++ {
		switch s.text(k) {
		case "{":
			depth++
		case "}":
			if depth == 0 {
				return k - 1 // class body close, let caller see it
			}
			depth--
			if depth == 0 {
				return k
			}
		case ";":
			if depth == 0 {
				return k
			}
		}
	}
	return k
}

// parseEnum records the enum export and its member symbols.
func (s *scanner) parseEnum(j int, line, col int, suppressed bool) int {
	if s.at(j+1).kind != tIdent {
		return j
	}
	enumName := s.text(j + 1)
	s.addExport(RawExport{Name: enumName, Kind: types.SymbolValue, Line: line, Col: col, Suppressed: suppressed})

	k := j + 2
	if s.text(k) != "{" {
		return k
	}
	depth := 0
	expectName := true
	for ; k < len(s.tokens); k++ {
		tok := s.at(k)
		switch {
		case tok.text == "{":
			depth++
			expectName = depth == 1
		case tok.text == "}":
			depth--
			if depth == 0 {
				return k
			}
		case tok.text == ",":
			if depth == 1 {
				expectName = true
			}
		case depth == 1 && expectName && (tok.kind == tIdent || tok.kind == tString):
			s.addExport(RawExport{
				Name: tok.text, Kind: types.SymbolEnumMember,
				Line: tok.line, Col: tok.col, Parent: enumName,
				Suppressed: suppressed || strings.Contains(tok.doc, SuppressionTag),
			})
			expectName = false
		}
	}
	return k
}

func (s *scanner) addExport(e RawExport) {
	if e.Source == "" {
		e.Source = e.Name
	}
	s.info.Exports = append(s.info.Exports, e)
}

// analyzeNamespaceUsage records how each namespace binding is consumed:
// named member accesses extend the edge's name list, while iteration,
// spread, dynamic indexing, or escaping uses mark the edge enumerated.
func (s *scanner) analyzeNamespaceUsage() {
	byAlias := make(map[string]*RawImport)
	for idx := range s.info.Imports {
		imp := &s.info.Imports[idx]
		if imp.Namespace && imp.Alias != "" {
			byAlias[imp.Alias] = imp
		}
	}
	if len(byAlias) == 0 {
		return
	}

	for i, tok := range s.tokens {
		if tok.kind != tIdent {
			continue
		}
		imp, ok := byAlias[tok.text]
		if !ok {
			continue
		}
		prev := s.text(i - 1)
		next := s.text(i + 1)
		switch {
		case prev == "as" || prev == "." || prev == "?.":
			// the import binding itself, or a member of something else
		case next == "." || next == "?.":
			if member := s.at(i + 2); member.kind == tIdent {
				imp.Names = appendUnique(imp.Names, member.text)
			}
		case next == "[", prev == "...", prev == "in", prev == "of":
			imp.Enumerated = true
		default:
			// The namespace object escapes (passed, returned, assigned):
			// assume every export may be reached through it.
			imp.Enumerated = true
		}
	}
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
