// Package scripts extracts binary references and entry-file candidates from
// script-like text: manifest scripts, shell files, and CI workflow run blocks.
package scripts

import (
	"strings"
)

// Tokenize splits a command line on whitespace, honoring single quotes,
// double quotes, and backslash escapes. Operators (&&, ||, ;, |, &) are
// returned as their own tokens so callers can detect command boundaries.
func Tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	var quote byte
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else if c == '\\' && quote == '"' && i+1 < len(line) {
				i++
				cur.WriteByte(line[i])
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ' ' || c == '\t':
			flush()
		case c == ';' || c == '|' || c == '&':
			flush()
			op := string(c)
			if i+1 < len(line) && (line[i+1] == '|' || line[i+1] == '&') && line[i+1] == c {
				op += string(line[i+1])
				i++
			}
			tokens = append(tokens, op)
		case c == '(' || c == ')':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

func isOperator(tok string) bool {
	switch tok {
	case "&&", "||", ";", "|", "&":
		return true
	}
	return false
}

// Runner prefixes whose real command is the following token.
var runnerPrefixes = map[string]bool{
	"npx":   true,
	"pnpx":  true,
	"yarn":  true,
	"pnpm":  true,
	"bunx":  true,
	"exec":  true,
	"xargs": true,
}

// Shell wrappers whose arguments restart command position.
var shellWrappers = map[string]bool{
	"sh":        true,
	"bash":      true,
	"zsh":       true,
	"env":       true,
	"sudo":      true,
	"time":      true,
	"nice":      true,
	"nohup":     true,
	"dotenv":    true,
	"cross-env": true,
}

// ExtractBinaries returns the leading executable token of every command in a
// script string. Environment assignments (VAR=value) are skipped, runner
// prefixes like npx unwrap to the following token, and "npm run ..." style
// invocations are dropped because they reference scripts, not binaries.
func ExtractBinaries(script string) []string {
	var bins []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(script, "\n") {
		tokens := Tokenize(line)
		commandPos := true
		for i := 0; i < len(tokens); i++ {
			tok := tokens[i]
			if isOperator(tok) {
				commandPos = true
				continue
			}
			if !commandPos {
				continue
			}
			if strings.Contains(tok, "=") && !strings.HasPrefix(tok, "=") {
				// Leading environment assignment; command follows.
				continue
			}
			if strings.HasPrefix(tok, "-") {
				continue
			}
			switch {
			case tok == "npm" || tok == "node" || tok == "corepack":
				// npm run / node file.js reference scripts and files.
				commandPos = false
			case runnerPrefixes[tok]:
				// Real command is the next non-flag token, unless it is a
				// workspace or script invocation (yarn run, pnpm -r ...).
				continue
			case shellWrappers[tok]:
				continue
			default:
				base := tok
				if idx := strings.LastIndexAny(base, "/"); idx >= 0 {
					// Path-qualified commands reference files, not installed
					// binaries.
					commandPos = false
					continue
				}
				if base == "run" {
					// Script invocation (yarn run x); the rest names a
					// script, not a binary.
					commandPos = false
					continue
				}
				if base == "exec" || base == "dlx" {
					continue
				}
				if !seen[base] {
					seen[base] = true
					bins = append(bins, base)
				}
				commandPos = false
			}
		}
	}
	return bins
}

// Extensions that mark a token as a source-file argument.
var sourceExts = []string{
	".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx", ".sh",
}

// ExtractFileArgs returns tokens that look like file paths. These become
// entry candidates when they land inside a workspace's project set.
func ExtractFileArgs(script string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(script, "\n") {
		for _, tok := range Tokenize(line) {
			if isOperator(tok) || strings.HasPrefix(tok, "-") {
				continue
			}
			tok = strings.TrimPrefix(tok, "./")
			for _, ext := range sourceExts {
				if strings.HasSuffix(tok, ext) {
					if !seen[tok] {
						seen[tok] = true
						files = append(files, tok)
					}
					break
				}
			}
		}
	}
	return files
}
