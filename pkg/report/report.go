// Package report renders an analysis report for terminals and tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/mamaar/sweeper/pkg/types"
)

// WriteText renders the report grouped by category. File paths are shown
// relative to root when possible. Returns the number of issues written.
func WriteText(w io.Writer, r *types.Report, root string) (int, error) {
	total := 0
	for _, t := range types.AllIssueTypes {
		issues := r.Issues[t]
		if len(issues) == 0 {
			continue
		}
		if total > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return total, err
			}
		}
		if _, err := fmt.Fprintf(w, "%s (%d)\n", t.Title(), len(issues)); err != nil {
			return total, err
		}
		for _, issue := range issues {
			if _, err := fmt.Fprintf(w, "  %s\n", formatIssue(issue, root)); err != nil {
				return total, err
			}
			total++
		}
	}
	if total == 0 {
		if _, err := fmt.Fprintln(w, "No issues found."); err != nil {
			return 0, err
		}
	}
	if len(r.Warnings) > 0 {
		if _, err := fmt.Fprintf(w, "\nWarnings (%d)\n", len(r.Warnings)); err != nil {
			return total, err
		}
		for _, warn := range r.Warnings {
			loc := relative(warn.File, root)
			if loc != "" {
				loc += ": "
			}
			if _, err := fmt.Fprintf(w, "  [%s] %s%s\n", warn.Kind, loc, warn.Message); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func formatIssue(issue *types.Issue, root string) string {
	loc := relative(issue.File, root)
	if issue.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, issue.Line, issue.Col)
	}
	switch {
	case issue.Symbol == "":
		return loc
	case loc == "":
		return issue.Symbol
	default:
		return fmt.Sprintf("%s: %s", loc, issue.Symbol)
	}
}

func relative(path, root string) string {
	if path == "" || root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil && !filepath.IsAbs(rel) {
		return filepath.ToSlash(rel)
	}
	return path
}

type jsonIssue struct {
	Workspace string `json:"workspace,omitempty"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Col       int    `json:"col,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
}

type jsonReport struct {
	Issues   map[string][]jsonIssue `json:"issues"`
	Warnings []types.Warning        `json:"warnings,omitempty"`
	Total    int                    `json:"total"`
}

// WriteJSON renders the report as a single JSON document keyed by category
// name. Map keys are emitted in sorted order, so output is reproducible.
func WriteJSON(w io.Writer, r *types.Report, root string) error {
	out := jsonReport{Issues: make(map[string][]jsonIssue), Warnings: r.Warnings}
	for _, t := range types.AllIssueTypes {
		issues := r.Issues[t]
		if len(issues) == 0 {
			continue
		}
		converted := make([]jsonIssue, 0, len(issues))
		for _, issue := range issues {
			converted = append(converted, jsonIssue{
				Workspace: issue.Workspace,
				File:      relative(issue.File, root),
				Line:      issue.Line,
				Col:       issue.Col,
				Symbol:    issue.Symbol,
			})
			out.Total++
		}
		out.Issues[t.String()] = converted
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
