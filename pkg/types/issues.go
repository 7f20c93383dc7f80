package types

import (
	"fmt"
	"sort"
	"strings"
)

// IssueType identifies one category of the final report.
type IssueType int

const (
	IssueUnusedFiles IssueType = iota
	IssueUnusedDependencies
	IssueUnlistedDependencies
	IssueUnlistedBinaries
	IssueUnresolvedImports
	IssueUnusedExports
	IssueUnusedTypes
	IssueEnumMembers
	IssueClassMembers
)

// AllIssueTypes lists every category in report order.
var AllIssueTypes = []IssueType{
	IssueUnusedFiles,
	IssueUnusedDependencies,
	IssueUnlistedDependencies,
	IssueUnlistedBinaries,
	IssueUnresolvedImports,
	IssueUnusedExports,
	IssueUnusedTypes,
	IssueEnumMembers,
	IssueClassMembers,
}

func (t IssueType) String() string {
	switch t {
	case IssueUnusedFiles:
		return "files"
	case IssueUnusedDependencies:
		return "dependencies"
	case IssueUnlistedDependencies:
		return "unlisted"
	case IssueUnlistedBinaries:
		return "binaries"
	case IssueUnresolvedImports:
		return "unresolved"
	case IssueUnusedExports:
		return "exports"
	case IssueUnusedTypes:
		return "types"
	case IssueEnumMembers:
		return "enumMembers"
	case IssueClassMembers:
		return "classMembers"
	default:
		return "unknown"
	}
}

// Title returns the human-readable heading for the category.
func (t IssueType) Title() string {
	switch t {
	case IssueUnusedFiles:
		return "Unused files"
	case IssueUnusedDependencies:
		return "Unused dependencies"
	case IssueUnlistedDependencies:
		return "Unlisted dependencies"
	case IssueUnlistedBinaries:
		return "Unlisted binaries"
	case IssueUnresolvedImports:
		return "Unresolved imports"
	case IssueUnusedExports:
		return "Unused exports"
	case IssueUnusedTypes:
		return "Unused exported types"
	case IssueEnumMembers:
		return "Unused enum members"
	case IssueClassMembers:
		return "Unused class members"
	default:
		return "Unknown"
	}
}

// ParseIssueType maps a CLI or configuration name to an issue type.
func ParseIssueType(name string) (IssueType, error) {
	for _, t := range AllIssueTypes {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown issue type %q", name)
}

// Issue is one reported finding.
type Issue struct {
	Type      IssueType `json:"type"`
	Workspace string    `json:"workspace,omitempty"`
	File      string    `json:"file,omitempty"`
	Line      int       `json:"line,omitempty"`
	Col       int       `json:"col,omitempty"`
	// Symbol holds the export, dependency, or binary name; empty for file issues.
	Symbol string `json:"symbol,omitempty"`
}

func (i *Issue) String() string {
	loc := i.File
	if i.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", i.File, i.Line, i.Col)
	}
	if i.Symbol == "" {
		return loc
	}
	if loc == "" {
		return i.Symbol
	}
	return fmt.Sprintf("%s: %s", loc, i.Symbol)
}

// Warning is a non-fatal condition accumulated during a run.
type Warning struct {
	Kind    string `json:"kind"` // parse, resolution, plugin, installation
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// Report is the structured output of a run: issues partitioned by category
// plus accumulated warnings. Rendering is left to external formatters.
type Report struct {
	Issues   map[IssueType][]*Issue `json:"issues"`
	Warnings []Warning              `json:"warnings,omitempty"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{Issues: make(map[IssueType][]*Issue)}
}

// Add appends an issue to its category.
func (r *Report) Add(issue *Issue) {
	r.Issues[issue.Type] = append(r.Issues[issue.Type], issue)
}

// Warn appends a warning.
func (r *Report) Warn(kind, file, message string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, File: file, Message: message})
}

// Total returns the number of issues across all categories.
func (r *Report) Total() int {
	n := 0
	for _, issues := range r.Issues {
		n += len(issues)
	}
	return n
}

// Sort orders every category by file, line, and symbol so two runs over the
// same tree render identically.
func (r *Report) Sort() {
	for _, issues := range r.Issues {
		sort.Slice(issues, func(a, b int) bool {
			ia, ib := issues[a], issues[b]
			if ia.File != ib.File {
				return ia.File < ib.File
			}
			if ia.Line != ib.Line {
				return ia.Line < ib.Line
			}
			return ia.Symbol < ib.Symbol
		})
	}
	sort.Slice(r.Warnings, func(a, b int) bool {
		wa, wb := r.Warnings[a], r.Warnings[b]
		if wa.File != wb.File {
			return wa.File < wb.File
		}
		return wa.Message < wb.Message
	})
}

// Filter returns a copy of the report restricted by include and exclude
// issue-type lists and an optional workspace name. Empty include means all.
func (r *Report) Filter(include, exclude []IssueType, workspace string) *Report {
	keep := make(map[IssueType]bool)
	if len(include) == 0 {
		for _, t := range AllIssueTypes {
			keep[t] = true
		}
	} else {
		for _, t := range include {
			keep[t] = true
		}
	}
	for _, t := range exclude {
		keep[t] = false
	}

	out := NewReport()
	out.Warnings = r.Warnings
	for t, issues := range r.Issues {
		if !keep[t] {
			continue
		}
		for _, issue := range issues {
			if workspace != "" && issue.Workspace != workspace {
				continue
			}
			out.Add(issue)
		}
	}
	return out
}

// FormatIssueTypes renders a comma-separated list of type names, used by
// usage text and MCP tool descriptions.
func FormatIssueTypes(ts []IssueType) string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
