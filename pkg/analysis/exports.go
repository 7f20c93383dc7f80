package analysis

import (
	"log/slog"
	"sort"

	"github.com/mamaar/sweeper/pkg/types"
)

// ExportOptions are the run-wide toggles for export reporting.
type ExportOptions struct {
	// ClassMembers enables reporting of unused members on exported classes.
	ClassMembers bool
	// EnumMembers enables reporting of unused members on exported enums.
	EnumMembers bool
	// ExternalTypes also reports type symbols re-exported from external
	// packages. Off by default: judging their use would need the library's
	// own declarations.
	ExternalTypes bool
}

// ExportSettings are the per-workspace reporting settings.
type ExportSettings struct {
	// IncludeEntryExports also reports unused exports of entry files.
	IncludeEntryExports bool
	// IgnoreExportsUsedInFile drops symbols referenced elsewhere in their
	// own file.
	IgnoreExportsUsedInFile bool
}

// ExportInput gathers what export tracking consumes.
type ExportInput struct {
	Workspaces []*types.Workspace
	Reachable  map[string]*types.ProjectFile
	Options    ExportOptions
	Settings   map[*types.Workspace]ExportSettings
}

// ExportTracker reports export symbols whose reference count stayed at zero
// after traversal. Unreachable files are skipped entirely; they are already
// reported as unused files. Entry-file exports are the module's public
// surface and are skipped unless configured otherwise.
type ExportTracker struct {
	logger *slog.Logger
}

func NewExportTracker(logger *slog.Logger) *ExportTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportTracker{logger: logger}
}

// Track appends export issues to the report.
func (t *ExportTracker) Track(in ExportInput, report *types.Report) {
	for _, ws := range in.Workspaces {
		settings := in.Settings[ws]
		paths := make([]string, 0, len(ws.Files))
		for path := range ws.Files {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			file := ws.Files[path]
			if _, ok := in.Reachable[file.Path]; !ok {
				continue
			}
			if _, entry := ws.EntryFiles[file.Path]; entry && !settings.IncludeEntryExports {
				continue
			}
			t.trackFile(ws, file, in.Options, settings, report)
		}
	}
}

func (t *ExportTracker) trackFile(ws *types.Workspace, file *types.ProjectFile, opts ExportOptions, settings ExportSettings, report *types.Report) {
	for _, exp := range file.Exports {
		if exp.Refs > 0 || exp.Suppressed || exp.Name == "*" {
			continue
		}

		issueType := types.IssueUnusedExports
		symbol := exp.Name
		switch exp.Kind {
		case types.SymbolType:
			if !opts.ExternalTypes && externalReExport(file, exp) {
				continue
			}
			issueType = types.IssueUnusedTypes
		case types.SymbolClassMember:
			if !opts.ClassMembers || !parentUsed(file, exp) {
				continue
			}
			issueType = types.IssueClassMembers
			symbol = exp.Parent + "." + exp.Name
		case types.SymbolEnumMember:
			if !opts.EnumMembers || !parentUsed(file, exp) {
				continue
			}
			issueType = types.IssueEnumMembers
			symbol = exp.Parent + "." + exp.Name
		}

		// The declaration itself accounts for one identifier occurrence.
		if settings.IgnoreExportsUsedInFile && file.LocalRefs[exp.Name] > 1 {
			continue
		}

		report.Add(&types.Issue{
			Type:      issueType,
			Workspace: ws.Name,
			File:      file.Path,
			Line:      exp.Line,
			Col:       exp.Col,
			Symbol:    symbol,
		})
	}
}

// externalReExport reports whether the symbol is re-exported from an
// external package rather than declared locally.
func externalReExport(file *types.ProjectFile, exp *types.ExportSymbol) bool {
	if exp.ReExportFrom == "" {
		return false
	}
	for _, edge := range file.Edges {
		if edge.Specifier == exp.ReExportFrom && edge.External() {
			return true
		}
	}
	return false
}

// parentUsed reports whether a member symbol's owning class or enum is itself
// referenced. Members of an unused container are noise; the container is the
// finding.
func parentUsed(file *types.ProjectFile, exp *types.ExportSymbol) bool {
	parent := file.ExportNamed(exp.Parent)
	return parent != nil && parent.Refs > 0
}
