package cli

import (
	"flag"

	"github.com/mamaar/sweeper/pkg/types"
)

// Flags holds all command line flags
type Flags struct {
	Version             *bool
	Workspace           *string
	Config              *string
	Include             *string
	Exclude             *string
	IncludeEntryExports *bool
	StrictExports       *bool
	ClassMembers        *bool
	NoEnumMembers       *bool
	ExternalTypes       *bool
	Json                *bool
	Verbose             *bool
	Watch               *bool
	Workers             *int
}

// GlobalFlags holds the parsed command line flags
var GlobalFlags *Flags

// InitFlags initializes all command line flags
func InitFlags() *Flags {
	return &Flags{
		Version:             flag.Bool("version", false, "Show version information"),
		Workspace:           flag.String("workspace", ".", "Path to the repository root (defaults to current directory)"),
		Config:              flag.String("config", "", "Path to an explicit configuration file"),
		Include:             flag.String("include", "", "Comma-separated issue categories to report ("+types.FormatIssueTypes(types.AllIssueTypes)+")"),
		Exclude:             flag.String("exclude", "", "Comma-separated issue categories to suppress"),
		IncludeEntryExports: flag.Bool("include-entry-exports", false, "Also report unused exports of entry files"),
		StrictExports:       flag.Bool("strict-exports", false, "Count only named member accesses on enumerated namespace imports"),
		ClassMembers:        flag.Bool("class-members", false, "Report unused members of exported classes"),
		NoEnumMembers:       flag.Bool("no-enum-members", false, "Do not report unused members of exported enums"),
		ExternalTypes:       flag.Bool("external-types", false, "Also report type re-exports from external packages"),
		Json:                flag.Bool("json", false, "Output results in JSON format"),
		Verbose:             flag.Bool("verbose", false, "Enable verbose output"),
		Watch:               flag.Bool("watch", false, "Re-run the analysis when source files change"),
		Workers:             flag.Int("workers", 0, "Number of parse workers (0 uses the CPU count)"),
	}
}

// ParseFlags parses command line flags with custom usage
func ParseFlags(usage func()) {
	GlobalFlags = InitFlags()
	flag.Usage = usage
	flag.Parse()
}
