package analysis

import "github.com/mamaar/sweeper/pkg/types"

// Classify applies the category and workspace filters and orders the result
// deterministically.
func Classify(report *types.Report, include, exclude []types.IssueType, workspace string) *types.Report {
	out := report.Filter(include, exclude, workspace)
	out.Sort()
	return out
}
