package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaar/sweeper/pkg/types"
)

func sampleReport() *types.Report {
	r := types.NewReport()
	r.Add(&types.Issue{Type: types.IssueUnusedFiles, Workspace: "app", File: "/repo/src/old.ts"})
	r.Add(&types.Issue{Type: types.IssueUnusedExports, Workspace: "app", File: "/repo/src/util.ts", Line: 4, Col: 14, Symbol: "helper"})
	r.Add(&types.Issue{Type: types.IssueUnusedDependencies, Workspace: "app", File: "/repo/package.json", Symbol: "lodash"})
	r.Warn("parse", "/repo/src/bad.ts", "unterminated string")
	r.Sort()
	return r
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteText(&buf, sampleReport(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	out := buf.String()
	assert.Contains(t, out, "Unused files (1)\n  src/old.ts\n")
	assert.Contains(t, out, "Unused dependencies (1)\n  package.json: lodash\n")
	assert.Contains(t, out, "Unused exports (1)\n  src/util.ts:4:14: helper\n")
	assert.Contains(t, out, "Warnings (1)\n  [parse] src/bad.ts: unterminated string\n")

	// Categories come out in fixed report order.
	files := strings.Index(out, "Unused files")
	deps := strings.Index(out, "Unused dependencies")
	exports := strings.Index(out, "Unused exports")
	assert.Less(t, files, deps)
	assert.Less(t, deps, exports)
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteText(&buf, types.NewReport(), "/repo")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "No issues found.\n", buf.String())
}

func TestWriteTextRelativizesOutsideRoot(t *testing.T) {
	r := types.NewReport()
	r.Add(&types.Issue{Type: types.IssueUnusedFiles, File: "/elsewhere/x.ts"})
	var buf bytes.Buffer
	_, err := WriteText(&buf, r, "/repo")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "  ../elsewhere/x.ts\n")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport(), "/repo"))

	var decoded struct {
		Issues map[string][]struct {
			Workspace string `json:"workspace"`
			File      string `json:"file"`
			Line      int    `json:"line"`
			Col       int    `json:"col"`
			Symbol    string `json:"symbol"`
		} `json:"issues"`
		Warnings []types.Warning `json:"warnings"`
		Total    int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, 3, decoded.Total)
	require.Len(t, decoded.Issues["exports"], 1)
	exp := decoded.Issues["exports"][0]
	assert.Equal(t, "src/util.ts", exp.File)
	assert.Equal(t, 4, exp.Line)
	assert.Equal(t, "helper", exp.Symbol)
	require.Len(t, decoded.Warnings, 1)
	assert.Equal(t, "parse", decoded.Warnings[0].Kind)
	assert.NotContains(t, decoded.Issues, "files_unknown")
}
