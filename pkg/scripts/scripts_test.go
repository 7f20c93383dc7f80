package scripts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{`eslint --fix src`, []string{"eslint", "--fix", "src"}},
		{`echo "hello world"`, []string{"echo", "hello world"}},
		{`echo 'a "b" c'`, []string{"echo", `a "b" c`}},
		{`a && b || c ; d | e`, []string{"a", "&&", "b", "||", "c", ";", "d", "|", "e"}},
		{`tsc&&vitest`, []string{"tsc", "&&", "vitest"}},
		{`echo a\ b`, []string{"echo", "a b"}},
		{`(cd pkg && build)`, []string{"cd", "pkg", "&&", "build"}},
		{`echo "esc \" quote"`, []string{"echo", `esc " quote`}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Tokenize(tc.line), "line %q", tc.line)
	}
}

func TestExtractBinaries(t *testing.T) {
	cases := []struct {
		name   string
		script string
		want   []string
	}{
		{"plain", "eslint --fix && vitest run", []string{"eslint", "vitest"}},
		{"env assignment", "NODE_ENV=production webpack", []string{"webpack"}},
		{"npx unwraps", "npx playwright test", []string{"playwright"}},
		{"yarn unwraps", "yarn vitest", []string{"vitest"}},
		{"yarn run is a script", "yarn run build", nil},
		{"pnpm exec unwraps", "pnpm exec eslint .", []string{"eslint"}},
		{"pnpm dlx unwraps", "pnpm dlx cowsay hi", []string{"cowsay"}},
		{"npm run dropped", "npm run build", nil},
		{"node file dropped", "node scripts/seed.js", nil},
		{"path-qualified dropped", "./scripts/deploy.sh --prod", nil},
		{"shell wrapper", "cross-env CI=1 jest", []string{"jest"}},
		{"multi line", "tsc -p .\nprettier --check .", []string{"tsc", "prettier"}},
		{"flags before command", "env -i eslint", []string{"eslint"}},
		{"duplicates collapse", "eslint a; eslint b", []string{"eslint"}},
		{"args are not commands", "esbuild src/index.ts --bundle", []string{"esbuild"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractBinaries(tc.script))
		})
	}
}

func TestExtractFileArgs(t *testing.T) {
	script := "node ./scripts/seed.ts --force && vitest run src/app.test.ts\nbash tools/release.sh"
	got := ExtractFileArgs(script)
	assert.Equal(t, []string{"scripts/seed.ts", "src/app.test.ts", "tools/release.sh"}, got)
}

func TestExtractFileArgsSkipsFlagsAndDuplicates(t *testing.T) {
	got := ExtractFileArgs("tsx watch.ts --config=ignore.ts && tsx watch.ts")
	assert.Equal(t, []string{"watch.ts"}, got)
}

func TestWorkflowRunBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ci.yml")
	content := `name: ci
on: push
jobs:
  test:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: npm ci
      - run: |
          npx vitest run
          eslint .
  lint:
    steps:
      - name: fmt
        run: prettier --check .
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	blocks, err := WorkflowRunBlocks(path)
	require.NoError(t, err)
	assert.Len(t, blocks, 3)

	var bins []string
	for _, block := range blocks {
		bins = append(bins, ExtractBinaries(block)...)
	}
	assert.ElementsMatch(t, []string{"vitest", "eslint", "prettier"}, bins)
}

func TestWorkflowRunBlocksBadFile(t *testing.T) {
	_, err := WorkflowRunBlocks(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("jobs: [unclosed"), 0o644))
	_, err = WorkflowRunBlocks(path)
	require.Error(t, err)
}

func TestIsOSBinary(t *testing.T) {
	assert.True(t, IsOSBinary("git"))
	assert.True(t, IsOSBinary("rm"))
	assert.False(t, IsOSBinary("eslint"))
}
