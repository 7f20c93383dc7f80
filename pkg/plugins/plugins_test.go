package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, rel string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func activeNames(plugins []Plugin) []string {
	var names []string
	for _, p := range plugins {
		names = append(names, p.Name())
	}
	return names
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	ctx := &Context{Dir: dir}
	assert.Empty(t, NewRegistry().Detect(ctx))

	touch(t, dir, "vitest.config.ts")
	touch(t, dir, ".storybook/main.ts")
	assert.Equal(t, []string{"vitest", "storybook"}, activeNames(NewRegistry().Detect(ctx)))

	touch(t, dir, "next.config.mjs")
	assert.Equal(t, []string{"vitest", "next", "storybook"}, activeNames(NewRegistry().Detect(ctx)))
}

func TestVitestFindDependencies(t *testing.T) {
	p := &vitestPlugin{}

	deps, err := p.FindDependencies("vitest.config.ts", []byte(`
export default defineConfig({
  test: { environment: 'jsdom' },
})
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"jsdom"}, deps)

	deps, err = p.FindDependencies("vitest.config.mts", []byte(`environment: "edge-runtime"`))
	require.NoError(t, err)
	assert.Equal(t, []string{"@edge-runtime/vm"}, deps)

	// Other configuration files are not the plugin's business.
	deps, err = p.FindDependencies("jest.config.ts", []byte(`environment: 'jsdom'`))
	require.NoError(t, err)
	assert.Nil(t, deps)
}

func TestRegisterAppends(t *testing.T) {
	r := NewRegistry()
	custom := &panickyPlugin{marker: "custom.config.js"}
	r.Register(custom)

	dir := t.TempDir()
	touch(t, dir, "custom.config.js")
	active := r.Detect(&Context{Dir: dir})
	require.Len(t, active, 1)
	assert.Equal(t, "panicky", active[0].Name())
}

type panickyPlugin struct {
	marker string
}

func (*panickyPlugin) Name() string               { return "panicky" }
func (p *panickyPlugin) Detect(ctx *Context) bool { return ctx.HasFile(p.marker) }
func (*panickyPlugin) Extensions() []string       { return nil }

func (*panickyPlugin) EntryPatterns(*Context) ([]string, error) {
	panic("bad pattern table")
}
func (*panickyPlugin) FindDependencies(string, []byte) ([]string, error) {
	panic("bad finder")
}

func TestSafeCallsContainPanics(t *testing.T) {
	p := &panickyPlugin{}

	_, err := SafeEntryPatterns(p, &Context{Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicky")

	_, err = SafeFindDependencies(p, "x.config.js", nil)
	require.Error(t, err)
}
