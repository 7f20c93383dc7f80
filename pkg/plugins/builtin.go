package plugins

import (
	"path/filepath"
	"strings"
)

// vitestPlugin recognizes vitest workspaces: the config file and every test
// file become entries, and the configured environment maps to a package.
type vitestPlugin struct{}

func (*vitestPlugin) Name() string { return "vitest" }

func (*vitestPlugin) Detect(ctx *Context) bool {
	return ctx.HasFile(
		"vitest.config.ts", "vitest.config.mts", "vitest.config.js",
		"vitest.config.mjs", "vitest.workspace.ts",
	)
}

func (*vitestPlugin) EntryPatterns(*Context) ([]string, error) {
	return []string{
		"vitest.config.{js,mjs,ts,mts}",
		"vitest.workspace.{js,mjs,ts,mts}",
		"**/*.{test,spec}.{js,mjs,jsx,ts,mts,tsx}",
	}, nil
}

func (*vitestPlugin) Extensions() []string { return nil }

// Test environments that resolve to installable packages.
var vitestEnvironments = map[string]string{
	"jsdom":        "jsdom",
	"happy-dom":    "happy-dom",
	"edge-runtime": "@edge-runtime/vm",
}

func (*vitestPlugin) FindDependencies(path string, content []byte) ([]string, error) {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "vitest.config.") {
		return nil, nil
	}
	var deps []string
	text := string(content)
	for key, pkg := range vitestEnvironments {
		if strings.Contains(text, "'"+key+"'") || strings.Contains(text, `"`+key+`"`) {
			deps = append(deps, pkg)
		}
	}
	return deps, nil
}

// nextPlugin recognizes Next.js workspaces, whose routing files are implicit
// entry points.
type nextPlugin struct{}

func (*nextPlugin) Name() string { return "next" }

func (*nextPlugin) Detect(ctx *Context) bool {
	return ctx.HasFile("next.config.js", "next.config.mjs", "next.config.ts")
}

func (*nextPlugin) EntryPatterns(*Context) ([]string, error) {
	return []string{
		"next.config.{js,mjs,ts}",
		"middleware.{js,ts}",
		"app/**/{page,layout,loading,error,not-found,route,template,default}.{js,jsx,ts,tsx}",
		"pages/**/*.{js,jsx,ts,tsx}",
		"src/app/**/{page,layout,loading,error,not-found,route,template,default}.{js,jsx,ts,tsx}",
		"src/pages/**/*.{js,jsx,ts,tsx}",
	}, nil
}

func (*nextPlugin) Extensions() []string { return nil }

func (*nextPlugin) FindDependencies(string, []byte) ([]string, error) { return nil, nil }

// storybookPlugin recognizes Storybook setups: stories and the .storybook
// configuration directory are entries.
type storybookPlugin struct{}

func (*storybookPlugin) Name() string { return "storybook" }

func (*storybookPlugin) Detect(ctx *Context) bool {
	return ctx.HasFile(".storybook/main.js", ".storybook/main.ts")
}

func (*storybookPlugin) EntryPatterns(*Context) ([]string, error) {
	return []string{
		".storybook/**/*.{js,jsx,ts,tsx}",
		"**/*.stories.{js,jsx,ts,tsx,mdx}",
	}, nil
}

func (*storybookPlugin) Extensions() []string { return []string{".mdx"} }

func (*storybookPlugin) FindDependencies(string, []byte) ([]string, error) { return nil, nil }
