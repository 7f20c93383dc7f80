// Package config holds the data-only configuration surface consumed by the
// analyzer. Loading and validation happen up front; the analysis core treats
// the result as read-only.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mamaar/sweeper/pkg/types"
)

// Candidate configuration file names, checked in order.
var fileNames = []string{"sweeper.json", "sweeper.yaml", "sweeper.yml", ".sweeper.json"}

// Config is the root configuration. Workspace-level settings at the top level
// apply to the root workspace; Workspaces maps directory globs to overrides.
type Config struct {
	WorkspaceConfig `yaml:",inline"`

	// Workspaces maps workspace directories (relative to the root, glob
	// syntax allowed) to per-workspace overrides.
	Workspaces map[string]*WorkspaceConfig `yaml:"workspaces" json:"workspaces"`

	// Include and Exclude restrict the reported issue categories.
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// WorkspaceConfig carries the pattern and ignore settings of one workspace.
// A child workspace inherits nothing implicitly; unset lists fall back to the
// built-in defaults, not to the parent's values.
type WorkspaceConfig struct {
	Entry   []string `yaml:"entry" json:"entry"`
	Project []string `yaml:"project" json:"project"`
	Ignore  []string `yaml:"ignore" json:"ignore"`

	// Paths is the alias table: prefix pattern -> substitution targets,
	// mirroring compiler path mappings ("@app/*": ["src/*"]).
	Paths map[string][]string `yaml:"paths" json:"paths"`

	IgnoreDependencies []string `yaml:"ignoreDependencies" json:"ignoreDependencies"`
	IgnoreBinaries     []string `yaml:"ignoreBinaries" json:"ignoreBinaries"`
	IgnoreUnresolved   []string `yaml:"ignoreUnresolved" json:"ignoreUnresolved"`

	// IgnoreExportsUsedInFile drops unused-export reporting for symbols
	// referenced elsewhere in their own file.
	IgnoreExportsUsedInFile bool `yaml:"ignoreExportsUsedInFile" json:"ignoreExportsUsedInFile"`
	// IncludeEntryExports also reports unused exports of entry files.
	IncludeEntryExports bool `yaml:"includeEntryExports" json:"includeEntryExports"`
}

// DefaultEntry and DefaultProject are applied when a workspace configures
// no patterns of its own.
var (
	DefaultEntry = []string{
		"index.{js,mjs,cjs,jsx,ts,mts,cts,tsx}",
		"src/index.{js,mjs,cjs,jsx,ts,mts,cts,tsx}",
	}
	DefaultProject = []string{"**/*.{js,mjs,cjs,jsx,ts,mts,cts,tsx}"}
)

// Default returns a configuration with built-in patterns only.
func Default() *Config {
	return &Config{
		WorkspaceConfig: WorkspaceConfig{
			Entry:   append([]string(nil), DefaultEntry...),
			Project: append([]string(nil), DefaultProject...),
		},
	}
}

// Load reads the configuration file in dir, or returns Default when none
// exists. YAML is a superset of JSON, so one decoder covers both file forms.
func Load(dir string) (*Config, error) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, types.NewConfigError(fmt.Sprintf("reading %s", path), err)
		}
		return parse(path, data)
	}
	return Default(), nil
}

// LoadFile reads an explicitly named configuration file. Unlike Load, a
// missing file is a fatal error here.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewConfigError(fmt.Sprintf("reading %s", path), err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &types.AnalysisError{
			Type:    types.ConfigError,
			Message: fmt.Sprintf("malformed configuration: %v", err),
			File:    path,
			Cause:   err,
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.WorkspaceConfig.applyDefaults()
	for _, wc := range c.Workspaces {
		if wc != nil {
			wc.applyDefaults()
		}
	}
}

func (wc *WorkspaceConfig) applyDefaults() {
	if len(wc.Entry) == 0 {
		wc.Entry = append([]string(nil), DefaultEntry...)
	}
	if len(wc.Project) == 0 {
		wc.Project = append([]string(nil), DefaultProject...)
	}
}

// ForWorkspace returns the effective configuration for a workspace directory
// relative to the root ("." for the root itself).
func (c *Config) ForWorkspace(rel string) *WorkspaceConfig {
	if rel == "." || rel == "" {
		return &c.WorkspaceConfig
	}
	if wc, ok := c.Workspaces[rel]; ok && wc != nil {
		return wc
	}
	// Glob keys allow one definition to cover several packages. Keys are
	// tried longest literal prefix first, so "packages/ui*" beats
	// "packages/*" and ties fall back to lexicographic order.
	keys := make([]string, 0, len(c.Workspaces))
	for key := range c.Workspaces {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		pa := literalPrefix(keys[a])
		pb := literalPrefix(keys[b])
		if len(pa) != len(pb) {
			return len(pa) > len(pb)
		}
		return keys[a] < keys[b]
	})
	for _, key := range keys {
		wc := c.Workspaces[key]
		if wc == nil {
			continue
		}
		if ok, _ := filepath.Match(key, rel); ok {
			return wc
		}
	}
	def := &WorkspaceConfig{}
	def.applyDefaults()
	return def
}

// literalPrefix is the part of a glob key before its first metacharacter.
func literalPrefix(key string) string {
	if idx := strings.IndexAny(key, "*?["); idx >= 0 {
		return key[:idx]
	}
	return key
}

// IssueFilters parses the include and exclude lists into issue types.
// Unknown names are fatal configuration errors.
func (c *Config) IssueFilters() (include, exclude []types.IssueType, err error) {
	include, err = parseTypes(c.Include)
	if err != nil {
		return nil, nil, err
	}
	exclude, err = parseTypes(c.Exclude)
	if err != nil {
		return nil, nil, err
	}
	return include, exclude, nil
}

func parseTypes(names []string) ([]types.IssueType, error) {
	out := make([]types.IssueType, 0, len(names))
	for _, name := range names {
		t, err := types.ParseIssueType(name)
		if err != nil {
			return nil, types.NewConfigError(err.Error(), nil)
		}
		out = append(out, t)
	}
	return out, nil
}
