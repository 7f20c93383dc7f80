// Package plugins defines the capability interface framework plugins expose
// to the analyzer and a static registry of built-ins. Each plugin is detected
// by a marker file in the workspace and contributes entry patterns, extra
// recognized extensions, and optionally a dependency finder for its
// configuration files. The core invokes the interface uniformly; a failing
// plugin only loses its own contribution.
package plugins

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Context is the workspace view handed to plugins.
type Context struct {
	Dir    string // absolute workspace directory
	Logger *slog.Logger
}

// HasFile reports whether the workspace contains any of the given relative
// paths. Used by plugins for marker detection.
func (c *Context) HasFile(names ...string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(c.Dir, name)); err == nil {
			return true
		}
	}
	return false
}

// Plugin is the fixed capability interface every framework plugin conforms to.
type Plugin interface {
	// Name identifies the plugin in warnings and logs.
	Name() string
	// Detect reports whether the workspace uses this framework, keyed on a
	// detectable marker such as a configuration file name.
	Detect(ctx *Context) bool
	// EntryPatterns returns additional entry glob patterns for the workspace.
	EntryPatterns(ctx *Context) ([]string, error)
	// Extensions returns additional recognized file extensions, or nil.
	Extensions() []string
	// FindDependencies maps a configuration file's contents to referenced
	// package names, or returns nil when the file is not the plugin's.
	FindDependencies(path string, content []byte) ([]string, error)
}

// Registry is the ordered list of known plugins.
type Registry struct {
	plugins []Plugin
}

// NewRegistry returns the registry of built-in plugins.
func NewRegistry() *Registry {
	return &Registry{plugins: []Plugin{
		&vitestPlugin{},
		&nextPlugin{},
		&storybookPlugin{},
	}}
}

// Register appends a plugin; later registrations do not override built-ins.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// Detect returns the plugins whose markers are present in the workspace.
func (r *Registry) Detect(ctx *Context) []Plugin {
	var active []Plugin
	for _, p := range r.plugins {
		if p.Detect(ctx) {
			active = append(active, p)
		}
	}
	return active
}

// SafeEntryPatterns invokes a plugin's EntryPatterns, converting panics into
// errors so one misbehaving plugin cannot abort the run.
func SafeEntryPatterns(p Plugin, ctx *Context) (pats []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &pluginPanic{name: p.Name(), value: r}
		}
	}()
	return p.EntryPatterns(ctx)
}

// SafeFindDependencies invokes a plugin's dependency finder with the same
// panic containment as SafeEntryPatterns.
func SafeFindDependencies(p Plugin, path string, content []byte) (deps []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &pluginPanic{name: p.Name(), value: r}
		}
	}()
	return p.FindDependencies(path, content)
}

type pluginPanic struct {
	name  string
	value any
}

func (e *pluginPanic) Error() string {
	return "plugin " + e.name + " panicked"
}
