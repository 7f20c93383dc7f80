package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mamaar/sweeper/pkg/analysis"
	"github.com/mamaar/sweeper/pkg/report"
	"github.com/mamaar/sweeper/pkg/types"
	"github.com/mamaar/sweeper/pkg/watch"
)

// App represents the sweeper application
type App struct {
	flags *Flags
}

// NewApp creates a new application instance
func NewApp() *App {
	return &App{}
}

// Initialize sets up the application with flags and configuration
func (app *App) Initialize() {
	log.SetFlags(0) // Remove timestamp from log output
	ParseFlags(Usage)
	app.flags = GlobalFlags
}

// Run executes the analysis and writes the report. The returned code is the
// process exit status: 0 clean, 1 issues found, 2 fatal error.
func (app *App) Run(ctx context.Context) int {
	if *app.flags.Version {
		ShowVersion()
		return 0
	}

	opts := analysis.Options{
		Dir:                  *app.flags.Workspace,
		ConfigPath:           *app.flags.Config,
		Workers:              *app.flags.Workers,
		IncludeEntryExports:  *app.flags.IncludeEntryExports,
		ClassMembers:         *app.flags.ClassMembers,
		NoEnumMembers:        *app.flags.NoEnumMembers,
		ExternalTypes:        *app.flags.ExternalTypes,
		NoNamespaceHeuristic: *app.flags.StrictExports,
		Include:              splitList(*app.flags.Include),
		Exclude:              splitList(*app.flags.Exclude),
		Logger:               newLogger(*app.flags.Verbose),
	}

	root, absErr := filepath.Abs(*app.flags.Workspace)
	if absErr != nil {
		root = *app.flags.Workspace
	}

	if *app.flags.Watch {
		return app.runWatch(ctx, opts, root)
	}

	result, err := analysis.NewRunner(opts).Run(ctx)
	if err != nil {
		printError(err)
		return 2
	}

	if *app.flags.Json {
		if err := report.WriteJSON(os.Stdout, result, root); err != nil {
			printError(err)
			return 2
		}
	} else {
		if _, err := report.WriteText(os.Stdout, result, root); err != nil {
			printError(err)
			return 2
		}
	}

	if result.Total() > 0 {
		return 1
	}
	return 0
}

// runWatch performs one initial analysis and then re-runs on every change
// batch until the context is cancelled.
func (app *App) runWatch(ctx context.Context, opts analysis.Options, root string) int {
	rerunner := watch.NewRerunner(opts, os.Stdout, *app.flags.Json, root, opts.Logger)
	rerunner.HandleChanges(ctx, nil)

	watcher, err := watch.NewWatcher(root, 500*time.Millisecond, opts.Logger)
	if err != nil {
		printError(err)
		return 2
	}
	defer watcher.Close()

	batches := make(chan []watch.ChangeEvent)
	go func() {
		for batch := range batches {
			rerunner.HandleChanges(ctx, batch)
		}
	}()

	if err := watcher.Run(ctx, batches); err != nil && !errors.Is(err, context.Canceled) {
		printError(err)
		return 2
	}
	return 0
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printError(err error) {
	var aerr *types.AnalysisError
	if errors.As(err, &aerr) {
		fmt.Fprintf(os.Stderr, "sweeper: %s: %s\n", aerr.Type, aerr.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "sweeper: %v\n", err)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
