package watch

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mamaar/sweeper/pkg/analysis"
	"github.com/mamaar/sweeper/pkg/report"
)

// Rerunner executes a fresh analysis for every change batch and renders the
// report.
type Rerunner struct {
	opts   analysis.Options
	out    io.Writer
	asJSON bool
	root   string
	logger *slog.Logger
}

func NewRerunner(opts analysis.Options, out io.Writer, asJSON bool, root string, logger *slog.Logger) *Rerunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rerunner{opts: opts, out: out, asJSON: asJSON, root: root, logger: logger}
}

// HandleChanges re-runs the analysis after a batch of file changes.
func (r *Rerunner) HandleChanges(ctx context.Context, events []ChangeEvent) {
	start := time.Now()
	for _, ev := range events {
		r.logger.Debug("change", "path", ev.Path, "op", ev.Op.String())
	}

	result, err := analysis.NewRunner(r.opts).Run(ctx)
	if err != nil {
		r.logger.Error("analysis failed", "err", err)
		return
	}

	if r.asJSON {
		err = report.WriteJSON(r.out, result, r.root)
	} else {
		_, err = report.WriteText(r.out, result, r.root)
	}
	if err != nil {
		r.logger.Error("writing report", "err", err)
		return
	}

	r.logger.Info("batch complete",
		"files", len(events),
		"issues", result.Total(),
		"elapsed", time.Since(start))
}
