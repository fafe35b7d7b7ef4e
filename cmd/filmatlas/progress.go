package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"filmatlas/internal/logging"
	"filmatlas/internal/pipeline"
)

const progressTitleWidth = 48

// progressReporter renders pipeline progress. On a terminal it rewrites a
// single line; otherwise it logs at 10% steps.
type progressReporter struct {
	out      io.Writer
	logger   *slog.Logger
	terminal bool
	sampler  *logging.ProgressSampler
	drawn    bool
	last     pipeline.Progress
}

func newProgressReporter(out io.Writer, logger *slog.Logger) *progressReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &progressReporter{
		out:      out,
		logger:   logger,
		terminal: isTerminal(out),
		sampler:  logging.NewProgressSampler(10),
	}
}

func (r *progressReporter) update(p pipeline.Progress) {
	r.last = p
	if r.terminal {
		fmt.Fprintf(r.out, "\r\x1b[K[%*d/%d] %s", digits(p.Total), p.Completed, p.Total, truncate(p.CurrentTitle, progressTitleWidth))
		r.drawn = true
		return
	}
	if !r.sampler.ShouldLog(p.Completed, p.Total) {
		return
	}
	r.logger.Info("lookup progress",
		logging.Int("completed", p.Completed),
		logging.Int("total", p.Total),
		logging.String("current_title", p.CurrentTitle),
		logging.String(logging.FieldEventType, "run_progress"),
	)
}

// finish terminates the progress line so later output starts clean.
func (r *progressReporter) finish() {
	if r.terminal && r.drawn {
		fmt.Fprintln(r.out)
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func digits(n int) int {
	return len(fmt.Sprint(n))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
