package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/law-makers/filmexport/internal/scrape"
)

// Progress renders scrape progress as a spinner line on a terminal. Log output
// must go through Writer so log lines do not tear the bar.
type Progress struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewProgress creates a progress line on out. The page total is unknown up
// front, so the bar runs in spinner mode and shows counts instead of a ratio.
func NewProgress(out io.Writer) *Progress {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Starting"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("movies"),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
	return &Progress{out: out, bar: bar}
}

// Observe updates the line after a completed page
func (p *Progress) Observe(ev scrape.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.bar.Describe(fmt.Sprintf("page %d/%d", ev.Page, ev.MaxPages))
	_ = p.bar.Set(ev.Total)
}

// Finish clears the line
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.bar.Finish()
}

// Writer returns an io.Writer that clears the bar, writes, and redraws it
func (p *Progress) Writer() io.Writer {
	return progressWriter{p}
}

type progressWriter struct {
	p *Progress
}

func (w progressWriter) Write(b []byte) (int, error) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()

	_ = w.p.bar.Clear()
	n, err := w.p.out.Write(b)
	if !w.p.bar.IsFinished() {
		_ = w.p.bar.RenderBlank()
	}
	return n, err
}
