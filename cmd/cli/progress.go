package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/yourusername/mp3-extract-go/internal/app"
	"github.com/yourusername/mp3-extract-go/internal/domain"
)

// progressReporter renders controller events as one progress bar per item
type progressReporter struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar

	label string
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

// HandleEvent implements app.EventHandler
func (r *progressReporter) HandleEvent(e app.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Type {
	case app.EventStateChanged:
		if e.State == nil {
			return
		}
		switch e.State.Kind {
		case domain.JobResolving:
			fmt.Fprintln(r.out, "Resolving URL...")
		case domain.JobRunningItem:
			title := ""
			if e.Item != nil {
				title = e.Item.Title
			}
			r.startItem(e.State.Index, e.State.Total, title)
		case domain.JobCancelling:
			r.clear()
			fmt.Fprintln(r.out, "Cancelling...")
		}

	case app.EventProgress:
		if e.Progress != nil {
			r.update(*e.Progress)
		}

	case app.EventItemCompleted:
		r.finish()
		if e.Record != nil {
			fmt.Fprintf(r.out, "  saved %s\n", e.Record.ResultPath)
		}

	case app.EventItemFailed:
		r.clear()
		title := ""
		if e.Item != nil {
			title = e.Item.Title
		}
		fmt.Fprintf(r.out, "  failed %s: %s\n", title, e.Error)
	}
}

func (r *progressReporter) startItem(index, total int, title string) {
	r.clear()
	r.label = fmt.Sprintf("[%d/%d] %s", index, total, truncate(title, 40))
	r.bar = progressbar.NewOptions(100,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(r.label),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(r.out, "\n")
		}),
	)
}

func (r *progressReporter) update(p domain.ProgressEvent) {
	if r.bar == nil {
		return
	}
	switch p.Phase {
	case domain.PhaseDownloading:
		desc := r.label
		if p.RateText != "" {
			desc += " " + p.RateText
		}
		r.bar.Describe(desc)
		_ = r.bar.Set(int(p.Percent))
	case domain.PhaseConverting:
		r.bar.Describe(r.label + " converting")
	}
}

func (r *progressReporter) finish() {
	if r.bar == nil {
		return
	}
	r.bar.Describe(r.label)
	_ = r.bar.Finish()
	r.bar = nil
}

func (r *progressReporter) clear() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Clear()
	fmt.Fprint(r.out, "\n")
	r.bar = nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
