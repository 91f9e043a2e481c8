package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/proforma/internal/sensitivity"
)

// PollProgress shows sensitivity polling as a bar that fills one step per
// poll, up to the poll limit.
type PollProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	last   sensitivity.State
	mu     sync.Mutex
	done   bool
}

// NewPollProgress creates a bar for at most maxPolls polls.
func NewPollProgress(writer io.Writer, maxPolls int) *PollProgress {
	if writer == nil {
		writer = os.Stderr
	}
	p := &PollProgress{writer: writer}
	p.bar = progressbar.NewOptions(maxPolls,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Requesting sensitivity tables...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Observe is a sensitivity.Options.Observer. It is safe to call from the
// orchestrator's goroutines.
func (p *PollProgress) Observe(snap sensitivity.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}

	if snap.State != p.last {
		p.last = snap.State
		p.bar.Describe(describe(snap.State))
	}
	if err := p.bar.Set(snap.Polls); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	if !snap.State.InFlight() && snap.State != sensitivity.Idle {
		p.finishLocked()
	}
}

// Finish completes the bar if the session has not already ended.
func (p *PollProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		p.finishLocked()
	}
}

func (p *PollProgress) finishLocked() {
	p.done = true
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

func describe(s sensitivity.State) string {
	switch s {
	case sensitivity.Requesting:
		return "[cyan][bold]Requesting sensitivity tables...[reset]"
	case sensitivity.Generating:
		return "[cyan][bold]Waiting for the engine...[reset]"
	case sensitivity.Ready:
		return "[green][bold]Sensitivity tables ready[reset]"
	case sensitivity.TimedOut:
		return "[yellow][bold]Timed out waiting for tables[reset]"
	case sensitivity.Failed:
		return "[red][bold]Sensitivity generation failed[reset]"
	default:
		return s.String()
	}
}
