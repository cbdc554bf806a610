package bulk

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how many files of a bulk upload have been
// published, rewriting one status line in place.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	published      int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker for total files that reports every
// reportInterval files. A nil writer discards output.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.published, p.failed, p.lastReported = 0, 0, 0
}

// Published records one file handed to the queue.
func (p *ProgressTracker) Published() {
	p.record(func() { p.published++ })
}

// Failed records one file that could not be published.
func (p *ProgressTracker) Failed() {
	p.record(func() { p.failed++ })
}

func (p *ProgressTracker) record(update func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	update()
	if done := p.published + p.failed; done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = done
	}
}

// Finish prints the final line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Counts returns the files published and failed so far.
func (p *ProgressTracker) Counts() (published, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published, p.failed
}

func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	done := p.published + p.failed
	rate := float64(done) / time.Since(p.startTime).Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rFiles: %d/%d (%.1f%%) published=%d failed=%d - %.1f files/s",
		done, p.total, percentage, p.published, p.failed, rate)
}
