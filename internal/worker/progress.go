package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress renders a single-line progress bar for a batch run.
type Progress struct {
	startTime time.Time
	output    io.Writer
	unit      string
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// NewProgress creates a tracker for total textures. When enabled is false
// it only records counts for Summary.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		unit:      "textures",
		enabled:   enabled,
	}
}

// SetOutput redirects the bar, stderr by default.
func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	p.output = w
	p.mu.Unlock()
}

// Update records the counts reported by the pool.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed, p.total, p.failed = completed, total, failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback adapts Update to Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

type snapshot struct {
	completed, total, failed int
	elapsed                  time.Duration
}

func (p *Progress) snapshot() snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return snapshot{p.completed, p.total, p.failed, time.Since(p.startTime)}
}

func (s snapshot) rate() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.completed) / s.elapsed.Seconds()
}

// Print writes the current bar, overwriting the previous one.
func (p *Progress) Print() {
	s := p.snapshot()

	filled := 0
	if s.total > 0 {
		filled = s.completed * barWidth / s.total
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %d/%d %s", bar, s.completed, s.total, p.unit)
	if s.failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.failed)
	}
	rate := s.rate()
	fmt.Fprintf(&b, " - %.1f %s/sec", rate, p.unit)
	switch {
	case s.completed >= s.total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(s.elapsed))
	case rate > 0:
		eta := time.Duration(float64(s.total-s.completed)/rate) * time.Second
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}
	b.WriteString("          ")

	p.mu.RLock()
	fmt.Fprint(p.output, b.String())
	p.mu.RUnlock()
}

// Done prints the final bar and ends the line.
func (p *Progress) Done() {
	if !p.enabled {
		return
	}
	p.Print()
	p.mu.RLock()
	fmt.Fprintln(p.output)
	p.mu.RUnlock()
}

// Summary describes the finished run in one line.
func (p *Progress) Summary() string {
	s := p.snapshot()
	return fmt.Sprintf("Generated %d/%d %s (%d failed) in %s (%.1f %s/sec)",
		s.completed-s.failed, s.total, p.unit, s.failed, formatDuration(s.elapsed), s.rate(), p.unit)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
