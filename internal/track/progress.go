package track

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressBar renders an in-place terminal progress bar. It refreshes at a
// fixed interval and supports concurrent Increment calls from workers.
type ProgressBar struct {
	w         io.Writer
	total     int64
	processed atomic.Int64
	label     string
	unit      string
	barWidth  int
	start     time.Time
	done      chan struct{}
	stopped   chan struct{}
	finish    sync.Once
	mu        sync.Mutex
}

// NewProgressBar starts drawing to w until Finish is called.
func NewProgressBar(w io.Writer, label, unit string, total int64) *ProgressBar {
	pb := &ProgressBar{
		w:        w,
		total:    total,
		label:    label,
		unit:     unit,
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go pb.run()
	return pb
}

// Increment marks one more item as processed. Safe for concurrent use.
func (pb *ProgressBar) Increment() {
	pb.processed.Add(1)
}

// Processed returns the number of Increment calls so far.
func (pb *ProgressBar) Processed() int64 {
	return pb.processed.Load()
}

// Finish stops the refresh loop and prints the final bar state with a newline.
func (pb *ProgressBar) Finish() {
	pb.finish.Do(func() {
		close(pb.done)
		<-pb.stopped
		pb.draw()
		pb.mu.Lock()
		fmt.Fprint(pb.w, "\n")
		pb.mu.Unlock()
	})
}

func (pb *ProgressBar) run() {
	defer close(pb.stopped)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-pb.done:
			return
		case <-ticker.C:
			pb.draw()
		}
	}
}

func (pb *ProgressBar) draw() {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	processed := pb.processed.Load()
	total := pb.total

	var frac float64
	if total > 0 {
		frac = float64(processed) / float64(total)
	}
	if frac > 1 {
		frac = 1
	}

	filled := int(float64(pb.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.barWidth-filled)

	elapsed := time.Since(pb.start)
	rate := float64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(processed) / secs
	}

	fmt.Fprintf(pb.w, "\r%s [%s] %3.0f%%  %d/%d %s  %.0f/s  %s\033[K",
		pb.label, bar, frac*100, processed, total, pb.unit, rate, formatDuration(elapsed))
}

// formatDuration formats a duration concisely (e.g. "1m23s", "45s", "0s").
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
