package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker keeps track of a run of several crawls
type StatusTracker struct {
	Planned   int
	Completed int
	Partial   int
	Failed    int
	Items     int
	StartTime time.Time
}

// NewStatusTracker creates a tracker for planned crawls
func NewStatusTracker(planned int) *StatusTracker {
	return &StatusTracker{
		Planned:   planned,
		StartTime: time.Now(),
	}
}

// Record counts one finished crawl
func (st *StatusTracker) Record(ok bool, message string, items int) {
	switch {
	case !ok:
		st.Failed++
	case strings.Contains(message, "partial"):
		st.Partial++
	default:
		st.Completed++
	}
	st.Items += items
}

// Done returns the number of finished crawls
func (st *StatusTracker) Done() int {
	return st.Completed + st.Partial + st.Failed
}

// GetProgress returns a progress bar over the planned crawls
func (st *StatusTracker) GetProgress() string {
	const width = 20
	filled := 0
	if st.Planned > 0 {
		filled = st.Done() * width / st.Planned
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Done(), st.Planned)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetItemRate returns the average number of items collected per minute
func (st *StatusTracker) GetItemRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Items) / elapsed
}

// PrintProgress prints the current progress status
func (st *StatusTracker) PrintProgress() {
	fmt.Fprintf(Out, "%s %s items: %d\n",
		Magenta("[CRAWLING]"),
		Yellow(st.GetProgress()),
		st.Items)
}

// PrintSummary prints the totals of the run
func (st *StatusTracker) PrintSummary() {
	fmt.Fprintf(Out, "\n%s %d complete, %d partial, %d failed, %d items in %s\n",
		Cyan("[SUMMARY]"),
		st.Completed, st.Partial, st.Failed, st.Items,
		st.GetElapsedTime().Round(time.Second))
}

// AllOK reports whether no crawl failed
func (st *StatusTracker) AllOK() bool {
	return st.Failed == 0
}
