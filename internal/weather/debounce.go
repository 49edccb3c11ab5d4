package weather

import (
	"strings"
	"sync"
	"time"
)

// SearchDebouncer bounds search request volume: each new input cancels the
// previously scheduled search and schedules a new one after the idle delay.
// Inputs below the minimum length only cancel.
type SearchDebouncer struct {
	delay time.Duration
	run   func(city string)

	mu    sync.Mutex
	timer *time.Timer
}

const searchMinLength = 3

// NewSearchDebouncer creates a debouncer that invokes run with the settled
// input after delay of inactivity.
func NewSearchDebouncer(delay time.Duration, run func(city string)) *SearchDebouncer {
	return &SearchDebouncer{delay: delay, run: run}
}

// Input registers a keystroke's worth of search text.
func (d *SearchDebouncer) Input(city string) {
	city = strings.TrimSpace(city)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(city) < searchMinLength {
		return
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(city) })
}

// Cancel drops any pending scheduled search.
func (d *SearchDebouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
