// Package window plans the day-sized time ranges an extraction walks through.
package window

import (
	"fmt"
	"iter"
	"time"
)

// Day is the unit of window offsets
const Day = 24 * time.Hour

// Window is a [start, stop) range expressed as day offsets before now.
// StartOffset is always greater than StopOffset.
type Window struct {
	StartOffset int
	StopOffset  int
}

// Range is a window resolved against a fixed point in time
type Range struct {
	Start time.Time
	Stop  time.Time
}

// Range resolves the window's offsets against now
func (w Window) Range(now time.Time) Range {
	return Range{
		Start: now.Add(-time.Duration(w.StartOffset) * Day),
		Stop:  now.Add(-time.Duration(w.StopOffset) * Day),
	}
}

// String renders the relative label, e.g. "-3d to -2d"
func (w Window) String() string {
	return fmt.Sprintf("-%dd to -%dd", w.StartOffset, w.StopOffset)
}

// Plan yields windows covering the last days days in chunks of interval days,
// oldest first. A non-positive interval, or one that covers the whole
// look-back, yields a single window.
func Plan(days, interval int) iter.Seq[Window] {
	if interval <= 0 || interval > days {
		interval = days
	}
	return func(yield func(Window) bool) {
		for start := days; start > 0; start -= interval {
			w := Window{StartOffset: start, StopOffset: max(0, start-interval)}
			if !yield(w) {
				return
			}
		}
	}
}

// Single is the window used by a single-shot extraction
func Single(days int) Window {
	return Window{StartOffset: days}
}
