package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since midnight, in the
// coach's local civil time. Comparisons between times of day never involve
// timezone conversion.
type TimeOfDay int

func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day: %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid time of day: %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day: %q", value)
	}
	return TimeOfDay(hour*60 + minute), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Window is a half-open [Start, End) interval within a single day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func NewWindow(start, end TimeOfDay) (Window, error) {
	if start >= end {
		return Window{}, fmt.Errorf("window start %s must be before end %s", start, end)
	}
	return Window{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open windows intersect. Back-to-back
// windows (a.End == b.Start) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start < other.End && other.Start < w.End
}

// Contains reports whether the other window lies fully inside w.
func (w Window) Contains(other Window) bool {
	return w.Start <= other.Start && other.End <= w.End
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// DurationToMinutes converts a session length in hours (half-hour
// granularity) to whole minutes.
func DurationToMinutes(hours float64) int {
	return int(hours * 60)
}

// SessionWindow builds the [start, start+duration) window for a session
// starting at the given time of day.
func SessionWindow(start TimeOfDay, durationHours float64) Window {
	return Window{Start: start, End: start + TimeOfDay(DurationToMinutes(durationHours))}
}

// At anchors a window onto a calendar date in the given location, producing
// absolute start and end instants.
func (w Window) At(date time.Time, loc *time.Location) (time.Time, time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return day.Add(time.Duration(w.Start) * time.Minute),
		day.Add(time.Duration(w.End) * time.Minute)
}
