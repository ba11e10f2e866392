package schedule

import (
	"fmt"
	"time"
)

// DateWindow is a one-off blocked interval on a specific calendar date.
type DateWindow struct {
	Date   string // YYYY-MM-DD
	Window Window
	Reason string
}

// WeekdayWindow is a weekly recurring blocked interval.
type WeekdayWindow struct {
	Weekday time.Weekday
	Window  Window
	Reason  string
}

// Policy is a coach's availability policy: optional fixed coaching hours
// plus one-off and recurring blocked windows. It is a pure predicate over
// candidate session windows and holds no mutable state.
type Policy struct {
	Hours     *Window
	Blockings []DateWindow
	Recurring []WeekdayWindow
}

// Violation describes why a candidate window is outside policy. The blocked
// window is reported so callers can suggest alternatives around it.
type Violation struct {
	Kind    ViolationKind
	Window  Window
	Weekday time.Weekday
	Reason  string
}

type ViolationKind int

const (
	OutsideCoachingHours ViolationKind = iota
	BlockedDate
	BlockedWeekday
)

func (v *Violation) Error() string {
	switch v.Kind {
	case OutsideCoachingHours:
		return fmt.Sprintf("outside coaching hours %s", v.Window)
	case BlockedDate:
		return fmt.Sprintf("coach is unavailable %s", v.Window)
	default:
		return fmt.Sprintf("coach is unavailable every %s %s", v.Weekday, v.Window)
	}
}

// Check returns nil when the candidate window on the given date is within
// policy. Only the blocked sub-ranges are unavailable; the rest of the day
// stays bookable no matter how many blockings exist.
func (p Policy) Check(date time.Time, candidate Window) *Violation {
	if p.Hours != nil && !p.Hours.Contains(candidate) {
		return &Violation{Kind: OutsideCoachingHours, Window: *p.Hours}
	}

	day := date.Format("2006-01-02")
	for _, b := range p.Blockings {
		if b.Date == day && candidate.Overlaps(b.Window) {
			return &Violation{Kind: BlockedDate, Window: b.Window, Reason: b.Reason}
		}
	}

	for _, r := range p.Recurring {
		if r.Weekday == date.Weekday() && candidate.Overlaps(r.Window) {
			return &Violation{Kind: BlockedWeekday, Window: r.Window, Weekday: r.Weekday, Reason: r.Reason}
		}
	}

	return nil
}

// BlockedWindows collects every policy-blocked window applying on the given
// date, used when enumerating free slots.
func (p Policy) BlockedWindows(date time.Time) []Window {
	day := date.Format("2006-01-02")
	var blocked []Window
	for _, b := range p.Blockings {
		if b.Date == day {
			blocked = append(blocked, b.Window)
		}
	}
	for _, r := range p.Recurring {
		if r.Weekday == date.Weekday() {
			blocked = append(blocked, r.Window)
		}
	}
	return blocked
}
