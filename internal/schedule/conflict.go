package schedule

import (
	"sort"
	"time"
)

// BookingSlot is the occupied window of an existing booking, carried with
// enough identity for user-facing conflict messages.
type BookingSlot struct {
	BookingID int64
	Reference string
	Date      string // YYYY-MM-DD
	Window    Window
}

// OccupyingStatuses are the booking statuses that reserve their time slot
// against new requests. Completed sessions still occupied their slot;
// rejected and cancelled ones never block anything.
var OccupyingStatuses = []string{"pending", "approved", "completed"}

func IsOccupying(status string) bool {
	for _, s := range OccupyingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// FindConflict returns the first occupied slot on the candidate's date that
// overlaps the candidate window, or nil when the slot is free.
func FindConflict(date string, candidate Window, occupied []BookingSlot) *BookingSlot {
	for i := range occupied {
		if occupied[i].Date != date {
			continue
		}
		if candidate.Overlaps(occupied[i].Window) {
			return &occupied[i]
		}
	}
	return nil
}

// FreeSlots enumerates start times on the given date where a session of the
// requested length fits inside policy hours without touching any occupied
// slot or blocked window. Slots are stepped on the half hour and slots whose
// start is before now are skipped.
func FreeSlots(
	policy Policy,
	date time.Time,
	occupied []BookingSlot,
	durationHours float64,
	now time.Time,
	loc *time.Location,
) []Window {
	const step = 30 * time.Minute

	duration := TimeOfDay(DurationToMinutes(durationHours))
	if duration <= 0 {
		return nil
	}

	window := Window{Start: 0, End: 24 * 60}
	if policy.Hours != nil {
		window = *policy.Hours
	}

	day := date.Format("2006-01-02")
	busy := policy.BlockedWindows(date)
	for _, slot := range occupied {
		if slot.Date == day {
			busy = append(busy, slot.Window)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start < busy[j].Start })

	var free []Window
	for start := window.Start; start+duration <= window.End; start += TimeOfDay(step / time.Minute) {
		candidate := Window{Start: start, End: start + duration}
		startAt, _ := candidate.At(date, loc)
		if startAt.Before(now) {
			continue
		}
		if !overlapsAny(candidate, busy) {
			free = append(free, candidate)
		}
	}
	return free
}

func overlapsAny(candidate Window, busy []Window) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
