package schedule

import (
	"sort"
	"time"
)

// DefaultSlotDuration is used when neither the location nor the doctor
// specifies a consultation length.
const DefaultSlotDuration = 30

// GenerateSlots returns the bookable start times inside r, spaced
// durationMinutes apart, starting at r.Start and stopping before r.End.
// A duration longer than the window yields no slots. Malformed ranges are a
// caller contract violation and also yield no slots.
func GenerateSlots(r TimeRange, durationMinutes int) []string {
	if durationMinutes <= 0 {
		return nil
	}
	start, err := parseClock(r.Start)
	if err != nil {
		return nil
	}
	end, err := parseClock(r.End)
	if err != nil {
		return nil
	}
	// A consultation must fit inside the window; only the tail of the last
	// slot may run past End.
	if end-start < durationMinutes {
		return nil
	}
	var slots []string
	for cur := start; cur < end; cur += durationMinutes {
		slots = append(slots, formatClock(cur))
	}
	return slots
}

// BookedSlot is the projection of an existing appointment the resolver
// needs: when it is, and which location it occupies. An empty LocationID
// marks a legacy appointment that blocks the slot at every location of the
// doctor.
type BookedSlot struct {
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	LocationID string // empty = legacy, blocks everywhere
}

// AvailableSlots computes the free start times for one location on one date.
// It unions the slots of every window of the matching weekday, then removes
// times already taken by a booked appointment on that date at that location.
// The function is date-value-agnostic: rejecting past dates is the caller's
// concern.
func AvailableSlots(w Weekly, date time.Time, locationID string, durationMinutes int, booked []BookedSlot) []string {
	day := w.ForDay(date.Weekday())
	if !day.Active || len(day.Slots) == 0 {
		return nil
	}
	if durationMinutes <= 0 {
		durationMinutes = DefaultSlotDuration
	}

	all := make(map[string]struct{})
	for _, r := range day.Slots {
		for _, s := range GenerateSlots(r, durationMinutes) {
			all[s] = struct{}{}
		}
	}

	dateStr := date.Format("2006-01-02")
	for _, b := range booked {
		if b.Date != dateStr {
			continue
		}
		if b.LocationID != "" && b.LocationID != locationID {
			continue
		}
		delete(all, b.Time)
	}

	free := make([]string, 0, len(all))
	for s := range all {
		free = append(free, s)
	}
	sort.Strings(free)
	return free
}
