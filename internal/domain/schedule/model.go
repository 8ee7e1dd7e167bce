// Package schedule holds the weekly availability model for a bookable
// location and the slot computation built on top of it. Everything here is
// pure: no clock reads, no I/O.
package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeRange is a contiguous availability window within a day, expressed as
// zero-padded 24h "HH:MM" strings. Start is inclusive, End exclusive.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks the "HH:MM" format and that Start precedes End.
func (r TimeRange) Validate() error {
	start, err := parseClock(r.Start)
	if err != nil {
		return fmt.Errorf("invalid start %q: %w", r.Start, err)
	}
	end, err := parseClock(r.End)
	if err != nil {
		return fmt.Errorf("invalid end %q: %w", r.End, err)
	}
	if start >= end {
		return fmt.Errorf("start %q must be before end %q", r.Start, r.End)
	}
	return nil
}

// DaySchedule is one day of a weekly template. Slots are availability
// windows, not bookable start times; those are derived by GenerateSlots.
type DaySchedule struct {
	Active bool        `json:"active"`
	Slots  []TimeRange `json:"slots,omitempty"`
}

// Validate rejects malformed ranges and overlapping windows within the day.
// Overlap is checked at authoring time so the generator can stay permissive.
func (d DaySchedule) Validate() error {
	for _, r := range d.Slots {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for i, a := range d.Slots {
		for _, b := range d.Slots[i+1:] {
			as, _ := parseClock(a.Start)
			ae, _ := parseClock(a.End)
			bs, _ := parseClock(b.Start)
			be, _ := parseClock(b.End)
			if as < be && bs < ae {
				return fmt.Errorf("ranges %s-%s and %s-%s overlap", a.Start, a.End, b.Start, b.End)
			}
		}
	}
	return nil
}

// Weekly maps every day of the week, Sunday through Saturday, to its
// DaySchedule. The zero value is a fully inactive week.
type Weekly [7]DaySchedule

var dayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// ForDay returns the schedule for the given weekday.
func (w Weekly) ForDay(d time.Weekday) DaySchedule {
	return w[int(d)]
}

// Validate checks every active day of the week.
func (w Weekly) Validate() error {
	for i, d := range w {
		if !d.Active {
			continue
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", dayNames[i], err)
		}
	}
	return nil
}

// MarshalJSON encodes the week as an object keyed by lowercase day name,
// the storage format shared with the booking front-end.
func (w Weekly) MarshalJSON() ([]byte, error) {
	m := make(map[string]DaySchedule, 7)
	for i, d := range w {
		m[dayNames[i]] = d
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts the day-name-keyed object form. Missing days are
// left inactive.
func (w *Weekly) UnmarshalJSON(data []byte) error {
	var m map[string]DaySchedule
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	for i, name := range dayNames {
		if d, ok := m[name]; ok {
			w[i] = d
		} else {
			w[i] = DaySchedule{}
		}
	}
	return nil
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("want HH:MM")
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("want HH:MM")
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range")
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
