package models

import (
	"fmt"
	"time"
)

// TimeSlot is a discrete weekly slot with minute resolution. Immutable per run.
// DayOfWeek follows ISO numbering: 1 = Monday .. 7 = Sunday.
type TimeSlot struct {
	ID          string    `db:"id" json:"id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartMinute int       `db:"start_minute" json:"start_minute"`
	EndMinute   int       `db:"end_minute" json:"end_minute"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	IsPreferred bool      `db:"is_preferred" json:"is_preferred"`
	Weight      float64   `db:"weight" json:"weight"`
	Room        *string   `db:"room" json:"room,omitempty"`
	Capacity    *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Duration returns the slot length in minutes.
func (t *TimeSlot) Duration() int {
	return t.EndMinute - t.StartMinute
}

// StartHour returns the hour-of-day the slot begins in.
func (t *TimeSlot) StartHour() int {
	return t.StartMinute / 60
}

// Overlaps reports whether two slots collide, using the half-open interval
// test start_a < end_b && end_a > start_b on the same day.
func (t *TimeSlot) Overlaps(other *TimeSlot) bool {
	if t.DayOfWeek != other.DayOfWeek {
		return false
	}
	return t.StartMinute < other.EndMinute && t.EndMinute > other.StartMinute
}

// WithinWindow reports whether the slot lies fully inside [start, end] minutes.
func (t *TimeSlot) WithinWindow(startMinute, endMinute int) bool {
	return t.StartMinute >= startMinute && t.EndMinute <= endMinute
}

// IsWeekend reports whether the slot falls on Saturday or Sunday.
func (t *TimeSlot) IsWeekend() bool {
	return t.DayOfWeek == 6 || t.DayOfWeek == 7
}

// DisplayName renders the slot for logs and suggestion reasoning.
func (t *TimeSlot) DisplayName() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d",
		DayName(t.DayOfWeek),
		t.StartMinute/60, t.StartMinute%60,
		t.EndMinute/60, t.EndMinute%60,
	)
}

var dayNames = map[int]string{
	1: "MONDAY",
	2: "TUESDAY",
	3: "WEDNESDAY",
	4: "THURSDAY",
	5: "FRIDAY",
	6: "SATURDAY",
	7: "SUNDAY",
}

// DayName maps an ISO day index to an uppercase day name.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return "MONDAY"
}

// TimeSlotFilter captures supported filters for listing time slots.
type TimeSlotFilter struct {
	DayOfWeek     int
	AvailableOnly bool
	PreferredOnly bool
	Page          int
	PageSize      int
}
