package optimizer

import (
	"sort"

	"github.com/tmopt/timetable-api/internal/models"
)

type interval struct {
	start int
	end   int
}

// SchedulingContext aggregates the state the scorer needs about a partial or
// candidate assignment: sessions per day, scheduled minutes, and the gaps
// between sessions. It is built from placed slots and mutated incrementally
// by the solver during search.
type SchedulingContext struct {
	prefs models.UserPreferences
	days  map[int][]interval
}

// NewSchedulingContext creates an empty context for the given preferences.
func NewSchedulingContext(prefs models.UserPreferences) *SchedulingContext {
	return &SchedulingContext{
		prefs: prefs,
		days:  make(map[int][]interval),
	}
}

// Preferences returns the user preferences the context was built with.
func (c *SchedulingContext) Preferences() models.UserPreferences {
	return c.prefs
}

// Add records a placed slot. Intervals per day are kept sorted by start.
func (c *SchedulingContext) Add(slot *models.TimeSlot) {
	iv := interval{start: slot.StartMinute, end: slot.EndMinute}
	day := c.days[slot.DayOfWeek]
	pos := sort.Search(len(day), func(i int) bool { return day[i].start >= iv.start })
	day = append(day, interval{})
	copy(day[pos+1:], day[pos:])
	day[pos] = iv
	c.days[slot.DayOfWeek] = day
}

// Remove undoes a previous Add for the same slot.
func (c *SchedulingContext) Remove(slot *models.TimeSlot) {
	day := c.days[slot.DayOfWeek]
	for i, iv := range day {
		if iv.start == slot.StartMinute && iv.end == slot.EndMinute {
			c.days[slot.DayOfWeek] = append(day[:i], day[i+1:]...)
			return
		}
	}
}

// SessionsOn returns how many sessions already occupy the given day.
func (c *SchedulingContext) SessionsOn(day int) int {
	return len(c.days[day])
}

// MinutesOn returns the total scheduled minutes on the given day.
func (c *SchedulingContext) MinutesOn(day int) int {
	total := 0
	for _, iv := range c.days[day] {
		total += iv.end - iv.start
	}
	return total
}

// GapBefore returns the gap in minutes between the candidate slot and the
// previous session on its day, and whether such a session exists.
func (c *SchedulingContext) GapBefore(slot *models.TimeSlot) (int, bool) {
	gap := -1
	for _, iv := range c.days[slot.DayOfWeek] {
		if iv.end <= slot.StartMinute {
			gap = slot.StartMinute - iv.end
		}
	}
	if gap < 0 {
		return 0, false
	}
	return gap, true
}

// ConsecutiveMinutesWith returns the length of the contiguous run of
// sessions the candidate slot would join, including the slot itself.
// Sessions are contiguous when they touch with no gap between them.
func (c *SchedulingContext) ConsecutiveMinutesWith(slot *models.TimeSlot) int {
	total := slot.Duration()
	day := c.days[slot.DayOfWeek]

	// Walk backwards from the slot start over touching intervals.
	edge := slot.StartMinute
	for i := len(day) - 1; i >= 0; i-- {
		if day[i].end == edge {
			total += day[i].end - day[i].start
			edge = day[i].start
		}
	}

	// And forwards from the slot end.
	edge = slot.EndMinute
	for _, iv := range day {
		if iv.start == edge {
			total += iv.end - iv.start
			edge = iv.end
		}
	}

	return total
}

// Occupied reports whether any recorded interval overlaps the candidate slot.
func (c *SchedulingContext) Occupied(slot *models.TimeSlot) bool {
	for _, iv := range c.days[slot.DayOfWeek] {
		if slot.StartMinute < iv.end && slot.EndMinute > iv.start {
			return true
		}
	}
	return false
}
