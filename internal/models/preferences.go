package models

import "time"

// EnergyPeak categorises when a user is most alert.
type EnergyPeak string

const (
	EnergyMorning   EnergyPeak = "MORNING"
	EnergyAfternoon EnergyPeak = "AFTERNOON"
	EnergyEvening   EnergyPeak = "EVENING"
	EnergyNight     EnergyPeak = "NIGHT"
)

// Valid reports whether the energy peak is a known value.
func (e EnergyPeak) Valid() bool {
	switch e {
	case EnergyMorning, EnergyAfternoon, EnergyEvening, EnergyNight:
		return true
	}
	return false
}

// UserPreferences is the singleton-per-user scheduling preference record.
// Time window bounds are minutes from midnight.
type UserPreferences struct {
	ID                    string     `db:"id" json:"id"`
	PreferredStartMinute  int        `db:"preferred_start_minute" json:"preferred_start_minute"`
	PreferredEndMinute    int        `db:"preferred_end_minute" json:"preferred_end_minute"`
	MaxHoursPerDay        int        `db:"max_hours_per_day" json:"max_hours_per_day"`
	MinBreakMinutes       int        `db:"min_break_minutes" json:"min_break_minutes"`
	MaxConsecutiveHours   int        `db:"max_consecutive_hours" json:"max_consecutive_hours"`
	EnergyPeak            EnergyPeak `db:"energy_peak" json:"energy_peak"`
	AllowWeekends         bool       `db:"allow_weekends" json:"allow_weekends"`
	AllowEvenings         bool       `db:"allow_evenings" json:"allow_evenings"`
	BalanceWorkload       bool       `db:"balance_workload" json:"balance_workload"`
	PrioritizeConsistency bool       `db:"prioritize_consistency" json:"prioritize_consistency"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// DefaultUserPreferences returns the preference record used when a user has
// never saved one: 08:00-18:00 window, 8h/day, 15 minute breaks, mornings.
func DefaultUserPreferences() UserPreferences {
	return UserPreferences{
		ID:                    "default",
		PreferredStartMinute:  8 * 60,
		PreferredEndMinute:    18 * 60,
		MaxHoursPerDay:        8,
		MinBreakMinutes:       15,
		MaxConsecutiveHours:   3,
		EnergyPeak:            EnergyMorning,
		AllowWeekends:         false,
		AllowEvenings:         true,
		BalanceWorkload:       true,
		PrioritizeConsistency: true,
	}
}
