package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ConstraintType enumerates the scheduling rules the engine understands.
type ConstraintType string

const (
	ConstraintTimeConflict           ConstraintType = "TIME_CONFLICT"
	ConstraintRoomCapacity           ConstraintType = "ROOM_CAPACITY"
	ConstraintInstructorAvailability ConstraintType = "INSTRUCTOR_AVAILABILITY"
	ConstraintSubjectPrerequisite    ConstraintType = "SUBJECT_PREREQUISITE"
	ConstraintMaxHoursPerDay         ConstraintType = "MAX_HOURS_PER_DAY"
	ConstraintMinBreakDuration       ConstraintType = "MIN_BREAK_DURATION"
	ConstraintConsecutiveSessions    ConstraintType = "CONSECUTIVE_SESSIONS"
	ConstraintPreferredTimeSlot      ConstraintType = "PREFERRED_TIME_SLOT"
	ConstraintAvoidTimeSlot          ConstraintType = "AVOID_TIME_SLOT"
	ConstraintSameDaySubjects        ConstraintType = "SAME_DAY_SUBJECTS"
	ConstraintDifferentDaySubjects   ConstraintType = "DIFFERENT_DAY_SUBJECTS"
	ConstraintWorkloadBalance        ConstraintType = "WORKLOAD_BALANCE"
	ConstraintCustom                 ConstraintType = "CUSTOM"
)

// ConstraintSeverity classifies how binding a constraint is.
type ConstraintSeverity string

const (
	SeverityHard       ConstraintSeverity = "HARD"
	SeveritySoft       ConstraintSeverity = "SOFT"
	SeverityPreference ConstraintSeverity = "PREFERENCE"
)

// DefaultWeight returns the penalty applied when a constraint omits one.
func (s ConstraintSeverity) DefaultWeight() float64 {
	switch s {
	case SeverityHard:
		return 1000
	case SeveritySoft:
		return 100
	case SeverityPreference:
		return 10
	default:
		return 100
	}
}

// Valid reports whether the severity is a known value.
func (s ConstraintSeverity) Valid() bool {
	switch s {
	case SeverityHard, SeveritySoft, SeverityPreference:
		return true
	}
	return false
}

// Constraint encodes a scheduling rule with severity-weighted penalties.
// Parameters holds a type-specific JSON payload, e.g. {"maxHours": 8}.
type Constraint struct {
	ID               string             `db:"id" json:"id"`
	Name             string             `db:"name" json:"name"`
	Description      string             `db:"description" json:"description"`
	Type             ConstraintType     `db:"type" json:"type"`
	Severity         ConstraintSeverity `db:"severity" json:"severity"`
	IsActive         bool               `db:"is_active" json:"is_active"`
	Parameters       types.JSONText     `db:"parameters" json:"parameters,omitempty"`
	Weight           float64            `db:"weight" json:"weight"`
	ViolationPenalty float64            `db:"violation_penalty" json:"violation_penalty"`
	SubjectScope     types.JSONText     `db:"subject_scope" json:"subject_scope,omitempty"`
	TimeSlotScope    types.JSONText     `db:"time_slot_scope" json:"time_slot_scope,omitempty"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// Penalty returns the configured violation penalty, falling back to the
// severity default when unset.
func (c *Constraint) Penalty() float64 {
	if c.ViolationPenalty > 0 {
		return c.ViolationPenalty
	}
	return c.Severity.DefaultWeight()
}

// Params decodes the parameter payload into a generic map, best effort.
func (c *Constraint) Params() map[string]any {
	if len(c.Parameters) == 0 {
		return nil
	}
	var params map[string]any
	_ = json.Unmarshal(c.Parameters, &params)
	return params
}

// ParamFloat extracts a numeric parameter, returning fallback when absent.
func (c *Constraint) ParamFloat(key string, fallback float64) float64 {
	params := c.Params()
	if params == nil {
		return fallback
	}
	if raw, ok := params[key]; ok {
		if value, ok := raw.(float64); ok {
			return value
		}
	}
	return fallback
}

// ScopedSubjectIDs decodes the subject scoping list, best effort.
func (c *Constraint) ScopedSubjectIDs() []string {
	return decodeIDList(c.SubjectScope)
}

// ScopedTimeSlotIDs decodes the time slot scoping list, best effort.
func (c *Constraint) ScopedTimeSlotIDs() []string {
	return decodeIDList(c.TimeSlotScope)
}

func decodeIDList(raw types.JSONText) []string {
	if len(raw) == 0 {
		return nil
	}
	var ids []string
	_ = json.Unmarshal(raw, &ids)
	return ids
}
