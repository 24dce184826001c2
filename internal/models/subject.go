package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Priority orders subjects by scheduling importance.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Weight returns the numeric weight used by the optimizer objective.
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 1
	}
}

// Valid reports whether the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Difficulty orders subjects by cognitive load.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "EASY"
	DifficultyMedium   Difficulty = "MEDIUM"
	DifficultyHard     Difficulty = "HARD"
	DifficultyVeryHard Difficulty = "VERY_HARD"
)

// Value returns the numeric difficulty level 1-4.
func (d Difficulty) Value() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	case DifficultyVeryHard:
		return 4
	default:
		return 2
	}
}

// Valid reports whether the difficulty is a known value.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
		return true
	}
	return false
}

// Subject represents a schedulable subject. Immutable per optimization run.
type Subject struct {
	ID                 string         `db:"id" json:"id"`
	Code               string         `db:"code" json:"code"`
	Name               string         `db:"name" json:"name"`
	Priority           Priority       `db:"priority" json:"priority"`
	Difficulty         Difficulty     `db:"difficulty" json:"difficulty"`
	EstimatedHours     int            `db:"estimated_hours" json:"estimated_hours"`
	PreferredTimeSlots types.JSONText `db:"preferred_time_slots" json:"preferred_time_slots,omitempty"`
	IsActive           bool           `db:"is_active" json:"is_active"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// PreferredSlotIDs decodes the preferred time slot id list, best effort.
func (s *Subject) PreferredSlotIDs() []string {
	if len(s.PreferredTimeSlots) == 0 {
		return nil
	}
	var ids []string
	_ = json.Unmarshal(s.PreferredTimeSlots, &ids)
	return ids
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search     string
	Priority   string
	ActiveOnly bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
