package models

import "time"

// TimetableStatus tracks a timetable through its optimization lifecycle.
type TimetableStatus string

const (
	TimetableDraft      TimetableStatus = "DRAFT"
	TimetableOptimizing TimetableStatus = "OPTIMIZING"
	TimetableOptimized  TimetableStatus = "OPTIMIZED"
	TimetableActive     TimetableStatus = "ACTIVE"
	TimetableArchived   TimetableStatus = "ARCHIVED"
	TimetableFailed     TimetableStatus = "FAILED"
)

// SessionType classifies what kind of session an entry represents.
type SessionType string

const (
	SessionLecture  SessionType = "LECTURE"
	SessionTutorial SessionType = "TUTORIAL"
	SessionLab      SessionType = "LAB"
	SessionStudy    SessionType = "STUDY"
	SessionReview   SessionType = "REVIEW"
	SessionExam     SessionType = "EXAM"
)

// Timetable groups entries and records the latest optimization outcome.
type Timetable struct {
	ID                string          `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	Description       string          `db:"description" json:"description"`
	Status            TimetableStatus `db:"status" json:"status"`
	OptimizationScore float64         `db:"optimization_score" json:"optimization_score"`
	LastOptimizedAt   *time.Time      `db:"last_optimized_at" json:"last_optimized_at,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableEntry links a subject to a time slot within a timetable.
// The (timetable_id, time_slot_id) pair is unique: no double booking.
// Fixed entries are pinned and never reassigned by the solver.
type TimetableEntry struct {
	ID          string      `db:"id" json:"id"`
	TimetableID string      `db:"timetable_id" json:"timetable_id"`
	SubjectID   string      `db:"subject_id" json:"subject_id"`
	TimeSlotID  string      `db:"time_slot_id" json:"time_slot_id"`
	SessionType SessionType `db:"session_type" json:"session_type"`
	Duration    int         `db:"duration" json:"duration"`
	IsFixed     bool        `db:"is_fixed" json:"is_fixed"`
	Weight      float64     `db:"weight" json:"weight"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
