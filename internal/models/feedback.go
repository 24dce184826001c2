package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PreferenceFeedback records a user's rating of a subject/slot pairing.
// Feedback is persisted and logged for future analysis only; nothing in the
// scoring pipeline consumes it.
type PreferenceFeedback struct {
	ID         string         `db:"id" json:"id"`
	SubjectID  string         `db:"subject_id" json:"subject_id"`
	TimeSlotID string         `db:"time_slot_id" json:"time_slot_id"`
	Rating     float64        `db:"rating" json:"rating"`
	Context    types.JSONText `db:"context" json:"context,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
