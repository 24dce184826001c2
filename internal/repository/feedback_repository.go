package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmopt/timetable-api/internal/models"
)

// FeedbackRepository stores preference feedback for later analysis.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository creates a new repository instance.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create persists a feedback record.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.PreferenceFeedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO preference_feedback (id, subject_id, time_slot_id, rating, context, created_at)
		VALUES (:id, :subject_id, :time_slot_id, :rating, :context, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// ListBySubject returns feedback for a subject, newest first.
func (r *FeedbackRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.PreferenceFeedback, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const query = `SELECT id, subject_id, time_slot_id, rating, context, created_at
		FROM preference_feedback WHERE subject_id = $1 ORDER BY created_at DESC LIMIT $2`
	var feedback []models.PreferenceFeedback
	if err := r.db.SelectContext(ctx, &feedback, query, subjectID, limit); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return feedback, nil
}
