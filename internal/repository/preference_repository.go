package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmopt/timetable-api/internal/models"
)

// PreferenceRepository stores the single user preference record.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new repository instance.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored preferences, or the defaults when none were saved.
func (r *PreferenceRepository) Get(ctx context.Context) (models.UserPreferences, error) {
	const query = `SELECT id, preferred_start_minute, preferred_end_minute, max_hours_per_day, min_break_minutes,
		max_consecutive_hours, energy_peak, allow_weekends, allow_evenings, balance_workload, prioritize_consistency,
		created_at, updated_at
		FROM user_preferences ORDER BY updated_at DESC LIMIT 1`
	var prefs models.UserPreferences
	if err := r.db.GetContext(ctx, &prefs, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultUserPreferences(), nil
		}
		return models.UserPreferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// Upsert saves the preference record, replacing any previous one.
func (r *PreferenceRepository) Upsert(ctx context.Context, prefs *models.UserPreferences) error {
	if prefs.ID == "" || prefs.ID == "default" {
		prefs.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if prefs.CreatedAt.IsZero() {
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now

	const query = `INSERT INTO user_preferences (id, preferred_start_minute, preferred_end_minute, max_hours_per_day,
			min_break_minutes, max_consecutive_hours, energy_peak, allow_weekends, allow_evenings, balance_workload,
			prioritize_consistency, created_at, updated_at)
		VALUES (:id, :preferred_start_minute, :preferred_end_minute, :max_hours_per_day, :min_break_minutes,
			:max_consecutive_hours, :energy_peak, :allow_weekends, :allow_evenings, :balance_workload,
			:prioritize_consistency, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			preferred_start_minute = EXCLUDED.preferred_start_minute,
			preferred_end_minute = EXCLUDED.preferred_end_minute,
			max_hours_per_day = EXCLUDED.max_hours_per_day,
			min_break_minutes = EXCLUDED.min_break_minutes,
			max_consecutive_hours = EXCLUDED.max_consecutive_hours,
			energy_peak = EXCLUDED.energy_peak,
			allow_weekends = EXCLUDED.allow_weekends,
			allow_evenings = EXCLUDED.allow_evenings,
			balance_workload = EXCLUDED.balance_workload,
			prioritize_consistency = EXCLUDED.prioritize_consistency,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, prefs); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}
