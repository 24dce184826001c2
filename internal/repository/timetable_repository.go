package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmopt/timetable-api/internal/models"
)

const timetableColumns = "id, name, description, status, optimization_score, last_optimized_at, created_at, updated_at"
const entryColumns = "id, timetable_id, subject_id, time_slot_id, session_type, duration, is_fixed, weight, created_at, updated_at"

// TimetableRepository handles persistence for timetables and their entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository creates a new repository instance.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// List returns all timetables, newest first.
func (r *TimetableRepository) List(ctx context.Context) ([]models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables ORDER BY created_at DESC", timetableColumns)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return timetables, nil
}

// FindByID returns a timetable by id.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE id = $1", timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// FindActive returns the currently active timetable, if any.
func (r *TimetableRepository) FindActive(ctx context.Context) (*models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE status = $1 ORDER BY updated_at DESC LIMIT 1", timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, models.TimetableActive); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// Create persists a new timetable in DRAFT status.
func (r *TimetableRepository) Create(ctx context.Context, timetable *models.Timetable) error {
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.TimetableDraft
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	const query = `INSERT INTO timetables (id, name, description, status, optimization_score, last_optimized_at, created_at, updated_at)
		VALUES (:id, :name, :description, :status, :optimization_score, :last_optimized_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, timetable); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// Update modifies a timetable's descriptive fields.
func (r *TimetableRepository) Update(ctx context.Context, timetable *models.Timetable) error {
	timetable.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetables SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, timetable); err != nil {
		return fmt.Errorf("update timetable: %w", err)
	}
	return nil
}

// UpdateStatus transitions the lifecycle state.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, id string, status models.TimetableStatus) error {
	const query = `UPDATE timetables SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	return nil
}

// RecordOptimization stores the outcome of a completed solver run.
func (r *TimetableRepository) RecordOptimization(ctx context.Context, id string, status models.TimetableStatus, score float64) error {
	now := time.Now().UTC()
	const query = `UPDATE timetables SET status = $2, optimization_score = $3, last_optimized_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, score, now); err != nil {
		return fmt.Errorf("record optimization: %w", err)
	}
	return nil
}

// Delete removes a timetable and, via FK cascade, its entries.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	return nil
}

// ListEntries returns the entries of a timetable ordered for display.
func (r *TimetableRepository) ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	const query = `SELECT e.id, e.timetable_id, e.subject_id, e.time_slot_id, e.session_type, e.duration, e.is_fixed, e.weight, e.created_at, e.updated_at
		FROM timetable_entries e
		JOIN time_slots s ON s.id = e.time_slot_id
		WHERE e.timetable_id = $1
		ORDER BY s.day_of_week, s.start_minute`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListFixedEntries returns only the pinned entries of a timetable.
func (r *TimetableRepository) ListFixedEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE timetable_id = $1 AND is_fixed = TRUE", entryColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, timetableID); err != nil {
		return nil, fmt.Errorf("list fixed entries: %w", err)
	}
	return entries, nil
}

// ReplaceEntries swaps a timetable's non-fixed entries for a new assignment
// in a single transaction. Fixed entries are preserved untouched; the solver
// re-emits them as part of its result, so incoming rows that collide with a
// pinned (timetable_id, time_slot_id) pair are skipped.
func (r *TimetableRepository) ReplaceEntries(ctx context.Context, timetableID string, entries []models.TimetableEntry) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace entries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE timetable_id = $1 AND is_fixed = FALSE`, timetableID); err != nil {
		return fmt.Errorf("clear timetable entries: %w", err)
	}

	fixedSlots := make(map[string]bool)
	var fixedIDs []string
	if err = tx.SelectContext(ctx, &fixedIDs, `SELECT time_slot_id FROM timetable_entries WHERE timetable_id = $1`, timetableID); err != nil {
		return fmt.Errorf("load fixed slots: %w", err)
	}
	for _, id := range fixedIDs {
		fixedSlots[id] = true
	}

	const insert = `INSERT INTO timetable_entries (id, timetable_id, subject_id, time_slot_id, session_type, duration, is_fixed, weight, created_at, updated_at)
		VALUES (:id, :timetable_id, :subject_id, :time_slot_id, :session_type, :duration, :is_fixed, :weight, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range entries {
		entry := &entries[i]
		if fixedSlots[entry.TimeSlotID] {
			continue
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.TimetableID = timetableID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, insert, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace entries: %w", err)
	}
	return nil
}

// CreateEntry persists a single manually placed entry.
func (r *TimetableRepository) CreateEntry(ctx context.Context, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO timetable_entries (id, timetable_id, subject_id, time_slot_id, session_type, duration, is_fixed, weight, created_at, updated_at)
		VALUES (:id, :timetable_id, :subject_id, :time_slot_id, :session_type, :duration, :is_fixed, :weight, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create timetable entry: %w", err)
	}
	return nil
}

// DeleteEntry removes one entry.
func (r *TimetableRepository) DeleteEntry(ctx context.Context, timetableID, entryID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1 AND timetable_id = $2`, entryID, timetableID); err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	return nil
}
