package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmopt/timetable-api/internal/models"
)

const constraintColumns = "id, name, description, type, severity, is_active, parameters, weight, violation_penalty, subject_scope, time_slot_scope, created_at, updated_at"

// ConstraintRepository handles persistence for scheduling constraints.
type ConstraintRepository struct {
	db *sqlx.DB
}

// NewConstraintRepository creates a new repository instance.
func NewConstraintRepository(db *sqlx.DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// List returns all constraints, active first, hard before soft.
func (r *ConstraintRepository) List(ctx context.Context) ([]models.Constraint, error) {
	query := fmt.Sprintf(`SELECT %s FROM constraints
		ORDER BY is_active DESC,
			CASE severity WHEN 'HARD' THEN 0 WHEN 'SOFT' THEN 1 ELSE 2 END,
			created_at`, constraintColumns)
	var constraints []models.Constraint
	if err := r.db.SelectContext(ctx, &constraints, query); err != nil {
		return nil, fmt.Errorf("list constraints: %w", err)
	}
	return constraints, nil
}

// ListActive returns the constraints currently in force, evaluation order.
func (r *ConstraintRepository) ListActive(ctx context.Context) ([]models.Constraint, error) {
	query := fmt.Sprintf(`SELECT %s FROM constraints WHERE is_active = TRUE
		ORDER BY CASE severity WHEN 'HARD' THEN 0 WHEN 'SOFT' THEN 1 ELSE 2 END, created_at`, constraintColumns)
	var constraints []models.Constraint
	if err := r.db.SelectContext(ctx, &constraints, query); err != nil {
		return nil, fmt.Errorf("list active constraints: %w", err)
	}
	return constraints, nil
}

// FindByID returns a constraint by id.
func (r *ConstraintRepository) FindByID(ctx context.Context, id string) (*models.Constraint, error) {
	query := fmt.Sprintf("SELECT %s FROM constraints WHERE id = $1", constraintColumns)
	var constraint models.Constraint
	if err := r.db.GetContext(ctx, &constraint, query, id); err != nil {
		return nil, err
	}
	return &constraint, nil
}

// Create persists a new constraint.
func (r *ConstraintRepository) Create(ctx context.Context, constraint *models.Constraint) error {
	if constraint.ID == "" {
		constraint.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if constraint.CreatedAt.IsZero() {
		constraint.CreatedAt = now
	}
	constraint.UpdatedAt = now

	const query = `INSERT INTO constraints (id, name, description, type, severity, is_active, parameters, weight, violation_penalty, subject_scope, time_slot_scope, created_at, updated_at)
		VALUES (:id, :name, :description, :type, :severity, :is_active, :parameters, :weight, :violation_penalty, :subject_scope, :time_slot_scope, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, constraint); err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}
	return nil
}

// Update modifies a constraint.
func (r *ConstraintRepository) Update(ctx context.Context, constraint *models.Constraint) error {
	constraint.UpdatedAt = time.Now().UTC()
	const query = `UPDATE constraints SET name = :name, description = :description, type = :type, severity = :severity,
		is_active = :is_active, parameters = :parameters, weight = :weight, violation_penalty = :violation_penalty,
		subject_scope = :subject_scope, time_slot_scope = :time_slot_scope, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, constraint); err != nil {
		return fmt.Errorf("update constraint: %w", err)
	}
	return nil
}

// SetActive toggles a constraint without touching the rest of the record.
func (r *ConstraintRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE constraints SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("toggle constraint: %w", err)
	}
	return nil
}

// Delete removes a constraint record.
func (r *ConstraintRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM constraints WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete constraint: %w", err)
	}
	return nil
}
