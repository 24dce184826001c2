package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tmopt/timetable-api/internal/models"
)

const timeSlotColumns = "id, day_of_week, start_minute, end_minute, is_available, is_preferred, weight, room, capacity, created_at, updated_at"

// TimeSlotRepository handles persistence for weekly time slots.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository creates a new repository instance.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

// List returns time slots matching filters with pagination metadata.
func (r *TimeSlotRepository) List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, int, error) {
	base := "FROM time_slots WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DayOfWeek >= 1 && filter.DayOfWeek <= 7 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "is_available = TRUE")
	}
	if filter.PreferredOnly {
		conditions = append(conditions, "is_preferred = TRUE")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week, start_minute LIMIT %d OFFSET %d", timeSlotColumns, base, size, offset)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list time slots: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count time slots: %w", err)
	}

	return slots, total, nil
}

// ListAll returns every slot ordered by day and start time, the optimizer's
// candidate domain.
func (r *TimeSlotRepository) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots ORDER BY day_of_week, start_minute", timeSlotColumns)
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list all time slots: %w", err)
	}
	return slots, nil
}

// FindByID returns a time slot by id.
func (r *TimeSlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	query := fmt.Sprintf("SELECT %s FROM time_slots WHERE id = $1", timeSlotColumns)
	var slot models.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create persists a new time slot.
func (r *TimeSlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now

	const query = `INSERT INTO time_slots (id, day_of_week, start_minute, end_minute, is_available, is_preferred, weight, room, capacity, created_at, updated_at)
		VALUES (:id, :day_of_week, :start_minute, :end_minute, :is_available, :is_preferred, :weight, :room, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// Update modifies a time slot.
func (r *TimeSlotRepository) Update(ctx context.Context, slot *models.TimeSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_slots SET day_of_week = :day_of_week, start_minute = :start_minute, end_minute = :end_minute,
		is_available = :is_available, is_preferred = :is_preferred, weight = :weight, room = :room, capacity = :capacity,
		updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	return nil
}

// Delete removes a time slot record.
func (r *TimeSlotRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	return nil
}

// CountTimetableEntries returns the number of entries referencing the slot.
func (r *TimeSlotRepository) CountTimetableEntries(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM timetable_entries WHERE time_slot_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count timetable entries: %w", err)
	}
	return count, nil
}
