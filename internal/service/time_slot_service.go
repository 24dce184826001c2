package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type timeSlotRepository interface {
	List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, int, error)
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
	Update(ctx context.Context, slot *models.TimeSlot) error
	Delete(ctx context.Context, id string) error
	CountTimetableEntries(ctx context.Context, id string) (int, error)
}

// TimeSlotService handles time slot domain workflows.
type TimeSlotService struct {
	repo      timeSlotRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimeSlotService creates a new time slot service.
func NewTimeSlotService(repo timeSlotRepository, validate *validator.Validate, logger *zap.Logger) *TimeSlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated time slots.
func (s *TimeSlotService) List(ctx context.Context, query dto.TimeSlotQuery) ([]models.TimeSlot, *models.Pagination, error) {
	filter := models.TimeSlotFilter{
		DayOfWeek:     query.DayOfWeek,
		AvailableOnly: query.AvailableOnly,
		PreferredOnly: query.PreferredOnly,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	slots, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return slots, pagination, nil
}

// Get returns a time slot by identifier.
func (s *TimeSlotService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	return slot, nil
}

// Create adds a new time slot, rejecting overlaps with existing slots on the
// same day.
func (s *TimeSlotService) Create(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	weight := req.Weight
	if weight <= 0 {
		weight = 1
	}
	slot := &models.TimeSlot{
		DayOfWeek:   req.DayOfWeek,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		IsAvailable: available,
		IsPreferred: req.IsPreferred,
		Weight:      weight,
		Room:        req.Room,
		Capacity:    req.Capacity,
	}

	if err := s.checkOverlap(ctx, slot, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time slot")
	}
	return slot, nil
}

// Update modifies an existing time slot.
func (s *TimeSlotService) Update(ctx context.Context, id string, req dto.UpdateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	if req.DayOfWeek != 0 {
		slot.DayOfWeek = req.DayOfWeek
	}
	if req.StartMinute != nil {
		slot.StartMinute = *req.StartMinute
	}
	if req.EndMinute != nil {
		slot.EndMinute = *req.EndMinute
	}
	if slot.EndMinute <= slot.StartMinute {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot must end after it starts")
	}
	if req.IsAvailable != nil {
		slot.IsAvailable = *req.IsAvailable
	}
	if req.IsPreferred != nil {
		slot.IsPreferred = *req.IsPreferred
	}
	if req.Weight != nil {
		slot.Weight = *req.Weight
	}
	if req.Room != nil {
		slot.Room = req.Room
	}
	if req.Capacity != nil {
		slot.Capacity = req.Capacity
	}

	if err := s.checkOverlap(ctx, slot, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time slot")
	}
	return slot, nil
}

// Delete removes a time slot when no timetable entries reference it.
func (s *TimeSlotService) Delete(ctx context.Context, id string) error {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	count, err := s.repo.CountTimetableEntries(ctx, slot.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check time slot dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "time slot is used by a timetable")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete time slot")
	}
	return nil
}

func (s *TimeSlotService) checkOverlap(ctx context.Context, candidate *models.TimeSlot, excludeID string) error {
	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot overlap")
	}
	for i := range existing {
		if existing[i].ID == excludeID {
			continue
		}
		if candidate.Overlaps(&existing[i]) {
			return appErrors.Clone(appErrors.ErrConflict, "time slot overlaps "+existing[i].DisplayName())
		}
	}
	return nil
}
