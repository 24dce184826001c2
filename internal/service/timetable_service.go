package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type timetableRepository interface {
	List(ctx context.Context) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	FindActive(ctx context.Context) (*models.Timetable, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	Update(ctx context.Context, timetable *models.Timetable) error
	UpdateStatus(ctx context.Context, id string, status models.TimetableStatus) error
	Delete(ctx context.Context, id string) error
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
	CreateEntry(ctx context.Context, entry *models.TimetableEntry) error
	DeleteEntry(ctx context.Context, timetableID, entryID string) error
}

type entrySlotReader interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

type entrySubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// Allowed lifecycle transitions. OPTIMIZING, OPTIMIZED and FAILED are set by
// the optimizer; this table covers user-driven transitions only.
var timetableTransitions = map[models.TimetableStatus][]models.TimetableStatus{
	models.TimetableDraft:     {models.TimetableActive, models.TimetableArchived},
	models.TimetableOptimized: {models.TimetableActive, models.TimetableArchived, models.TimetableDraft},
	models.TimetableFailed:    {models.TimetableDraft, models.TimetableArchived},
	models.TimetableActive:    {models.TimetableArchived},
	models.TimetableArchived:  {models.TimetableDraft},
}

// TimetableService manages timetables, their entries and lifecycle.
type TimetableService struct {
	repo      timetableRepository
	slots     entrySlotReader
	subjects  entrySubjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService creates a new timetable service.
func NewTimetableService(repo timetableRepository, slots entrySlotReader, subjects entrySubjectReader, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, slots: slots, subjects: subjects, validator: validate, logger: logger}
}

// List returns all timetables.
func (s *TimetableService) List(ctx context.Context) ([]models.Timetable, error) {
	timetables, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return timetables, nil
}

// Get returns a timetable by identifier.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	timetable, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

// GetActive returns the currently active timetable.
func (s *TimetableService) GetActive(ctx context.Context) (*models.Timetable, error) {
	timetable, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active timetable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active timetable")
	}
	return timetable, nil
}

// Create registers a new timetable in DRAFT status.
func (s *TimetableService) Create(ctx context.Context, req dto.CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	timetable := &models.Timetable{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.TimetableDraft,
	}
	if err := s.repo.Create(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
	}
	return timetable, nil
}

// Update modifies a timetable's descriptive fields.
func (s *TimetableService) Update(ctx context.Context, id string, req dto.CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	timetable, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	timetable.Name = req.Name
	timetable.Description = req.Description

	if err := s.repo.Update(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable")
	}
	return timetable, nil
}

// Transition moves a timetable through its lifecycle. Activating a timetable
// archives the previously active one.
func (s *TimetableService) Transition(ctx context.Context, id string, target models.TimetableStatus) (*models.Timetable, error) {
	timetable, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(timetable.Status, target) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			"cannot transition timetable from "+string(timetable.Status)+" to "+string(target))
	}

	if target == models.TimetableActive {
		if current, err := s.repo.FindActive(ctx); err == nil && current.ID != id {
			if err := s.repo.UpdateStatus(ctx, current.ID, models.TimetableArchived); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive previous timetable")
			}
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to transition timetable")
	}
	timetable.Status = target
	return timetable, nil
}

// Delete removes a timetable and its entries.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	timetable, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if timetable.Status == models.TimetableActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete the active timetable")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// ListEntries returns a timetable's entries ordered for display.
func (s *TimetableService) ListEntries(ctx context.Context, id string) ([]models.TimetableEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	return entries, nil
}

// AddEntry manually places a subject into a slot, enforcing no double booking.
func (s *TimetableService) AddEntry(ctx context.Context, timetableID string, req dto.CreateEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid entry payload")
	}
	if _, err := s.Get(ctx, timetableID); err != nil {
		return nil, err
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	slot, err := s.slots.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}

	existing, err := s.repo.ListEntries(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	for _, entry := range existing {
		if entry.TimeSlotID == req.TimeSlotID {
			return nil, appErrors.Clone(appErrors.ErrConflict, "time slot already booked in this timetable")
		}
	}

	sessionType := models.SessionType(req.SessionType)
	if sessionType == "" {
		sessionType = models.SessionStudy
	}
	duration := req.Duration
	if duration <= 0 {
		duration = slot.Duration()
	}
	entry := &models.TimetableEntry{
		TimetableID: timetableID,
		SubjectID:   req.SubjectID,
		TimeSlotID:  req.TimeSlotID,
		SessionType: sessionType,
		Duration:    duration,
		IsFixed:     req.IsFixed,
		Weight:      req.Weight,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create entry")
	}
	return entry, nil
}

// RemoveEntry deletes one entry from a timetable.
func (s *TimetableService) RemoveEntry(ctx context.Context, timetableID, entryID string) error {
	if _, err := s.Get(ctx, timetableID); err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, timetableID, entryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete entry")
	}
	return nil
}

func transitionAllowed(from, to models.TimetableStatus) bool {
	for _, allowed := range timetableTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
