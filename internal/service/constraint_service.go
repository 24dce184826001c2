package service

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type constraintRepository interface {
	List(ctx context.Context) ([]models.Constraint, error)
	FindByID(ctx context.Context, id string) (*models.Constraint, error)
	Create(ctx context.Context, constraint *models.Constraint) error
	Update(ctx context.Context, constraint *models.Constraint) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

var knownConstraintTypes = map[models.ConstraintType]bool{
	models.ConstraintTimeConflict:           true,
	models.ConstraintRoomCapacity:           true,
	models.ConstraintInstructorAvailability: true,
	models.ConstraintSubjectPrerequisite:    true,
	models.ConstraintMaxHoursPerDay:         true,
	models.ConstraintMinBreakDuration:       true,
	models.ConstraintConsecutiveSessions:    true,
	models.ConstraintPreferredTimeSlot:      true,
	models.ConstraintAvoidTimeSlot:          true,
	models.ConstraintSameDaySubjects:        true,
	models.ConstraintDifferentDaySubjects:   true,
	models.ConstraintWorkloadBalance:        true,
	models.ConstraintCustom:                 true,
}

// ConstraintService handles constraint administration.
type ConstraintService struct {
	repo      constraintRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConstraintService creates a new constraint service.
func NewConstraintService(repo constraintRepository, validate *validator.Validate, logger *zap.Logger) *ConstraintService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{repo: repo, validator: validate, logger: logger}
}

// List returns all constraints.
func (s *ConstraintService) List(ctx context.Context) ([]models.Constraint, error) {
	constraints, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list constraints")
	}
	return constraints, nil
}

// Get returns a constraint by identifier.
func (s *ConstraintService) Get(ctx context.Context, id string) (*models.Constraint, error) {
	constraint, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "constraint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load constraint")
	}
	return constraint, nil
}

// Create registers a new constraint.
func (s *ConstraintService) Create(ctx context.Context, req dto.ConstraintRequest) (*models.Constraint, error) {
	constraint, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, constraint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create constraint")
	}
	return constraint, nil
}

// Update replaces a constraint's definition.
func (s *ConstraintService) Update(ctx context.Context, id string, req dto.ConstraintRequest) (*models.Constraint, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	constraint, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	constraint.ID = existing.ID
	constraint.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, constraint); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update constraint")
	}
	return constraint, nil
}

// SetActive toggles a constraint.
func (s *ConstraintService) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle constraint")
	}
	return nil
}

// Delete removes a constraint.
func (s *ConstraintService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete constraint")
	}
	return nil
}

func (s *ConstraintService) fromRequest(req dto.ConstraintRequest) (*models.Constraint, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid constraint payload")
	}
	ctype := models.ConstraintType(req.Type)
	if !knownConstraintTypes[ctype] {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown constraint type")
	}
	severity := models.ConstraintSeverity(req.Severity)
	if !severity.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown constraint severity")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	constraint := &models.Constraint{
		Name:             req.Name,
		Description:      req.Description,
		Type:             ctype,
		Severity:         severity,
		IsActive:         active,
		Weight:           req.Weight,
		ViolationPenalty: req.ViolationPenalty,
	}

	if req.Parameters != nil {
		raw, err := json.Marshal(req.Parameters)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid constraint parameters")
		}
		constraint.Parameters = raw
	}
	if len(req.SubjectScope) > 0 {
		raw, err := json.Marshal(req.SubjectScope)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid subject scope")
		}
		constraint.SubjectScope = raw
	}
	if len(req.TimeSlotScope) > 0 {
		raw, err := json.Marshal(req.TimeSlotScope)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid time slot scope")
		}
		constraint.TimeSlotScope = raw
	}

	return constraint, nil
}
