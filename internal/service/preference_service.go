package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type preferenceRepository interface {
	Get(ctx context.Context) (models.UserPreferences, error)
	Upsert(ctx context.Context, prefs *models.UserPreferences) error
}

// PreferenceService manages the user scheduling preferences.
type PreferenceService struct {
	repo      preferenceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService creates a new preference service.
func NewPreferenceService(repo preferenceRepository, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, validator: validate, logger: logger}
}

// Get returns the stored preferences, falling back to defaults.
func (s *PreferenceService) Get(ctx context.Context) (models.UserPreferences, error) {
	prefs, err := s.repo.Get(ctx)
	if err != nil {
		return models.UserPreferences{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	return prefs, nil
}

// Save replaces the preferences with the provided values.
func (s *PreferenceService) Save(ctx context.Context, req dto.PreferencesRequest) (models.UserPreferences, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.UserPreferences{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences payload")
	}

	current, err := s.repo.Get(ctx)
	if err != nil {
		return models.UserPreferences{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}

	current.PreferredStartMinute = req.PreferredStartMinute
	current.PreferredEndMinute = req.PreferredEndMinute
	current.MaxHoursPerDay = req.MaxHoursPerDay
	current.MinBreakMinutes = req.MinBreakMinutes
	current.MaxConsecutiveHours = req.MaxConsecutiveHours
	current.EnergyPeak = models.EnergyPeak(req.EnergyPeak)
	current.AllowWeekends = req.AllowWeekends
	current.AllowEvenings = req.AllowEvenings
	current.BalanceWorkload = req.BalanceWorkload
	current.PrioritizeConsistency = req.PrioritizeConsistency

	if err := s.repo.Upsert(ctx, &current); err != nil {
		return models.UserPreferences{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preferences")
	}

	s.logger.Info("preferences updated",
		zap.String("energy_peak", string(current.EnergyPeak)),
		zap.Int("max_hours_per_day", current.MaxHoursPerDay),
	)
	return current, nil
}
