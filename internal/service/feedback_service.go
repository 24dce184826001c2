package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type feedbackRepository interface {
	Create(ctx context.Context, feedback *models.PreferenceFeedback) error
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.PreferenceFeedback, error)
}

// FeedbackService records preference feedback. Ratings are persisted and
// logged for future analysis; nothing in the scoring pipeline reads them.
type FeedbackService struct {
	repo      feedbackRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo feedbackRepository, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{repo: repo, validator: validate, logger: logger}
}

// Record stores one feedback rating.
func (s *FeedbackService) Record(ctx context.Context, req dto.FeedbackRequest) (*models.PreferenceFeedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	feedback := &models.PreferenceFeedback{
		SubjectID:  req.SubjectID,
		TimeSlotID: req.TimeSlotID,
		Rating:     req.Rating,
	}
	if req.Context != nil {
		raw, err := json.Marshal(req.Context)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid feedback context")
		}
		feedback.Context = raw
	}

	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record feedback")
	}

	s.logger.Info("preference feedback recorded",
		zap.String("subject_id", feedback.SubjectID),
		zap.String("time_slot_id", feedback.TimeSlotID),
		zap.Float64("rating", feedback.Rating),
	)
	return feedback, nil
}

// ListBySubject returns recorded feedback for a subject.
func (s *FeedbackService) ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.PreferenceFeedback, error) {
	feedback, err := s.repo.ListBySubject(ctx, subjectID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	return feedback, nil
}
