package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	"github.com/tmopt/timetable-api/internal/optimizer"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

const suggestionKeyPrefix = "suggestions:"

type suggestionSubjectSource interface {
	ListActive(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type suggestionSlotSource interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

type suggestionEntrySource interface {
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
}

// SuggestionService ranks candidate slots for subjects using the heuristic
// scorer, with results cached per request shape.
type SuggestionService struct {
	subjects  suggestionSubjectSource
	slots     suggestionSlotSource
	entries   suggestionEntrySource
	prefs     optimizerPreferenceSource
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSuggestionService wires suggestion dependencies.
func NewSuggestionService(
	subjects suggestionSubjectSource,
	slots suggestionSlotSource,
	entries suggestionEntrySource,
	prefs optimizerPreferenceSource,
	cache *CacheService,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *SuggestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &SuggestionService{
		subjects:  subjects,
		slots:     slots,
		entries:   entries,
		prefs:     prefs,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// Suggest returns ranked slot placements for the requested subjects, or for
// every active subject when none are named.
func (s *SuggestionService) Suggest(ctx context.Context, req dto.SuggestionRequest) ([]dto.SuggestionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	key := suggestionCacheKey(req)
	var cached []dto.SuggestionResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	input, err := s.buildInput(ctx, req.TimetableID)
	if err != nil {
		return nil, err
	}

	suggestions := optimizer.RankSlots(*input, req.SubjectIDs)
	responses := make([]dto.SuggestionResponse, 0, len(suggestions))
	for _, suggestion := range suggestions {
		responses = append(responses, dto.SuggestionResponse{
			Subject:        suggestion.Subject,
			TimeSlot:       suggestion.TimeSlot,
			Score:          suggestion.Score,
			Confidence:     suggestion.Confidence,
			Reasons:        suggestion.Reasons,
			Recommendation: suggestion.Recommendation,
			Alternatives:   suggestion.Alternatives,
		})
	}

	if err := s.cache.Set(ctx, key, responses, s.cacheTTL); err != nil {
		s.logger.Warn("cache suggestions failed", zap.Error(err))
	}
	return responses, nil
}

// ScoreSlot evaluates one subject against one slot in the context of the
// current timetable occupancy.
func (s *SuggestionService) ScoreSlot(ctx context.Context, timetableID string, req dto.ScoreSlotRequest) (*dto.ScoreSlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, fmt.Errorf("load subject: %w", err)
	}
	slot, err := s.slots.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, fmt.Errorf("load time slot: %w", err)
	}

	input, err := s.buildInput(ctx, timetableID)
	if err != nil {
		return nil, err
	}

	sched := optimizer.NewSchedulingContext(input.Preferences)
	slotByID := make(map[string]*models.TimeSlot, len(input.TimeSlots))
	for i := range input.TimeSlots {
		slotByID[input.TimeSlots[i].ID] = &input.TimeSlots[i]
	}
	for _, entry := range input.ExistingEntries {
		if existing, ok := slotByID[entry.TimeSlotID]; ok {
			sched.Add(existing)
		}
	}

	score := optimizer.ScoreSlot(subject, slot, sched)
	return &dto.ScoreSlotResponse{
		SubjectID:  subject.ID,
		TimeSlotID: slot.ID,
		Score:      score.Value,
		Confidence: score.Confidence,
		Reasons:    score.Reasons,
	}, nil
}

// InvalidateCache drops cached suggestions after entity mutations.
func (s *SuggestionService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, suggestionKeyPrefix+"*"); err != nil {
		s.logger.Warn("invalidate suggestion cache failed", zap.Error(err))
	}
}

func (s *SuggestionService) buildInput(ctx context.Context, timetableID string) (*optimizer.Input, error) {
	subjects, err := s.subjects.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := s.prefs.Get(ctx)
	if err != nil {
		return nil, err
	}

	var entries []models.TimetableEntry
	if timetableID != "" {
		entries, err = s.entries.ListEntries(ctx, timetableID)
		if err != nil {
			return nil, fmt.Errorf("load timetable entries: %w", err)
		}
	}

	return &optimizer.Input{
		Subjects:        subjects,
		TimeSlots:       slots,
		Preferences:     prefs,
		ExistingEntries: entries,
	}, nil
}

func suggestionCacheKey(req dto.SuggestionRequest) string {
	ids := append([]string(nil), req.SubjectIDs...)
	sort.Strings(ids)
	return suggestionKeyPrefix + req.TimetableID + ":" + strings.Join(ids, ",")
}
