package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type optimizerSubjectStub struct {
	items []models.Subject
	err   error
}

func (s *optimizerSubjectStub) ListActive(ctx context.Context) ([]models.Subject, error) {
	return s.items, s.err
}

type optimizerSlotStub struct {
	items []models.TimeSlot
	err   error
}

func (s *optimizerSlotStub) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	return s.items, s.err
}

type optimizerConstraintStub struct {
	items []models.Constraint
	err   error
}

func (s *optimizerConstraintStub) ListActive(ctx context.Context) ([]models.Constraint, error) {
	return s.items, s.err
}

type optimizerPreferenceStub struct {
	prefs models.UserPreferences
	err   error
}

func (s *optimizerPreferenceStub) Get(ctx context.Context) (models.UserPreferences, error) {
	return s.prefs, s.err
}

type optimizerTimetableStoreStub struct {
	timetable *models.Timetable
	findErr   error
	fixed     []models.TimetableEntry

	replaced       []models.TimetableEntry
	replaceCalled  bool
	replaceErr     error
	statuses       []models.TimetableStatus
	recordedStatus models.TimetableStatus
	recordedScore  float64
}

func (s *optimizerTimetableStoreStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.timetable == nil {
		return nil, sql.ErrNoRows
	}
	return s.timetable, nil
}

func (s *optimizerTimetableStoreStub) ListFixedEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	return s.fixed, nil
}

func (s *optimizerTimetableStoreStub) ReplaceEntries(ctx context.Context, timetableID string, entries []models.TimetableEntry) error {
	s.replaceCalled = true
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = entries
	return nil
}

func (s *optimizerTimetableStoreStub) UpdateStatus(ctx context.Context, id string, status models.TimetableStatus) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *optimizerTimetableStoreStub) RecordOptimization(ctx context.Context, id string, status models.TimetableStatus, score float64) error {
	s.recordedStatus = status
	s.recordedScore = score
	return nil
}

func newOptimizationFixture(store *optimizerTimetableStoreStub, subjects []models.Subject, slots []models.TimeSlot) *OptimizationService {
	return NewOptimizationService(
		&optimizerSubjectStub{items: subjects},
		&optimizerSlotStub{items: slots},
		&optimizerConstraintStub{},
		&optimizerPreferenceStub{prefs: models.DefaultUserPreferences()},
		store,
		NewCacheService(nil, nil, time.Minute, nil, false),
		nil,
		nil,
		nil,
		OptimizationConfig{Timeout: 5 * time.Second},
	)
}

func morningSlot(id string, day, startMinute int) models.TimeSlot {
	return models.TimeSlot{
		ID:          id,
		DayOfWeek:   day,
		StartMinute: startMinute,
		EndMinute:   startMinute + 60,
		IsAvailable: true,
		Weight:      1,
	}
}

func TestOptimizeRunsSolverAndPersistsResult(t *testing.T) {
	store := &optimizerTimetableStoreStub{
		timetable: &models.Timetable{ID: "tt-1", Name: "Week 1", Status: models.TimetableDraft},
	}
	subjects := []models.Subject{
		{ID: "subj-math", Code: "MATH", Name: "Mathematics", Priority: models.PriorityHigh, Difficulty: models.DifficultyHard, IsActive: true},
		{ID: "subj-hist", Code: "HIST", Name: "History", Priority: models.PriorityLow, Difficulty: models.DifficultyEasy, IsActive: true},
	}
	slots := []models.TimeSlot{
		morningSlot("slot-mon-9", 1, 540),
		morningSlot("slot-tue-9", 2, 540),
		morningSlot("slot-wed-9", 3, 540),
	}
	svc := newOptimizationFixture(store, subjects, slots)

	resp, err := svc.Optimize(context.Background(), "tt-1", dto.OptimizeRequest{})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, "tt-1", resp.TimetableID)
	assert.Len(t, resp.Entries, 2)
	assert.Greater(t, resp.Score, 0.0)

	assert.Contains(t, store.statuses, models.TimetableOptimizing)
	assert.Equal(t, models.TimetableOptimized, store.recordedStatus)
	assert.InDelta(t, resp.Score, store.recordedScore, 0.001)
	require.Len(t, store.replaced, 2)

	// Entries come back enriched with slot and subject context.
	for _, entry := range resp.Entries {
		assert.NotEmpty(t, entry.Day)
		assert.NotEmpty(t, entry.SubjectName)
		assert.Equal(t, 600, entry.EndMinute)
	}
}

func TestOptimizePreservesFixedEntries(t *testing.T) {
	fixed := models.TimetableEntry{
		ID:          "entry-fixed",
		TimetableID: "tt-1",
		SubjectID:   "subj-math",
		TimeSlotID:  "slot-mon-9",
		SessionType: models.SessionLecture,
		Duration:    60,
		IsFixed:     true,
		Weight:      1,
	}
	store := &optimizerTimetableStoreStub{
		timetable: &models.Timetable{ID: "tt-1", Status: models.TimetableDraft},
		fixed:     []models.TimetableEntry{fixed},
	}
	subjects := []models.Subject{
		{ID: "subj-math", Priority: models.PriorityHigh, Difficulty: models.DifficultyHard, IsActive: true},
		{ID: "subj-hist", Priority: models.PriorityLow, Difficulty: models.DifficultyEasy, IsActive: true},
	}
	slots := []models.TimeSlot{
		morningSlot("slot-mon-9", 1, 540),
		morningSlot("slot-tue-9", 2, 540),
	}
	svc := newOptimizationFixture(store, subjects, slots)

	resp, err := svc.Optimize(context.Background(), "tt-1", dto.OptimizeRequest{})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Entries, 2)

	var pinned *dto.EntryResponse
	for i := range resp.Entries {
		if resp.Entries[i].ID == "entry-fixed" {
			pinned = &resp.Entries[i]
		} else {
			// The pinned subject's slot is off limits for everyone else.
			assert.NotEqual(t, "slot-mon-9", resp.Entries[i].TimeSlotID)
		}
	}
	require.NotNil(t, pinned)
	assert.True(t, pinned.IsFixed)
	assert.Equal(t, "slot-mon-9", pinned.TimeSlotID)
}

func TestOptimizeTimetableNotFound(t *testing.T) {
	svc := newOptimizationFixture(&optimizerTimetableStoreStub{}, nil, nil)

	_, err := svc.Optimize(context.Background(), "missing", dto.OptimizeRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOptimizeRejectsConcurrentRun(t *testing.T) {
	store := &optimizerTimetableStoreStub{
		timetable: &models.Timetable{ID: "tt-1", Status: models.TimetableDraft},
	}
	svc := newOptimizationFixture(store, nil, nil)
	require.True(t, svc.acquire("tt-1"))
	defer svc.release("tt-1")

	_, err := svc.Optimize(context.Background(), "tt-1", dto.OptimizeRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOptimizationRunning.Code, appErrors.FromError(err).Code)
}

func TestOptimizeInfeasibleMarksTimetableFailed(t *testing.T) {
	store := &optimizerTimetableStoreStub{
		timetable: &models.Timetable{ID: "tt-1", Status: models.TimetableDraft},
	}
	subjects := []models.Subject{
		{ID: "subj-math", Priority: models.PriorityHigh, Difficulty: models.DifficultyHard, IsActive: true},
	}
	// No available slots: nothing can be placed.
	svc := newOptimizationFixture(store, subjects, nil)

	resp, err := svc.Optimize(context.Background(), "tt-1", dto.OptimizeRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Empty(t, resp.Entries)
	assert.False(t, store.replaceCalled)
	assert.Equal(t, models.TimetableFailed, store.recordedStatus)
	assert.Zero(t, store.recordedScore)
}

func TestOptimizeAsyncRequiresQueue(t *testing.T) {
	store := &optimizerTimetableStoreStub{
		timetable: &models.Timetable{ID: "tt-1", Status: models.TimetableDraft},
	}
	svc := newOptimizationFixture(store, nil, nil)

	_, err := svc.OptimizeAsync(context.Background(), "tt-1", dto.OptimizeRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestRunStatusNotFoundWithoutRecord(t *testing.T) {
	svc := newOptimizationFixture(&optimizerTimetableStoreStub{}, nil, nil)

	_, err := svc.RunStatus(context.Background(), "run-unknown")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
