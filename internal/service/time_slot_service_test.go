package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type timeSlotRepoStub struct {
	items      map[string]models.TimeSlot
	entryCount int

	created *models.TimeSlot
	updated *models.TimeSlot
	deleted string
}

func newTimeSlotRepoStub(items ...models.TimeSlot) *timeSlotRepoStub {
	stub := &timeSlotRepoStub{items: make(map[string]models.TimeSlot)}
	for _, item := range items {
		stub.items[item.ID] = item
	}
	return stub
}

func (s *timeSlotRepoStub) List(ctx context.Context, filter models.TimeSlotFilter) ([]models.TimeSlot, int, error) {
	all, _ := s.ListAll(ctx)
	return all, len(all), nil
}

func (s *timeSlotRepoStub) ListAll(ctx context.Context) ([]models.TimeSlot, error) {
	result := make([]models.TimeSlot, 0, len(s.items))
	for _, item := range s.items {
		result = append(result, item)
	}
	return result, nil
}

func (s *timeSlotRepoStub) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if item, ok := s.items[id]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

func (s *timeSlotRepoStub) Create(ctx context.Context, slot *models.TimeSlot) error {
	slot.ID = "slot-new"
	s.created = slot
	s.items[slot.ID] = *slot
	return nil
}

func (s *timeSlotRepoStub) Update(ctx context.Context, slot *models.TimeSlot) error {
	s.updated = slot
	s.items[slot.ID] = *slot
	return nil
}

func (s *timeSlotRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = id
	delete(s.items, id)
	return nil
}

func (s *timeSlotRepoStub) CountTimetableEntries(ctx context.Context, id string) (int, error) {
	return s.entryCount, nil
}

func TestTimeSlotCreateAppliesDefaults(t *testing.T) {
	repo := newTimeSlotRepoStub()
	svc := NewTimeSlotService(repo, nil, nil)

	slot, err := svc.Create(context.Background(), dto.CreateTimeSlotRequest{
		DayOfWeek:   1,
		StartMinute: 540,
		EndMinute:   600,
	})
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)
	assert.Equal(t, 1.0, slot.Weight)
	require.NotNil(t, repo.created)
}

func TestTimeSlotCreateRejectsOverlap(t *testing.T) {
	repo := newTimeSlotRepoStub(models.TimeSlot{
		ID: "slot-mon-9", DayOfWeek: 1, StartMinute: 540, EndMinute: 600,
	})
	svc := NewTimeSlotService(repo, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateTimeSlotRequest{
		DayOfWeek:   1,
		StartMinute: 570,
		EndMinute:   630,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTimeSlotCreateAllowsTouchingSlots(t *testing.T) {
	repo := newTimeSlotRepoStub(models.TimeSlot{
		ID: "slot-mon-9", DayOfWeek: 1, StartMinute: 540, EndMinute: 600,
	})
	svc := NewTimeSlotService(repo, nil, nil)

	// Half-open intervals: back to back slots do not collide.
	slot, err := svc.Create(context.Background(), dto.CreateTimeSlotRequest{
		DayOfWeek:   1,
		StartMinute: 600,
		EndMinute:   660,
	})
	require.NoError(t, err)
	assert.Equal(t, 600, slot.StartMinute)
}

func TestTimeSlotUpdateValidatesBounds(t *testing.T) {
	repo := newTimeSlotRepoStub(models.TimeSlot{
		ID: "slot-mon-9", DayOfWeek: 1, StartMinute: 540, EndMinute: 600,
	})
	svc := NewTimeSlotService(repo, nil, nil)

	end := 500
	_, err := svc.Update(context.Background(), "slot-mon-9", dto.UpdateTimeSlotRequest{EndMinute: &end})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeSlotDeleteGuardedByUsage(t *testing.T) {
	repo := newTimeSlotRepoStub(models.TimeSlot{ID: "slot-mon-9", DayOfWeek: 1, StartMinute: 540, EndMinute: 600})
	repo.entryCount = 2
	svc := NewTimeSlotService(repo, nil, nil)

	err := svc.Delete(context.Background(), "slot-mon-9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	repo.entryCount = 0
	require.NoError(t, svc.Delete(context.Background(), "slot-mon-9"))
	assert.Equal(t, "slot-mon-9", repo.deleted)
}
