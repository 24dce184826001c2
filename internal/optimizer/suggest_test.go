package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/models"
)

func TestRankSlotsReturnsTopPlacementsWithAlternatives(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("math", models.PriorityHigh, models.DifficultyHard),
	}
	preferred := makeSlot("mon-9", 1, 9, 10)
	preferred.IsPreferred = true
	slots := []models.TimeSlot{
		preferred,
		makeSlot("mon-11", 1, 11, 12),
		makeSlot("tue-9", 2, 9, 10),
		makeSlot("wed-14", 3, 14, 15),
		makeSlot("fri-19", 5, 19, 20),
	}
	input := solveInput(subjects, slots, nil)

	suggestions := RankSlots(input, nil)

	require.Len(t, suggestions, 3)
	for _, s := range suggestions {
		assert.Equal(t, "math", s.Subject.ID)
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
		assert.NotEmpty(t, s.Recommendation)
		assert.NotEmpty(t, s.Reasons)
	}
	// Best first, then non-increasing.
	assert.GreaterOrEqual(t, suggestions[0].Score, suggestions[1].Score)
	assert.GreaterOrEqual(t, suggestions[1].Score, suggestions[2].Score)
	// The marked preferred morning slot wins for a hard, high priority subject.
	assert.Equal(t, "mon-9", suggestions[0].TimeSlot.ID)
	// Two runner-up alternatives accompany the top pick.
	assert.Len(t, suggestions[0].Alternatives, 2)
}

func TestRankSlotsFiltersBySubjectAndSkipsInactive(t *testing.T) {
	inactive := makeSubject("paused", models.PriorityHigh, models.DifficultyMedium)
	inactive.IsActive = false
	subjects := []models.Subject{
		makeSubject("math", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("art", models.PriorityLow, models.DifficultyEasy),
		inactive,
	}
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		makeSlot("tue-9", 2, 9, 10),
	}
	input := solveInput(subjects, slots, nil)

	all := RankSlots(input, nil)
	onlyArt := RankSlots(input, []string{"art"})

	for _, s := range all {
		assert.NotEqual(t, "paused", s.Subject.ID)
	}
	require.NotEmpty(t, onlyArt)
	for _, s := range onlyArt {
		assert.Equal(t, "art", s.Subject.ID)
	}
}

func TestRankSlotsSkipsUnavailableSlots(t *testing.T) {
	blocked := makeSlot("mon-9", 1, 9, 10)
	blocked.IsAvailable = false
	input := solveInput(
		[]models.Subject{makeSubject("math", models.PriorityMedium, models.DifficultyMedium)},
		[]models.TimeSlot{blocked},
		nil,
	)

	assert.Empty(t, RankSlots(input, nil))
}

func TestRankSlotsAccountsForExistingEntries(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("math", models.PriorityMedium, models.DifficultyMedium),
	}
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		{ID: "mon-1005", DayOfWeek: 1, StartMinute: 10*60 + 5, EndMinute: 11 * 60, IsAvailable: true, Weight: 1},
		makeSlot("tue-9", 2, 9, 10),
	}

	busy := solveInput(subjects, slots, nil)
	busy.ExistingEntries = []models.TimetableEntry{{
		ID:         "existing",
		SubjectID:  "other",
		TimeSlotID: "mon-9",
		Duration:   60,
	}}

	suggestions := RankSlots(busy, nil)
	require.NotEmpty(t, suggestions)

	// The back-to-back Monday slot scores below the free Tuesday morning:
	// the existing session leaves no adequate break before it.
	scores := make(map[string]float64)
	for _, s := range suggestions {
		scores[s.TimeSlot.ID] = s.Score
	}
	assert.Greater(t, scores["tue-9"], scores["mon-1005"])
}

func TestRecommendationBands(t *testing.T) {
	assert.Equal(t, "Excellent time slot for this subject", recommendation(0.9))
	assert.Equal(t, "Good time slot, recommended", recommendation(0.7))
	assert.Equal(t, "Acceptable time slot", recommendation(0.5))
	assert.Equal(t, "Not ideal, consider alternatives", recommendation(0.3))
	assert.Equal(t, "Poor time slot, strongly recommend alternatives", recommendation(0.1))
}
