package optimizer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/models"
)

func makeSubject(id string, priority models.Priority, difficulty models.Difficulty) models.Subject {
	return models.Subject{
		ID:         id,
		Code:       id,
		Name:       "Subject " + id,
		Priority:   priority,
		Difficulty: difficulty,
		IsActive:   true,
	}
}

func makeSlot(id string, day, startHour, endHour int) models.TimeSlot {
	return models.TimeSlot{
		ID:          id,
		DayOfWeek:   day,
		StartMinute: startHour * 60,
		EndMinute:   endHour * 60,
		IsAvailable: true,
		Weight:      1,
	}
}

func solveInput(subjects []models.Subject, slots []models.TimeSlot, constraints []models.Constraint) Input {
	return Input{
		Subjects:    subjects,
		TimeSlots:   slots,
		Constraints: constraints,
		Preferences: models.DefaultUserPreferences(),
	}
}

func TestSolveAssignsAllSubjectsAcrossSlots(t *testing.T) {
	// Three subjects, three non-overlapping slots, one Monday slot preferred,
	// the implicit time-conflict rule in force.
	subjects := []models.Subject{
		makeSubject("high", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("medium", models.PriorityMedium, models.DifficultyMedium),
		makeSubject("low", models.PriorityLow, models.DifficultyMedium),
	}
	preferred := makeSlot("mon-9", 1, 9, 10)
	preferred.IsPreferred = true
	slots := []models.TimeSlot{
		preferred,
		makeSlot("mon-10", 1, 10, 11),
		makeSlot("tue-9", 2, 9, 10),
	}

	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{Timeout: 10 * time.Second})

	require.True(t, result.Success, result.Message)
	require.Len(t, result.Entries, 3)
	assert.Empty(t, result.Violations)

	// Priority weights 3+2+1 each times 10, plus 5 for the preferred slot.
	assert.Equal(t, 65.0, result.Score)

	bySlot := make(map[string]string)
	for _, entry := range result.Entries {
		bySlot[entry.TimeSlotID] = entry.SubjectID
		assert.Equal(t, models.SessionStudy, entry.SessionType)
		assert.Equal(t, 60, entry.Duration)
		assert.Equal(t, "tt-1", entry.TimetableID)
		assert.NotEmpty(t, entry.ID)
	}
	assert.Len(t, bySlot, 3, "every entry must occupy a distinct slot")
	assert.Equal(t, "high", bySlot["mon-9"], "highest priority subject should take the preferred slot")
}

func TestSolveNoDoubleBooking(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("a", models.PriorityCritical, models.DifficultyHard),
		makeSubject("b", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("c", models.PriorityMedium, models.DifficultyEasy),
		makeSubject("d", models.PriorityLow, models.DifficultyEasy),
	}
	slots := []models.TimeSlot{
		makeSlot("s1", 1, 9, 10),
		makeSlot("s2", 1, 10, 11),
		makeSlot("s3", 2, 9, 10),
		makeSlot("s4", 3, 14, 15),
	}

	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{Timeout: 10 * time.Second})

	require.True(t, result.Success)
	seen := make(map[string]bool)
	for _, entry := range result.Entries {
		assert.False(t, seen[entry.TimeSlotID], "slot %s double booked", entry.TimeSlotID)
		seen[entry.TimeSlotID] = true
	}
}

func TestSolveInfeasibleWhenNoSlotAvailable(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("high", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("medium", models.PriorityMedium, models.DifficultyMedium),
	}
	unavailable := makeSlot("mon-9", 1, 9, 10)
	unavailable.IsAvailable = false
	slots := []models.TimeSlot{unavailable}

	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{Timeout: 5 * time.Second})

	assert.False(t, result.Success)
	assert.Empty(t, result.Entries)
	assert.Zero(t, result.Score)
	assert.Contains(t, result.Message, "no feasible solution")
}

func TestSolveContentionPrefersHigherPriority(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("low", models.PriorityLow, models.DifficultyMedium),
		makeSubject("high", models.PriorityHigh, models.DifficultyMedium),
	}
	slots := []models.TimeSlot{makeSlot("only", 1, 9, 10)}

	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{Timeout: 5 * time.Second})

	require.True(t, result.Success)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "high", result.Entries[0].SubjectID)
	assert.Equal(t, 0, HardCount(result.Violations), "the unassigned subject is not a hard violation")
}

func TestSolvePreservesFixedEntries(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("pinned", models.PriorityCritical, models.DifficultyHard),
		makeSubject("free", models.PriorityMedium, models.DifficultyMedium),
	}
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		makeSlot("tue-9", 2, 9, 10),
	}
	fixed := models.TimetableEntry{
		ID:          "fixed-1",
		TimetableID: "tt-1",
		SubjectID:   "pinned",
		TimeSlotID:  "mon-9",
		SessionType: models.SessionLecture,
		Duration:    60,
		IsFixed:     true,
	}

	input := solveInput(subjects, slots, nil)
	input.ExistingEntries = []models.TimetableEntry{fixed}

	result := Solve(context.Background(), input, "tt-1", Options{Timeout: 5 * time.Second})

	require.True(t, result.Success)
	require.Len(t, result.Entries, 2)

	var found *models.TimetableEntry
	for i := range result.Entries {
		if result.Entries[i].ID == "fixed-1" {
			found = &result.Entries[i]
		} else {
			assert.NotEqual(t, "mon-9", result.Entries[i].TimeSlotID, "fixed slot must stay exclusive")
			assert.Equal(t, "free", result.Entries[i].SubjectID)
		}
	}
	require.NotNil(t, found, "fixed entry must survive the solve unchanged")
	assert.Equal(t, "pinned", found.SubjectID)
	assert.Equal(t, "mon-9", found.TimeSlotID)
	assert.Equal(t, models.SessionLecture, found.SessionType)
}

func TestSolveOverlappingSlotsNeverCoAssigned(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("a", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("b", models.PriorityMedium, models.DifficultyMedium),
	}
	overlapping := models.TimeSlot{
		ID:          "mon-930",
		DayOfWeek:   1,
		StartMinute: 9*60 + 30,
		EndMinute:   10*60 + 30,
		IsAvailable: true,
		Weight:      1,
	}
	slots := []models.TimeSlot{makeSlot("mon-9", 1, 9, 10), overlapping}

	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{Timeout: 5 * time.Second})

	require.True(t, result.Success)
	require.Len(t, result.Entries, 1, "two time-overlapping slots admit only one session")
	assert.Equal(t, "a", result.Entries[0].SubjectID)
	assert.Equal(t, 0, HardCount(result.Violations))
}

func TestSolveConflictingFixedEntriesInfeasible(t *testing.T) {
	// Two fixed entries pinned to the same slot can never satisfy the
	// implicit time-conflict rule, with or without free subjects to place.
	subjects := []models.Subject{
		makeSubject("a", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("b", models.PriorityMedium, models.DifficultyMedium),
	}
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		makeSlot("tue-9", 2, 9, 10),
	}
	pin := func(id, subjectID string) models.TimetableEntry {
		return models.TimetableEntry{
			ID:          id,
			TimetableID: "tt-1",
			SubjectID:   subjectID,
			TimeSlotID:  "mon-9",
			SessionType: models.SessionLecture,
			Duration:    60,
			IsFixed:     true,
		}
	}

	input := solveInput(subjects, slots, nil)
	input.ExistingEntries = []models.TimetableEntry{pin("fixed-1", "a"), pin("fixed-2", "b")}

	result := Solve(context.Background(), input, "tt-1", Options{Timeout: 2 * time.Second})

	assert.False(t, result.Success)
	assert.Empty(t, result.Entries)
	assert.Zero(t, result.Score)
	assert.Greater(t, HardCount(result.Violations), 0)
	assert.Contains(t, result.Message, "fixed entries violate hard constraints")
	assert.NotContains(t, result.Message, "deadline")

	// Same conflict with no free subjects must not ride the
	// nothing-to-optimize path to success either.
	input.Subjects = nil
	result = Solve(context.Background(), input, "tt-1", Options{Timeout: 2 * time.Second})
	assert.False(t, result.Success)
	assert.Empty(t, result.Entries)
}

func TestSolveSkipsInactiveSubjects(t *testing.T) {
	inactive := makeSubject("off", models.PriorityCritical, models.DifficultyHard)
	inactive.IsActive = false
	subjects := []models.Subject{
		inactive,
		makeSubject("on", models.PriorityLow, models.DifficultyEasy),
	}
	slots := []models.TimeSlot{makeSlot("mon-9", 1, 9, 10)}

	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{Timeout: 5 * time.Second})

	require.True(t, result.Success)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "on", result.Entries[0].SubjectID)
}

func TestSolveScoreDropsByPenaltySum(t *testing.T) {
	// A 2-hour cap forces any full assignment of three 1-hour Monday
	// sessions into a soft violation worth exactly its configured penalty.
	params, err := json.Marshal(map[string]any{"maxHours": 2})
	require.NoError(t, err)
	maxHours := models.Constraint{
		ID:               "c-max",
		Name:             "Max Hours Per Day",
		Type:             models.ConstraintMaxHoursPerDay,
		Severity:         models.SeveritySoft,
		IsActive:         true,
		Parameters:       params,
		ViolationPenalty: 25,
	}

	subjects := []models.Subject{
		makeSubject("a", models.PriorityCritical, models.DifficultyMedium),
		makeSubject("b", models.PriorityCritical, models.DifficultyMedium),
		makeSubject("c", models.PriorityCritical, models.DifficultyMedium),
	}
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		makeSlot("mon-10", 1, 10, 11),
		makeSlot("mon-11", 1, 11, 12),
	}

	result := Solve(context.Background(), solveInput(subjects, slots, []models.Constraint{maxHours}), "tt-1", Options{Timeout: 10 * time.Second})

	require.True(t, result.Success)
	require.Len(t, result.Entries, 3)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, 25.0, result.Violations[0].Penalty)
	// 3 * (4 * 10) minus the single soft penalty.
	assert.Equal(t, 120.0-25.0, result.Score)
	assert.GreaterOrEqual(t, result.Score, 0.0)
}

func TestSolveHardConstraintPrunesPlacement(t *testing.T) {
	scope, err := json.Marshal([]string{"mon-9"})
	require.NoError(t, err)
	avoid := models.Constraint{
		ID:            "c-avoid",
		Name:          "Blocked Slot",
		Type:          models.ConstraintAvoidTimeSlot,
		Severity:      models.SeverityHard,
		IsActive:      true,
		TimeSlotScope: scope,
	}

	subjects := []models.Subject{makeSubject("a", models.PriorityHigh, models.DifficultyMedium)}
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		makeSlot("tue-9", 2, 9, 10),
	}

	result := Solve(context.Background(), solveInput(subjects, slots, []models.Constraint{avoid}), "tt-1", Options{Timeout: 5 * time.Second})

	require.True(t, result.Success)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "tue-9", result.Entries[0].TimeSlotID)
	assert.Empty(t, result.Violations)
}

func TestSolveDeadlineDegradesToFeasiblePass(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("a", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("b", models.PriorityMedium, models.DifficultyMedium),
	}
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		makeSlot("tue-9", 2, 9, 10),
	}

	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{Timeout: time.Nanosecond})

	require.True(t, result.Success, result.Message)
	assert.NotEmpty(t, result.Entries)
	assert.Contains(t, result.Message, "deadline reached")
}

func TestSolveNothingToOptimize(t *testing.T) {
	result := Solve(context.Background(), solveInput(nil, []models.TimeSlot{makeSlot("mon-9", 1, 9, 10)}, nil), "tt-1", Options{Timeout: time.Second})

	assert.True(t, result.Success)
	assert.Empty(t, result.Entries)
	assert.Contains(t, result.Message, "nothing to optimize")
}

func TestSolveReportsProgress(t *testing.T) {
	subjects := []models.Subject{
		makeSubject("a", models.PriorityHigh, models.DifficultyMedium),
		makeSubject("b", models.PriorityMedium, models.DifficultyMedium),
		makeSubject("c", models.PriorityLow, models.DifficultyEasy),
		makeSubject("d", models.PriorityLow, models.DifficultyEasy),
	}
	slots := []models.TimeSlot{
		makeSlot("s1", 1, 9, 10),
		makeSlot("s2", 1, 10, 11),
		makeSlot("s3", 2, 9, 10),
		makeSlot("s4", 2, 10, 11),
		makeSlot("s5", 3, 9, 10),
	}

	updates := 0
	result := Solve(context.Background(), solveInput(subjects, slots, nil), "tt-1", Options{
		Timeout:  10 * time.Second,
		Progress: func(Progress) { updates++ },
	})

	require.True(t, result.Success)
	assert.Greater(t, result.NodesExplored, 0)
	// Progress fires every fixed number of nodes; small searches may finish
	// before the first checkpoint, which is fine.
	assert.GreaterOrEqual(t, updates, 0)
}
