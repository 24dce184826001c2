package optimizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/models"
)

func engineFixture(t *testing.T, slots []models.TimeSlot, constraints []models.Constraint) *ConstraintEngine {
	t.Helper()
	input := Input{
		TimeSlots:   slots,
		Constraints: constraints,
		Preferences: models.DefaultUserPreferences(),
	}
	return NewConstraintEngine(&input)
}

func entryFor(subjectID, slotID string, duration int) models.TimetableEntry {
	return models.TimetableEntry{
		ID:          subjectID + "@" + slotID,
		TimetableID: "tt-1",
		SubjectID:   subjectID,
		TimeSlotID:  slotID,
		SessionType: models.SessionStudy,
		Duration:    duration,
	}
}

func jsonParams(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestEvaluateTimeConflictAlwaysEnforced(t *testing.T) {
	slots := []models.TimeSlot{makeSlot("mon-9", 1, 9, 10)}
	engine := engineFixture(t, slots, nil)

	entries := []models.TimetableEntry{
		entryFor("a", "mon-9", 60),
		entryFor("b", "mon-9", 60),
	}

	violations := engine.Evaluate(entries)

	require.Len(t, violations, 1)
	assert.Equal(t, "time_conflict", violations[0].ConstraintID)
	assert.Equal(t, models.SeverityHard, violations[0].Severity)
	assert.Equal(t, 1000.0, violations[0].Penalty)
	assert.Equal(t, 1, HardCount(violations))
}

func TestEvaluateMaxHoursPerDay(t *testing.T) {
	// Ten one-hour sessions on the same day against an eight-hour cap:
	// exactly one violation for that day.
	var slots []models.TimeSlot
	var entries []models.TimetableEntry
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		slot := makeSlot("mon-"+id, 1, 8+i, 9+i)
		slots = append(slots, slot)
		entries = append(entries, entryFor("sub-"+id, slot.ID, 60))
	}

	constraint := models.Constraint{
		ID:               "c-max",
		Name:             "Max Hours Per Day",
		Type:             models.ConstraintMaxHoursPerDay,
		Severity:         models.SeveritySoft,
		IsActive:         true,
		Parameters:       jsonParams(t, map[string]any{"maxHours": 8}),
		ViolationPenalty: 50,
	}
	engine := engineFixture(t, slots, []models.Constraint{constraint})

	violations := engine.Evaluate(entries)

	require.Len(t, violations, 1)
	assert.Equal(t, "c-max", violations[0].ConstraintID)
	assert.Equal(t, 50.0, violations[0].Penalty)
	assert.Contains(t, violations[0].Description, "MONDAY")
	assert.Equal(t, 0, HardCount(violations))
}

func TestEvaluateMaxHoursFallsBackToPreferences(t *testing.T) {
	// No maxHours parameter: the 8h default from user preferences applies.
	var slots []models.TimeSlot
	var entries []models.TimetableEntry
	for i := 0; i < 9; i++ {
		id := string(rune('a' + i))
		slot := makeSlot("mon-"+id, 1, 8+i, 9+i)
		slots = append(slots, slot)
		entries = append(entries, entryFor("sub-"+id, slot.ID, 60))
	}
	constraint := models.Constraint{
		ID:       "c-max",
		Name:     "Max Hours Per Day",
		Type:     models.ConstraintMaxHoursPerDay,
		Severity: models.SeveritySoft,
		IsActive: true,
	}
	engine := engineFixture(t, slots, []models.Constraint{constraint})

	violations := engine.Evaluate(entries)

	require.Len(t, violations, 1)
	// No explicit penalty configured: severity default applies.
	assert.Equal(t, models.SeveritySoft.DefaultWeight(), violations[0].Penalty)
}

func TestEvaluateInactiveConstraintSkipped(t *testing.T) {
	slots := []models.TimeSlot{makeSlot("mon-9", 1, 9, 19)}
	constraint := models.Constraint{
		ID:         "c-max",
		Name:       "Max Hours Per Day",
		Type:       models.ConstraintMaxHoursPerDay,
		Severity:   models.SeveritySoft,
		IsActive:   false,
		Parameters: jsonParams(t, map[string]any{"maxHours": 1}),
	}
	engine := engineFixture(t, slots, []models.Constraint{constraint})

	violations := engine.Evaluate([]models.TimetableEntry{entryFor("a", "mon-9", 600)})

	assert.Empty(t, violations)
}

func TestEvaluateConsecutiveSessions(t *testing.T) {
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 11),
		makeSlot("mon-11", 1, 11, 13),
	}
	constraint := models.Constraint{
		ID:         "c-consec",
		Name:       "Consecutive Sessions",
		Type:       models.ConstraintConsecutiveSessions,
		Severity:   models.SeveritySoft,
		IsActive:   true,
		Parameters: jsonParams(t, map[string]any{"maxConsecutive": 3}),
	}
	engine := engineFixture(t, slots, []models.Constraint{constraint})

	violations := engine.Evaluate([]models.TimetableEntry{
		entryFor("a", "mon-9", 120),
		entryFor("b", "mon-11", 120),
	})

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Description, "consecutive")
}

func TestEvaluateMinBreakDuration(t *testing.T) {
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		{ID: "mon-1005", DayOfWeek: 1, StartMinute: 10*60 + 5, EndMinute: 11 * 60, IsAvailable: true},
	}
	constraint := models.Constraint{
		ID:         "c-break",
		Name:       "Minimum Break",
		Type:       models.ConstraintMinBreakDuration,
		Severity:   models.SeverityPreference,
		IsActive:   true,
		Parameters: jsonParams(t, map[string]any{"minMinutes": 15}),
	}
	engine := engineFixture(t, slots, []models.Constraint{constraint})

	violations := engine.Evaluate([]models.TimetableEntry{
		entryFor("a", "mon-9", 60),
		entryFor("b", "mon-1005", 55),
	})

	require.Len(t, violations, 1)
	assert.Equal(t, models.SeverityPreference, violations[0].Severity)
	assert.Equal(t, models.SeverityPreference.DefaultWeight(), violations[0].Penalty)
}

func TestEvaluateSameAndDifferentDayGrouping(t *testing.T) {
	slots := []models.TimeSlot{
		makeSlot("mon-9", 1, 9, 10),
		makeSlot("tue-9", 2, 9, 10),
	}
	sameDay := models.Constraint{
		ID:           "c-same",
		Name:         "Keep Together",
		Type:         models.ConstraintSameDaySubjects,
		Severity:     models.SeveritySoft,
		IsActive:     true,
		SubjectScope: jsonParams(t, []string{"a", "b"}),
	}
	differentDay := models.Constraint{
		ID:           "c-diff",
		Name:         "Spread Out",
		Type:         models.ConstraintDifferentDaySubjects,
		Severity:     models.SeveritySoft,
		IsActive:     true,
		SubjectScope: jsonParams(t, []string{"a", "b"}),
	}
	engine := engineFixture(t, slots, []models.Constraint{sameDay, differentDay})

	violations := engine.Evaluate([]models.TimetableEntry{
		entryFor("a", "mon-9", 60),
		entryFor("b", "tue-9", 60),
	})

	// Spread across days: the same-day rule is violated, the
	// different-day rule is satisfied.
	require.Len(t, violations, 1)
	assert.Equal(t, "c-same", violations[0].ConstraintID)
}

func TestEvaluateAvoidTimeSlotScoping(t *testing.T) {
	slots := []models.TimeSlot{makeSlot("mon-9", 1, 9, 10)}
	constraint := models.Constraint{
		ID:            "c-avoid",
		Name:          "Avoid Slot",
		Type:          models.ConstraintAvoidTimeSlot,
		Severity:      models.SeveritySoft,
		IsActive:      true,
		TimeSlotScope: jsonParams(t, []string{"mon-9"}),
		SubjectScope:  jsonParams(t, []string{"a"}),
	}
	engine := engineFixture(t, slots, []models.Constraint{constraint})

	hit := engine.Evaluate([]models.TimetableEntry{entryFor("a", "mon-9", 60)})
	miss := engine.Evaluate([]models.TimetableEntry{entryFor("other", "mon-9", 60)})

	assert.Len(t, hit, 1)
	assert.Empty(t, miss, "subjects outside the scope are unaffected")
}

func TestEvaluateRoomCapacity(t *testing.T) {
	capacity := 10
	slot := makeSlot("mon-9", 1, 9, 10)
	slot.Capacity = &capacity
	constraint := models.Constraint{
		ID:         "c-room",
		Name:       "Room Capacity",
		Type:       models.ConstraintRoomCapacity,
		Severity:   models.SeveritySoft,
		IsActive:   true,
		Parameters: jsonParams(t, map[string]any{"requiredCapacity": 25}),
	}
	engine := engineFixture(t, []models.TimeSlot{slot}, []models.Constraint{constraint})

	violations := engine.Evaluate([]models.TimetableEntry{entryFor("a", "mon-9", 60)})

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Description, "capacity")
}

func TestEvaluateWorkloadBalanceSpread(t *testing.T) {
	var slots []models.TimeSlot
	var entries []models.TimetableEntry
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		slot := makeSlot("mon-"+id, 1, 8+i, 9+i)
		slots = append(slots, slot)
		entries = append(entries, entryFor("sub-"+id, slot.ID, 60))
	}
	slots = append(slots, makeSlot("tue-x", 2, 9, 10))
	entries = append(entries, entryFor("sub-x", "tue-x", 60))

	constraint := models.Constraint{
		ID:         "c-balance",
		Name:       "Workload Balance",
		Type:       models.ConstraintWorkloadBalance,
		Severity:   models.SeverityPreference,
		IsActive:   true,
		Parameters: jsonParams(t, map[string]any{"maxImbalance": 3}),
	}
	engine := engineFixture(t, slots, []models.Constraint{constraint})

	violations := engine.Evaluate(entries)

	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Description, "imbalance")
}

func TestEvaluateIsReadOnly(t *testing.T) {
	slots := []models.TimeSlot{makeSlot("mon-9", 1, 9, 10)}
	engine := engineFixture(t, slots, nil)
	entries := []models.TimetableEntry{
		entryFor("a", "mon-9", 60),
		entryFor("b", "mon-9", 60),
	}

	first := engine.Evaluate(entries)
	second := engine.Evaluate(entries)

	assert.Equal(t, first, second, "repeated evaluation must not change results")
}
