package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/models"
)

func TestScoreSlotDeterministic(t *testing.T) {
	subject := makeSubject("math", models.PriorityHigh, models.DifficultyVeryHard)
	slot := makeSlot("mon-9", 1, 9, 10)
	ctx := NewSchedulingContext(models.DefaultUserPreferences())
	busy := makeSlot("mon-7", 1, 7, 8)
	ctx.Add(&busy)

	first := ScoreSlot(&subject, &slot, ctx)
	second := ScoreSlot(&subject, &slot, ctx)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Reasons, second.Reasons)
}

func TestScoreSlotComponents(t *testing.T) {
	prefs := models.DefaultUserPreferences()
	ctx := NewSchedulingContext(prefs)
	subject := makeSubject("math", models.PriorityHigh, models.DifficultyVeryHard)
	slot := makeSlot("mon-9", 1, 9, 10)
	slot.IsPreferred = true

	score := ScoreSlot(&subject, &slot, ctx)

	// 0.5 base + 0.3 priority + 0.2 window + 0.15 morning energy
	// + 0.1 very-hard focus + 0.1 empty-day balance + 0.1 preferred = 1.45,
	// clamped to 1.
	assert.Equal(t, 1.0, score.Value)
	assert.Equal(t, 0.8, score.Confidence)
	assert.Contains(t, score.Reasons, "falls within preferred study hours")
	assert.Contains(t, score.Reasons, "aligns with energy peak")
	assert.Contains(t, score.Reasons, "this is one of your preferred time slots")
}

func TestScoreSlotWeekendAndEveningPenalties(t *testing.T) {
	prefs := models.DefaultUserPreferences()
	prefs.AllowWeekends = false
	prefs.AllowEvenings = false
	ctx := NewSchedulingContext(prefs)
	subject := makeSubject("easy", models.PriorityLow, models.DifficultyEasy)

	saturday := makeSlot("sat-19", 6, 19, 20)
	score := ScoreSlot(&subject, &saturday, ctx)

	// Weekend −0.3 and evening −0.2 both bite.
	assert.Less(t, score.Value, 0.5)
	assert.Contains(t, score.Reasons, "weekend slot while weekends are disabled")
	assert.Contains(t, score.Reasons, "evening slot while evenings are disabled")
}

func TestScoreSlotBreakAdequacyBonus(t *testing.T) {
	prefs := models.DefaultUserPreferences() // 15 minute minimum break
	ctx := NewSchedulingContext(prefs)
	morning := makeSlot("mon-9", 1, 9, 10)
	ctx.Add(&morning)
	subject := makeSubject("s", models.PriorityMedium, models.DifficultyMedium)

	withBreak := makeSlot("mon-1030", 1, 0, 0)
	withBreak.StartMinute = 10*60 + 30
	withBreak.EndMinute = 11*60 + 30
	tight := makeSlot("mon-1005", 1, 0, 0)
	tight.StartMinute = 10*60 + 5
	tight.EndMinute = 11*60 + 5

	spacious := ScoreSlot(&subject, &withBreak, ctx)
	cramped := ScoreSlot(&subject, &tight, ctx)

	assert.Contains(t, spacious.Reasons, "adequate break before this session")
	assert.NotContains(t, cramped.Reasons, "adequate break before this session")
	assert.Greater(t, spacious.Value, cramped.Value)
}

func TestScoreSlotConfidenceReductions(t *testing.T) {
	prefs := models.DefaultUserPreferences()
	ctx := NewSchedulingContext(prefs)
	subject := makeSubject("s", models.PriorityMedium, models.DifficultyMedium)

	early := makeSlot("mon-6", 1, 6, 7)
	assert.InDelta(t, 0.6, ScoreSlot(&subject, &early, ctx).Confidence, 1e-9)

	// Load Monday with over ten hours, then score one more Monday slot.
	long1 := makeSlot("mon-8", 1, 8, 13)
	long2 := makeSlot("mon-13", 1, 13, 18)
	ctx.Add(&long1)
	ctx.Add(&long2)
	evening := makeSlot("mon-19", 1, 19, 20)
	score := ScoreSlot(&subject, &evening, ctx)
	assert.InDelta(t, 0.6, score.Confidence, 1e-9)
}

func TestScoreSlotNeutralReason(t *testing.T) {
	prefs := models.DefaultUserPreferences()
	prefs.PreferredStartMinute = 9 * 60
	prefs.PreferredEndMinute = 11 * 60
	prefs.EnergyPeak = models.EnergyNight
	ctx := NewSchedulingContext(prefs)
	subject := makeSubject("s", models.PriorityLow, models.DifficultyMedium)

	afternoon := makeSlot("mon-15", 1, 15, 16)
	score := ScoreSlot(&subject, &afternoon, ctx)

	require.Len(t, score.Reasons, 1)
	assert.Equal(t, "reasonable time slot for this subject", score.Reasons[0])
}

func TestEnergyAlignmentTiers(t *testing.T) {
	assert.Equal(t, 1.0, energyAlignment(8, models.EnergyMorning))
	assert.Equal(t, 0.7, energyAlignment(11, models.EnergyMorning))
	assert.Equal(t, 0.5, energyAlignment(14, models.EnergyMorning))
	assert.Equal(t, 0.3, energyAlignment(20, models.EnergyMorning))

	assert.Equal(t, 1.0, energyAlignment(14, models.EnergyAfternoon))
	assert.Equal(t, 1.0, energyAlignment(19, models.EnergyEvening))
	assert.Equal(t, 1.0, energyAlignment(23, models.EnergyNight))
	assert.Equal(t, 1.0, energyAlignment(1, models.EnergyNight))
}

func TestDifficultyAlignmentTiers(t *testing.T) {
	assert.Equal(t, 1.0, difficultyAlignment(models.DifficultyVeryHard, 10))
	assert.Equal(t, 0.8, difficultyAlignment(models.DifficultyVeryHard, 15))
	assert.Equal(t, 0.6, difficultyAlignment(models.DifficultyVeryHard, 8))
	assert.Equal(t, 0.3, difficultyAlignment(models.DifficultyVeryHard, 21))

	assert.Equal(t, 0.9, difficultyAlignment(models.DifficultyHard, 12))
	assert.Equal(t, 0.8, difficultyAlignment(models.DifficultyMedium, 12))
	assert.Equal(t, 0.7, difficultyAlignment(models.DifficultyEasy, 3))
}

func TestWorkloadBalanceSteps(t *testing.T) {
	assert.Equal(t, 1.0, workloadBalance(0))
	assert.Equal(t, 0.8, workloadBalance(2))
	assert.Equal(t, 0.6, workloadBalance(4))
	assert.Equal(t, 0.4, workloadBalance(6))
	assert.Equal(t, 0.2, workloadBalance(7))
	assert.Equal(t, 0.2, workloadBalance(12))
}
