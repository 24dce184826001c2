package optimizer

import (
	"sort"

	"github.com/tmopt/timetable-api/internal/models"
)

const (
	primarySuggestions    = 3
	alternativesPerResult = 2
)

// Suggestion is a ranked slot recommendation for a single subject.
type Suggestion struct {
	Subject        models.Subject    `json:"subject"`
	TimeSlot       models.TimeSlot   `json:"time_slot"`
	Score          float64           `json:"score"`
	Confidence     float64           `json:"confidence"`
	Reasons        []string          `json:"reasons"`
	Recommendation string            `json:"recommendation"`
	Alternatives   []models.TimeSlot `json:"alternatives,omitempty"`
}

// RankSlots scores every available time slot for each requested subject and
// returns the top placements per subject, best first. It never mutates
// global assignment state: the context is derived from the input's existing
// entries and each subject is ranked independently, which supports
// "what if I moved this one subject" interactions without a full re-solve.
func RankSlots(input Input, subjectIDs []string) []Suggestion {
	slotByID := make(map[string]*models.TimeSlot, len(input.TimeSlots))
	for i := range input.TimeSlots {
		slotByID[input.TimeSlots[i].ID] = &input.TimeSlots[i]
	}

	sched := NewSchedulingContext(input.Preferences)
	for _, entry := range input.ExistingEntries {
		if slot, ok := slotByID[entry.TimeSlotID]; ok {
			sched.Add(slot)
		}
	}

	wanted := toSet(subjectIDs)

	var suggestions []Suggestion
	for i := range input.Subjects {
		subject := &input.Subjects[i]
		if !subject.IsActive {
			continue
		}
		if wanted != nil && !wanted[subject.ID] {
			continue
		}
		suggestions = append(suggestions, rankSubject(subject, input.TimeSlots, sched)...)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	return suggestions
}

func rankSubject(subject *models.Subject, slots []models.TimeSlot, sched *SchedulingContext) []Suggestion {
	type ranked struct {
		slot  *models.TimeSlot
		score SlotScore
	}
	var scored []ranked
	for i := range slots {
		slot := &slots[i]
		if !slot.IsAvailable {
			continue
		}
		scored = append(scored, ranked{slot: slot, score: ScoreSlot(subject, slot, sched)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score.Value > scored[j].score.Value
	})

	limit := primarySuggestions
	if limit > len(scored) {
		limit = len(scored)
	}

	suggestions := make([]Suggestion, 0, limit)
	for i := 0; i < limit; i++ {
		var alternatives []models.TimeSlot
		for j := i + 1; j <= i+alternativesPerResult && j < len(scored); j++ {
			alternatives = append(alternatives, *scored[j].slot)
		}
		suggestions = append(suggestions, Suggestion{
			Subject:        *subject,
			TimeSlot:       *scored[i].slot,
			Score:          scored[i].score.Value,
			Confidence:     scored[i].score.Confidence,
			Reasons:        scored[i].score.Reasons,
			Recommendation: recommendation(scored[i].score.Value),
			Alternatives:   alternatives,
		})
	}
	return suggestions
}

func recommendation(score float64) string {
	switch {
	case score > 0.8:
		return "Excellent time slot for this subject"
	case score > 0.6:
		return "Good time slot, recommended"
	case score > 0.4:
		return "Acceptable time slot"
	case score > 0.2:
		return "Not ideal, consider alternatives"
	default:
		return "Poor time slot, strongly recommend alternatives"
	}
}
