package optimizer

import (
	"github.com/tmopt/timetable-api/internal/models"
)

// SlotScore is the heuristic assessment of placing a subject into a slot.
type SlotScore struct {
	Value      float64  `json:"value"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// ScoreSlot rates a subject/slot pairing against the scheduling context.
// The result is a scalar in [0,1] with a confidence in [0,1] and an ordered
// list of display-only reasons. Pure and deterministic: identical inputs
// always yield identical outputs.
func ScoreSlot(subject *models.Subject, slot *models.TimeSlot, ctx *SchedulingContext) SlotScore {
	prefs := ctx.Preferences()
	score := 0.5
	var reasons []string

	score += float64(subject.Priority.Weight()) * 0.1
	if subject.Priority == models.PriorityHigh || subject.Priority == models.PriorityCritical {
		reasons = append(reasons, "high priority subject deserves a prime time slot")
	}

	if slot.WithinWindow(prefs.PreferredStartMinute, prefs.PreferredEndMinute) {
		score += 0.2
		reasons = append(reasons, "falls within preferred study hours")
	}

	energy := energyAlignment(slot.StartHour(), prefs.EnergyPeak)
	score += energy * 0.15
	if energy > 0.8 {
		reasons = append(reasons, "aligns with energy peak")
	}

	difficulty := difficultyAlignment(subject.Difficulty, slot.StartHour())
	score += difficulty * 0.1
	if subject.Difficulty == models.DifficultyVeryHard && slot.StartHour() >= 9 && slot.StartHour() <= 12 {
		reasons = append(reasons, "difficult subject placed in peak focus hours")
	}

	score += workloadBalance(ctx.SessionsOn(slot.DayOfWeek)) * 0.1

	if gap, ok := ctx.GapBefore(slot); ok && gap >= prefs.MinBreakMinutes {
		score += 0.1
		reasons = append(reasons, "adequate break before this session")
	}

	if slot.IsPreferred {
		score += 0.1
		reasons = append(reasons, "this is one of your preferred time slots")
	}

	if slot.IsWeekend() && !prefs.AllowWeekends {
		score -= 0.3
		reasons = append(reasons, "weekend slot while weekends are disabled")
	}
	if slot.StartHour() >= 18 && !prefs.AllowEvenings {
		score -= 0.2
		reasons = append(reasons, "evening slot while evenings are disabled")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "reasonable time slot for this subject")
	}

	return SlotScore{
		Value:      clamp01(score),
		Confidence: scoreConfidence(slot, ctx),
		Reasons:    reasons,
	}
}

func scoreConfidence(slot *models.TimeSlot, ctx *SchedulingContext) float64 {
	confidence := 0.8

	hour := slot.StartHour()
	if hour < 7 || hour > 20 {
		confidence -= 0.2
	}
	if ctx.ConsecutiveMinutesWith(slot) > 4*60 {
		confidence -= 0.1
	}
	if ctx.MinutesOn(slot.DayOfWeek)+slot.Duration() > 10*60 {
		confidence -= 0.2
	}

	return clamp01(confidence)
}

// energyAlignment maps a start hour onto the {1.0, 0.7, 0.5, 0.3} tiers for
// the user's energy peak category.
func energyAlignment(hour int, peak models.EnergyPeak) float64 {
	switch peak {
	case models.EnergyMorning:
		switch {
		case hour >= 6 && hour <= 10:
			return 1.0
		case hour >= 11 && hour <= 12:
			return 0.7
		case hour >= 13 && hour <= 15:
			return 0.5
		default:
			return 0.3
		}
	case models.EnergyAfternoon:
		switch {
		case hour >= 12 && hour <= 16:
			return 1.0
		case (hour >= 10 && hour <= 11) || (hour >= 17 && hour <= 18):
			return 0.7
		case (hour >= 8 && hour <= 9) || (hour >= 19 && hour <= 20):
			return 0.5
		default:
			return 0.3
		}
	case models.EnergyEvening:
		switch {
		case hour >= 17 && hour <= 21:
			return 1.0
		case (hour >= 15 && hour <= 16) || (hour >= 22 && hour <= 23):
			return 0.7
		case hour >= 13 && hour <= 14:
			return 0.5
		default:
			return 0.3
		}
	case models.EnergyNight:
		switch {
		case hour >= 22 || hour <= 2:
			return 1.0
		case (hour >= 20 && hour <= 21) || (hour >= 3 && hour <= 5):
			return 0.7
		case hour >= 18 && hour <= 19:
			return 0.5
		default:
			return 0.3
		}
	default:
		return 0.3
	}
}

// difficultyAlignment favours focus hours for demanding subjects. Easy
// subjects score a flat 0.7 since they can be studied anytime.
func difficultyAlignment(difficulty models.Difficulty, hour int) float64 {
	switch difficulty {
	case models.DifficultyVeryHard:
		switch {
		case hour >= 9 && hour <= 12:
			return 1.0
		case hour >= 14 && hour <= 16:
			return 0.8
		case hour == 8 || hour == 13 || (hour >= 17 && hour <= 18):
			return 0.6
		default:
			return 0.3
		}
	case models.DifficultyHard:
		switch {
		case hour >= 9 && hour <= 16:
			return 0.9
		case hour == 8 || (hour >= 17 && hour <= 18):
			return 0.7
		default:
			return 0.5
		}
	case models.DifficultyMedium:
		if hour >= 8 && hour <= 18 {
			return 0.8
		}
		return 0.6
	default:
		return 0.7
	}
}

// workloadBalance decreases monotonically with the number of sessions
// already occupying the day.
func workloadBalance(sessions int) float64 {
	switch {
	case sessions == 0:
		return 1.0
	case sessions <= 2:
		return 0.8
	case sessions <= 4:
		return 0.6
	case sessions <= 6:
		return 0.4
	default:
		return 0.2
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
