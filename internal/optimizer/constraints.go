package optimizer

import (
	"fmt"
	"sort"

	"github.com/tmopt/timetable-api/internal/models"
)

// Violation records a broken scheduling rule and its penalty contribution.
type Violation struct {
	ConstraintID   string                    `json:"constraint_id"`
	ConstraintName string                    `json:"constraint_name"`
	Severity       models.ConstraintSeverity `json:"severity"`
	Penalty        float64                   `json:"penalty"`
	Description    string                    `json:"description"`
}

// ConstraintEngine evaluates an assignment against the configured rules.
// Evaluation is read-only and safe to invoke repeatedly: during search
// pruning and again for final reporting.
type ConstraintEngine struct {
	slots       map[string]*models.TimeSlot
	subjects    map[string]*models.Subject
	constraints []models.Constraint
	prefs       models.UserPreferences
}

// NewConstraintEngine indexes the run inputs for evaluation.
func NewConstraintEngine(input *Input) *ConstraintEngine {
	engine := &ConstraintEngine{
		slots:       make(map[string]*models.TimeSlot, len(input.TimeSlots)),
		subjects:    make(map[string]*models.Subject, len(input.Subjects)),
		constraints: input.Constraints,
		prefs:       input.Preferences,
	}
	for i := range input.TimeSlots {
		engine.slots[input.TimeSlots[i].ID] = &input.TimeSlots[i]
	}
	for i := range input.Subjects {
		engine.subjects[input.Subjects[i].ID] = &input.Subjects[i]
	}
	return engine
}

// Evaluate returns every violation the assignment produces. The implicit
// hard time-conflict rule is always enforced; configured constraints only
// participate when active.
func (e *ConstraintEngine) Evaluate(entries []models.TimetableEntry) []Violation {
	violations := e.timeConflicts(entries)

	for i := range e.constraints {
		constraint := &e.constraints[i]
		if !constraint.IsActive {
			continue
		}
		violations = append(violations, e.evaluateConstraint(constraint, entries)...)
	}

	return violations
}

// HardCount returns the number of hard violations in the list.
func HardCount(violations []Violation) int {
	count := 0
	for _, v := range violations {
		if v.Severity == models.SeverityHard {
			count++
		}
	}
	return count
}

// PenaltySum totals the penalties of all violations.
func PenaltySum(violations []Violation) float64 {
	total := 0.0
	for _, v := range violations {
		total += v.Penalty
	}
	return total
}

func (e *ConstraintEngine) timeConflicts(entries []models.TimetableEntry) []Violation {
	var violations []Violation
	bySlot := make(map[string]int)
	for _, entry := range entries {
		bySlot[entry.TimeSlotID]++
	}
	slotIDs := make([]string, 0, len(bySlot))
	for slotID := range bySlot {
		slotIDs = append(slotIDs, slotID)
	}
	sort.Strings(slotIDs)
	for _, slotID := range slotIDs {
		if bySlot[slotID] > 1 {
			violations = append(violations, Violation{
				ConstraintID:   "time_conflict",
				ConstraintName: "Time Conflict",
				Severity:       models.SeverityHard,
				Penalty:        models.SeverityHard.DefaultWeight(),
				Description:    fmt.Sprintf("multiple subjects scheduled at time slot %s", slotID),
			})
		}
	}
	return violations
}

func (e *ConstraintEngine) evaluateConstraint(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	switch c.Type {
	case models.ConstraintMaxHoursPerDay:
		return e.maxHoursPerDay(c, entries)
	case models.ConstraintMinBreakDuration:
		return e.minBreakDuration(c, entries)
	case models.ConstraintConsecutiveSessions:
		return e.consecutiveSessions(c, entries)
	case models.ConstraintAvoidTimeSlot:
		return e.avoidTimeSlot(c, entries)
	case models.ConstraintPreferredTimeSlot:
		return e.preferredTimeSlot(c, entries)
	case models.ConstraintSameDaySubjects:
		return e.sameDaySubjects(c, entries)
	case models.ConstraintDifferentDaySubjects:
		return e.differentDaySubjects(c, entries)
	case models.ConstraintRoomCapacity:
		return e.roomCapacity(c, entries)
	case models.ConstraintInstructorAvailability:
		return e.instructorAvailability(c, entries)
	case models.ConstraintWorkloadBalance:
		return e.workloadBalanceSpread(c, entries)
	default:
		// TIME_CONFLICT is implicit; SUBJECT_PREREQUISITE and CUSTOM carry
		// no executable predicate here and are reported by callers if needed.
		return nil
	}
}

// maxHoursPerDay groups assigned entries by day and flags each day whose
// summed duration exceeds the threshold, one violation per offending day.
func (e *ConstraintEngine) maxHoursPerDay(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	threshold := c.ParamFloat("maxHours", float64(e.prefs.MaxHoursPerDay))
	minutesByDay := make(map[int]int)
	for _, entry := range entries {
		slot, ok := e.slots[entry.TimeSlotID]
		if !ok {
			continue
		}
		minutesByDay[slot.DayOfWeek] += entry.Duration
	}

	days := sortedDays(minutesByDay)
	var violations []Violation
	for _, day := range days {
		hours := float64(minutesByDay[day]) / 60.0
		if hours > threshold {
			violations = append(violations, Violation{
				ConstraintID:   c.ID,
				ConstraintName: c.Name,
				Severity:       c.Severity,
				Penalty:        c.Penalty(),
				Description:    fmt.Sprintf("exceeded max hours per day on %s: %.1f hours", models.DayName(day), hours),
			})
		}
	}
	return violations
}

func (e *ConstraintEngine) minBreakDuration(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	minBreak := int(c.ParamFloat("minMinutes", float64(e.prefs.MinBreakMinutes)))
	byDay := e.intervalsByDay(entries)

	var violations []Violation
	for _, day := range sortedIntervalDays(byDay) {
		ivs := byDay[day]
		for i := 0; i < len(ivs)-1; i++ {
			gap := ivs[i+1].start - ivs[i].end
			if gap > 0 && gap < minBreak {
				violations = append(violations, Violation{
					ConstraintID:   c.ID,
					ConstraintName: c.Name,
					Severity:       c.Severity,
					Penalty:        c.Penalty(),
					Description:    fmt.Sprintf("break of %d minutes on %s is below the %d minute minimum", gap, models.DayName(day), minBreak),
				})
				break
			}
		}
	}
	return violations
}

func (e *ConstraintEngine) consecutiveSessions(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	maxHours := c.ParamFloat("maxConsecutive", float64(e.prefs.MaxConsecutiveHours))
	byDay := e.intervalsByDay(entries)

	var violations []Violation
	for _, day := range sortedIntervalDays(byDay) {
		ivs := byDay[day]
		run := 0
		for i, iv := range ivs {
			if i > 0 && ivs[i-1].end == iv.start {
				run += iv.end - iv.start
			} else {
				run = iv.end - iv.start
			}
			if float64(run)/60.0 > maxHours {
				violations = append(violations, Violation{
					ConstraintID:   c.ID,
					ConstraintName: c.Name,
					Severity:       c.Severity,
					Penalty:        c.Penalty(),
					Description:    fmt.Sprintf("more than %.0f consecutive hours on %s", maxHours, models.DayName(day)),
				})
				break
			}
		}
	}
	return violations
}

func (e *ConstraintEngine) avoidTimeSlot(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	avoided := toSet(c.ScopedTimeSlotIDs())
	scoped := toSet(c.ScopedSubjectIDs())

	var violations []Violation
	for _, entry := range entries {
		if !avoided[entry.TimeSlotID] {
			continue
		}
		if len(scoped) > 0 && !scoped[entry.SubjectID] {
			continue
		}
		violations = append(violations, Violation{
			ConstraintID:   c.ID,
			ConstraintName: c.Name,
			Severity:       c.Severity,
			Penalty:        c.Penalty(),
			Description:    fmt.Sprintf("subject %s placed in avoided time slot %s", entry.SubjectID, entry.TimeSlotID),
		})
	}
	return violations
}

// preferredTimeSlot penalises scoped subjects that were assigned, but not to
// one of the listed slots.
func (e *ConstraintEngine) preferredTimeSlot(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	preferred := toSet(c.ScopedTimeSlotIDs())
	scoped := toSet(c.ScopedSubjectIDs())
	if len(preferred) == 0 || len(scoped) == 0 {
		return nil
	}

	var violations []Violation
	for _, entry := range entries {
		if !scoped[entry.SubjectID] || preferred[entry.TimeSlotID] {
			continue
		}
		violations = append(violations, Violation{
			ConstraintID:   c.ID,
			ConstraintName: c.Name,
			Severity:       c.Severity,
			Penalty:        c.Penalty(),
			Description:    fmt.Sprintf("subject %s not placed in a preferred time slot", entry.SubjectID),
		})
	}
	return violations
}

func (e *ConstraintEngine) sameDaySubjects(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	days := e.scopedSubjectDays(c, entries)
	if len(days) <= 1 {
		return nil
	}
	distinct := make(map[int]bool)
	for _, day := range days {
		distinct[day] = true
	}
	if len(distinct) <= 1 {
		return nil
	}
	return []Violation{{
		ConstraintID:   c.ID,
		ConstraintName: c.Name,
		Severity:       c.Severity,
		Penalty:        c.Penalty(),
		Description:    "grouped subjects are scheduled on different days",
	}}
}

func (e *ConstraintEngine) differentDaySubjects(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	days := e.scopedSubjectDays(c, entries)
	distinct := make(map[int]bool)
	for _, day := range days {
		if distinct[day] {
			return []Violation{{
				ConstraintID:   c.ID,
				ConstraintName: c.Name,
				Severity:       c.Severity,
				Penalty:        c.Penalty(),
				Description:    "grouped subjects share a day but must be spread out",
			}}
		}
		distinct[day] = true
	}
	return nil
}

func (e *ConstraintEngine) roomCapacity(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	required := int(c.ParamFloat("requiredCapacity", 0))
	if required <= 0 {
		return nil
	}
	scoped := toSet(c.ScopedSubjectIDs())

	var violations []Violation
	for _, entry := range entries {
		if len(scoped) > 0 && !scoped[entry.SubjectID] {
			continue
		}
		slot, ok := e.slots[entry.TimeSlotID]
		if !ok || slot.Capacity == nil {
			continue
		}
		if *slot.Capacity < required {
			violations = append(violations, Violation{
				ConstraintID:   c.ID,
				ConstraintName: c.Name,
				Severity:       c.Severity,
				Penalty:        c.Penalty(),
				Description:    fmt.Sprintf("slot %s capacity %d below required %d", entry.TimeSlotID, *slot.Capacity, required),
			})
		}
	}
	return violations
}

// instructorAvailability treats scoped time slots as blocked for scoped
// subjects, e.g. when the instructor cannot attend.
func (e *ConstraintEngine) instructorAvailability(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	blocked := toSet(c.ScopedTimeSlotIDs())
	scoped := toSet(c.ScopedSubjectIDs())
	if len(blocked) == 0 {
		return nil
	}

	var violations []Violation
	for _, entry := range entries {
		if !blocked[entry.TimeSlotID] {
			continue
		}
		if len(scoped) > 0 && !scoped[entry.SubjectID] {
			continue
		}
		violations = append(violations, Violation{
			ConstraintID:   c.ID,
			ConstraintName: c.Name,
			Severity:       c.Severity,
			Penalty:        c.Penalty(),
			Description:    fmt.Sprintf("instructor unavailable for subject %s at slot %s", entry.SubjectID, entry.TimeSlotID),
		})
	}
	return violations
}

// workloadBalanceSpread flags schedules whose busiest and quietest scheduled
// days differ by more than the configured session imbalance.
func (e *ConstraintEngine) workloadBalanceSpread(c *models.Constraint, entries []models.TimetableEntry) []Violation {
	maxImbalance := int(c.ParamFloat("maxImbalance", 3))
	countByDay := make(map[int]int)
	for _, entry := range entries {
		slot, ok := e.slots[entry.TimeSlotID]
		if !ok {
			continue
		}
		countByDay[slot.DayOfWeek]++
	}
	if len(countByDay) < 2 {
		return nil
	}

	min, max := -1, 0
	for _, count := range countByDay {
		if min < 0 || count < min {
			min = count
		}
		if count > max {
			max = count
		}
	}
	if max-min <= maxImbalance {
		return nil
	}
	return []Violation{{
		ConstraintID:   c.ID,
		ConstraintName: c.Name,
		Severity:       c.Severity,
		Penalty:        c.Penalty(),
		Description:    fmt.Sprintf("daily session counts spread by %d exceeds allowed imbalance of %d", max-min, maxImbalance),
	}}
}

func (e *ConstraintEngine) scopedSubjectDays(c *models.Constraint, entries []models.TimetableEntry) []int {
	scoped := toSet(c.ScopedSubjectIDs())
	if len(scoped) == 0 {
		return nil
	}
	var days []int
	for _, entry := range entries {
		if !scoped[entry.SubjectID] {
			continue
		}
		if slot, ok := e.slots[entry.TimeSlotID]; ok {
			days = append(days, slot.DayOfWeek)
		}
	}
	return days
}

func (e *ConstraintEngine) intervalsByDay(entries []models.TimetableEntry) map[int][]interval {
	byDay := make(map[int][]interval)
	for _, entry := range entries {
		slot, ok := e.slots[entry.TimeSlotID]
		if !ok {
			continue
		}
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], interval{start: slot.StartMinute, end: slot.EndMinute})
	}
	for day := range byDay {
		ivs := byDay[day]
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })
		byDay[day] = ivs
	}
	return byDay
}

func sortedDays(m map[int]int) []int {
	days := make([]int, 0, len(m))
	for day := range m {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

func sortedIntervalDays(m map[int][]interval) []int {
	days := make([]int, 0, len(m))
	for day := range m {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
