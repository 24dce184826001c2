package optimizer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tmopt/timetable-api/internal/models"
)

// DefaultTimeout bounds a solve when the caller does not configure one.
const DefaultTimeout = 30 * time.Second

// progressInterval controls how many search nodes pass between progress
// callbacks and deadline checks are always per-node regardless.
const progressInterval = 256

// Input is the immutable snapshot a solver run works from. Callers must not
// mutate the collections while a solve or ranking over them is in flight.
type Input struct {
	Subjects        []models.Subject
	TimeSlots       []models.TimeSlot
	Constraints     []models.Constraint
	Preferences     models.UserPreferences
	ExistingEntries []models.TimetableEntry
}

// Progress reports search advancement at node checkpoints.
type Progress struct {
	NodesExplored int           `json:"nodes_explored"`
	BestScore     float64       `json:"best_score"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Options tunes a single solve invocation.
type Options struct {
	Timeout  time.Duration
	Progress func(Progress)
}

// Result is the outcome of an optimization run. Success is false only when
// no assignment exists at all, or when the run hit an internal error.
type Result struct {
	Success       bool                    `json:"success"`
	Score         float64                 `json:"score"`
	Entries       []models.TimetableEntry `json:"entries"`
	Violations    []Violation             `json:"violations"`
	Elapsed       time.Duration           `json:"elapsed"`
	Message       string                  `json:"message"`
	NodesExplored int                     `json:"nodes_explored"`
}

// Solve searches for the assignment of subjects to time slots that maximizes
// the priority-weighted objective, subject to hard constraints, within the
// configured deadline. The search is a branch-and-bound over one variable per
// non-fixed active subject; candidate slots are ordered by heuristic score
// against the evolving partial context and pruned by forward checking. The
// deadline is checked at node boundaries: when it fires the best assignment
// found so far is returned rather than an error.
func Solve(ctx context.Context, input Input, timetableID string, opts Options) (result Result) {
	start := time.Now()
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Success: false,
				Score:   0,
				Entries: nil,
				Elapsed: time.Since(start),
				Message: fmt.Sprintf("optimization failed: internal error: %v", r),
			}
		}
	}()

	s := newSearch(&input, timetableID, start, start.Add(timeout), opts.Progress)

	// Fixed entries are constants for the search, so a hard violation among
	// them (a double-booked slot, say) makes every assignment infeasible.
	if baseViolations := s.engine.Evaluate(s.fixed); HardCount(baseViolations) > 0 {
		return Result{
			Success:    false,
			Score:      0,
			Entries:    nil,
			Violations: baseViolations,
			Elapsed:    time.Since(start),
			Message:    "no feasible solution: fixed entries violate hard constraints",
		}
	}

	if len(s.subjects) == 0 {
		entries := s.fixedEntries()
		violations := s.engine.Evaluate(entries)
		return Result{
			Success:    true,
			Score:      s.totalScore(entries, violations),
			Entries:    entries,
			Violations: violations,
			Elapsed:    time.Since(start),
			Message:    "nothing to optimize: no unassigned active subjects",
		}
	}

	s.run(ctx)

	// When the deadline fired before anything beyond the fixed entries was
	// placed, make one more pass using only hard constraints to find any
	// feasible solution.
	if s.best == nil || (s.timedOut && len(s.best.entries) <= len(s.fixed)) {
		s.feasibilityPass()
	}

	elapsed := time.Since(start)

	if s.best == nil || len(s.best.entries) == 0 {
		return Result{
			Success:       false,
			Score:         0,
			Entries:       nil,
			Violations:    nil,
			Elapsed:       elapsed,
			Message:       "no feasible solution found",
			NodesExplored: s.nodes,
		}
	}

	entries := s.best.entries
	violations := s.engine.Evaluate(entries)

	// Post-solve validation: the search's incremental bookkeeping must agree
	// with an independent evaluation of the extracted entries.
	if PenaltySum(violations) != s.best.penalty {
		return Result{
			Success: false,
			Score:   0,
			Entries: nil,
			Elapsed: elapsed,
			Message: fmt.Sprintf(
				"optimization failed: internal error: search bookkeeping penalty %.2f disagrees with validation penalty %.2f",
				s.best.penalty, PenaltySum(violations),
			),
			NodesExplored: s.nodes,
		}
	}

	message := "optimization completed successfully"
	switch {
	case s.feasibilityOnly && s.timedOut:
		message = "deadline reached: returning feasible solution from hard-constraints-only pass"
	case s.feasibilityOnly:
		message = "returning feasible solution from hard-constraints-only pass"
	case s.timedOut:
		message = "deadline reached: returning best solution found (not proven optimal)"
	}

	return Result{
		Success:       true,
		Score:         s.totalScore(entries, violations),
		Entries:       entries,
		Violations:    violations,
		Elapsed:       elapsed,
		Message:       message,
		NodesExplored: s.nodes,
	}
}

type candidate struct {
	entries []models.TimetableEntry
	penalty float64
	bonus   float64
}

type search struct {
	input       *Input
	timetableID string
	start       time.Time
	deadline    time.Time
	progress    func(Progress)

	subjects []*models.Subject  // variable order: priority desc, difficulty desc, stable
	slots    []*models.TimeSlot // available, not pinned by fixed entries
	fixed    []models.TimetableEntry

	engine *ConstraintEngine
	sched  *SchedulingContext

	occupied   map[string]bool
	assigned   []models.TimetableEntry // fixed + placed so far
	bonus      float64
	fixedBonus float64

	best            *candidate
	bestObjective   float64
	nodes           int
	timedOut        bool
	feasibilityOnly bool
}

func newSearch(input *Input, timetableID string, start, deadline time.Time, progress func(Progress)) *search {
	s := &search{
		input:       input,
		timetableID: timetableID,
		start:       start,
		deadline:    deadline,
		progress:    progress,
		engine:      NewConstraintEngine(input),
		sched:       NewSchedulingContext(input.Preferences),
		occupied:    make(map[string]bool),
	}

	slotByID := make(map[string]*models.TimeSlot, len(input.TimeSlots))
	for i := range input.TimeSlots {
		slotByID[input.TimeSlots[i].ID] = &input.TimeSlots[i]
	}
	subjectByID := make(map[string]*models.Subject, len(input.Subjects))
	for i := range input.Subjects {
		subjectByID[input.Subjects[i].ID] = &input.Subjects[i]
	}

	// Fixed entries are constants: their slots leave every domain and their
	// subjects are not re-assigned.
	pinnedSubjects := make(map[string]bool)
	for _, entry := range input.ExistingEntries {
		if !entry.IsFixed {
			continue
		}
		s.fixed = append(s.fixed, entry)
		pinnedSubjects[entry.SubjectID] = true
		s.occupied[entry.TimeSlotID] = true
		if slot, ok := slotByID[entry.TimeSlotID]; ok {
			s.sched.Add(slot)
		}
		if subject, ok := subjectByID[entry.SubjectID]; ok {
			s.fixedBonus += entryBonus(subject, slotByID[entry.TimeSlotID])
		}
	}

	for i := range input.Subjects {
		subject := &input.Subjects[i]
		if !subject.IsActive || pinnedSubjects[subject.ID] {
			continue
		}
		s.subjects = append(s.subjects, subject)
	}
	sort.SliceStable(s.subjects, func(i, j int) bool {
		wi, wj := s.subjects[i].Priority.Weight(), s.subjects[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return s.subjects[i].Difficulty.Value() > s.subjects[j].Difficulty.Value()
	})

	for i := range input.TimeSlots {
		slot := &input.TimeSlots[i]
		if !slot.IsAvailable || s.occupied[slot.ID] {
			continue
		}
		s.slots = append(s.slots, slot)
	}

	s.assigned = append(s.assigned, s.fixed...)
	return s
}

func (s *search) fixedEntries() []models.TimetableEntry {
	return append([]models.TimetableEntry(nil), s.fixed...)
}

func (s *search) run(ctx context.Context) {
	s.descend(ctx, 0)
}

// descend explores assignments for subject index i. Returns false when the
// deadline fired and the search should unwind.
func (s *search) descend(ctx context.Context, i int) bool {
	s.nodes++
	if s.checkDeadline(ctx) {
		// Record the current partial assignment so a timeout still yields
		// the best state seen, not nothing.
		s.record()
		return false
	}
	if s.progress != nil && s.nodes%progressInterval == 0 {
		s.progress(Progress{NodesExplored: s.nodes, BestScore: s.bestObjective, Elapsed: time.Since(s.start)})
	}

	if i == len(s.subjects) {
		s.record()
		return true
	}

	// Bound: assignment bonuses only grow by at most the remaining maximum,
	// and penalties only subtract, so prune dominated branches.
	if s.best != nil && s.bonus+s.fixedBonus+s.remainingBonus(i) <= s.bestObjective {
		return true
	}

	subject := s.subjects[i]
	for _, slot := range s.orderedCandidates(subject) {
		// Slot ids already assigned and slots overlapping a recorded interval
		// would both fail the hard time-conflict rule; skip them before the
		// full constraint evaluation.
		if s.occupied[slot.ID] || s.sched.Occupied(slot) {
			continue
		}
		s.place(subject, slot)
		if HardCount(s.engine.Evaluate(s.assigned)) > 0 {
			s.unplace(subject, slot)
			continue
		}
		ok := s.descend(ctx, i+1)
		s.unplace(subject, slot)
		if !ok {
			return false
		}
	}

	// Leaving the subject unassigned is always in the domain.
	return s.descend(ctx, i+1)
}

func (s *search) checkDeadline(ctx context.Context) bool {
	if s.timedOut {
		return true
	}
	if time.Now().After(s.deadline) || ctx.Err() != nil {
		s.timedOut = true
		return true
	}
	return false
}

// orderedCandidates returns the free available slots for a subject, ordered
// by descending heuristic score with input order as the stable tie-break.
func (s *search) orderedCandidates(subject *models.Subject) []*models.TimeSlot {
	type scored struct {
		slot  *models.TimeSlot
		score float64
	}
	candidates := make([]scored, 0, len(s.slots))
	for _, slot := range s.slots {
		if s.occupied[slot.ID] {
			continue
		}
		candidates = append(candidates, scored{slot: slot, score: ScoreSlot(subject, slot, s.sched).Value})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	ordered := make([]*models.TimeSlot, len(candidates))
	for i, c := range candidates {
		ordered[i] = c.slot
	}
	return ordered
}

func (s *search) place(subject *models.Subject, slot *models.TimeSlot) {
	entry := models.TimetableEntry{
		ID:          uuid.NewString(),
		TimetableID: s.timetableID,
		SubjectID:   subject.ID,
		TimeSlotID:  slot.ID,
		SessionType: models.SessionStudy,
		Duration:    slot.Duration(),
		Weight:      float64(subject.Priority.Weight()),
	}
	s.assigned = append(s.assigned, entry)
	s.occupied[slot.ID] = true
	s.sched.Add(slot)
	s.bonus += entryBonus(subject, slot)
}

func (s *search) unplace(subject *models.Subject, slot *models.TimeSlot) {
	s.assigned = s.assigned[:len(s.assigned)-1]
	delete(s.occupied, slot.ID)
	s.sched.Remove(slot)
	s.bonus -= entryBonus(subject, slot)
}

// record evaluates the current assignment and keeps it when it beats the
// best found so far. Ties keep the earlier solution, consistent with the
// documented search ordering.
func (s *search) record() {
	violations := s.engine.Evaluate(s.assigned)
	if HardCount(violations) > 0 {
		return
	}
	penalty := PenaltySum(violations)
	objective := s.bonus + s.fixedBonus - penalty
	if s.best != nil && objective <= s.bestObjective {
		return
	}
	entries := append([]models.TimetableEntry(nil), s.assigned...)
	s.best = &candidate{entries: entries, penalty: penalty, bonus: s.bonus + s.fixedBonus}
	s.bestObjective = objective
}

func (s *search) remainingBonus(from int) float64 {
	total := 0.0
	for _, subject := range s.subjects[from:] {
		total += float64(subject.Priority.Weight()*10 + 5)
	}
	return total
}

// feasibilityPass greedily assigns subjects in variable order to the first
// slot that keeps the hard-violation count at zero, ignoring soft quality.
func (s *search) feasibilityPass() {
	s.assigned = s.fixedEntries()
	s.bonus = 0
	for id := range s.occupied {
		delete(s.occupied, id)
	}
	for _, entry := range s.fixed {
		s.occupied[entry.TimeSlotID] = true
	}

	for _, subject := range s.subjects {
		for _, slot := range s.slots {
			if s.occupied[slot.ID] || s.sched.Occupied(slot) {
				continue
			}
			s.place(subject, slot)
			if HardCount(s.engine.Evaluate(s.assigned)) > 0 {
				s.unplace(subject, slot)
				continue
			}
			break
		}
	}

	if len(s.assigned) == 0 {
		return
	}
	violations := s.engine.Evaluate(s.assigned)
	if HardCount(violations) > 0 {
		return
	}
	s.best = &candidate{
		entries: append([]models.TimetableEntry(nil), s.assigned...),
		penalty: PenaltySum(violations),
		bonus:   s.bonus + s.fixedBonus,
	}
	s.bestObjective = s.best.bonus - s.best.penalty
	s.feasibilityOnly = true
}

// totalScore applies the documented score formula: priority weight * 10 per
// assigned entry, +5 when its slot is preferred, minus violation penalties,
// floored at zero.
func (s *search) totalScore(entries []models.TimetableEntry, violations []Violation) float64 {
	subjectByID := make(map[string]*models.Subject, len(s.input.Subjects))
	for i := range s.input.Subjects {
		subjectByID[s.input.Subjects[i].ID] = &s.input.Subjects[i]
	}
	slotByID := make(map[string]*models.TimeSlot, len(s.input.TimeSlots))
	for i := range s.input.TimeSlots {
		slotByID[s.input.TimeSlots[i].ID] = &s.input.TimeSlots[i]
	}

	score := 0.0
	for _, entry := range entries {
		subject, ok := subjectByID[entry.SubjectID]
		if !ok {
			continue
		}
		score += entryBonus(subject, slotByID[entry.TimeSlotID])
	}
	score -= PenaltySum(violations)
	if score < 0 {
		return 0
	}
	return score
}

func entryBonus(subject *models.Subject, slot *models.TimeSlot) float64 {
	if subject == nil {
		return 0
	}
	bonus := float64(subject.Priority.Weight() * 10)
	if slot != nil && slot.IsPreferred {
		bonus += 5
	}
	return bonus
}
