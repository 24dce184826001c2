package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/dto"
	"github.com/tmopt/timetable-api/internal/models"
	"github.com/tmopt/timetable-api/internal/optimizer"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
	"github.com/tmopt/timetable-api/pkg/jobs"
)

const (
	runStatusPending   = "PENDING"
	runStatusRunning   = "RUNNING"
	runStatusCompleted = "COMPLETED"
	runStatusFailed    = "FAILED"

	runStatusKeyPrefix = "optimizer:run:"
	jobTypeOptimize    = "optimize_timetable"
)

type optimizerSubjectSource interface {
	ListActive(ctx context.Context) ([]models.Subject, error)
}

type optimizerSlotSource interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
}

type optimizerConstraintSource interface {
	ListActive(ctx context.Context) ([]models.Constraint, error)
}

type optimizerPreferenceSource interface {
	Get(ctx context.Context) (models.UserPreferences, error)
}

type optimizerTimetableStore interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListFixedEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
	ReplaceEntries(ctx context.Context, timetableID string, entries []models.TimetableEntry) error
	UpdateStatus(ctx context.Context, id string, status models.TimetableStatus) error
	RecordOptimization(ctx context.Context, id string, status models.TimetableStatus, score float64) error
}

// OptimizationConfig bounds solver runs.
type OptimizationConfig struct {
	Timeout      time.Duration
	RunStatusTTL time.Duration
}

// OptimizationService orchestrates solver runs over persisted entities.
// Runs against the same timetable are serialized; the solver itself works on
// an immutable snapshot loaded at run start.
type OptimizationService struct {
	subjects    optimizerSubjectSource
	slots       optimizerSlotSource
	constraints optimizerConstraintSource
	prefs       optimizerPreferenceSource
	timetables  optimizerTimetableStore
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         OptimizationConfig

	queue *jobs.Queue

	mu      sync.Mutex
	running map[string]bool
}

// NewOptimizationService wires optimizer dependencies.
func NewOptimizationService(
	subjects optimizerSubjectSource,
	slots optimizerSlotSource,
	constraints optimizerConstraintSource,
	prefs optimizerPreferenceSource,
	timetables optimizerTimetableStore,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg OptimizationConfig,
) *OptimizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = optimizer.DefaultTimeout
	}
	if cfg.RunStatusTTL <= 0 {
		cfg.RunStatusTTL = time.Hour
	}
	return &OptimizationService{
		subjects:    subjects,
		slots:       slots,
		constraints: constraints,
		prefs:       prefs,
		timetables:  timetables,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		running:     make(map[string]bool),
	}
}

// AttachQueue starts the background queue used for async runs.
func (s *OptimizationService) AttachQueue(ctx context.Context, cfg jobs.QueueConfig) {
	s.queue = jobs.NewQueue("optimizer", s.handleJob, cfg)
	s.queue.Start(ctx)
}

// StopQueue drains the background queue.
func (s *OptimizationService) StopQueue() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Optimize runs the solver synchronously and persists the result.
func (s *OptimizationService) Optimize(ctx context.Context, timetableID string, req dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, fmt.Errorf("load timetable: %w", err)
	}

	if !s.acquire(timetableID) {
		return nil, appErrors.ErrOptimizationRunning
	}
	defer s.release(timetableID)

	return s.solveAndPersist(ctx, timetableID, req)
}

// OptimizeAsync enqueues a solver run and returns a run id for polling.
func (s *OptimizationService) OptimizeAsync(ctx context.Context, timetableID string, req dto.OptimizeRequest) (*dto.RunStatusResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "async optimization is not enabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, fmt.Errorf("load timetable: %w", err)
	}

	status := &dto.RunStatusResponse{
		RunID:       uuid.NewString(),
		TimetableID: timetableID,
		Status:      runStatusPending,
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	s.storeRunStatus(ctx, status)

	job := jobs.Job{
		ID:   status.RunID,
		Type: jobTypeOptimize,
		Payload: optimizeJobPayload{
			RunID:       status.RunID,
			TimetableID: timetableID,
			Request:     req,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, fmt.Errorf("enqueue optimization: %w", err)
	}
	return status, nil
}

// RunStatus returns the recorded state of an async run.
func (s *OptimizationService) RunStatus(ctx context.Context, runID string) (*dto.RunStatusResponse, error) {
	var status dto.RunStatusResponse
	hit, err := s.cache.Get(ctx, runStatusKeyPrefix+runID, &status)
	if err != nil {
		return nil, fmt.Errorf("load run status: %w", err)
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "optimization run not found")
	}
	return &status, nil
}

type optimizeJobPayload struct {
	RunID       string              `json:"run_id"`
	TimetableID string              `json:"timetable_id"`
	Request     dto.OptimizeRequest `json:"request"`
}

func (s *OptimizationService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(optimizeJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}

	if !s.acquire(payload.TimetableID) {
		return appErrors.ErrOptimizationRunning
	}
	defer s.release(payload.TimetableID)

	status := &dto.RunStatusResponse{
		RunID:       payload.RunID,
		TimetableID: payload.TimetableID,
		Status:      runStatusRunning,
		StartedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	s.storeRunStatus(ctx, status)

	result, err := s.solveAndPersist(ctx, payload.TimetableID, payload.Request)
	status.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if err != nil {
		status.Status = runStatusFailed
		status.Error = err.Error()
		s.storeRunStatus(ctx, status)
		return err
	}
	status.Status = runStatusCompleted
	status.Result = result
	s.storeRunStatus(ctx, status)
	return nil
}

func (s *OptimizationService) solveAndPersist(ctx context.Context, timetableID string, req dto.OptimizeRequest) (*dto.OptimizeResponse, error) {
	input, err := s.buildInput(ctx, timetableID)
	if err != nil {
		return nil, err
	}

	if err := s.timetables.UpdateStatus(ctx, timetableID, models.TimetableOptimizing); err != nil {
		return nil, err
	}

	timeout := s.cfg.Timeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	result := optimizer.Solve(ctx, *input, timetableID, optimizer.Options{
		Timeout: timeout,
		Progress: func(p optimizer.Progress) {
			s.logger.Debug("optimization progress",
				zap.String("timetable_id", timetableID),
				zap.Int("nodes", p.NodesExplored),
				zap.Float64("best_score", p.BestScore),
				zap.Duration("elapsed", p.Elapsed),
			)
		},
	})

	outcome := "success"
	if !result.Success {
		outcome = "infeasible"
	}
	s.metrics.ObserveSolve(outcome, result.Elapsed, result.NodesExplored, result.Score)

	if result.Success {
		if err := s.timetables.ReplaceEntries(ctx, timetableID, result.Entries); err != nil {
			_ = s.timetables.UpdateStatus(ctx, timetableID, models.TimetableFailed)
			return nil, fmt.Errorf("persist optimization result: %w", err)
		}
		if err := s.timetables.RecordOptimization(ctx, timetableID, models.TimetableOptimized, result.Score); err != nil {
			return nil, err
		}
	} else {
		// Entries are left untouched when no feasible assignment was found.
		if err := s.timetables.RecordOptimization(ctx, timetableID, models.TimetableFailed, 0); err != nil {
			return nil, err
		}
	}

	s.logger.Info("optimization finished",
		zap.String("timetable_id", timetableID),
		zap.Bool("success", result.Success),
		zap.Float64("score", result.Score),
		zap.Int("entries", len(result.Entries)),
		zap.Int("violations", len(result.Violations)),
		zap.Int("nodes", result.NodesExplored),
		zap.Duration("elapsed", result.Elapsed),
	)

	return s.toResponse(timetableID, input, &result), nil
}

// buildInput loads an immutable snapshot of the scheduling problem. Only
// fixed entries are carried into the solver; everything else is fair game
// for reassignment.
func (s *OptimizationService) buildInput(ctx context.Context, timetableID string) (*optimizer.Input, error) {
	subjects, err := s.subjects.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	constraints, err := s.constraints.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := s.prefs.Get(ctx)
	if err != nil {
		return nil, err
	}
	fixed, err := s.timetables.ListFixedEntries(ctx, timetableID)
	if err != nil {
		return nil, err
	}

	return &optimizer.Input{
		Subjects:        subjects,
		TimeSlots:       slots,
		Constraints:     constraints,
		Preferences:     prefs,
		ExistingEntries: fixed,
	}, nil
}

func (s *OptimizationService) toResponse(timetableID string, input *optimizer.Input, result *optimizer.Result) *dto.OptimizeResponse {
	subjectByID := make(map[string]*models.Subject, len(input.Subjects))
	for i := range input.Subjects {
		subjectByID[input.Subjects[i].ID] = &input.Subjects[i]
	}
	slotByID := make(map[string]*models.TimeSlot, len(input.TimeSlots))
	for i := range input.TimeSlots {
		slotByID[input.TimeSlots[i].ID] = &input.TimeSlots[i]
	}

	entries := make([]dto.EntryResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		resp := dto.EntryResponse{
			ID:          entry.ID,
			SubjectID:   entry.SubjectID,
			TimeSlotID:  entry.TimeSlotID,
			SessionType: string(entry.SessionType),
			Duration:    entry.Duration,
			IsFixed:     entry.IsFixed,
			Weight:      entry.Weight,
		}
		if subject, ok := subjectByID[entry.SubjectID]; ok {
			resp.SubjectName = subject.Name
		}
		if slot, ok := slotByID[entry.TimeSlotID]; ok {
			resp.Day = models.DayName(slot.DayOfWeek)
			resp.StartMinute = slot.StartMinute
			resp.EndMinute = slot.EndMinute
		}
		entries = append(entries, resp)
	}

	violations := make([]dto.ViolationResponse, 0, len(result.Violations))
	for _, v := range result.Violations {
		violations = append(violations, dto.ViolationResponse{
			ConstraintID:   v.ConstraintID,
			ConstraintName: v.ConstraintName,
			Severity:       string(v.Severity),
			Penalty:        v.Penalty,
			Description:    v.Description,
		})
	}

	return &dto.OptimizeResponse{
		TimetableID:   timetableID,
		Success:       result.Success,
		Score:         result.Score,
		Entries:       entries,
		Violations:    violations,
		Message:       result.Message,
		ElapsedMillis: result.Elapsed.Milliseconds(),
		NodesExplored: result.NodesExplored,
	}
}

func (s *OptimizationService) storeRunStatus(ctx context.Context, status *dto.RunStatusResponse) {
	if err := s.cache.Set(ctx, runStatusKeyPrefix+status.RunID, status, s.cfg.RunStatusTTL); err != nil {
		s.logger.Warn("store run status failed", zap.String("run_id", status.RunID), zap.Error(err))
	}
}

func (s *OptimizationService) acquire(timetableID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[timetableID] {
		return false
	}
	s.running[timetableID] = true
	return true
}

func (s *OptimizationService) release(timetableID string) {
	s.mu.Lock()
	delete(s.running, timetableID)
	s.mu.Unlock()
}
