package dto

import "github.com/tmopt/timetable-api/internal/models"

// OptimizeRequest starts a solver run for a timetable.
type OptimizeRequest struct {
	TimeoutSeconds int  `json:"timeoutSeconds" validate:"omitempty,min=1,max=300"`
	Async          bool `json:"async"`
}

// ViolationResponse reports one broken rule in an optimization result.
type ViolationResponse struct {
	ConstraintID   string  `json:"constraintId"`
	ConstraintName string  `json:"constraintName"`
	Severity       string  `json:"severity"`
	Penalty        float64 `json:"penalty"`
	Description    string  `json:"description"`
}

// EntryResponse is a single scheduled session.
type EntryResponse struct {
	ID          string  `json:"id"`
	SubjectID   string  `json:"subjectId"`
	SubjectName string  `json:"subjectName,omitempty"`
	TimeSlotID  string  `json:"timeSlotId"`
	Day         string  `json:"day,omitempty"`
	StartMinute int     `json:"startMinute"`
	EndMinute   int     `json:"endMinute"`
	SessionType string  `json:"sessionType"`
	Duration    int     `json:"duration"`
	IsFixed     bool    `json:"isFixed"`
	Weight      float64 `json:"weight"`
}

// OptimizeResponse is the outcome of a synchronous solver run.
type OptimizeResponse struct {
	TimetableID   string              `json:"timetableId"`
	Success       bool                `json:"success"`
	Score         float64             `json:"score"`
	Entries       []EntryResponse     `json:"entries"`
	Violations    []ViolationResponse `json:"violations"`
	Message       string              `json:"message"`
	ElapsedMillis int64               `json:"elapsedMillis"`
	NodesExplored int                 `json:"nodesExplored"`
}

// RunStatusResponse reports the state of an asynchronous solver run.
type RunStatusResponse struct {
	RunID       string            `json:"runId"`
	TimetableID string            `json:"timetableId"`
	Status      string            `json:"status"`
	Result      *OptimizeResponse `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	StartedAt   string            `json:"startedAt,omitempty"`
	FinishedAt  string            `json:"finishedAt,omitempty"`
}

// SuggestionRequest asks for slot suggestions for specific subjects.
type SuggestionRequest struct {
	SubjectIDs  []string `json:"subjectIds" validate:"omitempty,dive,required"`
	TimetableID string   `json:"timetableId" validate:"omitempty"`
}

// SuggestionResponse is one ranked subject/slot pairing.
type SuggestionResponse struct {
	Subject        models.Subject    `json:"subject"`
	TimeSlot       models.TimeSlot   `json:"timeSlot"`
	Score          float64           `json:"score"`
	Confidence     float64           `json:"confidence"`
	Reasons        []string          `json:"reasons"`
	Recommendation string            `json:"recommendation"`
	Alternatives   []models.TimeSlot `json:"alternatives,omitempty"`
}

// ScoreSlotRequest asks for a single subject/slot heuristic evaluation.
type ScoreSlotRequest struct {
	SubjectID  string `json:"subjectId" validate:"required"`
	TimeSlotID string `json:"timeSlotId" validate:"required"`
}

// ScoreSlotResponse returns the heuristic verdict for one pairing.
type ScoreSlotResponse struct {
	SubjectID  string   `json:"subjectId"`
	TimeSlotID string   `json:"timeSlotId"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}
