package dto

// CreateSubjectRequest registers a schedulable subject.
type CreateSubjectRequest struct {
	Code               string   `json:"code" validate:"required,max=32"`
	Name               string   `json:"name" validate:"required,max=128"`
	Priority           string   `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
	Difficulty         string   `json:"difficulty" validate:"required,oneof=EASY MEDIUM HARD VERY_HARD"`
	EstimatedHours     int      `json:"estimatedHours" validate:"omitempty,min=0,max=80"`
	PreferredTimeSlots []string `json:"preferredTimeSlots" validate:"omitempty,dive,required"`
	IsActive           *bool    `json:"isActive"`
}

// UpdateSubjectRequest modifies an existing subject.
type UpdateSubjectRequest struct {
	Code               string   `json:"code" validate:"omitempty,max=32"`
	Name               string   `json:"name" validate:"omitempty,max=128"`
	Priority           string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	Difficulty         string   `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD VERY_HARD"`
	EstimatedHours     *int     `json:"estimatedHours" validate:"omitempty,min=0,max=80"`
	PreferredTimeSlots []string `json:"preferredTimeSlots" validate:"omitempty,dive,required"`
	IsActive           *bool    `json:"isActive"`
}

// SubjectQuery filters subject listings.
type SubjectQuery struct {
	Search     string `form:"search" json:"search"`
	Priority   string `form:"priority" json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	ActiveOnly bool   `form:"activeOnly" json:"activeOnly"`
	Page       int    `form:"page" json:"page"`
	PageSize   int    `form:"pageSize" json:"pageSize"`
	SortBy     string `form:"sortBy" json:"sortBy"`
	SortOrder  string `form:"sortOrder" json:"sortOrder"`
}

// CreateTimeSlotRequest registers a weekly time slot.
type CreateTimeSlotRequest struct {
	DayOfWeek   int     `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartMinute int     `json:"startMinute" validate:"min=0,max=1439"`
	EndMinute   int     `json:"endMinute" validate:"required,min=1,max=1440,gtfield=StartMinute"`
	IsAvailable *bool   `json:"isAvailable"`
	IsPreferred bool    `json:"isPreferred"`
	Weight      float64 `json:"weight" validate:"omitempty,min=0"`
	Room        *string `json:"room"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=1"`
}

// UpdateTimeSlotRequest modifies an existing time slot.
type UpdateTimeSlotRequest struct {
	DayOfWeek   int      `json:"dayOfWeek" validate:"omitempty,min=1,max=7"`
	StartMinute *int     `json:"startMinute" validate:"omitempty,min=0,max=1439"`
	EndMinute   *int     `json:"endMinute" validate:"omitempty,min=1,max=1440"`
	IsAvailable *bool    `json:"isAvailable"`
	IsPreferred *bool    `json:"isPreferred"`
	Weight      *float64 `json:"weight" validate:"omitempty,min=0"`
	Room        *string  `json:"room"`
	Capacity    *int     `json:"capacity" validate:"omitempty,min=1"`
}

// TimeSlotQuery filters slot listings.
type TimeSlotQuery struct {
	DayOfWeek     int  `form:"dayOfWeek" json:"dayOfWeek" validate:"omitempty,min=1,max=7"`
	AvailableOnly bool `form:"availableOnly" json:"availableOnly"`
	PreferredOnly bool `form:"preferredOnly" json:"preferredOnly"`
	Page          int  `form:"page" json:"page"`
	PageSize      int  `form:"pageSize" json:"pageSize"`
}

// ConstraintRequest creates or replaces a scheduling constraint.
type ConstraintRequest struct {
	Name             string         `json:"name" validate:"required,max=128"`
	Description      string         `json:"description" validate:"max=512"`
	Type             string         `json:"type" validate:"required"`
	Severity         string         `json:"severity" validate:"required,oneof=HARD SOFT PREFERENCE"`
	IsActive         *bool          `json:"isActive"`
	Parameters       map[string]any `json:"parameters"`
	Weight           float64        `json:"weight" validate:"omitempty,min=0"`
	ViolationPenalty float64        `json:"violationPenalty" validate:"omitempty,min=0"`
	SubjectScope     []string       `json:"subjectScope" validate:"omitempty,dive,required"`
	TimeSlotScope    []string       `json:"timeSlotScope" validate:"omitempty,dive,required"`
}

// PreferencesRequest replaces the user scheduling preferences.
type PreferencesRequest struct {
	PreferredStartMinute  int    `json:"preferredStartMinute" validate:"min=0,max=1439"`
	PreferredEndMinute    int    `json:"preferredEndMinute" validate:"required,min=1,max=1440,gtfield=PreferredStartMinute"`
	MaxHoursPerDay        int    `json:"maxHoursPerDay" validate:"required,min=1,max=24"`
	MinBreakMinutes       int    `json:"minBreakMinutes" validate:"min=0,max=240"`
	MaxConsecutiveHours   int    `json:"maxConsecutiveHours" validate:"required,min=1,max=12"`
	EnergyPeak            string `json:"energyPeak" validate:"required,oneof=MORNING AFTERNOON EVENING NIGHT"`
	AllowWeekends         bool   `json:"allowWeekends"`
	AllowEvenings         bool   `json:"allowEvenings"`
	BalanceWorkload       bool   `json:"balanceWorkload"`
	PrioritizeConsistency bool   `json:"prioritizeConsistency"`
}

// CreateTimetableRequest registers a new timetable shell.
type CreateTimetableRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=512"`
}

// CreateEntryRequest manually places a subject into a slot.
type CreateEntryRequest struct {
	SubjectID   string  `json:"subjectId" validate:"required"`
	TimeSlotID  string  `json:"timeSlotId" validate:"required"`
	SessionType string  `json:"sessionType" validate:"omitempty,oneof=LECTURE TUTORIAL LAB STUDY REVIEW EXAM"`
	Duration    int     `json:"duration" validate:"omitempty,min=1"`
	IsFixed     bool    `json:"isFixed"`
	Weight      float64 `json:"weight" validate:"omitempty,min=0"`
}

// FeedbackRequest records a rating for a subject/slot pairing.
type FeedbackRequest struct {
	SubjectID  string         `json:"subjectId" validate:"required"`
	TimeSlotID string         `json:"timeSlotId" validate:"required"`
	Rating     float64        `json:"rating" validate:"required,min=0,max=1"`
	Context    map[string]any `json:"context"`
}

// SetActiveRequest toggles a constraint on or off.
type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// TransitionRequest moves a timetable to a new lifecycle status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT ACTIVE ARCHIVED"`
}
