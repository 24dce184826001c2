package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
)

type exportTimetableStub struct {
	timetable *models.Timetable
	active    *models.Timetable
	entries   []models.TimetableEntry
}

func (s *exportTimetableStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	if s.timetable == nil || s.timetable.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.timetable, nil
}

func (s *exportTimetableStub) FindActive(ctx context.Context) (*models.Timetable, error) {
	if s.active == nil {
		return nil, sql.ErrNoRows
	}
	return s.active, nil
}

func (s *exportTimetableStub) ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error) {
	return s.entries, nil
}

func newExportFixture(store *exportTimetableStub) *ExportService {
	subjects := &optimizerSubjectStub{items: []models.Subject{
		{ID: "subj-math", Code: "MATH101", Name: "Mathematics", IsActive: true},
	}}
	slots := &optimizerSlotStub{items: []models.TimeSlot{
		{ID: "slot-mon-9", DayOfWeek: 1, StartMinute: 540, EndMinute: 600, IsAvailable: true},
		{ID: "slot-tue-9", DayOfWeek: 2, StartMinute: 540, EndMinute: 600, IsAvailable: true},
	}}
	return NewExportService(store, subjects, slots, nil, nil, nil)
}

func TestExportRendersCSV(t *testing.T) {
	store := &exportTimetableStub{
		timetable: &models.Timetable{ID: "tt-1", Name: "Week 1", Status: models.TimetableOptimized},
		entries: []models.TimetableEntry{
			{ID: "entry-2", TimetableID: "tt-1", SubjectID: "subj-math", TimeSlotID: "slot-tue-9", SessionType: models.SessionStudy, Duration: 60},
			{ID: "entry-1", TimetableID: "tt-1", SubjectID: "subj-math", TimeSlotID: "slot-mon-9", SessionType: models.SessionLecture, Duration: 60, IsFixed: true},
		},
	}
	svc := newExportFixture(store)

	result, err := svc.Export(context.Background(), "tt-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "week_1_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Day")
	// Rows come out ordered by day and start time.
	assert.Contains(t, lines[1], "MONDAY")
	assert.Contains(t, lines[1], "09:00")
	assert.Contains(t, lines[1], "MATH101")
	assert.Contains(t, lines[1], "Yes")
	assert.Contains(t, lines[2], "TUESDAY")
}

func TestExportRendersPDF(t *testing.T) {
	store := &exportTimetableStub{
		timetable: &models.Timetable{ID: "tt-1", Name: "Week 1", Status: models.TimetableOptimized},
	}
	svc := newExportFixture(store)

	result, err := svc.Export(context.Background(), "tt-1", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.NotEmpty(t, result.Payload)
}

func TestExportDefaultsToActiveTimetable(t *testing.T) {
	store := &exportTimetableStub{
		active: &models.Timetable{ID: "tt-active", Name: "Current", Status: models.TimetableActive},
	}
	svc := newExportFixture(store)

	result, err := svc.Export(context.Background(), "", ExportFormatCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Filename, "current_"))
}

func TestExportUnsupportedFormat(t *testing.T) {
	store := &exportTimetableStub{
		timetable: &models.Timetable{ID: "tt-1", Name: "Week 1"},
	}
	svc := newExportFixture(store)

	_, err := svc.Export(context.Background(), "tt-1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportTimetableNotFound(t *testing.T) {
	svc := newExportFixture(&exportTimetableStub{})

	_, err := svc.Export(context.Background(), "missing", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
