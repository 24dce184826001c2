package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tmopt/timetable-api/internal/models"
	appErrors "github.com/tmopt/timetable-api/pkg/errors"
	"github.com/tmopt/timetable-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportTimetableSource interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	FindActive(ctx context.Context) (*models.Timetable, error)
	ListEntries(ctx context.Context, timetableID string) ([]models.TimetableEntry, error)
}

type exportSubjectSource interface {
	ListActive(ctx context.Context) ([]models.Subject, error)
}

type exportSlotSource interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult carries a rendered timetable export.
type ExportResult struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// ExportService renders timetables as downloadable CSV or PDF documents.
type ExportService struct {
	timetables exportTimetableSource
	subjects   exportSubjectSource
	slots      exportSlotSource
	csv        datasetRenderer
	pdf        datasetRenderer
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timetables exportTimetableSource, subjects exportSubjectSource, slots exportSlotSource, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timetables: timetables,
		subjects:   subjects,
		slots:      slots,
		csv:        csv,
		pdf:        pdf,
		logger:     logger,
	}
}

// Export renders the requested timetable. An empty timetableID exports the
// currently active timetable.
func (s *ExportService) Export(ctx context.Context, timetableID string, format ExportFormat) (*ExportResult, error) {
	timetable, err := s.resolveTimetable(ctx, timetableID)
	if err != nil {
		return nil, err
	}

	dataset, err := s.buildDataset(ctx, timetable)
	if err != nil {
		return nil, err
	}

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := buildExportFilename(timetable.Name, format)
	s.logger.Info("timetable exported",
		zap.String("timetable_id", timetable.ID),
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{Payload: payload, ContentType: contentType, Filename: filename}, nil
}

func (s *ExportService) resolveTimetable(ctx context.Context, timetableID string) (*models.Timetable, error) {
	var (
		timetable *models.Timetable
		err       error
	)
	if timetableID == "" {
		timetable, err = s.timetables.FindActive(ctx)
	} else {
		timetable, err = s.timetables.FindByID(ctx, timetableID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

func (s *ExportService) buildDataset(ctx context.Context, timetable *models.Timetable) (export.Dataset, error) {
	entries, err := s.timetables.ListEntries(ctx, timetable.ID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	subjects, err := s.subjects.ListActive(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}

	subjectIndex := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		subjectIndex[subject.ID] = subject
	}
	slotIndex := make(map[string]models.TimeSlot, len(slots))
	for _, slot := range slots {
		slotIndex[slot.ID] = slot
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := slotIndex[entries[i].TimeSlotID], slotIndex[entries[j].TimeSlotID]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		return a.StartMinute < b.StartMinute
	})

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		slot := slotIndex[entry.TimeSlotID]
		subjectName := entry.SubjectID
		subjectCode := ""
		if subject, ok := subjectIndex[entry.SubjectID]; ok {
			subjectName = subject.Name
			subjectCode = subject.Code
		}
		fixed := "No"
		if entry.IsFixed {
			fixed = "Yes"
		}
		rows = append(rows, []string{
			models.DayName(slot.DayOfWeek),
			formatMinute(slot.StartMinute),
			formatMinute(slot.EndMinute),
			subjectName,
			subjectCode,
			string(entry.SessionType),
			fmt.Sprintf("%d min", entry.Duration),
			fixed,
		})
	}

	return export.Dataset{
		Title:   fmt.Sprintf("Timetable: %s", timetable.Name),
		Headers: []string{"Day", "Start", "End", "Subject", "Code", "Session Type", "Duration", "Fixed"},
		Rows:    rows,
	}, nil
}

func formatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

func buildExportFilename(name string, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(name), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "timetable"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
