package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmopt/timetable-api/internal/models"
)

func newTimetableMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimetableRepositoryCreateDefaultsToDraft(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec("INSERT INTO timetables").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	timetable := &models.Timetable{Name: "Semester plan"}
	err := repo.Create(context.Background(), timetable)
	require.NoError(t, err)
	assert.Equal(t, models.TimetableDraft, timetable.Status)
	assert.NotEmpty(t, timetable.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryRecordOptimization(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectExec("UPDATE timetables SET status = \\$2, optimization_score = \\$3, last_optimized_at = \\$4, updated_at = \\$4 WHERE id = \\$1").
		WithArgs("tt-1", models.TimetableOptimized, 65.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RecordOptimization(context.Background(), "tt-1", models.TimetableOptimized, 65)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceEntries(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries WHERE timetable_id = \\$1 AND is_fixed = FALSE").
		WithArgs("tt-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery("SELECT time_slot_id FROM timetable_entries WHERE timetable_id = \\$1").
		WithArgs("tt-1").
		WillReturnRows(sqlmock.NewRows([]string{"time_slot_id"}).AddRow("slot-fixed"))
	// The entry colliding with the pinned slot is skipped: one insert only.
	mock.ExpectExec("INSERT INTO timetable_entries").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.TimetableEntry{
		{SubjectID: "sub-1", TimeSlotID: "slot-fixed", SessionType: models.SessionStudy, Duration: 60},
		{SubjectID: "sub-2", TimeSlotID: "slot-2", SessionType: models.SessionStudy, Duration: 60},
	}
	err := repo.ReplaceEntries(context.Background(), "tt-1", entries)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceEntriesRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries WHERE timetable_id = \\$1 AND is_fixed = FALSE").
		WithArgs("tt-1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.ReplaceEntries(context.Background(), "tt-1", nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListEntries(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "timetable_id", "subject_id", "time_slot_id", "session_type", "duration", "is_fixed", "weight", "created_at", "updated_at"}).
		AddRow("e-1", "tt-1", "sub-1", "slot-1", "STUDY", 60, false, 30.0, time.Now(), time.Now())
	mock.ExpectQuery("SELECT e.id, e.timetable_id, .+ FROM timetable_entries e").
		WithArgs("tt-1").
		WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background(), "tt-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.SessionStudy, entries[0].SessionType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
