package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

var repoWeek = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

func newTimetableRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func weekRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "department", "semester", "week_start_date", "time_blocks", "include_saturday", "status", "finalized_at", "created_at", "updated_at"})
}

func TestTimetableWeekRepositoryLockWeek(t *testing.T) {
	db, mock := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("timetable:2025-01-06").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockWeek(context.Background(), nil, repoWeek))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableWeekRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_weeks")).
		WithArgs(sqlmock.AnyArg(), "SCIENCE", 3, repoWeek, sqlmock.AnyArg(), false, models.TimetableStatusDraft, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	week := &models.TimetableWeek{Department: "SCIENCE", Semester: 3, WeekStartDate: repoWeek}
	require.NoError(t, repo.Create(context.Background(), tx, week))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, week.ID)
	assert.Equal(t, models.TimetableStatusDraft, week.Status)
	assert.Equal(t, "[]", week.TimeBlocks.String())
	assert.False(t, week.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableWeekRepositoryCreateRejectsIncompleteWeek(t *testing.T) {
	db, _ := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	assert.Error(t, repo.Create(context.Background(), nil, nil))
	assert.Error(t, repo.Create(context.Background(), nil, &models.TimetableWeek{Department: "SCIENCE"}))
}

func TestTimetableWeekRepositoryFindByKey(t *testing.T) {
	db, mock := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_weeks WHERE department = $1 AND semester = $2 AND week_start_date = $3")).
		WithArgs("SCIENCE", 3, repoWeek).
		WillReturnRows(weekRows().AddRow("week-1", "SCIENCE", 3, repoWeek, []byte(`[{"start":"07:00","end":"07:45","is_lunch":false}]`), true, "DRAFT", nil, now, now))

	week, err := repo.FindByKey(context.Background(), nil, "SCIENCE", 3, repoWeek)
	require.NoError(t, err)
	assert.Equal(t, "week-1", week.ID)
	assert.True(t, week.IncludeSaturday)
	blocks, err := week.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "07:45", blocks[0].End)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableWeekRepositoryFindByIDMissing(t *testing.T) {
	db, mock := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_weeks WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(weekRows())

	_, err := repo.FindByID(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableWeekRepositoryListAppliesFilters(t *testing.T) {
	db, mock := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, department, semester, week_start_date, time_blocks, include_saturday, status, finalized_at, created_at, updated_at FROM timetable_weeks WHERE 1=1 AND week_start_date = $1 AND department = $2 AND status = $3 ORDER BY week_start_date DESC, department ASC, semester ASC LIMIT 10 OFFSET 10")).
		WithArgs(repoWeek, "SCIENCE", models.TimetableStatusFinalized).
		WillReturnRows(weekRows().AddRow("week-1", "SCIENCE", 3, repoWeek, []byte(`[]`), false, "FINALIZED", now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM timetable_weeks WHERE 1=1 AND week_start_date = $1 AND department = $2 AND status = $3")).
		WithArgs(repoWeek, "SCIENCE", models.TimetableStatusFinalized).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	week := repoWeek
	weeks, total, err := repo.List(context.Background(), models.TimetableFilter{
		WeekStartDate: &week,
		Department:    "SCIENCE",
		Status:        models.TimetableStatusFinalized,
		Page:          2,
		PageSize:      10,
	})
	require.NoError(t, err)
	assert.Len(t, weeks, 1)
	assert.Equal(t, 11, total)
	assert.NotNil(t, weeks[0].FinalizedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableWeekRepositoryUpdateStatus(t *testing.T) {
	db, mock := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	finalizedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_weeks SET status = $1, finalized_at = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(models.TimetableStatusFinalized, finalizedAt, sqlmock.AnyArg(), "week-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE timetable_weeks SET status = $1")).
		WithArgs(models.TimetableStatusDraft, nil, sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), nil, "week-1", models.TimetableStatusFinalized, &finalizedAt))
	err := repo.UpdateStatus(context.Background(), nil, "ghost", models.TimetableStatusDraft, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableWeekRepositoryDelete(t *testing.T) {
	db, mock := newTimetableRepoMock(t)
	repo := NewTimetableWeekRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_weeks WHERE id = $1")).
		WithArgs("week-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_weeks WHERE id = $1")).
		WithArgs("week-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), nil, "week-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), nil, "week-1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
