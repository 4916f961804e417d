package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const (
	timetableEntryColumns = `id, schedule_id, subject_id, faculty_id, department, semester, week_start_date, day, slot_index, room, is_manual, created_at, updated_at`

	timetableEntryDetailSelect = `SELECT e.id, e.schedule_id, e.subject_id, e.faculty_id, e.department, e.semester, e.week_start_date, e.day, e.slot_index, e.room, e.is_manual, e.created_at, e.updated_at, COALESCE(s.code, '') AS subject_code, COALESCE(s.name, '') AS subject_name, u.full_name AS faculty_name FROM timetable_entries e LEFT JOIN subjects s ON s.id = e.subject_id LEFT JOIN users u ON u.id = e.faculty_id`

	timetableEntryOrder = `ORDER BY array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY'], e.day), e.slot_index, e.schedule_id`
)

// TimetableEntryRepository manages the cells of weekly timetables.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository builds repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BulkCreate inserts generated or cloned entries, assigning ids in place.
func (r *TimetableEntryRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	for i := range entries {
		if err := r.insert(ctx, target, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a single entry.
func (r *TimetableEntryRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry == nil {
		return fmt.Errorf("timetable entry payload is nil")
	}
	return r.insert(ctx, r.exec(exec), entry)
}

func (r *TimetableEntryRepository) insert(ctx context.Context, target sqlx.ExtContext, entry *models.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `
INSERT INTO timetable_entries (id, schedule_id, subject_id, faculty_id, department, semester, week_start_date, day, slot_index, room, is_manual, created_at, updated_at)
VALUES (:id, :schedule_id, :subject_id, :faculty_id, :department, :semester, :week_start_date, :day, :slot_index, :room, :is_manual, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
		return fmt.Errorf("insert timetable entry: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an entry.
func (r *TimetableEntryRepository) Update(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_entries SET subject_id = :subject_id, faculty_id = :faculty_id, room = :room, is_manual = :is_manual, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entry)
	if err != nil {
		return fmt.Errorf("update timetable entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable entry rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an entry by id.
func (r *TimetableEntryRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable entry rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads an entry.
func (r *TimetableEntryRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableEntry, error) {
	query := `SELECT ` + timetableEntryColumns + ` FROM timetable_entries WHERE id = $1`
	var entry models.TimetableEntry
	if err := sqlx.GetContext(ctx, r.exec(exec), &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindAtCell returns the entry occupying a cell of a week, or sql.ErrNoRows.
func (r *TimetableEntryRepository) FindAtCell(ctx context.Context, exec sqlx.ExtContext, scheduleID, day string, slotIndex int) (*models.TimetableEntry, error) {
	query := `SELECT ` + timetableEntryColumns + ` FROM timetable_entries WHERE schedule_id = $1 AND day = $2 AND slot_index = $3`
	var entry models.TimetableEntry
	if err := sqlx.GetContext(ctx, r.exec(exec), &entry, query, scheduleID, day, slotIndex); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListBySchedule returns the entries of one week ordered by day and slot.
func (r *TimetableEntryRepository) ListBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) ([]models.TimetableEntryDetail, error) {
	query := timetableEntryDetailSelect + ` WHERE e.schedule_id = $1 ` + timetableEntryOrder
	var entries []models.TimetableEntryDetail
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list timetable entries by schedule: %w", err)
	}
	return entries, nil
}

// ListByWeek returns the entries of every timetable sharing a week start date.
func (r *TimetableEntryRepository) ListByWeek(ctx context.Context, exec sqlx.ExtContext, weekStart time.Time) ([]models.TimetableEntryDetail, error) {
	query := timetableEntryDetailSelect + ` WHERE e.week_start_date = $1 ` + timetableEntryOrder
	var entries []models.TimetableEntryDetail
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, weekStart); err != nil {
		return nil, fmt.Errorf("list timetable entries by week: %w", err)
	}
	return entries, nil
}

// CountBySubject reports how many lectures each subject received in a week.
// Subjects without entries are absent from the result.
func (r *TimetableEntryRepository) CountBySubject(ctx context.Context, scheduleID string) ([]models.SubjectLoad, error) {
	const query = `SELECT e.subject_id, COALESCE(s.code, '') AS subject_code, COALESCE(s.name, '') AS subject_name, COUNT(*) AS placed FROM timetable_entries e LEFT JOIN subjects s ON s.id = e.subject_id WHERE e.schedule_id = $1 GROUP BY e.subject_id, s.code, s.name ORDER BY subject_code ASC`
	var loads []models.SubjectLoad
	if err := r.db.SelectContext(ctx, &loads, query, scheduleID); err != nil {
		return nil, fmt.Errorf("count timetable entries by subject: %w", err)
	}
	return loads, nil
}
