package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const timetableWeekColumns = `id, department, semester, week_start_date, time_blocks, include_saturday, status, finalized_at, created_at, updated_at`

// TimetableWeekRepository persists weekly timetables.
type TimetableWeekRepository struct {
	db *sqlx.DB
}

// NewTimetableWeekRepository constructs repository.
func NewTimetableWeekRepository(db *sqlx.DB) *TimetableWeekRepository {
	return &TimetableWeekRepository{db: db}
}

func (r *TimetableWeekRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockWeek takes a transaction-scoped advisory lock for a week start date so
// writers touching the same calendar week run one after another.
func (r *TimetableWeekRepository) LockWeek(ctx context.Context, exec sqlx.ExtContext, weekStart time.Time) error {
	const query = `SELECT pg_advisory_xact_lock(hashtext($1))`
	if _, err := r.exec(exec).ExecContext(ctx, query, "timetable:"+weekStart.Format("2006-01-02")); err != nil {
		return fmt.Errorf("lock timetable week: %w", err)
	}
	return nil
}

// Create inserts a timetable week.
func (r *TimetableWeekRepository) Create(ctx context.Context, exec sqlx.ExtContext, week *models.TimetableWeek) error {
	if week == nil {
		return fmt.Errorf("timetable week payload is nil")
	}
	if week.Department == "" || week.Semester <= 0 {
		return fmt.Errorf("department and semester are required")
	}
	if week.ID == "" {
		week.ID = uuid.NewString()
	}
	if week.Status == "" {
		week.Status = models.TimetableStatusDraft
	}
	if len(week.TimeBlocks) == 0 {
		week.TimeBlocks = types.JSONText(`[]`)
	}
	now := time.Now().UTC()
	if week.CreatedAt.IsZero() {
		week.CreatedAt = now
	}
	week.UpdatedAt = now

	const query = `
INSERT INTO timetable_weeks (id, department, semester, week_start_date, time_blocks, include_saturday, status, finalized_at, created_at, updated_at)
VALUES (:id, :department, :semester, :week_start_date, :time_blocks, :include_saturday, :status, :finalized_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, week); err != nil {
		return fmt.Errorf("insert timetable week: %w", err)
	}
	return nil
}

// FindByID loads a week by its identifier.
func (r *TimetableWeekRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableWeek, error) {
	query := `SELECT ` + timetableWeekColumns + ` FROM timetable_weeks WHERE id = $1`
	var week models.TimetableWeek
	if err := sqlx.GetContext(ctx, r.exec(exec), &week, query, id); err != nil {
		return nil, err
	}
	return &week, nil
}

// FindByKey loads the week for a department-semester-week triple.
func (r *TimetableWeekRepository) FindByKey(ctx context.Context, exec sqlx.ExtContext, department string, semester int, weekStart time.Time) (*models.TimetableWeek, error) {
	query := `SELECT ` + timetableWeekColumns + ` FROM timetable_weeks WHERE department = $1 AND semester = $2 AND week_start_date = $3`
	var week models.TimetableWeek
	if err := sqlx.GetContext(ctx, r.exec(exec), &week, query, department, semester, weekStart); err != nil {
		return nil, err
	}
	return &week, nil
}

// List returns weeks matching the filter together with the total count.
func (r *TimetableWeekRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableWeek, int, error) {
	base := "FROM timetable_weeks WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.WeekStartDate != nil {
		conditions = append(conditions, fmt.Sprintf("week_start_date = $%d", len(args)+1))
		args = append(args, *filter.WeekStartDate)
	}
	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Semester > 0 {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY week_start_date DESC, department ASC, semester ASC LIMIT %d OFFSET %d", timetableWeekColumns, base, size, offset)
	var weeks []models.TimetableWeek
	if err := r.db.SelectContext(ctx, &weeks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetable weeks: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetable weeks: %w", err)
	}
	return weeks, total, nil
}

// UpdateStatus toggles the lifecycle status of a week.
func (r *TimetableWeekRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus, finalizedAt *time.Time) error {
	const query = `UPDATE timetable_weeks SET status = $1, finalized_at = $2, updated_at = $3 WHERE id = $4`
	result, err := r.exec(exec).ExecContext(ctx, query, status, finalizedAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update timetable week status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable week status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a week. Entries go with it through ON DELETE CASCADE.
func (r *TimetableWeekRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	const query = `DELETE FROM timetable_weeks WHERE id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable week: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable week rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
