package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

const (
	weekKeyConstraint   = "timetable_weeks_department_semester_week_key"
	entryCellConstraint = "timetable_entries_cell_key"
)

type timetableWeekRepository interface {
	LockWeek(ctx context.Context, exec sqlx.ExtContext, weekStart time.Time) error
	Create(ctx context.Context, exec sqlx.ExtContext, week *models.TimetableWeek) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableWeek, error)
	FindByKey(ctx context.Context, exec sqlx.ExtContext, department string, semester int, weekStart time.Time) (*models.TimetableWeek, error)
	List(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableWeek, int, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus, finalizedAt *time.Time) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type timetableEntryRepository interface {
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error
	Update(ctx context.Context, exec sqlx.ExtContext, entry *models.TimetableEntry) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableEntry, error)
	FindAtCell(ctx context.Context, exec sqlx.ExtContext, scheduleID, day string, slotIndex int) (*models.TimetableEntry, error)
	ListBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID string) ([]models.TimetableEntryDetail, error)
	ListByWeek(ctx context.Context, exec sqlx.ExtContext, weekStart time.Time) ([]models.TimetableEntryDetail, error)
	CountBySubject(ctx context.Context, scheduleID string) ([]models.SubjectLoad, error)
}

type timetableSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
}

type holidayReader interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Holiday, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type timetableRecorder interface {
	RecordGeneration(outcome string, placed, shortfall int)
	RecordConflicts(source string, count int)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableConfig governs generator behaviour.
type TimetableConfig struct {
	// RandomSeed fixes the placement order when non-zero.
	RandomSeed      int64
	HolidayCacheTTL time.Duration
	ExportTitle     string
	// CSVDelimiter separates exported CSV fields; zero means comma.
	CSVDelimiter rune
	CSVWithBOM   bool
}

// TimetableService generates weekly timetables and guards their edits.
type TimetableService struct {
	weeks     timetableWeekRepository
	entries   timetableEntryRepository
	subjects  timetableSubjectReader
	holidays  holidayReader
	cache     timetableCache
	metrics   timetableRecorder
	tx        txProvider
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	weeks timetableWeekRepository,
	entries timetableEntryRepository,
	subjects timetableSubjectReader,
	holidays holidayReader,
	cache timetableCache,
	metrics timetableRecorder,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopTimetableRecorder{}
	}
	if cfg.HolidayCacheTTL <= 0 {
		cfg.HolidayCacheTTL = time.Hour
	}
	if cfg.ExportTitle == "" {
		cfg.ExportTitle = "Timetable"
	}
	return &TimetableService{
		weeks:     weeks,
		entries:   entries,
		subjects:  subjects,
		holidays:  holidays,
		cache:     cache,
		metrics:   metrics,
		tx:        tx,
		csv:       export.NewCSVExporter(export.WithDelimiter(cfg.CSVDelimiter), export.WithBOM(cfg.CSVWithBOM)),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate builds and persists the timetable of one department-semester week.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	weekStart, err := parseWeekStart(req.WeekStartDate)
	if err != nil {
		return nil, err
	}
	if err := validateTimeBlocks(req.TimeBlocks); err != nil {
		return nil, err
	}
	if err := requireLunchBlock(req.TimeBlocks); err != nil {
		return nil, err
	}
	requests, err := s.resolveSubjectRequests(ctx, req.Subjects)
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidaysForWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	catalog := BuildSlotCatalog(weekStart, req.TimeBlocks, req.IncludeSaturday, holidays)
	blocks, err := models.EncodeTimeBlocks(req.TimeBlocks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode time blocks")
	}

	week := &models.TimetableWeek{
		Department:      req.Department,
		Semester:        req.Semester,
		WeekStartDate:   weekStart,
		TimeBlocks:      blocks,
		IncludeSaturday: req.IncludeSaturday,
		Status:          models.TimetableStatusDraft,
	}

	var result placementResult
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.weeks.LockWeek(ctx, tx, weekStart); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable week")
		}
		if err := s.ensureWeekAvailable(ctx, tx, req.Department, req.Semester, weekStart); err != nil {
			return err
		}
		if err := s.weeks.Create(ctx, tx, week); err != nil {
			return mapWeekWriteError(err)
		}
		siblings, err := s.entries.ListByWeek(ctx, tx, weekStart)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sibling timetables")
		}

		generator := newTimetableGenerator(s.newRand(), s.logger)
		result = generator.place(placementTarget{
			ScheduleID:    week.ID,
			Department:    week.Department,
			Semester:      week.Semester,
			WeekStartDate: weekStart,
		}, requests, catalog, plainEntries(siblings))
		if len(result.Entries) == 0 {
			return appErrors.Clone(appErrors.ErrNoEntriesPlaced, fmt.Sprintf("no lectures could be placed across %d available slots", len(catalog)))
		}
		if err := s.entries.BulkCreate(ctx, tx, result.Entries); err != nil {
			return mapEntryWriteError(err)
		}
		return nil
	})
	shortfall := shortfallTotal(result.Shortfalls)
	if err != nil {
		s.metrics.RecordGeneration(generationOutcome(err), 0, shortfall)
		return nil, err
	}
	s.metrics.RecordGeneration("placed", len(result.Entries), shortfall)

	s.logger.Info("timetable generated",
		zap.String("schedule_id", week.ID),
		zap.String("department", week.Department),
		zap.Int("semester", week.Semester),
		zap.String("week_start", dateKey(weekStart)),
		zap.Int("slots", len(catalog)),
		zap.Int("requested", result.Requested),
		zap.Int("placed", len(result.Entries)),
	)

	return &dto.GenerateTimetableResponse{
		ScheduleID: week.ID,
		EntryCount: len(result.Entries),
		Requested:  result.Requested,
		SlotCount:  len(catalog),
		Shortfalls: result.Shortfalls,
	}, nil
}

// GetSlotCatalog returns the placeable cells for a template without persisting
// anything. Templates without a lunch block are accepted here; only Generate
// requires one.
func (s *TimetableService) GetSlotCatalog(ctx context.Context, req dto.SlotCatalogRequest) ([]models.Slot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot catalog payload")
	}
	weekStart, err := parseWeekStart(req.WeekStartDate)
	if err != nil {
		return nil, err
	}
	if err := validateTimeBlocks(req.TimeBlocks); err != nil {
		return nil, err
	}
	holidays, err := s.holidaysForWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	return BuildSlotCatalog(weekStart, req.TimeBlocks, req.IncludeSaturday, holidays), nil
}

// AddEntry places one lecture by hand after re-checking occupancy and faculty exclusivity.
func (s *TimetableService) AddEntry(ctx context.Context, scheduleID string, req dto.AddEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable entry payload")
	}
	week, err := s.loadWeek(ctx, nil, scheduleID)
	if err != nil {
		return nil, err
	}
	subject, err := s.loadSubject(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalogForWeek(ctx, week)
	if err != nil {
		return nil, err
	}
	if _, ok := slotAt(catalog, req.Day, req.SlotIndex); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s slot %d is not a teaching slot of this week", req.Day, req.SlotIndex))
	}

	entry := &models.TimetableEntry{
		ScheduleID:    week.ID,
		SubjectID:     subject.ID,
		FacultyID:     req.FacultyID,
		Department:    week.Department,
		Semester:      week.Semester,
		WeekStartDate: week.WeekStartDate,
		Day:           req.Day,
		SlotIndex:     req.SlotIndex,
		Room:          normalizeRoom(req.Room),
		IsManual:      true,
	}
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.weeks.LockWeek(ctx, tx, week.WeekStartDate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable week")
		}
		if _, err := s.editableWeek(ctx, tx, week.ID); err != nil {
			return err
		}
		occupant, err := s.entries.FindAtCell(ctx, tx, week.ID, req.Day, req.SlotIndex)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot occupancy")
		}
		if occupant != nil {
			return appErrors.Clone(appErrors.ErrSlotOccupied, fmt.Sprintf("%s slot %d is already occupied in this timetable", req.Day, req.SlotIndex))
		}
		if err := s.guardFacultyExclusivity(ctx, tx, *entry, subject.Code); err != nil {
			return err
		}
		if err := s.entries.Create(ctx, tx, entry); err != nil {
			return mapEntryWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// EditEntry swaps the subject, faculty or room of an entry. Day and slot never move.
func (s *TimetableService) EditEntry(ctx context.Context, entryID string, req dto.EditEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable entry payload")
	}
	current, err := s.loadEntry(ctx, nil, entryID)
	if err != nil {
		return nil, err
	}
	subject, err := s.loadSubject(ctx, req.SubjectID)
	if err != nil {
		return nil, err
	}

	var updated *models.TimetableEntry
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.weeks.LockWeek(ctx, tx, current.WeekStartDate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable week")
		}
		entry, err := s.loadEntry(ctx, tx, entryID)
		if err != nil {
			return err
		}
		if _, err := s.editableWeek(ctx, tx, entry.ScheduleID); err != nil {
			return err
		}
		entry.SubjectID = subject.ID
		entry.FacultyID = req.FacultyID
		entry.Room = normalizeRoom(req.Room)
		entry.IsManual = true
		if err := s.guardFacultyExclusivity(ctx, tx, *entry, subject.Code); err != nil {
			return err
		}
		if err := s.entries.Update(ctx, tx, entry); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable entry")
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEntry removes a single entry from a draft timetable.
func (s *TimetableService) DeleteEntry(ctx context.Context, entryID string) error {
	entry, err := s.loadEntry(ctx, nil, entryID)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.weeks.LockWeek(ctx, tx, entry.WeekStartDate); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable week")
		}
		if _, err := s.editableWeek(ctx, tx, entry.ScheduleID); err != nil {
			return err
		}
		if err := s.entries.Delete(ctx, tx, entryID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entry")
		}
		return nil
	})
}

// AuditConflicts lists every faculty double booking across timetables of one week.
func (s *TimetableService) AuditConflicts(ctx context.Context, weekStartDate string) ([]models.ConflictRecord, error) {
	weekStart, err := parseWeekStart(weekStartDate)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByWeek(ctx, nil, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	conflicts := AuditConflicts(entries)
	s.metrics.RecordConflicts("audit", len(conflicts))
	return conflicts, nil
}

// Clone copies a timetable and its entries onto another week as a new draft.
// Entries that fall on a holiday of the target week are left out.
func (s *TimetableService) Clone(ctx context.Context, sourceID string, req dto.CloneTimetableRequest) (*dto.CloneTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clone payload")
	}
	weekStart, err := parseWeekStart(req.WeekStartDate)
	if err != nil {
		return nil, err
	}
	source, err := s.loadWeek(ctx, nil, sourceID)
	if err != nil {
		return nil, err
	}
	sourceEntries, err := s.entries.ListBySchedule(ctx, nil, source.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	blocks, err := source.Blocks()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode time blocks")
	}
	holidays, err := s.holidaysForWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	catalog := BuildSlotCatalog(weekStart, blocks, source.IncludeSaturday, holidays)

	clone := &models.TimetableWeek{
		Department:      source.Department,
		Semester:        source.Semester,
		WeekStartDate:   weekStart,
		TimeBlocks:      source.TimeBlocks,
		IncludeSaturday: source.IncludeSaturday,
		Status:          models.TimetableStatusDraft,
	}
	copies := make([]models.TimetableEntry, 0, len(sourceEntries))
	for _, item := range sourceEntries {
		if _, ok := slotAt(catalog, item.Day, item.SlotIndex); !ok {
			continue
		}
		entry := item.TimetableEntry
		entry.ID = ""
		entry.WeekStartDate = weekStart
		entry.CreatedAt = time.Time{}
		entry.UpdatedAt = time.Time{}
		copies = append(copies, entry)
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.weeks.LockWeek(ctx, tx, weekStart); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock timetable week")
		}
		if err := s.ensureWeekAvailable(ctx, tx, clone.Department, clone.Semester, weekStart); err != nil {
			return err
		}
		if err := s.weeks.Create(ctx, tx, clone); err != nil {
			return mapWeekWriteError(err)
		}
		for i := range copies {
			copies[i].ScheduleID = clone.ID
		}
		if err := s.entries.BulkCreate(ctx, tx, copies); err != nil {
			return mapEntryWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if skipped := len(sourceEntries) - len(copies); skipped > 0 {
		s.logger.Info("clone skipped entries outside the target week's slots",
			zap.String("source_id", source.ID),
			zap.String("schedule_id", clone.ID),
			zap.Int("skipped", skipped),
		)
	}
	return &dto.CloneTimetableResponse{ScheduleID: clone.ID, EntryCount: len(copies)}, nil
}

// Finalize audits the week and marks it final. Conflicts block finalisation
// until the caller acknowledges them.
func (s *TimetableService) Finalize(ctx context.Context, scheduleID string, req dto.FinalizeTimetableRequest) (*dto.FinalizeTimetableResponse, error) {
	week, err := s.loadWeek(ctx, nil, scheduleID)
	if err != nil {
		return nil, err
	}
	if week.Status == models.TimetableStatusFinalized {
		return &dto.FinalizeTimetableResponse{Schedule: week, Finalized: true, Conflicts: []models.ConflictRecord{}}, nil
	}

	entries, err := s.entries.ListByWeek(ctx, nil, week.WeekStartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	conflicts := conflictsInvolving(AuditConflicts(entries), week.ID)
	s.metrics.RecordConflicts("finalize", len(conflicts))
	if len(conflicts) > 0 && !req.AcknowledgeConflicts {
		return &dto.FinalizeTimetableResponse{Schedule: week, Finalized: false, Conflicts: conflicts}, nil
	}

	now := time.Now().UTC()
	if err := s.weeks.UpdateStatus(ctx, nil, week.ID, models.TimetableStatusFinalized, &now); err != nil {
		return nil, mapStatusError(err)
	}
	week.Status = models.TimetableStatusFinalized
	week.FinalizedAt = &now
	if len(conflicts) > 0 {
		s.logger.Warn("timetable finalized with acknowledged conflicts",
			zap.String("schedule_id", week.ID),
			zap.Int("conflicts", len(conflicts)),
		)
	}
	return &dto.FinalizeTimetableResponse{Schedule: week, Finalized: true, Conflicts: conflicts}, nil
}

// Unfinalize returns a finalized week to draft so it can be edited again.
func (s *TimetableService) Unfinalize(ctx context.Context, scheduleID string) (*models.TimetableWeek, error) {
	week, err := s.loadWeek(ctx, nil, scheduleID)
	if err != nil {
		return nil, err
	}
	if week.Status == models.TimetableStatusDraft {
		return week, nil
	}
	if err := s.weeks.UpdateStatus(ctx, nil, week.ID, models.TimetableStatusDraft, nil); err != nil {
		return nil, mapStatusError(err)
	}
	week.Status = models.TimetableStatusDraft
	week.FinalizedAt = nil
	return week, nil
}

// Delete removes a draft timetable together with its entries.
func (s *TimetableService) Delete(ctx context.Context, scheduleID string) error {
	week, err := s.loadWeek(ctx, nil, scheduleID)
	if err != nil {
		return err
	}
	if week.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.weeks.Delete(ctx, nil, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	return nil
}

// List returns timetables matching the query.
func (s *TimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableWeek, *models.Pagination, error) {
	filter := models.TimetableFilter{
		Department: query.Department,
		Semester:   query.Semester,
		Status:     models.TimetableStatus(strings.ToUpper(query.Status)),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.WeekStartDate != "" {
		weekStart, err := parseWeekStart(query.WeekStartDate)
		if err != nil {
			return nil, nil, err
		}
		filter.WeekStartDate = &weekStart
	}
	weeks, total, err := s.weeks.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return weeks, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a timetable with its slot catalog and entries.
func (s *TimetableService) Get(ctx context.Context, scheduleID string) (*dto.TimetableDetail, error) {
	week, err := s.loadWeek(ctx, nil, scheduleID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalogForWeek(ctx, week)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListBySchedule(ctx, nil, week.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	return &dto.TimetableDetail{Schedule: week, Slots: catalog, Entries: entries}, nil
}

// SubjectLoad reports how many lectures each subject received. Only subjects
// with at least one entry in the week are listed: requested quotas are not
// stored, so a subject that got no placement at all shows up only in the
// shortfalls of the Generate response.
func (s *TimetableService) SubjectLoad(ctx context.Context, scheduleID string) ([]models.SubjectLoad, error) {
	if _, err := s.loadWeek(ctx, nil, scheduleID); err != nil {
		return nil, err
	}
	loads, err := s.entries.CountBySubject(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count timetable entries")
	}
	return loads, nil
}

func (s *TimetableService) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
	}
	return nil
}

func (s *TimetableService) newRand() *rand.Rand {
	seed := s.cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (s *TimetableService) ensureWeekAvailable(ctx context.Context, exec sqlx.ExtContext, department string, semester int, weekStart time.Time) error {
	existing, err := s.weeks.FindByKey(ctx, exec, department, semester, weekStart)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing timetable")
	}
	if existing != nil {
		return appErrors.Clone(appErrors.ErrDuplicateWeek, fmt.Sprintf("timetable for %s semester %d week %s already exists", department, semester, dateKey(weekStart)))
	}
	return nil
}

func (s *TimetableService) resolveSubjectRequests(ctx context.Context, items []dto.SubjectRequest) ([]placementRequest, error) {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	total := 0
	for _, item := range items {
		if seen[item.SubjectID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s is listed more than once", item.SubjectID))
		}
		seen[item.SubjectID] = true
		ids = append(ids, item.SubjectID)
		total += item.LecturesNeeded
	}
	if total == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one subject must need lectures")
	}

	subjects, err := s.subjects.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	byID := make(map[string]models.Subject, len(subjects))
	for _, subject := range subjects {
		byID[subject.ID] = subject
	}

	requests := make([]placementRequest, 0, len(items))
	for _, item := range items {
		subject, ok := byID[item.SubjectID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", item.SubjectID))
		}
		if subject.FacultyID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject %s has no faculty assigned", subject.Code))
		}
		requests = append(requests, placementRequest{Subject: subject, LecturesNeeded: item.LecturesNeeded})
	}
	return requests, nil
}

func (s *TimetableService) holidaysForWeek(ctx context.Context, weekStart time.Time) ([]time.Time, error) {
	key := "timetable:holidays:" + dateKey(weekStart)
	if s.cache != nil {
		var cached []string
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return parseHolidayKeys(cached), nil
		}
	}
	if s.holidays == nil {
		return nil, nil
	}

	list, err := s.holidays.ListBetween(ctx, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	dates := make([]time.Time, 0, len(list))
	keys := make([]string, 0, len(list))
	for _, holiday := range list {
		dates = append(dates, holiday.Date)
		keys = append(keys, dateKey(holiday.Date))
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, keys, s.cfg.HolidayCacheTTL)
	}
	return dates, nil
}

func (s *TimetableService) catalogForWeek(ctx context.Context, week *models.TimetableWeek) ([]models.Slot, error) {
	blocks, err := week.Blocks()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode time blocks")
	}
	holidays, err := s.holidaysForWeek(ctx, week.WeekStartDate)
	if err != nil {
		return nil, err
	}
	return BuildSlotCatalog(week.WeekStartDate, blocks, week.IncludeSaturday, holidays), nil
}

// guardFacultyExclusivity rejects a candidate whose faculty already teaches the
// same cell in another timetable of the week.
func (s *TimetableService) guardFacultyExclusivity(ctx context.Context, exec sqlx.ExtContext, candidate models.TimetableEntry, subjectCode string) error {
	weekEntries, err := s.entries.ListByWeek(ctx, exec, candidate.WeekStartDate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sibling timetables")
	}
	clashes := findFacultyClashes(weekEntries, models.TimetableEntryDetail{TimetableEntry: candidate, SubjectCode: subjectCode})
	if len(clashes) == 0 {
		return nil
	}
	message := fmt.Sprintf("faculty %s already teaches on %s slot %d in another timetable", candidate.FacultyID, candidate.Day, candidate.SlotIndex)
	return appErrors.Wrap(&models.TimetableConflictError{Message: message, Conflicts: clashes}, appErrors.ErrFacultyConflict.Code, appErrors.ErrFacultyConflict.Status, message)
}

func (s *TimetableService) loadWeek(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableWeek, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	week, err := s.weeks.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return week, nil
}

func (s *TimetableService) editableWeek(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableWeek, error) {
	week, err := s.loadWeek(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	if week.Status == models.TimetableStatusFinalized {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "timetable is finalized; unfinalize it before editing")
	}
	return week, nil
}

func (s *TimetableService) loadEntry(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TimetableEntry, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "entry id is required")
	}
	entry, err := s.entries.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	return entry, nil
}

func (s *TimetableService) loadSubject(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

func mapWeekWriteError(err error) error {
	if database.IsUniqueViolation(err, weekKeyConstraint) {
		return appErrors.Wrap(err, appErrors.ErrDuplicateWeek.Code, appErrors.ErrDuplicateWeek.Status, appErrors.ErrDuplicateWeek.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
}

func mapEntryWriteError(err error) error {
	if database.IsUniqueViolation(err, entryCellConstraint) {
		return appErrors.Wrap(err, appErrors.ErrSlotOccupied.Code, appErrors.ErrSlotOccupied.Status, appErrors.ErrSlotOccupied.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable entries")
}

func mapStatusError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable status")
}

func generationOutcome(err error) string {
	switch {
	case appErrors.Is(err, appErrors.ErrNoEntriesPlaced):
		return "empty"
	case appErrors.Is(err, appErrors.ErrDuplicateWeek):
		return "duplicate"
	default:
		return "error"
	}
}

func shortfallTotal(shortfalls []dto.SubjectShortfall) int {
	total := 0
	for _, item := range shortfalls {
		total += item.Requested - item.Placed
	}
	return total
}

func plainEntries(details []models.TimetableEntryDetail) []models.TimetableEntry {
	entries := make([]models.TimetableEntry, 0, len(details))
	for _, detail := range details {
		entries = append(entries, detail.TimetableEntry)
	}
	return entries
}

func parseHolidayKeys(keys []string) []time.Time {
	dates := make([]time.Time, 0, len(keys))
	for _, key := range keys {
		date, err := time.Parse(dto.DateLayout, key)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}
	return dates
}

func normalizeRoom(room *string) *string {
	if room == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*room)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type noopTimetableRecorder struct{}

func (noopTimetableRecorder) RecordGeneration(string, int, int) {}

func (noopTimetableRecorder) RecordConflicts(string, int) {}
