package service

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const (
	// MaxLecturesPerSubjectPerDay is the fixed per-day repetition cap for a subject.
	MaxLecturesPerSubjectPerDay = 2

	placementAttemptsPerSlot = 10
)

// placementRequest is a subject (with its bound faculty) and its weekly quota.
type placementRequest struct {
	Subject        models.Subject
	LecturesNeeded int
}

// placementTarget identifies the week the generator fills.
type placementTarget struct {
	ScheduleID    string
	Department    string
	Semester      int
	WeekStartDate time.Time
}

type placementResult struct {
	Entries    []models.TimetableEntry
	Requested  int
	Shortfalls []dto.SubjectShortfall
}

// busySet marks claimed (owner, day, slot) coordinates.
type busySet map[string]struct{}

func (b busySet) has(key string) bool {
	_, ok := b[key]
	return ok
}

func (b busySet) claim(key string) {
	b[key] = struct{}{}
}

func facultyBusyKey(facultyID, day string, slotIndex int) string {
	return fmt.Sprintf("%s|%s|%d", facultyID, day, slotIndex)
}

func semesterBusyKey(semester int, department, day string, slotIndex int) string {
	return fmt.Sprintf("%d|%s|%s|%d", semester, department, day, slotIndex)
}

// timetableGenerator places lectures with randomized greedy retries. It gives
// no completeness guarantee: subjects may end up short when slots run out.
type timetableGenerator struct {
	rng    *rand.Rand
	logger *zap.Logger
}

func newTimetableGenerator(rng *rand.Rand, logger *zap.Logger) *timetableGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &timetableGenerator{rng: rng, logger: logger}
}

// place fills the target week. siblings are entries of other weeks sharing the
// same week start date; their faculty cells are never reused.
func (g *timetableGenerator) place(target placementTarget, requests []placementRequest, catalog []models.Slot, siblings []models.TimetableEntry) placementResult {
	facultyBusy := make(busySet, len(siblings))
	for _, entry := range siblings {
		if entry.ScheduleID == target.ScheduleID {
			continue
		}
		facultyBusy.claim(facultyBusyKey(entry.FacultyID, entry.Day, entry.SlotIndex))
	}
	semesterBusy := make(busySet, len(catalog))

	order := make([]placementRequest, len(requests))
	copy(order, requests)
	g.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	result := placementResult{Shortfalls: make([]dto.SubjectShortfall, 0)}
	for _, req := range order {
		result.Requested += req.LecturesNeeded
		placed := g.placeSubject(target, req, catalog, facultyBusy, semesterBusy, &result.Entries)
		if placed < req.LecturesNeeded {
			result.Shortfalls = append(result.Shortfalls, dto.SubjectShortfall{
				SubjectID: req.Subject.ID,
				Requested: req.LecturesNeeded,
				Placed:    placed,
			})
			g.logger.Warn("subject under-scheduled",
				zap.String("subject_id", req.Subject.ID),
				zap.String("faculty_id", req.Subject.FacultyID),
				zap.Int("requested", req.LecturesNeeded),
				zap.Int("placed", placed),
			)
		}
	}
	return result
}

func (g *timetableGenerator) placeSubject(
	target placementTarget,
	req placementRequest,
	catalog []models.Slot,
	facultyBusy, semesterBusy busySet,
	entries *[]models.TimetableEntry,
) int {
	if req.LecturesNeeded <= 0 || len(catalog) == 0 {
		return 0
	}

	shuffled := make([]models.Slot, len(catalog))
	copy(shuffled, catalog)
	g.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	perDay := make(map[string]int)
	placed := 0
	maxAttempts := placementAttemptsPerSlot * len(shuffled)
	for attempt := 0; attempt < maxAttempts && placed < req.LecturesNeeded; attempt++ {
		slot := shuffled[attempt%len(shuffled)]
		if perDay[slot.Day] >= MaxLecturesPerSubjectPerDay {
			continue
		}
		fKey := facultyBusyKey(req.Subject.FacultyID, slot.Day, slot.SlotIndex)
		if facultyBusy.has(fKey) {
			continue
		}
		sKey := semesterBusyKey(target.Semester, target.Department, slot.Day, slot.SlotIndex)
		if semesterBusy.has(sKey) {
			continue
		}

		facultyBusy.claim(fKey)
		semesterBusy.claim(sKey)
		perDay[slot.Day]++
		placed++
		*entries = append(*entries, models.TimetableEntry{
			ScheduleID:    target.ScheduleID,
			SubjectID:     req.Subject.ID,
			FacultyID:     req.Subject.FacultyID,
			Department:    target.Department,
			Semester:      target.Semester,
			WeekStartDate: target.WeekStartDate,
			Day:           slot.Day,
			SlotIndex:     slot.SlotIndex,
		})
	}
	return placed
}
