package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func detail(id, schedule, subject string, semester int, faculty, day string, slot int) models.TimetableEntryDetail {
	return models.TimetableEntryDetail{
		TimetableEntry: models.TimetableEntry{
			ID:            id,
			ScheduleID:    schedule,
			SubjectID:     subject,
			FacultyID:     faculty,
			Department:    "SCIENCE",
			Semester:      semester,
			WeekStartDate: catalogWeek,
			Day:           day,
			SlotIndex:     slot,
		},
		SubjectCode: subject,
	}
}

func TestAuditConflictsReportsSharedFacultyCell(t *testing.T) {
	name := "Dr. Faraday"
	x := detail("e-1", "week-a", "X", 3, "f-1", models.DayTuesday, 2)
	x.FacultyName = &name
	entries := []models.TimetableEntryDetail{
		x,
		detail("e-2", "week-a", "P", 3, "f-2", models.DayTuesday, 3),
		detail("e-3", "week-b", "Y", 5, "f-1", models.DayTuesday, 2),
		detail("e-4", "week-b", "Q", 5, "f-1", models.DayTuesday, 3),
		detail("e-5", "week-b", "R", 5, "f-3", models.DayMonday, 2),
	}

	conflicts := AuditConflicts(entries)

	require.Len(t, conflicts, 1)
	conflict := conflicts[0]
	assert.Equal(t, "f-1", conflict.FacultyID)
	assert.Equal(t, "Dr. Faraday", conflict.FacultyName)
	assert.Equal(t, models.DayTuesday, conflict.Day)
	assert.Equal(t, 2, conflict.SlotIndex)
	assert.Equal(t, "X", conflict.First.SubjectCode)
	assert.Equal(t, 3, conflict.First.Semester)
	assert.Equal(t, "Y", conflict.Second.SubjectCode)
	assert.Equal(t, 5, conflict.Second.Semester)
}

func TestAuditConflictsIgnoresSameSchedule(t *testing.T) {
	entries := []models.TimetableEntryDetail{
		detail("e-1", "week-a", "X", 3, "f-1", models.DayMonday, 0),
		detail("e-2", "week-a", "Y", 3, "f-1", models.DayMonday, 0),
	}
	assert.Empty(t, AuditConflicts(entries))
}

func TestAuditConflictsEmptyInput(t *testing.T) {
	conflicts := AuditConflicts(nil)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}

func TestAuditConflictsSortedByDayThenSlot(t *testing.T) {
	entries := []models.TimetableEntryDetail{
		detail("e-1", "week-a", "A", 1, "f-1", models.DayFriday, 0),
		detail("e-2", "week-b", "B", 3, "f-1", models.DayFriday, 0),
		detail("e-3", "week-a", "C", 1, "f-2", models.DayMonday, 4),
		detail("e-4", "week-b", "D", 3, "f-2", models.DayMonday, 4),
		detail("e-5", "week-a", "E", 1, "f-3", models.DayMonday, 1),
		detail("e-6", "week-c", "F", 5, "f-3", models.DayMonday, 1),
	}

	conflicts := AuditConflicts(entries)

	require.Len(t, conflicts, 3)
	assert.Equal(t, models.DayMonday, conflicts[0].Day)
	assert.Equal(t, 1, conflicts[0].SlotIndex)
	assert.Equal(t, models.DayMonday, conflicts[1].Day)
	assert.Equal(t, 4, conflicts[1].SlotIndex)
	assert.Equal(t, models.DayFriday, conflicts[2].Day)
}

func TestAuditConflictsThreeWayClashYieldsEveryPair(t *testing.T) {
	entries := []models.TimetableEntryDetail{
		detail("e-1", "week-a", "A", 1, "f-1", models.DayMonday, 0),
		detail("e-2", "week-b", "B", 3, "f-1", models.DayMonday, 0),
		detail("e-3", "week-c", "C", 5, "f-1", models.DayMonday, 0),
	}
	assert.Len(t, AuditConflicts(entries), 3)
}

func TestFindFacultyClashesSkipsCandidateItself(t *testing.T) {
	existing := []models.TimetableEntryDetail{
		detail("e-1", "week-a", "A", 1, "f-1", models.DayMonday, 0),
		detail("e-2", "week-b", "B", 3, "f-1", models.DayMonday, 0),
	}

	clashes := findFacultyClashes(existing, existing[0])
	require.Len(t, clashes, 1)
	assert.Equal(t, "e-2", clashes[0].Second.EntryID)

	fresh := detail("", "week-c", "C", 5, "f-9", models.DayMonday, 0)
	assert.Empty(t, findFacultyClashes(existing, fresh))
}

func TestConflictsInvolvingFiltersBySchedule(t *testing.T) {
	entries := []models.TimetableEntryDetail{
		detail("e-1", "week-a", "A", 1, "f-1", models.DayMonday, 0),
		detail("e-2", "week-b", "B", 3, "f-1", models.DayMonday, 0),
		detail("e-3", "week-b", "C", 3, "f-2", models.DayTuesday, 1),
		detail("e-4", "week-c", "D", 5, "f-2", models.DayTuesday, 1),
	}
	all := AuditConflicts(entries)
	require.Len(t, all, 2)

	assert.Len(t, conflictsInvolving(all, "week-a"), 1)
	assert.Len(t, conflictsInvolving(all, "week-b"), 2)
	assert.Empty(t, conflictsInvolving(all, "week-z"))
}
