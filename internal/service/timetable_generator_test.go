package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func generatorTarget(scheduleID string, semester int) placementTarget {
	return placementTarget{
		ScheduleID:    scheduleID,
		Department:    "SCIENCE",
		Semester:      semester,
		WeekStartDate: catalogWeek,
	}
}

func subjectRequest(id, faculty string, lectures int) placementRequest {
	return placementRequest{
		Subject:        models.Subject{ID: id, Code: id, FacultyID: faculty},
		LecturesNeeded: lectures,
	}
}

func seededGenerator(seed int64) *timetableGenerator {
	return newTimetableGenerator(rand.New(rand.NewSource(seed)), nil)
}

func assertPlacementInvariants(t *testing.T, result placementResult, requests []placementRequest) {
	t.Helper()
	cells := make(map[string]bool)
	perSubject := make(map[string]int)
	perSubjectDay := make(map[string]int)
	for _, entry := range result.Entries {
		cell := fmt.Sprintf("%s|%d", entry.Day, entry.SlotIndex)
		require.False(t, cells[cell], "cell %s used twice", cell)
		cells[cell] = true
		perSubject[entry.SubjectID]++
		perSubjectDay[entry.SubjectID+"|"+entry.Day]++
	}
	for _, req := range requests {
		assert.LessOrEqual(t, perSubject[req.Subject.ID], req.LecturesNeeded, req.Subject.ID)
	}
	for key, count := range perSubjectDay {
		assert.LessOrEqual(t, count, MaxLecturesPerSubjectPerDay, key)
	}
}

func TestGeneratorPlacesWithoutClashes(t *testing.T) {
	catalog := BuildSlotCatalog(catalogWeek, standardBlocks(), true, nil)
	requests := []placementRequest{
		subjectRequest("MATH", "f-1", 5),
		subjectRequest("PHYS", "f-2", 4),
		subjectRequest("CHEM", "f-3", 4),
		subjectRequest("BIO", "f-1", 3),
	}

	for seed := int64(1); seed <= 25; seed++ {
		result := seededGenerator(seed).place(generatorTarget("week-a", 3), requests, catalog, nil)
		assertPlacementInvariants(t, result, requests)
		assert.Equal(t, 16, result.Requested)
		for _, entry := range result.Entries {
			assert.Equal(t, "week-a", entry.ScheduleID)
			assert.Equal(t, "SCIENCE", entry.Department)
			assert.Equal(t, 3, entry.Semester)
			assert.False(t, entry.IsManual)
			_, ok := slotAt(catalog, entry.Day, entry.SlotIndex)
			assert.True(t, ok, "entry must sit on a catalog slot")
		}
	}
}

func TestGeneratorSharedFacultyNeverDoubleBooked(t *testing.T) {
	catalog := BuildSlotCatalog(catalogWeek, standardBlocks(), false, nil)
	requests := []placementRequest{
		subjectRequest("MATH", "f-1", 6),
		subjectRequest("STAT", "f-1", 6),
	}

	result := seededGenerator(7).place(generatorTarget("week-a", 3), requests, catalog, nil)

	seen := make(map[string]bool)
	for _, entry := range result.Entries {
		key := facultyBusyKey(entry.FacultyID, entry.Day, entry.SlotIndex)
		require.False(t, seen[key])
		seen[key] = true
	}
}

func TestGeneratorRespectsSiblingFaculty(t *testing.T) {
	catalog := BuildSlotCatalog(catalogWeek, standardBlocks(), false, nil)
	var siblings []models.TimetableEntry
	for _, slot := range catalog {
		if slot.Day == models.DayMonday || slot.Day == models.DayTuesday {
			siblings = append(siblings, models.TimetableEntry{
				ScheduleID: "week-b",
				FacultyID:  "f-1",
				Day:        slot.Day,
				SlotIndex:  slot.SlotIndex,
			})
		}
	}
	requests := []placementRequest{subjectRequest("MATH", "f-1", 6)}

	for seed := int64(1); seed <= 10; seed++ {
		result := seededGenerator(seed).place(generatorTarget("week-a", 3), requests, catalog, siblings)
		require.Len(t, result.Entries, 6)
		for _, entry := range result.Entries {
			assert.NotEqual(t, models.DayMonday, entry.Day)
			assert.NotEqual(t, models.DayTuesday, entry.Day)
		}
	}
}

func TestGeneratorIgnoresOwnEntriesAsSiblings(t *testing.T) {
	catalog := BuildSlotCatalog(catalogWeek, standardBlocks(), false, nil)
	var own []models.TimetableEntry
	for _, slot := range catalog {
		own = append(own, models.TimetableEntry{ScheduleID: "week-a", FacultyID: "f-1", Day: slot.Day, SlotIndex: slot.SlotIndex})
	}
	requests := []placementRequest{subjectRequest("MATH", "f-1", 4)}

	result := seededGenerator(3).place(generatorTarget("week-a", 3), requests, catalog, own)
	assert.Len(t, result.Entries, 4)
}

func TestGeneratorPartialPlacementReportsShortfall(t *testing.T) {
	blocks := []models.TimeBlock{
		{Start: "07:00", End: "07:45"},
		{Start: "07:45", End: "08:15", IsLunch: true},
	}
	catalog := BuildSlotCatalog(catalogWeek, blocks, false, nil)
	require.Len(t, catalog, 5)
	requests := []placementRequest{subjectRequest("MATH", "f-1", 6)}

	result := seededGenerator(11).place(generatorTarget("week-a", 3), requests, catalog, nil)

	assert.Len(t, result.Entries, 5)
	require.Len(t, result.Shortfalls, 1)
	assert.Equal(t, "MATH", result.Shortfalls[0].SubjectID)
	assert.Equal(t, 6, result.Shortfalls[0].Requested)
	assert.Equal(t, 5, result.Shortfalls[0].Placed)
}

func TestGeneratorDailyCapLimitsPlacement(t *testing.T) {
	catalog := BuildSlotCatalog(catalogWeek, standardBlocks(), false, nil)
	requests := []placementRequest{subjectRequest("MATH", "f-1", 20)}

	result := seededGenerator(5).place(generatorTarget("week-a", 3), requests, catalog, nil)

	assert.Len(t, result.Entries, 5*MaxLecturesPerSubjectPerDay)
	assertPlacementInvariants(t, result, requests)
}

func TestGeneratorEmptyCatalogPlacesNothing(t *testing.T) {
	requests := []placementRequest{subjectRequest("MATH", "f-1", 2)}
	result := seededGenerator(1).place(generatorTarget("week-a", 3), requests, nil, nil)
	assert.Empty(t, result.Entries)
	require.Len(t, result.Shortfalls, 1)
	assert.Zero(t, result.Shortfalls[0].Placed)
}

func TestGeneratorZeroQuotaIsNotAShortfall(t *testing.T) {
	catalog := BuildSlotCatalog(catalogWeek, standardBlocks(), false, nil)
	requests := []placementRequest{
		subjectRequest("MATH", "f-1", 0),
		subjectRequest("PHYS", "f-2", 2),
	}
	result := seededGenerator(2).place(generatorTarget("week-a", 3), requests, catalog, nil)
	assert.Len(t, result.Entries, 2)
	assert.Empty(t, result.Shortfalls)
}
