package service

import (
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// facultyClashes reports whether two entries of different weeks book the same
// faculty member into the same day and slot.
func facultyClashes(a, b models.TimetableEntry) bool {
	return a.ScheduleID != b.ScheduleID &&
		a.FacultyID == b.FacultyID &&
		a.Day == b.Day &&
		a.SlotIndex == b.SlotIndex
}

// AuditConflicts compares every pair of entries sharing a week start date and
// returns one record per faculty double booking. The pairwise scan is
// intentional; a week holds at most slots × subjects entries.
func AuditConflicts(entries []models.TimetableEntryDetail) []models.ConflictRecord {
	conflicts := make([]models.ConflictRecord, 0)
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if !facultyClashes(entries[i].TimetableEntry, entries[j].TimetableEntry) {
				continue
			}
			conflicts = append(conflicts, newConflictRecord(entries[i], entries[j]))
		}
	}
	sortConflicts(conflicts)
	return conflicts
}

// findFacultyClashes is the eager form of the audit used by manual edits:
// it returns every existing entry the candidate would collide with.
func findFacultyClashes(existing []models.TimetableEntryDetail, candidate models.TimetableEntryDetail) []models.ConflictRecord {
	var conflicts []models.ConflictRecord
	for _, other := range existing {
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		if facultyClashes(candidate.TimetableEntry, other.TimetableEntry) {
			conflicts = append(conflicts, newConflictRecord(candidate, other))
		}
	}
	return conflicts
}

// conflictsInvolving keeps the records where one side belongs to scheduleID.
func conflictsInvolving(conflicts []models.ConflictRecord, scheduleID string) []models.ConflictRecord {
	filtered := make([]models.ConflictRecord, 0, len(conflicts))
	for _, conflict := range conflicts {
		if conflict.First.ScheduleID == scheduleID || conflict.Second.ScheduleID == scheduleID {
			filtered = append(filtered, conflict)
		}
	}
	return filtered
}

func newConflictRecord(first, second models.TimetableEntryDetail) models.ConflictRecord {
	record := models.ConflictRecord{
		FacultyID: first.FacultyID,
		Day:       first.Day,
		SlotIndex: first.SlotIndex,
		First:     conflictParty(first),
		Second:    conflictParty(second),
	}
	switch {
	case first.FacultyName != nil:
		record.FacultyName = *first.FacultyName
	case second.FacultyName != nil:
		record.FacultyName = *second.FacultyName
	}
	return record
}

func conflictParty(entry models.TimetableEntryDetail) models.ConflictParty {
	return models.ConflictParty{
		EntryID:     entry.ID,
		ScheduleID:  entry.ScheduleID,
		SubjectID:   entry.SubjectID,
		SubjectCode: entry.SubjectCode,
		Semester:    entry.Semester,
		Department:  entry.Department,
	}
}

func sortConflicts(conflicts []models.ConflictRecord) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Day != b.Day {
			return models.DayOffset(a.Day) < models.DayOffset(b.Day)
		}
		if a.SlotIndex != b.SlotIndex {
			return a.SlotIndex < b.SlotIndex
		}
		return a.FacultyID < b.FacultyID
	})
}
