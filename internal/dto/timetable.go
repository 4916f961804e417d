package dto

import "github.com/noah-isme/sma-timetable-api/internal/models"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// SubjectRequest captures the weekly lecture demand for one subject.
type SubjectRequest struct {
	SubjectID      string `json:"subjectId" validate:"required"`
	LecturesNeeded int    `json:"lecturesNeeded" validate:"min=0,max=64"`
}

// GenerateTimetableRequest instructs the generator to build and persist a week.
type GenerateTimetableRequest struct {
	Department      string             `json:"department" validate:"required"`
	Semester        int                `json:"semester" validate:"required,min=1,max=16"`
	WeekStartDate   string             `json:"weekStartDate" validate:"required,datetime=2006-01-02"`
	TimeBlocks      []models.TimeBlock `json:"timeBlocks" validate:"required,min=1,max=24,dive"`
	IncludeSaturday bool               `json:"includeSaturday"`
	Subjects        []SubjectRequest   `json:"subjects" validate:"required,min=1,max=128,dive"`
}

// SubjectShortfall reports a subject that received fewer lectures than requested.
type SubjectShortfall struct {
	SubjectID string `json:"subjectId"`
	Requested int    `json:"requested"`
	Placed    int    `json:"placed"`
}

// GenerateTimetableResponse summarises a persisted generation run.
type GenerateTimetableResponse struct {
	ScheduleID string             `json:"scheduleId"`
	EntryCount int                `json:"entryCount"`
	Requested  int                `json:"requested"`
	SlotCount  int                `json:"slotCount"`
	Shortfalls []SubjectShortfall `json:"shortfalls"`
}

// SlotCatalogRequest asks for the placeable cells of a week without persisting anything.
type SlotCatalogRequest struct {
	WeekStartDate   string             `json:"weekStartDate" validate:"required,datetime=2006-01-02"`
	TimeBlocks      []models.TimeBlock `json:"timeBlocks" validate:"required,min=1,max=24,dive"`
	IncludeSaturday bool               `json:"includeSaturday"`
}

// AddEntryRequest places a single lecture by hand.
type AddEntryRequest struct {
	SubjectID string  `json:"subjectId" validate:"required"`
	FacultyID string  `json:"facultyId" validate:"required"`
	Day       string  `json:"day" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY"`
	SlotIndex int     `json:"slotIndex" validate:"min=0"`
	Room      *string `json:"room" validate:"omitempty,max=64"`
}

// EditEntryRequest changes the subject, faculty or room of an entry. Day and slot are fixed.
type EditEntryRequest struct {
	SubjectID string  `json:"subjectId" validate:"required"`
	FacultyID string  `json:"facultyId" validate:"required"`
	Room      *string `json:"room" validate:"omitempty,max=64"`
}

// CloneTimetableRequest copies a week onto a new week start date.
type CloneTimetableRequest struct {
	WeekStartDate string `json:"weekStartDate" validate:"required,datetime=2006-01-02"`
}

// CloneTimetableResponse identifies the copy.
type CloneTimetableResponse struct {
	ScheduleID string `json:"scheduleId"`
	EntryCount int    `json:"entryCount"`
}

// FinalizeTimetableRequest confirms finalisation despite detected conflicts.
type FinalizeTimetableRequest struct {
	AcknowledgeConflicts bool `json:"acknowledgeConflicts"`
}

// FinalizeTimetableResponse reports the audit that ran before finalisation.
type FinalizeTimetableResponse struct {
	Schedule  *models.TimetableWeek   `json:"schedule"`
	Finalized bool                    `json:"finalized"`
	Conflicts []models.ConflictRecord `json:"conflicts"`
}

// TimetableQuery filters timetable listings.
type TimetableQuery struct {
	WeekStartDate string `form:"weekStart"`
	Department    string `form:"department"`
	Semester      int    `form:"semester"`
	Status        string `form:"status"`
	Page          int    `form:"page"`
	PageSize      int    `form:"pageSize"`
}

// TimetableDetail bundles a week with its entries.
type TimetableDetail struct {
	Schedule *models.TimetableWeek         `json:"schedule"`
	Slots    []models.Slot                 `json:"slots"`
	Entries  []models.TimetableEntryDetail `json:"entries"`
}
