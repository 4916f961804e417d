package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases for a weekly timetable.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusFinalized TimetableStatus = "FINALIZED"
)

// Day labels in week order. Index 0 is the week start date.
const (
	DayMonday    = "MONDAY"
	DayTuesday   = "TUESDAY"
	DayWednesday = "WEDNESDAY"
	DayThursday  = "THURSDAY"
	DayFriday    = "FRIDAY"
	DaySaturday  = "SATURDAY"
)

// Weekdays lists the teaching day labels in calendar order.
var Weekdays = []string{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday}

// DayOffset returns the offset of a day label from the week start, or -1.
func DayOffset(day string) int {
	for i, d := range Weekdays {
		if d == day {
			return i
		}
	}
	return -1
}

// TimeBlock is one row of a week's daily time template.
type TimeBlock struct {
	Start   string `json:"start" yaml:"start" validate:"required"`
	End     string `json:"end" yaml:"end" validate:"required"`
	IsLunch bool   `json:"is_lunch" yaml:"lunch"`
}

// TimetableWeek is the timetable of one department-semester for one calendar week.
type TimetableWeek struct {
	ID              string          `db:"id" json:"id"`
	Department      string          `db:"department" json:"department"`
	Semester        int             `db:"semester" json:"semester"`
	WeekStartDate   time.Time       `db:"week_start_date" json:"week_start_date"`
	TimeBlocks      types.JSONText  `db:"time_blocks" json:"time_blocks"`
	IncludeSaturday bool            `db:"include_saturday" json:"include_saturday"`
	Status          TimetableStatus `db:"status" json:"status"`
	FinalizedAt     *time.Time      `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Blocks decodes the stored time-block template.
func (w *TimetableWeek) Blocks() ([]TimeBlock, error) {
	if w == nil || len(w.TimeBlocks) == 0 {
		return nil, nil
	}
	var blocks []TimeBlock
	if err := json.Unmarshal(w.TimeBlocks, &blocks); err != nil {
		return nil, fmt.Errorf("decode time blocks: %w", err)
	}
	return blocks, nil
}

// EncodeTimeBlocks serialises a template for storage.
func EncodeTimeBlocks(blocks []TimeBlock) (types.JSONText, error) {
	payload, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("encode time blocks: %w", err)
	}
	return types.JSONText(payload), nil
}

// TimetableEntry assigns a subject and its faculty to one cell of a week.
type TimetableEntry struct {
	ID            string    `db:"id" json:"id"`
	ScheduleID    string    `db:"schedule_id" json:"schedule_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	FacultyID     string    `db:"faculty_id" json:"faculty_id"`
	Department    string    `db:"department" json:"department"`
	Semester      int       `db:"semester" json:"semester"`
	WeekStartDate time.Time `db:"week_start_date" json:"week_start_date"`
	Day           string    `db:"day" json:"day"`
	SlotIndex     int       `db:"slot_index" json:"slot_index"`
	Room          *string   `db:"room" json:"room,omitempty"`
	IsManual      bool      `db:"is_manual" json:"is_manual"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableEntryDetail enriches an entry with subject and faculty labels.
type TimetableEntryDetail struct {
	TimetableEntry
	SubjectCode string  `db:"subject_code" json:"subject_code"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// Slot is a placeable teaching cell derived from a week's template.
type Slot struct {
	Day       string    `json:"day"`
	SlotIndex int       `json:"slot_index"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Date      time.Time `json:"date"`
}

// ConflictParty identifies one side of a faculty double booking.
type ConflictParty struct {
	EntryID     string `json:"entry_id"`
	ScheduleID  string `json:"schedule_id"`
	SubjectID   string `json:"subject_id"`
	SubjectCode string `json:"subject_code"`
	Semester    int    `json:"semester"`
	Department  string `json:"department"`
}

// ConflictRecord describes a faculty member booked twice at the same cell.
type ConflictRecord struct {
	FacultyID   string        `json:"faculty_id"`
	FacultyName string        `json:"faculty_name,omitempty"`
	Day         string        `json:"day"`
	SlotIndex   int           `json:"slot_index"`
	First       ConflictParty `json:"first"`
	Second      ConflictParty `json:"second"`
}

// TimetableConflictError carries the entries behind a rejected manual edit.
type TimetableConflictError struct {
	Message   string           `json:"message"`
	Conflicts []ConflictRecord `json:"conflicts,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *TimetableConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Details exposes the colliding entries to API clients.
func (e *TimetableConflictError) Details() interface{} {
	if e == nil {
		return nil
	}
	return e.Conflicts
}

// SubjectLoad counts the lectures placed for a subject in one week.
type SubjectLoad struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectCode string `db:"subject_code" json:"subject_code"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	Placed      int    `db:"placed" json:"placed"`
}

// TimetableFilter narrows down timetable listings.
type TimetableFilter struct {
	WeekStartDate *time.Time
	Department    string
	Semester      int
	Status        TimetableStatus
	Page          int
	PageSize      int
}
