package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var timetableExportHeaders = []string{"Day", "Date", "Slot", "Time", "Subject", "Faculty", "Room", "Source"}

// TimetableExport is a rendered timetable document.
type TimetableExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// Export renders a timetable as CSV or PDF.
func (s *TimetableService) Export(ctx context.Context, scheduleID, format string) (*TimetableExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	detail, err := s.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	dataset := timetableDataset(detail.Slots, detail.Entries)
	week := detail.Schedule
	name := fmt.Sprintf("timetable-%s-s%d-%s.%s", slugify(week.Department), week.Semester, dateKey(week.WeekStartDate), format)

	switch format {
	case ExportFormatPDF:
		title := fmt.Sprintf("%s %s semester %d week of %s", s.cfg.ExportTitle, week.Department, week.Semester, dateKey(week.WeekStartDate))
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
		}
		return &TimetableExport{Filename: name, ContentType: "application/pdf", Payload: payload}, nil
	default:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
		}
		return &TimetableExport{Filename: name, ContentType: "text/csv", Payload: payload}, nil
	}
}

func timetableDataset(slots []models.Slot, entries []models.TimetableEntryDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		row := map[string]string{
			"Day":     entry.Day,
			"Slot":    fmt.Sprintf("%d", entry.SlotIndex),
			"Subject": strings.TrimSpace(entry.SubjectCode + " " + entry.SubjectName),
			"Faculty": entry.FacultyID,
			"Source":  "generated",
		}
		if slot, ok := slotAt(slots, entry.Day, entry.SlotIndex); ok {
			row["Date"] = dateKey(slot.Date)
			row["Time"] = slot.StartTime + "-" + slot.EndTime
		}
		if entry.FacultyName != nil {
			row["Faculty"] = *entry.FacultyName
		}
		if entry.Room != nil {
			row["Room"] = *entry.Room
		}
		if entry.IsManual {
			row["Source"] = "manual"
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: timetableExportHeaders, Rows: rows}
}

func slugify(value string) string {
	fields := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	if len(fields) == 0 {
		return "department"
	}
	return strings.Join(fields, "-")
}
