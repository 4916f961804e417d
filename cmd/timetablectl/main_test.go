package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const sampleTemplate = `
includeSaturday: true
blocks:
  - {start: "07:00", end: "07:45"}
  - {start: "07:45", end: "08:30"}
  - {start: "08:30", end: "09:00", lunch: true}
  - {start: "09:00", end: "09:45"}
`

func TestReadTemplate(t *testing.T) {
	tpl, err := readTemplate(strings.NewReader(sampleTemplate))
	require.NoError(t, err)
	assert.True(t, tpl.IncludeSaturday)
	require.Len(t, tpl.Blocks, 4)
	assert.True(t, tpl.Blocks[2].IsLunch)
	assert.Equal(t, "09:45", tpl.Blocks[3].End)
}

func TestReadTemplateRejectsUnknownFieldsAndEmpty(t *testing.T) {
	_, err := readTemplate(strings.NewReader("blocks:\n  - {start: \"07:00\", end: \"07:45\", colour: red}\n"))
	assert.Error(t, err)

	_, err = readTemplate(strings.NewReader("includeSaturday: false\n"))
	assert.Error(t, err)
}

func TestParseHolidayFlags(t *testing.T) {
	holidays, err := parseHolidayFlags([]string{"2025-01-08", "2025-02-01"})
	require.NoError(t, err)

	monday := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	inWeek, err := holidays.ListBetween(context.Background(), monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, inWeek, 1)
	assert.Equal(t, "2025-01-08", inWeek[0].Date.Format("2006-01-02"))

	_, err = parseHolidayFlags([]string{"08/01/2025"})
	assert.Error(t, err)
}

func sampleSlots() []models.Slot {
	monday := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	return []models.Slot{
		{Day: models.DayMonday, SlotIndex: 0, StartTime: "07:00", EndTime: "07:45", Date: monday},
		{Day: models.DayMonday, SlotIndex: 3, StartTime: "09:00", EndTime: "09:45", Date: monday},
	}
}

func TestWriteSlotsFormats(t *testing.T) {
	var table bytes.Buffer
	require.NoError(t, writeSlots(&table, sampleSlots(), "table"))
	assert.Contains(t, table.String(), "DAY")
	assert.Contains(t, table.String(), "2025-01-06")
	assert.Contains(t, table.String(), "2 slots")

	var raw bytes.Buffer
	require.NoError(t, writeSlots(&raw, sampleSlots(), "json"))
	var decoded []models.Slot
	require.NoError(t, json.Unmarshal(raw.Bytes(), &decoded))
	assert.Len(t, decoded, 2)

	var out bytes.Buffer
	require.NoError(t, writeSlots(&out, sampleSlots(), "yaml"))
	var rows []slotRow
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[1].Slot)
	assert.Equal(t, "2025-01-06", rows[1].Date)

	assert.Error(t, writeSlots(&out, sampleSlots(), "xml"))
}

func TestWriteConflicts(t *testing.T) {
	var empty bytes.Buffer
	require.NoError(t, writeConflicts(&empty, nil))
	assert.Equal(t, "no conflicts\n", empty.String())

	var out bytes.Buffer
	require.NoError(t, writeConflicts(&out, []models.ConflictRecord{{
		FacultyID:   "f-1",
		FacultyName: "Dr. Faraday",
		Day:         models.DayTuesday,
		SlotIndex:   2,
		First:       models.ConflictParty{SubjectCode: "X", Department: "SCIENCE", Semester: 3},
		Second:      models.ConflictParty{SubjectID: "y-id", Department: "SCIENCE", Semester: 5},
	}}))
	assert.Contains(t, out.String(), "Dr. Faraday")
	assert.Contains(t, out.String(), "X (SCIENCE s3)")
	assert.Contains(t, out.String(), "y-id (SCIENCE s5)")
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"catalog", "audit", "token", "cache"} {
		assert.True(t, names[name], name)
	}
}
