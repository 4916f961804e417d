package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// monday 2025-01-06
var catalogWeek = time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

func standardBlocks() []models.TimeBlock {
	return []models.TimeBlock{
		{Start: "07:00", End: "07:45"},
		{Start: "07:45", End: "08:30"},
		{Start: "08:30", End: "09:15"},
		{Start: "09:15", End: "10:00"},
		{Start: "10:00", End: "10:30", IsLunch: true},
		{Start: "10:30", End: "11:15"},
	}
}

func slotsPerDay(slots []models.Slot) map[string]int {
	counts := make(map[string]int)
	for _, slot := range slots {
		counts[slot.Day]++
	}
	return counts
}

func TestBuildSlotCatalogWeekdaysOnly(t *testing.T) {
	slots := BuildSlotCatalog(catalogWeek, standardBlocks(), false, nil)

	require.Len(t, slots, 25)
	counts := slotsPerDay(slots)
	for _, day := range []string{models.DayMonday, models.DayTuesday, models.DayWednesday, models.DayThursday, models.DayFriday} {
		assert.Equal(t, 5, counts[day], day)
	}
	assert.Zero(t, counts[models.DaySaturday])
	for _, slot := range slots {
		assert.NotEqual(t, 4, slot.SlotIndex, "lunch block must never be placeable")
	}
}

func TestBuildSlotCatalogKeepsTemplateIndexAndDates(t *testing.T) {
	slots := BuildSlotCatalog(catalogWeek, standardBlocks(), false, nil)

	first := slots[0]
	assert.Equal(t, models.DayMonday, first.Day)
	assert.Equal(t, 0, first.SlotIndex)
	assert.Equal(t, "07:00", first.StartTime)
	assert.Equal(t, catalogWeek, first.Date)

	afterLunch, ok := slotAt(slots, models.DayFriday, 5)
	require.True(t, ok)
	assert.Equal(t, "10:30", afterLunch.StartTime)
	assert.Equal(t, "2025-01-10", dateKey(afterLunch.Date))
}

func TestBuildSlotCatalogSaturdayCappedAtThree(t *testing.T) {
	slots := BuildSlotCatalog(catalogWeek, standardBlocks(), true, nil)

	counts := slotsPerDay(slots)
	assert.Equal(t, 3, counts[models.DaySaturday])
	assert.Len(t, slots, 28)

	var saturday []int
	for _, slot := range slots {
		if slot.Day == models.DaySaturday {
			saturday = append(saturday, slot.SlotIndex)
			assert.Equal(t, "2025-01-11", dateKey(slot.Date))
		}
	}
	assert.Equal(t, []int{0, 1, 2}, saturday)
}

func TestBuildSlotCatalogSaturdaySkipsEarlyLunch(t *testing.T) {
	blocks := []models.TimeBlock{
		{Start: "07:00", End: "07:45"},
		{Start: "07:45", End: "08:15", IsLunch: true},
		{Start: "08:15", End: "09:00"},
		{Start: "09:00", End: "09:45"},
		{Start: "09:45", End: "10:30"},
	}

	slots := BuildSlotCatalog(catalogWeek, blocks, true, nil)

	var saturday []int
	for _, slot := range slots {
		if slot.Day == models.DaySaturday {
			saturday = append(saturday, slot.SlotIndex)
		}
	}
	assert.Equal(t, []int{0, 2, 3}, saturday)
}

func TestBuildSlotCatalogExcludesHolidayDate(t *testing.T) {
	tuesday := catalogWeek.AddDate(0, 0, 1)
	nextTuesday := catalogWeek.AddDate(0, 0, 8)

	slots := BuildSlotCatalog(catalogWeek, standardBlocks(), true, []time.Time{tuesday, nextTuesday})

	counts := slotsPerDay(slots)
	assert.Zero(t, counts[models.DayTuesday])
	assert.Equal(t, 5, counts[models.DayMonday])
	assert.Equal(t, 5, counts[models.DayWednesday])
	assert.Equal(t, 3, counts[models.DaySaturday])

	following := BuildSlotCatalog(catalogWeek.AddDate(0, 0, 7), standardBlocks(), true, []time.Time{tuesday})
	assert.Equal(t, 5, slotsPerDay(following)[models.DayTuesday], "holiday only applies to its own date")
}

func TestBuildSlotCatalogSaturdayOffIgnoresHolidays(t *testing.T) {
	saturday := catalogWeek.AddDate(0, 0, 5)
	slots := BuildSlotCatalog(catalogWeek, standardBlocks(), false, []time.Time{saturday})
	assert.Zero(t, slotsPerDay(slots)[models.DaySaturday])
	assert.Len(t, slots, 25)
}

func TestBuildSlotCatalogAllHolidaysYieldsEmpty(t *testing.T) {
	var holidays []time.Time
	for i := 0; i < 7; i++ {
		holidays = append(holidays, catalogWeek.AddDate(0, 0, i))
	}
	slots := BuildSlotCatalog(catalogWeek, standardBlocks(), true, holidays)
	assert.Empty(t, slots)
}

func TestBuildSlotCatalogIsDeterministic(t *testing.T) {
	first := BuildSlotCatalog(catalogWeek, standardBlocks(), true, nil)
	second := BuildSlotCatalog(catalogWeek, standardBlocks(), true, nil)
	assert.Equal(t, first, second)
}

func TestValidateTimeBlocks(t *testing.T) {
	cases := []struct {
		name   string
		blocks []models.TimeBlock
	}{
		{name: "empty"},
		{name: "bad start", blocks: []models.TimeBlock{{Start: "7am", End: "07:45", IsLunch: true}}},
		{name: "bad end", blocks: []models.TimeBlock{{Start: "07:00", End: "25:00", IsLunch: true}}},
		{name: "end before start", blocks: []models.TimeBlock{{Start: "08:00", End: "07:45", IsLunch: true}}},
		{name: "overlap", blocks: []models.TimeBlock{
			{Start: "07:00", End: "08:00"},
			{Start: "07:30", End: "08:30", IsLunch: true},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateTimeBlocks(tc.blocks)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}

	require.NoError(t, validateTimeBlocks(standardBlocks()))
	require.NoError(t, validateTimeBlocks([]models.TimeBlock{{Start: "07:00", End: "07:45"}}))
}

func TestRequireLunchBlock(t *testing.T) {
	require.NoError(t, requireLunchBlock(standardBlocks()))

	err := requireLunchBlock([]models.TimeBlock{{Start: "07:00", End: "07:45"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParseWeekStart(t *testing.T) {
	date, err := parseWeekStart("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, catalogWeek, date)

	_, err = parseWeekStart("2025-01-07")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = parseWeekStart("06/01/2025")
	require.Error(t, err)
}
