package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const (
	clockLayout = "15:04"

	// saturdayTeachingBlocks caps Saturday to its first non-lunch blocks.
	saturdayTeachingBlocks = 3
)

// BuildSlotCatalog expands a week's time-block template into the placeable
// cells of that week. Sundays, lunch blocks and holiday dates never yield
// slots; Saturday only does when includeSaturday is set, and then only for
// its first three teaching blocks.
func BuildSlotCatalog(weekStart time.Time, blocks []models.TimeBlock, includeSaturday bool, holidays []time.Time) []models.Slot {
	closed := make(map[string]struct{}, len(holidays))
	for _, holiday := range holidays {
		closed[dateKey(holiday)] = struct{}{}
	}

	start := calendarDate(weekStart)
	slots := make([]models.Slot, 0, len(models.Weekdays)*len(blocks))
	for offset, day := range models.Weekdays {
		if day == models.DaySaturday && !includeSaturday {
			continue
		}
		date := start.AddDate(0, 0, offset)
		if _, ok := closed[dateKey(date)]; ok {
			continue
		}

		teaching := 0
		for idx, block := range blocks {
			if block.IsLunch {
				continue
			}
			if day == models.DaySaturday && teaching >= saturdayTeachingBlocks {
				break
			}
			teaching++
			slots = append(slots, models.Slot{
				Day:       day,
				SlotIndex: idx,
				StartTime: block.Start,
				EndTime:   block.End,
				Date:      date,
			})
		}
	}
	return slots
}

// validateTimeBlocks checks that a template's blocks are well formed, ordered
// and non-overlapping.
func validateTimeBlocks(blocks []models.TimeBlock) error {
	if len(blocks) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one time block is required")
	}
	var previousEnd time.Time
	for idx, block := range blocks {
		start, err := time.Parse(clockLayout, block.Start)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time block %d has invalid start %q (expected HH:MM)", idx, block.Start))
		}
		end, err := time.Parse(clockLayout, block.End)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time block %d has invalid end %q (expected HH:MM)", idx, block.End))
		}
		if !end.After(start) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time block %d must end after it starts", idx))
		}
		if idx > 0 && start.Before(previousEnd) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time block %d overlaps the previous block", idx))
		}
		previousEnd = end
	}
	return nil
}

// requireLunchBlock rejects generation templates that leave no lunch break.
func requireLunchBlock(blocks []models.TimeBlock) error {
	for _, block := range blocks {
		if block.IsLunch {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "one time block must be marked as lunch")
}

// parseWeekStart parses a YYYY-MM-DD date that must fall on a Monday.
func parseWeekStart(raw string) (time.Time, error) {
	date, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "weekStartDate must be formatted as YYYY-MM-DD")
	}
	if date.Weekday() != time.Monday {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "weekStartDate must be a Monday")
	}
	return date, nil
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string {
	return t.Format(dto.DateLayout)
}

func slotAt(catalog []models.Slot, day string, slotIndex int) (models.Slot, bool) {
	for _, slot := range catalog {
		if slot.Day == day && slot.SlotIndex == slotIndex {
			return slot, true
		}
	}
	return models.Slot{}, false
}
