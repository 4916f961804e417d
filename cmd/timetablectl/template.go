package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// weekTemplate is the on-disk form of a daily time-block template.
type weekTemplate struct {
	IncludeSaturday bool               `yaml:"includeSaturday"`
	Blocks          []models.TimeBlock `yaml:"blocks"`
}

func readTemplate(r io.Reader) (*weekTemplate, error) {
	var tpl weekTemplate
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&tpl); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if len(tpl.Blocks) == 0 {
		return nil, fmt.Errorf("template has no blocks")
	}
	return &tpl, nil
}

func loadTemplateFile(path string) (*weekTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()
	return readTemplate(f)
}

// flagHolidays serves holidays given on the command line.
type flagHolidays []time.Time

func parseHolidayFlags(raw []string) (flagHolidays, error) {
	dates := make(flagHolidays, 0, len(raw))
	for _, value := range raw {
		date, err := time.Parse(dto.DateLayout, value)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: expected YYYY-MM-DD", value)
		}
		dates = append(dates, date)
	}
	return dates, nil
}

func (h flagHolidays) ListBetween(_ context.Context, from, to time.Time) ([]models.Holiday, error) {
	var holidays []models.Holiday
	for _, date := range h {
		if date.Before(from) || date.After(to) {
			continue
		}
		holidays = append(holidays, models.Holiday{Date: date, Name: "holiday"})
	}
	return holidays, nil
}
