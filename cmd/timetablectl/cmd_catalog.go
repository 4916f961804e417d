package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
)

var (
	catalogTemplate string
	catalogWeek     string
	catalogHolidays []string
	catalogOutput   string
	catalogSaturday bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the placeable slots of a week",
	Long: `Expand a YAML time-block template into the teaching slots of one week.

Template format:
  includeSaturday: true
  blocks:
    - {start: "07:00", end: "07:45"}
    - {start: "12:00", end: "12:45", lunch: true}

Examples:
  timetablectl catalog --template blocks.yaml --week 2025-01-06
  timetablectl catalog --template blocks.yaml --week 2025-01-06 --holiday 2025-01-08 -o yaml
`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogTemplate, "template", "t", "", "Path to the YAML time-block template")
	catalogCmd.Flags().StringVarP(&catalogWeek, "week", "w", "", "Week start date (a Monday, YYYY-MM-DD)")
	catalogCmd.Flags().StringSliceVar(&catalogHolidays, "holiday", nil, "Holiday date to skip (repeatable)")
	catalogCmd.Flags().BoolVar(&catalogSaturday, "saturday", false, "Force Saturday slots regardless of the template")
	catalogCmd.Flags().StringVarP(&catalogOutput, "output", "o", "table", "Output format: table, yaml or json")
	_ = catalogCmd.MarkFlagRequired("template")
	_ = catalogCmd.MarkFlagRequired("week")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	tpl, err := loadTemplateFile(catalogTemplate)
	if err != nil {
		return err
	}
	holidays, err := parseHolidayFlags(catalogHolidays)
	if err != nil {
		return err
	}

	svc := service.NewTimetableService(nil, nil, nil, holidays, nil, nil, nil, nil, nil, service.TimetableConfig{})
	slots, err := svc.GetSlotCatalog(cmd.Context(), dto.SlotCatalogRequest{
		WeekStartDate:   catalogWeek,
		TimeBlocks:      tpl.Blocks,
		IncludeSaturday: tpl.IncludeSaturday || catalogSaturday,
	})
	if err != nil {
		return err
	}
	return writeSlots(cmd.OutOrStdout(), slots, catalogOutput)
}

func writeSlots(w io.Writer, slots []models.Slot, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(slots)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(slotRows(slots)); err != nil {
			return err
		}
		return encoder.Close()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DAY\tDATE\tSLOT\tSTART\tEND")
		for _, slot := range slots {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", slot.Day, slot.Date.Format(dto.DateLayout), slot.SlotIndex, slot.StartTime, slot.EndTime)
		}
		fmt.Fprintf(tw, "\n%d slots\n", len(slots))
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

type slotRow struct {
	Day   string `yaml:"day"`
	Date  string `yaml:"date"`
	Slot  int    `yaml:"slot"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func slotRows(slots []models.Slot) []slotRow {
	rows := make([]slotRow, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, slotRow{
			Day:   slot.Day,
			Date:  slot.Date.Format(dto.DateLayout),
			Slot:  slot.SlotIndex,
			Start: slot.StartTime,
			End:   slot.EndTime,
		})
	}
	return rows
}
