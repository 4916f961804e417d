package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
)

var auditFailOnConflict bool

var auditCmd = &cobra.Command{
	Use:   "audit <week-start>",
	Short: "List faculty double bookings for a week",
	Long: `Compare every timetable sharing a week start date and print the faculty
members booked into the same day and slot twice.

Examples:
  timetablectl audit 2025-01-06
  timetablectl audit 2025-01-06 --fail-on-conflict
`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditFailOnConflict, "fail-on-conflict", false, "Exit non-zero when conflicts are found")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	svc := service.NewTimetableService(
		repository.NewTimetableWeekRepository(db),
		repository.NewTimetableEntryRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewHolidayRepository(db),
		nil,
		nil,
		db,
		nil,
		logr,
		service.TimetableConfig{},
	)
	conflicts, err := svc.AuditConflicts(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := writeConflicts(cmd.OutOrStdout(), conflicts); err != nil {
		return err
	}
	if auditFailOnConflict && len(conflicts) > 0 {
		return fmt.Errorf("%d conflicts found", len(conflicts))
	}
	return nil
}

func writeConflicts(w io.Writer, conflicts []models.ConflictRecord) error {
	if len(conflicts) == 0 {
		_, err := fmt.Fprintln(w, "no conflicts")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FACULTY\tDAY\tSLOT\tFIRST\tSECOND")
	for _, conflict := range conflicts {
		faculty := conflict.FacultyID
		if conflict.FacultyName != "" {
			faculty = conflict.FacultyName
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", faculty, conflict.Day, conflict.SlotIndex, describeParty(conflict.First), describeParty(conflict.Second))
	}
	return tw.Flush()
}

func describeParty(party models.ConflictParty) string {
	label := party.SubjectCode
	if label == "" {
		label = party.SubjectID
	}
	return fmt.Sprintf("%s (%s s%d)", label, party.Department, party.Semester)
}
