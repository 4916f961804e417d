package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	violation := &pq.Error{Code: "23505", Constraint: "timetable_weeks_department_semester_week_key"}

	assert.True(t, IsUniqueViolation(violation, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert timetable week: %w", violation), "timetable_weeks_department_semester_week_key"))
	assert.False(t, IsUniqueViolation(violation, "timetable_entries_cell_key"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(fmt.Errorf("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
