package models

import "time"

// Subject represents an academic subject bound to a single faculty member.
type Subject struct {
	ID         string    `db:"id" json:"id"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	FacultyID  string    `db:"faculty_id" json:"faculty_id"`
	Department string    `db:"department" json:"department"`
	Semester   int       `db:"semester" json:"semester"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
