package models

import "time"

// Holiday is a calendar date on which no lectures are scheduled.
type Holiday struct {
	ID   string    `db:"id" json:"id"`
	Date time.Time `db:"date" json:"date"`
	Name string    `db:"name" json:"name"`
}
