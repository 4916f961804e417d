package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "timetable",
		Password: `p@ss 'word`,
		Name:     "sma_timetable",
		SSLMode:  "disable",
	})
	assert.Equal(t, `host=db port=5432 user=timetable password='p@ss \'word' dbname=sma_timetable sslmode=disable application_name=sma-timetable-api`, dsn)
}

func TestDSNOmitsEmptyValues(t *testing.T) {
	assert.Equal(t, "host=localhost dbname=x application_name=sma-timetable-api", DSN(config.DatabaseConfig{Host: "localhost", Name: "x"}))
}
