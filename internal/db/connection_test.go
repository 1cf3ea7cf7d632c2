package db

import (
	"testing"

	"github.com/campuscare/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func TestDialector(t *testing.T) {
	cfg := config.DatabaseConfig{URL: "postgres://u:p@localhost:5432/campuscare", Driver: "pgx"}

	d, ok := Dialector(cfg).(*postgres.Dialector)
	require.True(t, ok)
	assert.Equal(t, cfg.URL, d.DSN)
	assert.Empty(t, d.DriverName)

	cfg.Driver = "pq"
	d, ok = Dialector(cfg).(*postgres.Dialector)
	require.True(t, ok)
	assert.Equal(t, "postgres", d.DriverName)
}
