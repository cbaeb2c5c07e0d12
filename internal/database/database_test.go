package database

import (
	"path/filepath"
	"testing"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectMigrateSeedsSettings(t *testing.T) {
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := Connect(cfg)
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrate is idempotent")
	require.NoError(t, Ping(db))

	var rows []models.Settings
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.DefaultSettings().LinkLimit, rows[0].LinkLimit)
	assert.True(t, rows[0].Notifications)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "mysql"})
	assert.ErrorContains(t, err, "unsupported")
}
