package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/database"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "logs.db")}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestDBHandlerPersistsWarnings(t *testing.T) {
	db := testDB(t)
	h := NewDBHandler(db)
	logger := slog.New(h).With("action", "link_create")

	logger.Info("ignored")
	logger.Warn("slow query", "user_id", int64(42), "table", "links")
	logger.Error("write failed", "error", errors.New("disk full"))
	h.Stop()

	var logs []models.SystemLog
	require.NoError(t, db.Order("timestamp").Find(&logs).Error)
	require.Len(t, logs, 2)

	assert.Equal(t, "WARN", logs[0].Level)
	assert.Equal(t, "link_create", logs[0].Action)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, int64(42), *logs[0].UserID)
	assert.JSONEq(t, `{"table":"links"}`, string(logs[0].Extra))

	assert.Equal(t, "ERROR", logs[1].Level)
	assert.Equal(t, "disk full", logs[1].Error)
}

func TestMultiHandlerFansOut(t *testing.T) {
	var info, errs bytes.Buffer
	m := NewMultiHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	assert.False(t, m.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(m).With("component", "bot")
	logger.Info("started")
	logger.Error("boom")

	assert.Contains(t, info.String(), "started")
	assert.Contains(t, info.String(), "boom")
	assert.NotContains(t, errs.String(), "started")
	assert.Contains(t, errs.String(), `"component":"bot"`)
}

func TestPurgeBefore(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	old := models.SystemLog{ID: uuid.New(), Timestamp: now.Add(-40 * 24 * time.Hour), Level: "WARN", Message: "old"}
	fresh := models.SystemLog{ID: uuid.New(), Timestamp: now, Level: "WARN", Message: "fresh"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	n, err := PurgeBefore(db, now.Add(-logRetention))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var left []models.SystemLog
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "fresh", left[0].Message)
}

func TestNewFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	w, err := NewFileWriter(dir)
	require.NoError(t, err)
	_, err = w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.FileExists(t, filepath.Join(dir, logFileName))
}
