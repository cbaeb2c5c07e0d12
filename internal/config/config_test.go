package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "42")
	t.Setenv("DEVELOPER_IDS", "7, 8,bad")
	t.Setenv("SESSION_TTL", "10m")
	t.Setenv("BROADCAST_RATE", "-3")

	cfg := Load()
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, int64(42), cfg.OwnerID)
	assert.Equal(t, []int64{7, 8}, cfg.DeveloperIDs)
	assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
	assert.Equal(t, float64(10), cfg.BroadcastRate)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.True(t, cfg.IsDeveloperID(8))
	assert.False(t, cfg.IsDeveloperID(42))
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("OWNER_ID", "1")
	path := filepath.Join(t.TempDir(), "linkbot.yaml")
	data := "owner_id: 99\ndb_path: /tmp/other.db\nmax_text_length: 500\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.BotToken)
	assert.Equal(t, int64(99), cfg.OwnerID)
	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, 500, cfg.MaxTextLength)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "oracle"}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"BOT_TOKEN", "OWNER_ID", "oracle", "MAX_FILE_SIZE", "MAX_TEXT_LENGTH"} {
		assert.ErrorContains(t, err, want)
	}

	pg := &Config{BotToken: "t", OwnerID: 1, DBDriver: DriverPostgres, MaxFileSize: 1, MaxTextLength: 1}
	assert.ErrorContains(t, pg.Validate(), "DB_PASSWORD")
}
