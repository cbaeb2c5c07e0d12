package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "backup", "restore", "token"})
}

func TestBackupPath(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{BackupDir: filepath.Join(dir, "backups")}

	existing := filepath.Join(dir, "copy.db")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o600))
	assert.Equal(t, existing, backupPath(cfg, existing))

	assert.Equal(t, filepath.Join(cfg.BackupDir, "linkbot_backup_20250301_120000.db"),
		backupPath(cfg, "linkbot_backup_20250301_120000.db"))
}

func TestTokenRejectsBadID(t *testing.T) {
	err := runToken(tokenCmd, []string{"abc"})
	assert.ErrorContains(t, err, "invalid user id")
}
