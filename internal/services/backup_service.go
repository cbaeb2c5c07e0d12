package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"gorm.io/gorm"
)

var (
	ErrBackupUnsupported = errors.New("backups are only supported for sqlite")
	ErrBackupNotFound    = errors.New("backup not found")
)

const backupTimeLayout = "20060102_150405"

type BackupInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type BackupService struct {
	db  *gorm.DB
	cfg *config.Config
	now Clock
}

func NewBackupService(db *gorm.DB, cfg *config.Config) *BackupService {
	return &BackupService{db: db, cfg: cfg, now: time.Now}
}

func (s *BackupService) prefix() string {
	base := filepath.Base(s.cfg.DBPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_backup_"
}

// Create writes a consistent copy of the live database with VACUUM INTO and
// prunes old copies down to BackupKeep.
func (s *BackupService) Create(ctx context.Context) (*BackupInfo, error) {
	if s.cfg.DBDriver != config.DriverSQLite {
		return nil, ErrBackupUnsupported
	}
	if err := os.MkdirAll(s.cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	created := s.now()
	path := filepath.Join(s.cfg.BackupDir, s.prefix()+created.Format(backupTimeLayout)+".db")
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("backup %s already exists", filepath.Base(path))
	}
	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return nil, fmt.Errorf("vacuum into %s: %w", path, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}
	slog.Info("database backup created", "path", path, "size", fi.Size())

	if removed, err := s.Prune(); err != nil {
		slog.Warn("backup prune failed", "error", err)
	} else if removed > 0 {
		slog.Info("old backups pruned", "count", removed)
	}
	return &BackupInfo{Name: filepath.Base(path), Path: path, Size: fi.Size(), CreatedAt: created}, nil
}

// List returns backups newest first.
func (s *BackupService) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.cfg.BackupDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}
	prefix := s.prefix()
	var out []BackupInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".db") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".db")
		created, err := time.ParseInLocation(backupTimeLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupInfo{
			Name:      name,
			Path:      filepath.Join(s.cfg.BackupDir, name),
			Size:      info.Size(),
			CreatedAt: created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (s *BackupService) Prune() (int, error) {
	if s.cfg.BackupKeep <= 0 {
		return 0, nil
	}
	backups, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, b := range backups[min(len(backups), s.cfg.BackupKeep):] {
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", b.Name, err)
		}
		removed++
	}
	return removed, nil
}

// Find resolves a backup by file name inside BackupDir.
func (s *BackupService) Find(name string) (*BackupInfo, error) {
	backups, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, b := range backups {
		if b.Name == name {
			return &b, nil
		}
	}
	return nil, ErrBackupNotFound
}

// RestoreFile copies a backup over the database file. The database must not
// be open; stale WAL and shared-memory files are removed.
func RestoreFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()

	tmp := dst + ".restore"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("copy backup: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dst + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", dst+suffix, err)
		}
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}
