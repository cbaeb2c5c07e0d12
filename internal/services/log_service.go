package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
)

// LogService reads the WARN+ records persisted by logging.DBHandler.
type LogService struct {
	db *gorm.DB
}

func NewLogService(db *gorm.DB) *LogService {
	return &LogService{db: db}
}

func (s *LogService) scoped(ctx context.Context, level string) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.SystemLog{})
	if level != "" {
		q = q.Where("level = ?", strings.ToUpper(level))
	}
	return q
}

func (s *LogService) List(ctx context.Context, level string, page, perPage int) ([]models.SystemLog, int64, error) {
	var total int64
	if err := s.scoped(ctx, level).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}
	offset, limit := pageOffset(page, perPage)
	var logs []models.SystemLog
	if err := s.scoped(ctx, level).Order("timestamp DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	return logs, total, nil
}

func (s *LogService) Clear(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.SystemLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
