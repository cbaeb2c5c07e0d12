package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelExists   = errors.New("channel already added")
	ErrInvalidChannel  = errors.New("invalid channel")
)

type ChannelService struct {
	db *gorm.DB
}

func NewChannelService(db *gorm.DB) *ChannelService {
	return &ChannelService{db: db}
}

func (s *ChannelService) Add(ctx context.Context, ch models.SubscriptionChannel) (*models.SubscriptionChannel, error) {
	ch.Username = strings.TrimPrefix(strings.TrimSpace(ch.Username), "@")
	ch.Title = strings.TrimSpace(ch.Title)
	if ch.ChannelID == 0 {
		return nil, ErrInvalidChannel
	}
	if ch.CheckType == 0 {
		ch.CheckType = models.CheckAll
	}
	if !ch.CheckType.Valid() {
		return nil, fmt.Errorf("%w: check type %d", ErrInvalidChannel, ch.CheckType)
	}
	if ch.Title == "" {
		ch.Title = ch.Username
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.SubscriptionChannel{}).Where("channel_id = ?", ch.ChannelID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check channel: %w", err)
	}
	if n > 0 {
		return nil, ErrChannelExists
	}
	if err := s.db.WithContext(ctx).Create(&ch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrChannelExists
		}
		return nil, fmt.Errorf("add channel: %w", err)
	}
	slog.Info("subscription channel added", "channel_id", ch.ChannelID, "check_type", ch.CheckType, "by", ch.AddedBy)
	return &ch, nil
}

func (s *ChannelService) Remove(ctx context.Context, channelID int64) error {
	res := s.db.WithContext(ctx).Where("channel_id = ?", channelID).Delete(&models.SubscriptionChannel{})
	if res.Error != nil {
		return fmt.Errorf("remove channel: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrChannelNotFound
	}
	slog.Info("subscription channel removed", "channel_id", channelID)
	return nil
}

func (s *ChannelService) Get(ctx context.Context, channelID int64) (*models.SubscriptionChannel, error) {
	var ch models.SubscriptionChannel
	if err := s.db.WithContext(ctx).First(&ch, "channel_id = ?", channelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return &ch, nil
}

func (s *ChannelService) List(ctx context.Context) ([]models.SubscriptionChannel, error) {
	var channels []models.SubscriptionChannel
	if err := s.db.WithContext(ctx).Order("created_at").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}
