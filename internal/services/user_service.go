package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserBanned     = errors.New("user is banned")
	ErrAlreadyBanned  = errors.New("user already banned")
	ErrNotBanned      = errors.New("user is not banned")
	ErrOwnerProtected = errors.New("the owner cannot be changed")
)

// Profile is the identity snapshot carried by every inbound update.
type Profile struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
}

type UserService struct {
	db        *gorm.DB
	cfg       *config.Config
	messenger Messenger
	now       Clock
}

func NewUserService(db *gorm.DB, cfg *config.Config, messenger Messenger) *UserService {
	return &UserService{db: db, cfg: cfg, messenger: messenger, now: time.Now}
}

// Track registers the user on first contact and refreshes the profile and
// activity timestamp on every later one.
func (s *UserService) Track(ctx context.Context, p Profile) (*models.User, error) {
	now := s.now()
	u := models.User{
		UserID:       p.UserID,
		Username:     strings.TrimPrefix(p.Username, "@"),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		JoinedAt:     now,
		LastActiveAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "last_active_at"}),
	}).Create(&u).Error
	if err != nil {
		return nil, fmt.Errorf("track user: %w", err)
	}
	return s.Get(ctx, p.UserID)
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, ErrUserNotFound
	}
	var u models.User
	err := s.db.WithContext(ctx).Where("LOWER(username) = ?", strings.ToLower(username)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return &u, nil
}

// Lookup accepts either a numeric chat id or an @handle.
func (s *UserService) Lookup(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return s.Get(ctx, id)
	}
	return s.GetByUsername(ctx, identifier)
}

func (s *UserService) IsBanned(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ? AND is_banned = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}
	return count > 0, nil
}

func (s *UserService) Ban(ctx context.Context, userID int64, reason string, by int64) error {
	if userID == s.cfg.OwnerID {
		return ErrOwnerProtected
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsBanned {
		return ErrAlreadyBanned
	}
	reason = strings.TrimSpace(reason)
	now := s.now()
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"is_banned":  true,
		"ban_reason": reason,
		"banned_by":  by,
		"banned_at":  now,
	}).Error
	if err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	slog.Warn("user banned", "action", "ban", "user_id", userID, "by", by, "reason", reason)

	text := "You have been banned from using this bot."
	if reason != "" {
		text += "\nReason: " + reason
	}
	if err := s.messenger.SendText(ctx, userID, text); err != nil {
		slog.Warn("ban notification failed", "user_id", userID, "error", err)
	}
	return nil
}

func (s *UserService) Unban(ctx context.Context, userID int64, by int64) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !u.IsBanned {
		return ErrNotBanned
	}
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"is_banned":  false,
		"ban_reason": "",
		"banned_by":  nil,
		"banned_at":  nil,
	}).Error
	if err != nil {
		return fmt.Errorf("unban user: %w", err)
	}
	slog.Info("user unbanned", "user_id", userID, "by", by)

	if err := s.messenger.SendText(ctx, userID, "Your ban has been lifted. Welcome back!"); err != nil {
		slog.Warn("unban notification failed", "user_id", userID, "error", err)
	}
	return nil
}

func (s *UserService) List(ctx context.Context, page, perPage int) ([]models.User, int64, error) {
	return s.list(ctx, s.db.WithContext(ctx).Model(&models.User{}), page, perPage)
}

func (s *UserService) ListBanned(ctx context.Context, page, perPage int) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("is_banned = ?", true)
	return s.list(ctx, q, page, perPage)
}

func (s *UserService) list(ctx context.Context, q *gorm.DB, page, perPage int) ([]models.User, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	offset, limit := pageOffset(page, perPage)
	var users []models.User
	if err := q.Order("joined_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Search matches the id exactly or the handle and names by substring.
func (s *UserService) Search(ctx context.Context, term string, limit int) ([]models.User, error) {
	term = strings.TrimPrefix(strings.TrimSpace(term), "@")
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.ToLower(term) + "%"
	q := s.db.WithContext(ctx).Where(
		"LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like,
	)
	if id, err := strconv.ParseInt(term, 10, 64); err == nil {
		q = q.Or("user_id = ?", id)
	}
	var users []models.User
	if err := q.Order("last_active_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
