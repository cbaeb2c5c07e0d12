package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
)

var (
	ErrLinkNotFound  = errors.New("link not found")
	ErrInvalidCode   = errors.New("code must be 3-20 letters or digits")
	ErrCodeTaken     = errors.New("code is already taken")
	ErrFileTooLarge  = errors.New("file is too large")
	ErrTextTooLong   = errors.New("text is too long")
	ErrEmptyContent  = errors.New("content is empty")
	ErrLinkLimit     = errors.New("link limit reached")
	ErrCodeExhausted = errors.New("could not generate a free code")
)

const (
	MinCodeLength = 3
	MaxCodeLength = 20

	codeAlphabet     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	generateAttempts = 5
)

// Content is the payload bound to a link.
type Content struct {
	Type     models.ContentType
	Text     string
	FileID   string
	FileSize int64
}

type CreateLinkInput struct {
	// Code is optional; a random one is generated when empty.
	Code      string
	CreatedBy int64
	Content   Content
}

type LinkService struct {
	db       *gorm.DB
	cfg      *config.Config
	settings *SettingsService
	users    *UserService
	roles    *RoleService
	now      Clock
}

func NewLinkService(db *gorm.DB, cfg *config.Config, settings *SettingsService, users *UserService, roles *RoleService) *LinkService {
	return &LinkService{db: db, cfg: cfg, settings: settings, users: users, roles: roles, now: time.Now}
}

func ValidateCode(code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return ErrInvalidCode
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return ErrInvalidCode
		}
	}
	return nil
}

func randomCode(length int) string {
	if length < MinCodeLength {
		length = MinCodeLength
	}
	if length > MaxCodeLength {
		length = MaxCodeLength
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

// GenerateCode draws random codes until it finds a free one.
func (s *LinkService) GenerateCode(ctx context.Context, length int) (string, error) {
	for i := 0; i < generateAttempts; i++ {
		code := randomCode(length)
		taken, err := s.codeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func (s *LinkService) codeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Link{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return n > 0, nil
}

func (s *LinkService) ValidateContent(c Content) error {
	if !c.Type.Valid() {
		return fmt.Errorf("unsupported content type %q", c.Type)
	}
	if utf8.RuneCountInString(c.Text) > s.cfg.MaxTextLength {
		return ErrTextTooLong
	}
	switch c.Type {
	case models.ContentText:
		if strings.TrimSpace(c.Text) == "" {
			return ErrEmptyContent
		}
	case models.ContentPhoto:
		if c.FileID == "" {
			return ErrEmptyContent
		}
	case models.ContentDocument:
		if c.FileID == "" {
			return ErrEmptyContent
		}
		if c.FileSize > s.cfg.MaxFileSize {
			return ErrFileTooLarge
		}
	}
	return nil
}

func (s *LinkService) Create(ctx context.Context, in CreateLinkInput) (*models.Link, error) {
	banned, err := s.users.IsBanned(ctx, in.CreatedBy)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, ErrUserBanned
	}
	if err := s.ValidateContent(in.Content); err != nil {
		return nil, err
	}
	if err := s.checkLimit(ctx, in.CreatedBy); err != nil {
		return nil, err
	}

	code := in.Code
	if code != "" {
		if err := ValidateCode(code); err != nil {
			return nil, err
		}
		taken, err := s.codeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrCodeTaken
		}
	} else {
		st, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		if code, err = s.GenerateCode(ctx, st.LinkCodeLength); err != nil {
			return nil, err
		}
	}

	link := models.Link{
		Code:        code,
		ContentType: in.Content.Type,
		ContentText: in.Content.Text,
		FileID:      in.Content.FileID,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("create link: %w", err)
	}
	metrics.LinksCreated.Inc()
	slog.Info("link created", "code", code, "type", link.ContentType, "user_id", in.CreatedBy)
	return &link, nil
}

// checkLimit applies the per-creator link cap to everyone below developer.
func (s *LinkService) checkLimit(ctx context.Context, userID int64) error {
	dev, err := s.roles.IsDeveloper(ctx, userID)
	if err != nil {
		return err
	}
	if dev {
		return nil
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if st.LinkLimit <= 0 {
		return nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Link{}).Where("created_by = ?", userID).Count(&n).Error; err != nil {
		return fmt.Errorf("count links: %w", err)
	}
	if n >= int64(st.LinkLimit) {
		return ErrLinkLimit
	}
	return nil
}

// Resolve looks up a code and records the visit on both the link and the
// visiting user in one transaction.
func (s *LinkService) Resolve(ctx context.Context, code string, userID int64) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLinkNotFound
			}
			return err
		}
		now := s.now()
		err := tx.Model(&models.Link{}).Where("id = ?", link.ID).Updates(map[string]interface{}{
			"visits":        gorm.Expr("visits + 1"),
			"last_visit_at": now,
		}).Error
		if err != nil {
			return err
		}
		err = tx.Model(&models.User{}).Where("user_id = ?", userID).
			UpdateColumn("link_visits", gorm.Expr("link_visits + 1")).Error
		if err != nil {
			return err
		}
		link.Visits++
		link.LastVisitAt = &now
		return nil
	})
	switch {
	case errors.Is(err, ErrLinkNotFound):
		metrics.LinkResolves.WithLabelValues("miss").Inc()
		return nil, err
	case err != nil:
		metrics.LinkResolves.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve link: %w", err)
	}
	metrics.LinkResolves.WithLabelValues("hit").Inc()
	return &link, nil
}

func (s *LinkService) Get(ctx context.Context, code string) (*models.Link, error) {
	var link models.Link
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("get link: %w", err)
	}
	return &link, nil
}

func (s *LinkService) Rename(ctx context.Context, oldCode, newCode string) (*models.Link, error) {
	if err := ValidateCode(newCode); err != nil {
		return nil, err
	}
	link, err := s.Get(ctx, oldCode)
	if err != nil {
		return nil, err
	}
	if oldCode == newCode {
		return link, nil
	}
	taken, err := s.codeExists(ctx, newCode)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrCodeTaken
	}
	if err := s.db.WithContext(ctx).Model(link).Update("code", newCode).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("rename link: %w", err)
	}
	link.Code = newCode
	slog.Info("link renamed", "from", oldCode, "to", newCode)
	return link, nil
}

func (s *LinkService) UpdateContent(ctx context.Context, code string, c Content) (*models.Link, error) {
	if err := s.ValidateContent(c); err != nil {
		return nil, err
	}
	link, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(link).Updates(map[string]interface{}{
		"content_type": c.Type,
		"content_text": c.Text,
		"file_id":      c.FileID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}
	link.ContentType, link.ContentText, link.FileID = c.Type, c.Text, c.FileID
	return link, nil
}

func (s *LinkService) Delete(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Where("code = ?", code).Delete(&models.Link{})
	if res.Error != nil {
		return fmt.Errorf("delete link: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	slog.Info("link deleted", "code", code)
	return nil
}

func (s *LinkService) List(ctx context.Context, page, perPage int) ([]models.Link, int64, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	offset, limit := pageOffset(page, perPage)
	var links []models.Link
	err = s.db.WithContext(ctx).Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&links).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list links: %w", err)
	}
	return links, total, nil
}

func (s *LinkService) Search(ctx context.Context, term string, limit int) ([]models.Link, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.ToLower(term) + "%"
	var links []models.Link
	err := s.db.WithContext(ctx).
		Where("LOWER(code) LIKE ? OR LOWER(content_text) LIKE ?", like, like).
		Order("visits DESC").Limit(limit).Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("search links: %w", err)
	}
	return links, nil
}

func (s *LinkService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Link{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}

// CountByCreator backs the "n of limit" line in the link menu.
func (s *LinkService) CountByCreator(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Link{}).Where("created_by = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return n, nil
}
