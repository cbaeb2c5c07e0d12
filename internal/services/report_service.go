package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrEmptyReport    = errors.New("report text is empty")
	ErrReportTooLong  = errors.New("report text is too long")
	ErrReportLimit    = errors.New("open report limit reached")
	ErrReportCooldown = errors.New("report cooldown active")
)

// AutoCloseAge is how old an open report must be before auto-close sweeps it.
const AutoCloseAge = 7 * 24 * time.Hour

// CooldownError is returned while the submitter is still inside the cooldown
// window; Remaining is how long until the next report is accepted.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("report cooldown active, retry in %s", e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrReportCooldown
}

type ReportService struct {
	db        *gorm.DB
	cfg       *config.Config
	settings  *SettingsService
	users     *UserService
	roles     *RoleService
	messenger Messenger
	now       Clock
}

func NewReportService(db *gorm.DB, cfg *config.Config, settings *SettingsService, users *UserService, roles *RoleService, messenger Messenger) *ReportService {
	return &ReportService{
		db:        db,
		cfg:       cfg,
		settings:  settings,
		users:     users,
		roles:     roles,
		messenger: messenger,
		now:       time.Now,
	}
}

// Submit stores a report after the ban, length, limit and cooldown checks,
// in that order.
func (s *ReportService) Submit(ctx context.Context, userID int64, text string) (uint, error) {
	id, err := s.submit(ctx, userID, text)
	metrics.ReportSubmissions.WithLabelValues(submitResult(err)).Inc()
	return id, err
}

func submitResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrUserBanned):
		return "banned"
	case errors.Is(err, ErrReportLimit):
		return "limit"
	case errors.Is(err, ErrReportCooldown):
		return "cooldown"
	case errors.Is(err, ErrEmptyReport), errors.Is(err, ErrReportTooLong):
		return "invalid"
	}
	return "error"
}

func (s *ReportService) submit(ctx context.Context, userID int64, text string) (uint, error) {
	banned, err := s.users.IsBanned(ctx, userID)
	if err != nil {
		return 0, err
	}
	if banned {
		return 0, ErrUserBanned
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrEmptyReport
	}
	if utf8.RuneCountInString(text) > s.cfg.MaxTextLength {
		return 0, ErrReportTooLong
	}

	st, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	open, err := s.countOpenForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if open >= int64(st.ReportLimit) {
		return 0, ErrReportLimit
	}

	now := s.now()
	if cooldown := st.ReportCooldown(); cooldown > 0 {
		var last models.Report
		err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&last).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("load last report: %w", err)
		}
		if err == nil {
			if elapsed := now.Sub(last.CreatedAt); elapsed < cooldown {
				return 0, &CooldownError{Remaining: cooldown - elapsed}
			}
		}
	}

	report := models.Report{
		UserID:    userID,
		Message:   text,
		Status:    models.ReportOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return 0, fmt.Errorf("create report: %w", err)
	}
	slog.Info("report submitted", "report_id", report.ID, "user_id", userID)

	if st.Notifications {
		s.notifyAdmins(ctx, &report)
	}
	if st.AutoClose {
		if n, err := s.AutoClose(ctx, userID); err != nil {
			slog.Error("auto-close failed", "user_id", userID, "error", err)
		} else if n > 0 {
			slog.Info("reports auto-closed", "user_id", userID, "count", n)
		}
	}
	return report.ID, nil
}

func (s *ReportService) countOpenForUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("user_id = ? AND status = ?", userID, models.ReportOpen).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count open reports: %w", err)
	}
	return n, nil
}

func (s *ReportService) notifyAdmins(ctx context.Context, r *models.Report) {
	ids, err := s.roles.AdminIDs(ctx)
	if err != nil {
		slog.Error("report notification: list admins failed", "error", err)
		return
	}
	author := strconv.FormatInt(r.UserID, 10)
	if u, err := s.users.Get(ctx, r.UserID); err == nil && u.Username != "" {
		author = "@" + u.Username + " (" + author + ")"
	}
	text := fmt.Sprintf("New report #%d from %s:\n\n%s", r.ID, author, r.Message)
	for _, id := range ids {
		if err := s.messenger.SendText(ctx, id, text); err != nil {
			slog.Warn("report notification failed", "admin_id", id, "report_id", r.ID, "error", err)
		}
	}
}

// AutoClose closes the user's open reports older than AutoCloseAge.
func (s *ReportService) AutoClose(ctx context.Context, userID int64) (int64, error) {
	cutoff := s.now().Add(-AutoCloseAge)
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("user_id = ? AND status = ? AND created_at < ?", userID, models.ReportOpen, cutoff).
		Update("status", models.ReportClosed)
	if res.Error != nil {
		return 0, fmt.Errorf("auto-close reports: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *ReportService) Get(ctx context.Context, id uint) (*models.Report, error) {
	var r models.Report
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

// Answer marks the report answered and tells the author. A failed
// notification is logged; the answer is stored either way.
func (s *ReportService) Answer(ctx context.Context, id uint, text string, adminID int64) (*models.Report, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReport
	}
	if utf8.RuneCountInString(text) > s.cfg.MaxTextLength {
		return nil, ErrReportTooLong
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Model(r).Updates(map[string]interface{}{
		"status":      models.ReportAnswered,
		"answer":      text,
		"answered_by": adminID,
		"answered_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("answer report: %w", err)
	}
	r.Status, r.Answer, r.AnsweredBy, r.AnsweredAt = models.ReportAnswered, text, &adminID, &now
	slog.Info("report answered", "report_id", id, "by", adminID)

	msg := fmt.Sprintf("Your report #%d has been answered:\n\n%s", r.ID, text)
	if err := s.messenger.SendText(ctx, r.UserID, msg); err != nil {
		slog.Warn("answer notification failed", "report_id", id, "user_id", r.UserID, "error", err)
	}
	return r, nil
}

// Close dismisses an open report. Closing a resolved report is a no-op.
func (s *ReportService) Close(ctx context.Context, id uint) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Status.Terminal() {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(r).Update("status", models.ReportClosed).Error; err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

// Reopen returns a resolved report to the open queue, keeping any answer.
func (s *ReportService) Reopen(ctx context.Context, id uint) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Status == models.ReportOpen {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(r).Update("status", models.ReportOpen).Error; err != nil {
		return fmt.Errorf("reopen report: %w", err)
	}
	return nil
}

func (s *ReportService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Report{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *ReportService) ListByStatus(ctx context.Context, status models.ReportStatus, page, perPage int) ([]models.Report, int64, error) {
	total, err := s.CountByStatus(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	offset, limit := pageOffset(page, perPage)
	var reports []models.Report
	err = s.db.WithContext(ctx).Where("status = ?", status).
		Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&reports).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}

func (s *ReportService) CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

func (s *ReportService) ListForUser(ctx context.Context, userID int64, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 10
	}
	var reports []models.Report
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list user reports: %w", err)
	}
	return reports, nil
}

// Search matches report text, answer text, or an exact report/user id.
func (s *ReportService) Search(ctx context.Context, term string, limit int) ([]models.Report, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.ToLower(term) + "%"
	q := s.db.WithContext(ctx).Where("LOWER(message) LIKE ? OR LOWER(answer) LIKE ?", like, like)
	if n, err := strconv.ParseInt(term, 10, 64); err == nil {
		q = q.Or("id = ?", n).Or("user_id = ?", n)
	}
	var reports []models.Report
	if err := q.Order("created_at DESC").Limit(limit).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("search reports: %w", err)
	}
	return reports, nil
}
