package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
)

const activeWindow = 30 * 24 * time.Hour

type Overview struct {
	TotalUsers      int64 `json:"total_users"`
	ActiveUsers     int64 `json:"active_users"`
	BannedUsers     int64 `json:"banned_users"`
	TotalLinks      int64 `json:"total_links"`
	TotalVisits     int64 `json:"total_visits"`
	TotalReports    int64 `json:"total_reports"`
	OpenReports     int64 `json:"open_reports"`
	AnsweredReports int64 `json:"answered_reports"`
	ClosedReports   int64 `json:"closed_reports"`
	Channels        int64 `json:"channels"`
	Admins          int64 `json:"admins"`
	Developers      int64 `json:"developers"`
}

// Window holds activity counters for one trailing period. Visits sums the
// counters of links created inside the period.
type Window struct {
	NewUsers    int64 `json:"new_users"`
	ActiveUsers int64 `json:"active_users"`
	NewLinks    int64 `json:"new_links"`
	Visits      int64 `json:"visits"`
	NewReports  int64 `json:"new_reports"`
}

type Detailed struct {
	Day  Window `json:"day"`
	Week Window `json:"week"`
}

type TopUser struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LinkVisits int64  `json:"link_visits"`
}

type StatsService struct {
	db  *gorm.DB
	now Clock
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

func (s *StatsService) count(ctx context.Context, model interface{}, dst *int64, query string, args ...interface{}) error {
	q := s.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	return q.Count(dst).Error
}

func (s *StatsService) sumVisits(ctx context.Context, dst *int64, query string, args ...interface{}) error {
	q := s.db.WithContext(ctx).Model(&models.Link{}).Select("COALESCE(SUM(visits), 0)")
	if query != "" {
		q = q.Where(query, args...)
	}
	return q.Row().Scan(dst)
}

func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	activeSince := s.now().Add(-activeWindow)
	steps := []error{
		s.count(ctx, &models.User{}, &o.TotalUsers, ""),
		s.count(ctx, &models.User{}, &o.ActiveUsers, "last_active_at >= ?", activeSince),
		s.count(ctx, &models.User{}, &o.BannedUsers, "is_banned = ?", true),
		s.count(ctx, &models.Link{}, &o.TotalLinks, ""),
		s.sumVisits(ctx, &o.TotalVisits, ""),
		s.count(ctx, &models.Report{}, &o.TotalReports, ""),
		s.count(ctx, &models.Report{}, &o.OpenReports, "status = ?", models.ReportOpen),
		s.count(ctx, &models.Report{}, &o.AnsweredReports, "status = ?", models.ReportAnswered),
		s.count(ctx, &models.Report{}, &o.ClosedReports, "status = ?", models.ReportClosed),
		s.count(ctx, &models.SubscriptionChannel{}, &o.Channels, ""),
		s.count(ctx, &models.Admin{}, &o.Admins, ""),
		s.count(ctx, &models.Developer{}, &o.Developers, ""),
	}
	for _, err := range steps {
		if err != nil {
			return nil, fmt.Errorf("overview stats: %w", err)
		}
	}
	return &o, nil
}

func (s *StatsService) window(ctx context.Context, since time.Time) (Window, error) {
	var w Window
	steps := []error{
		s.count(ctx, &models.User{}, &w.NewUsers, "joined_at >= ?", since),
		s.count(ctx, &models.User{}, &w.ActiveUsers, "last_active_at >= ?", since),
		s.count(ctx, &models.Link{}, &w.NewLinks, "created_at >= ?", since),
		s.sumVisits(ctx, &w.Visits, "created_at >= ?", since),
		s.count(ctx, &models.Report{}, &w.NewReports, "created_at >= ?", since),
	}
	for _, err := range steps {
		if err != nil {
			return Window{}, err
		}
	}
	return w, nil
}

func (s *StatsService) Detailed(ctx context.Context) (*Detailed, error) {
	now := s.now()
	day, err := s.window(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	week, err := s.window(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("weekly stats: %w", err)
	}
	return &Detailed{Day: day, Week: week}, nil
}

func (s *StatsService) TopUsers(ctx context.Context, limit int) ([]TopUser, error) {
	if limit <= 0 {
		limit = 10
	}
	var top []TopUser
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("user_id, username, first_name, link_visits").
		Where("link_visits > 0").
		Order("link_visits DESC, user_id").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	return top, nil
}
