package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var ErrEmptyBroadcast = errors.New("broadcast has no content")

const (
	broadcastBatchSize     = 100
	broadcastProgressEvery = 10
)

type BroadcastRequest struct {
	Kind    models.BroadcastKind
	Text    string
	PhotoID string
	SentBy  int64
}

type Progress struct {
	Total   int
	Sent    int
	Success int
	Failed  int
}

type BroadcastStats struct {
	Runs      int64      `json:"runs"`
	Delivered int64      `json:"delivered"`
	Failed    int64      `json:"failed"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

type BroadcastService struct {
	db        *gorm.DB
	messenger Messenger
	limit     rate.Limit
	now       Clock
}

func NewBroadcastService(db *gorm.DB, cfg *config.Config, messenger Messenger) *BroadcastService {
	limit := rate.Limit(cfg.BroadcastRate)
	if cfg.BroadcastRate <= 0 {
		limit = rate.Inf
	}
	return &BroadcastService{db: db, messenger: messenger, limit: limit, now: time.Now}
}

// Run sends the message to every stored user, one at a time, paced by the
// configured rate. Per-recipient failures are counted and logged. On context
// cancellation the partial summary is still recorded.
func (s *BroadcastService) Run(ctx context.Context, req BroadcastRequest, progress func(Progress)) (*models.Broadcast, error) {
	if req.Kind == "" {
		req.Kind = models.BroadcastText
	}
	switch req.Kind {
	case models.BroadcastText:
		if strings.TrimSpace(req.Text) == "" {
			return nil, ErrEmptyBroadcast
		}
	case models.BroadcastPhoto:
		if req.PhotoID == "" {
			return nil, ErrEmptyBroadcast
		}
	default:
		return nil, fmt.Errorf("unsupported broadcast kind %q", req.Kind)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count recipients: %w", err)
	}

	summary := models.Broadcast{
		RunID:       uuid.New(),
		Kind:        req.Kind,
		MessageText: req.Text,
		SentBy:      req.SentBy,
		Total:       int(total),
		StartedAt:   s.now(),
	}
	slog.Info("broadcast started", "run_id", summary.RunID, "recipients", total, "by", req.SentBy)

	limiter := rate.NewLimiter(s.limit, 1)
	p := Progress{Total: int(total)}
	report := func() {
		if progress != nil {
			progress(p)
		}
	}

	var runErr error
	var users []models.User
	res := s.db.WithContext(ctx).Select("user_id").Order("user_id").
		FindInBatches(&users, broadcastBatchSize, func(tx *gorm.DB, batch int) error {
			for _, u := range users {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				if err := s.deliver(ctx, u.UserID, req); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					p.Failed++
					metrics.BroadcastDeliveries.WithLabelValues("failed").Inc()
					slog.Debug("broadcast delivery failed", "user_id", u.UserID, "error", err)
				} else {
					p.Success++
					metrics.BroadcastDeliveries.WithLabelValues("success").Inc()
				}
				p.Sent++
				if p.Sent%broadcastProgressEvery == 0 {
					report()
				}
			}
			return nil
		})
	if res.Error != nil {
		runErr = res.Error
	}
	report()

	summary.SuccessCount = p.Success
	summary.FailedCount = p.Failed
	summary.Cancelled = runErr != nil && ctx.Err() != nil
	summary.FinishedAt = s.now()

	// The run context may already be done; the summary is written regardless.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&summary).Error; err != nil {
		return nil, errors.Join(runErr, fmt.Errorf("record broadcast: %w", err))
	}
	slog.Info("broadcast finished",
		"run_id", summary.RunID,
		"success", summary.SuccessCount,
		"failed", summary.FailedCount,
		"cancelled", summary.Cancelled,
	)
	if runErr != nil {
		return &summary, fmt.Errorf("broadcast interrupted: %w", runErr)
	}
	return &summary, nil
}

func (s *BroadcastService) deliver(ctx context.Context, userID int64, req BroadcastRequest) error {
	if req.Kind == models.BroadcastPhoto {
		return s.messenger.SendPhoto(ctx, userID, req.PhotoID, req.Text)
	}
	return s.messenger.SendText(ctx, userID, req.Text)
}

func (s *BroadcastService) Stats(ctx context.Context) (*BroadcastStats, error) {
	var st BroadcastStats
	row := s.db.WithContext(ctx).Model(&models.Broadcast{}).
		Select("COUNT(*), COALESCE(SUM(success_count), 0), COALESCE(SUM(failed_count), 0)").Row()
	if err := row.Scan(&st.Runs, &st.Delivered, &st.Failed); err != nil {
		return nil, fmt.Errorf("broadcast stats: %w", err)
	}
	var last models.Broadcast
	err := s.db.WithContext(ctx).Order("started_at DESC").First(&last).Error
	if err == nil {
		st.LastRunAt = &last.StartedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("last broadcast: %w", err)
	}
	return &st, nil
}

func (s *BroadcastService) List(ctx context.Context, page, perPage int) ([]models.Broadcast, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Broadcast{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count broadcasts: %w", err)
	}
	offset, limit := pageOffset(page, perPage)
	var rows []models.Broadcast
	err := s.db.WithContext(ctx).Order("started_at DESC").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list broadcasts: %w", err)
	}
	return rows, total, nil
}
