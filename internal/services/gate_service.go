package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"gorm.io/gorm"
)

// Scope selects which channels a check consults.
type Scope int

const (
	// ScopeAll is used for every feature and consults CheckAll channels.
	ScopeAll Scope = iota
	// ScopeLinks is used for deep-link resolution and consults every channel.
	ScopeLinks
)

type GateService struct {
	db      *gorm.DB
	checker MembershipChecker
}

func NewGateService(db *gorm.DB, checker MembershipChecker) *GateService {
	return &GateService{db: db, checker: checker}
}

// Unmet returns the channels in scope the user has not joined. A channel whose
// membership cannot be read counts as satisfied.
func (g *GateService) Unmet(ctx context.Context, userID int64, scope Scope) ([]models.SubscriptionChannel, error) {
	q := g.db.WithContext(ctx).Order("created_at")
	if scope == ScopeAll {
		q = q.Where("check_type = ?", models.CheckAll)
	}
	var channels []models.SubscriptionChannel
	if err := q.Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}

	var unmet []models.SubscriptionChannel
	for _, ch := range channels {
		status, err := g.checker.MemberStatus(ctx, ch.ChannelID, userID)
		if err != nil {
			slog.Warn("membership check failed", "channel_id", ch.ChannelID, "user_id", userID, "error", err)
			continue
		}
		if status == MemberLeft || status == MemberKicked {
			unmet = append(unmet, ch)
		}
	}

	if len(unmet) > 0 {
		metrics.GateChecks.WithLabelValues("blocked").Inc()
	} else {
		metrics.GateChecks.WithLabelValues("pass").Inc()
	}
	return unmet, nil
}

// AuditResult lists users who have left at least one subscription channel.
type AuditResult struct {
	Checked      int
	Unsubscribed int
	// Users holds the first unsubscribed users, up to the requested limit.
	Users []models.User
}

// Audit walks every non-banned user against all subscription channels and
// counts the ones missing from any of them. Unreadable memberships count as
// satisfied, as in Unmet.
func (g *GateService) Audit(ctx context.Context, limit int) (*AuditResult, error) {
	var channels []models.SubscriptionChannel
	if err := g.db.WithContext(ctx).Order("created_at").Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	res := &AuditResult{}
	if len(channels) == 0 {
		return res, nil
	}

	var users []models.User
	err := g.db.WithContext(ctx).Where("is_banned = ?", false).Order("user_id").
		FindInBatches(&users, 200, func(tx *gorm.DB, batch int) error {
			for _, u := range users {
				if err := ctx.Err(); err != nil {
					return err
				}
				res.Checked++
				if !g.subscribedToAll(ctx, u.UserID, channels) {
					res.Unsubscribed++
					if len(res.Users) < limit {
						res.Users = append(res.Users, u)
					}
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("audit subscriptions: %w", err)
	}
	slog.Info("subscription audit finished", "checked", res.Checked, "unsubscribed", res.Unsubscribed)
	return res, nil
}

func (g *GateService) subscribedToAll(ctx context.Context, userID int64, channels []models.SubscriptionChannel) bool {
	for _, ch := range channels {
		status, err := g.checker.MemberStatus(ctx, ch.ChannelID, userID)
		if err != nil {
			slog.Debug("membership check failed", "channel_id", ch.ChannelID, "user_id", userID, "error", err)
			continue
		}
		if status == MemberLeft || status == MemberKicked {
			return false
		}
	}
	return true
}
