package bot

import (
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/session"
	tele "gopkg.in/telebot.v3"
)

func updateKind(c tele.Context) string {
	switch {
	case c.Callback() != nil:
		return "callback"
	case c.Message() != nil && c.Message().Photo != nil:
		return "photo"
	case c.Message() != nil && c.Message().Document != nil:
		return "document"
	case c.Message() != nil && strings.HasPrefix(c.Message().Text, "/"):
		return "command"
	case c.Message() != nil:
		return "text"
	}
	return "other"
}

// trackUser registers the sender and refreshes their activity on every update.
// Tracking failures are logged and never block the update.
func (b *Bot) trackUser(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.Updates.WithLabelValues(updateKind(c)).Inc()
		s := c.Sender()
		if s == nil || s.IsBot {
			return next(c)
		}
		_, err := b.svc.Users.Track(b.ctx(), services.Profile{
			UserID:    s.ID,
			Username:  s.Username,
			FirstName: s.FirstName,
			LastName:  s.LastName,
		})
		if err != nil {
			slog.Error("user tracking failed", "user_id", s.ID, "error", err)
		}
		return next(c)
	}
}

// bypassesGate reports whether the update bootstraps access: /start and the
// "I subscribed" button run their own checks.
func bypassesGate(c tele.Context) bool {
	if cb := c.Callback(); cb != nil {
		return cb.Unique == cbCheckSub
	}
	if m := c.Message(); m != nil {
		text := m.Text
		return text == "/start" || strings.HasPrefix(text, "/start ") || strings.HasPrefix(text, "/start@")
	}
	return false
}

// subscriptionGate blocks non-admins until they have joined every channel
// with check type 1.
func (b *Bot) subscriptionGate(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		s := c.Sender()
		if s == nil || bypassesGate(c) {
			return next(c)
		}
		ctx := b.ctx()
		if admin, err := b.svc.Roles.IsAdmin(ctx, s.ID); err == nil && admin {
			return next(c)
		}
		unmet, err := b.svc.Gate.Unmet(ctx, s.ID, services.ScopeAll)
		if err != nil {
			slog.Error("subscription gate failed", "user_id", s.ID, "error", err)
			return next(c)
		}
		if len(unmet) == 0 {
			return next(c)
		}
		return show(c, subscribePromptText(unmet), subscribeMarkup(unmet, ""))
	}
}

func (b *Bot) requireAdmin(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		ok, err := b.svc.Roles.IsAdmin(b.ctx(), c.Sender().ID)
		if err != nil {
			return err
		}
		if !ok {
			if c.Callback() != nil {
				return alert(c, msgAccessDenied)
			}
			return c.Send(msgAdminOnly)
		}
		return next(c)
	}
}

func (b *Bot) requireDeveloper(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil {
			return nil
		}
		ok, err := b.svc.Roles.IsDeveloper(b.ctx(), c.Sender().ID)
		if err != nil {
			return err
		}
		if !ok {
			if c.Callback() != nil {
				return alert(c, msgAccessDenied)
			}
			return c.Send(msgDeveloperOnly)
		}
		return next(c)
	}
}

// clearance is the role a flow needs at every step, not only when it starts.
type clearance int

const (
	clearUser clearance = iota
	clearAdmin
	clearDeveloper
)

func stateClearance(st session.State) clearance {
	switch st.(type) {
	case session.AwaitingReportText:
		return clearUser
	case session.AwaitingDeveloperIdentifier:
		return clearDeveloper
	}
	return clearAdmin
}

// authorizeState re-checks the sender's role before a flow step runs. A
// sender who lost the role has the flow dropped and gets the denial text.
func (b *Bot) authorizeState(c tele.Context, st session.State) (bool, error) {
	id := c.Sender().ID
	var (
		ok  bool
		err error
		msg string
	)
	switch stateClearance(st) {
	case clearUser:
		return true, nil
	case clearDeveloper:
		ok, err = b.svc.Roles.IsDeveloper(b.ctx(), id)
		msg = msgDeveloperOnly
	default:
		ok, err = b.svc.Roles.IsAdmin(b.ctx(), id)
		msg = msgAdminOnly
	}
	if err != nil {
		return false, err
	}
	if !ok {
		b.sessions.Clear(id)
		slog.Warn("flow dropped after role loss", "user_id", id, "state", st.Name())
		return false, c.Send(msg)
	}
	return true, nil
}
