package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/session"
	tele "gopkg.in/telebot.v3"
)

const (
	msgWelcome         = "👋 Welcome! Use /help to see what this bot can do."
	msgStillUnmet      = "You have not joined all channels yet."
	msgCancelled       = "Cancelled."
	msgNothingToCancel = "Nothing to cancel."
	msgNoReports       = "You have not sent any reports yet."
	msgReportPrompt    = "✍️ Describe the problem in one message."
	myReportsLimit     = 10
)

// linkPayload converts stored link content into something telebot can send.
func linkPayload(l *models.Link) interface{} {
	file := tele.File{FileID: l.FileID}
	switch l.ContentType {
	case models.ContentPhoto:
		return &tele.Photo{File: file, Caption: l.ContentText}
	case models.ContentDocument:
		return &tele.Document{File: file, Caption: l.ContentText}
	}
	return l.ContentText
}

// startPayload resolves a deep-link code for userID and returns what the
// bot should reply with. A missing link yields the not-found text.
func (b *Bot) startPayload(userID int64, code string) (interface{}, error) {
	link, err := b.svc.Links.Resolve(b.ctx(), code, userID)
	if errors.Is(err, services.ErrLinkNotFound) {
		return msgLinkNotFound, nil
	}
	if err != nil {
		return nil, err
	}
	return linkPayload(link), nil
}

func (b *Bot) deliverLink(c tele.Context, code string) error {
	payload, err := b.startPayload(c.Sender().ID, code)
	if err != nil {
		return b.fail(c, "resolve_link", err)
	}
	return c.Send(payload, tele.NoPreview)
}

// unmetFor runs the subscription check for the given scope. Admins and
// failed lookups pass.
func (b *Bot) unmetFor(userID int64, scope services.Scope) []models.SubscriptionChannel {
	ctx := b.ctx()
	if admin, err := b.svc.Roles.IsAdmin(ctx, userID); err == nil && admin {
		return nil
	}
	unmet, err := b.svc.Gate.Unmet(ctx, userID, scope)
	if err != nil {
		return nil
	}
	return unmet
}

func scopeFor(code string) services.Scope {
	if code != "" {
		return services.ScopeLinks
	}
	return services.ScopeAll
}

func (b *Bot) onStart(c tele.Context) error {
	b.sessions.Clear(c.Sender().ID)
	code := strings.TrimSpace(c.Message().Payload)

	if unmet := b.unmetFor(c.Sender().ID, scopeFor(code)); len(unmet) > 0 {
		return c.Send(subscribePromptText(unmet), subscribeMarkup(unmet, code), tele.NoPreview)
	}
	if code == "" {
		return c.Send(msgWelcome)
	}
	return b.deliverLink(c, code)
}

func (b *Bot) onCheckSubscription(c tele.Context) error {
	code := arg(c, 0)
	if unmet := b.unmetFor(c.Sender().ID, scopeFor(code)); len(unmet) > 0 {
		_ = c.Respond(&tele.CallbackResponse{Text: msgStillUnmet, ShowAlert: true})
		return show(c, subscribePromptText(unmet), subscribeMarkup(unmet, code))
	}
	if err := show(c, "✅ Thank you for subscribing!", nil); err != nil {
		return err
	}
	if code == "" {
		return c.Send(msgWelcome)
	}
	return b.deliverLink(c, code)
}

func (b *Bot) onHelp(c tele.Context) error {
	ctx, id := b.ctx(), c.Sender().ID
	admin, err := b.svc.Roles.IsAdmin(ctx, id)
	if err != nil {
		return b.fail(c, "help", err)
	}
	dev, err := b.svc.Roles.IsDeveloper(ctx, id)
	if err != nil {
		return b.fail(c, "help", err)
	}
	return c.Send(helpText(admin, dev))
}

func (b *Bot) onProfile(c tele.Context) error {
	ctx, id := b.ctx(), c.Sender().ID
	u, err := b.svc.Users.Get(ctx, id)
	if err != nil {
		return b.fail(c, "profile", err)
	}
	reports, err := b.svc.Reports.ListForUser(ctx, id, 100)
	if err != nil {
		return b.fail(c, "profile", err)
	}
	return c.Send(profileText(u, reports))
}

func (b *Bot) onReport(c tele.Context) error {
	id := c.Sender().ID
	banned, err := b.svc.Users.IsBanned(b.ctx(), id)
	if err != nil {
		return b.fail(c, "report", err)
	}
	if banned {
		return b.fail(c, "report", services.ErrUserBanned)
	}
	b.sessions.Set(id, session.AwaitingReportText{})
	return c.Send(msgReportPrompt, cancelMarkup())
}

func (b *Bot) onMyReports(c tele.Context) error {
	reports, err := b.svc.Reports.ListForUser(b.ctx(), c.Sender().ID, myReportsLimit)
	if err != nil {
		return b.fail(c, "my_reports", err)
	}
	if len(reports) == 0 {
		return c.Send(msgNoReports)
	}
	return c.Send(fmt.Sprintf("📋 Your last %d reports:", len(reports)), myReportsMarkup(reports))
}

func (b *Bot) onMyReport(c tele.Context) error {
	r, err := b.svc.Reports.Get(b.ctx(), argUint(c, 0))
	if err != nil {
		return b.fail(c, "my_report", err)
	}
	if r.UserID != c.Sender().ID {
		return b.fail(c, "my_report", services.ErrReportNotFound)
	}
	return c.Send(reportDetailText(r, nil))
}

func (b *Bot) onCancel(c tele.Context) error {
	if !b.sessions.Clear(c.Sender().ID) {
		if c.Callback() != nil {
			return show(c, msgNothingToCancel, nil)
		}
		return c.Send(msgNothingToCancel)
	}
	return show(c, msgCancelled, nil)
}
