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
	msgUnknownInput = "I did not understand that. Use /help to see the commands."
	searchLimit     = 10
)

// isAny reports whether err matches one of targets.
func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// retry tells the user what was wrong and keeps the flow open for another try.
func (b *Bot) retry(c tele.Context, err error) error {
	text, _ := errText(err)
	return c.Send(text, cancelMarkup())
}

// finish ends the sender's flow and reports err, if any.
func (b *Bot) finish(c tele.Context, action string, err error) error {
	b.sessions.Clear(c.Sender().ID)
	return b.fail(c, action, err)
}

var contentErrors = []error{services.ErrFileTooLarge, services.ErrTextTooLong, services.ErrEmptyContent}

// messageContent extracts link content from a text, photo or document message.
func messageContent(m *tele.Message) (services.Content, bool) {
	switch {
	case m.Photo != nil:
		return services.Content{Type: models.ContentPhoto, Text: m.Caption, FileID: m.Photo.FileID, FileSize: m.Photo.FileSize}, true
	case m.Document != nil:
		return services.Content{Type: models.ContentDocument, Text: m.Caption, FileID: m.Document.FileID, FileSize: m.Document.FileSize}, true
	case strings.TrimSpace(m.Text) != "":
		return services.Content{Type: models.ContentText, Text: m.Text}, true
	}
	return services.Content{}, false
}

func (b *Bot) onText(c tele.Context) error {
	id := c.Sender().ID
	st, ok := b.sessions.Get(id)
	if !ok {
		if c.Chat() != nil && c.Chat().Type != tele.ChatPrivate {
			return nil
		}
		return c.Send(msgUnknownInput)
	}
	if allowed, err := b.authorizeState(c, st); !allowed {
		return err
	}
	text := strings.TrimSpace(c.Text())

	switch s := st.(type) {
	case session.AwaitingLinkContent, session.AwaitingLinkEdit:
		return b.onContent(c, st)

	case session.AwaitingLinkCode:
		lc := s.Content
		return b.createLink(c, text, services.Content{Type: lc.Type, Text: lc.Text, FileID: lc.FileID, FileSize: lc.FileSize})

	case session.AwaitingNewLinkCode:
		l, err := b.svc.Links.Rename(b.ctx(), s.OldCode, text)
		if isAny(err, services.ErrInvalidCode, services.ErrCodeTaken) {
			return b.retry(c, err)
		}
		if err != nil {
			return b.finish(c, "link_rename", err)
		}
		b.sessions.Clear(id)
		return c.Send("✅ Code changed.\n\n"+linkDetailText(l, b.username()), linkDetailMarkup(l.Code, pageOrFirst(s.Page)), tele.NoPreview)

	case session.AwaitingLinkSearch:
		b.sessions.Clear(id)
		links, err := b.svc.Links.Search(b.ctx(), text, searchLimit)
		if err != nil {
			return b.fail(c, "link_search", err)
		}
		return c.Send(fmt.Sprintf("🔍 %d links match %q", len(links), text), linksListMarkup(links, 1, 0))

	case session.AwaitingBanReason:
		err := b.svc.Users.Ban(b.ctx(), s.UserID, text, id)
		if err != nil {
			return b.finish(c, "user_ban", err)
		}
		b.sessions.Clear(id)
		u, err := b.svc.Users.Get(b.ctx(), s.UserID)
		if err != nil {
			return c.Send("⛔ User banned.")
		}
		return c.Send("⛔ User banned.\n\n"+userDetailText(u), userDetailMarkup(u))

	case session.AwaitingUserSearch:
		b.sessions.Clear(id)
		users, err := b.svc.Users.Search(b.ctx(), text, searchLimit)
		if err != nil {
			return b.fail(c, "user_search", err)
		}
		return c.Send(fmt.Sprintf("🔍 %d users match %q", len(users), text), usersListMarkup(users, "", 1, 0))

	case session.AwaitingReportText:
		reportID, err := b.svc.Reports.Submit(b.ctx(), id, text)
		if isAny(err, services.ErrEmptyReport, services.ErrReportTooLong) {
			return b.retry(c, err)
		}
		if err != nil {
			return b.finish(c, "report_submit", err)
		}
		b.sessions.Clear(id)
		return c.Send(fmt.Sprintf("✅ Report #%d sent. You will get a message when it is answered.", reportID))

	case session.AwaitingReportAnswer:
		r, err := b.svc.Reports.Answer(b.ctx(), s.ReportID, text, id)
		if isAny(err, services.ErrEmptyReport, services.ErrReportTooLong) {
			return b.retry(c, err)
		}
		if err != nil {
			return b.finish(c, "report_answer", err)
		}
		b.sessions.Clear(id)
		return c.Send("✅ Answer sent.\n\n"+reportDetailText(r, nil), reportDetailMarkup(r, models.ReportAnswered, 1))

	case session.AwaitingReportSearch:
		b.sessions.Clear(id)
		reports, err := b.svc.Reports.Search(b.ctx(), text, searchLimit)
		if err != nil {
			return b.fail(c, "report_search", err)
		}
		return c.Send(fmt.Sprintf("🔍 %d reports match %q", len(reports), text), reportsListMarkup(reports, models.ReportOpen, 1, 0))

	case session.AwaitingAdminIdentifier:
		a, err := b.svc.Roles.AddAdmin(b.ctx(), text, id)
		if isAny(err, services.ErrUserNotFound) {
			return b.retry(c, err)
		}
		if err != nil {
			return b.finish(c, "admin_add", err)
		}
		b.sessions.Clear(id)
		return c.Send(fmt.Sprintf("✅ %s (%d) is now an admin.", handle(a.Username), a.UserID), backMarkup(cbAdminsMenu))

	case session.AwaitingDeveloperIdentifier:
		d, err := b.svc.Roles.AddDeveloper(b.ctx(), text, id)
		if isAny(err, services.ErrUserNotFound) {
			return b.retry(c, err)
		}
		if err != nil {
			return b.finish(c, "dev_add", err)
		}
		b.sessions.Clear(id)
		return c.Send(fmt.Sprintf("✅ %s (%d) is now a developer.", handle(d.Username), d.UserID), backMarkup(cbDevList))

	case session.AwaitingBroadcast:
		if s.Photo {
			return c.Send("Send a photo, or /cancel.", cancelMarkup())
		}
		return b.confirmBroadcast(c, session.AwaitingBroadcastConfirm{Text: text})

	case session.AwaitingBroadcastConfirm:
		return c.Send("Press Send to start the broadcast, or Cancel.", broadcastConfirmMarkup())

	case session.AwaitingChannel:
		return b.addChannel(c, text, s.CheckType)

	case session.AwaitingSetting:
		st, err := b.svc.Settings.Set(b.ctx(), services.SettingField(s.Field), text)
		if errors.Is(err, services.ErrInvalidSetting) {
			return b.retry(c, err)
		}
		if err != nil {
			return b.finish(c, "setting_set", err)
		}
		b.sessions.Clear(id)
		return c.Send("✅ Saved.\n\n"+settingsText(st), settingsMarkup())
	}
	return c.Send(msgUnknownInput)
}

func (b *Bot) onMedia(c tele.Context) error {
	st, ok := b.sessions.Get(c.Sender().ID)
	if !ok {
		return nil
	}
	if allowed, err := b.authorizeState(c, st); !allowed {
		return err
	}
	switch s := st.(type) {
	case session.AwaitingLinkContent, session.AwaitingLinkEdit:
		return b.onContent(c, st)
	case session.AwaitingBroadcast:
		m := c.Message()
		if !s.Photo || m.Photo == nil {
			return c.Send("Send a text message for this broadcast, or /cancel.", cancelMarkup())
		}
		return b.confirmBroadcast(c, session.AwaitingBroadcastConfirm{Text: m.Caption, PhotoID: m.Photo.FileID})
	}
	return c.Send("A file is not expected right now. Use /cancel to stop the current action.")
}

// onContent handles link content for the create and edit flows.
func (b *Bot) onContent(c tele.Context, st session.State) error {
	content, ok := messageContent(c.Message())
	if !ok {
		return b.retry(c, services.ErrEmptyContent)
	}
	id := c.Sender().ID

	switch s := st.(type) {
	case session.AwaitingLinkEdit:
		l, err := b.svc.Links.UpdateContent(b.ctx(), s.Code, content)
		if isAny(err, contentErrors...) {
			return b.retry(c, err)
		}
		if err != nil {
			return b.finish(c, "link_edit", err)
		}
		b.sessions.Clear(id)
		return c.Send("✅ Content updated.\n\n"+linkDetailText(l, b.username()), linkDetailMarkup(l.Code, pageOrFirst(s.Page)), tele.NoPreview)

	case session.AwaitingLinkContent:
		if err := b.svc.Links.ValidateContent(content); err != nil {
			if isAny(err, contentErrors...) {
				return b.retry(c, err)
			}
			return b.finish(c, "link_create", err)
		}
		if !s.Custom {
			return b.createLink(c, "", content)
		}
		b.sessions.Set(id, session.AwaitingLinkCode{Content: session.LinkContent{
			Type:     content.Type,
			Text:     content.Text,
			FileID:   content.FileID,
			FileSize: content.FileSize,
		}})
		return c.Send(fmt.Sprintf("🔤 Now send the code (%d-%d letters or digits).", services.MinCodeLength, services.MaxCodeLength), cancelMarkup())
	}
	return nil
}

func (b *Bot) createLink(c tele.Context, code string, in services.Content) error {
	id := c.Sender().ID
	l, err := b.svc.Links.Create(b.ctx(), services.CreateLinkInput{Code: code, CreatedBy: id, Content: in})
	if code != "" && isAny(err, services.ErrInvalidCode, services.ErrCodeTaken) {
		return b.retry(c, err)
	}
	if err != nil {
		return b.finish(c, "link_create", err)
	}
	b.sessions.Clear(id)
	text := fmt.Sprintf("✅ Link created\n\n%s", deepLink(b.username(), l.Code))
	return c.Send(text, linkDetailMarkup(l.Code, 1), tele.NoPreview)
}

func (b *Bot) confirmBroadcast(c tele.Context, st session.AwaitingBroadcastConfirm) error {
	if st.Text == "" && st.PhotoID == "" {
		return b.retry(c, services.ErrEmptyBroadcast)
	}
	b.sessions.Set(c.Sender().ID, st)
	n, err := b.svc.Users.Count(b.ctx())
	if err != nil {
		return b.finish(c, "broadcast_confirm", err)
	}
	preview := fmt.Sprintf("📣 Send this to %d users?", n)
	if st.PhotoID != "" {
		photo := &tele.Photo{File: tele.File{FileID: st.PhotoID}, Caption: st.Text}
		if err := c.Send(photo); err != nil {
			return err
		}
	} else {
		preview += "\n\n" + st.Text
	}
	return c.Send(preview, broadcastConfirmMarkup(), tele.NoPreview)
}

func (b *Bot) addChannel(c tele.Context, identifier string, ct models.CheckType) error {
	chat, err := b.transport.ResolveChat(identifier)
	if err != nil || chat.Type == tele.ChatPrivate {
		return b.retry(c, services.ErrInvalidChannel)
	}
	ch, err := b.svc.Channels.Add(b.ctx(), models.SubscriptionChannel{
		ChannelID: chat.ID,
		Title:     chat.Title,
		Username:  chat.Username,
		CheckType: ct,
		AddedBy:   c.Sender().ID,
	})
	if err != nil {
		return b.finish(c, "channel_add", err)
	}
	b.sessions.Clear(c.Sender().ID)
	return c.Send(fmt.Sprintf("✅ %s added.", ch.Title), backMarkup(cbChannelsMenu))
}
