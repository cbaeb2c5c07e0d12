package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/session"
	tele "gopkg.in/telebot.v3"
)

func (b *Bot) onAdminPanel(c tele.Context) error {
	id := c.Sender().ID
	b.sessions.Clear(id)
	dev, err := b.svc.Roles.IsDeveloper(b.ctx(), id)
	if err != nil {
		return b.fail(c, "admin_panel", err)
	}
	return show(c, "🛠 Admin panel", adminPanelMarkup(dev))
}

// prompt starts a multi-step flow and asks for the next message.
func (b *Bot) prompt(c tele.Context, st session.State, text string) error {
	b.sessions.Set(c.Sender().ID, st)
	return show(c, text, cancelMarkup())
}

// respond shows a short toast for callbacks and is a no-op otherwise.
func respond(c tele.Context, text string) {
	if c.Callback() != nil {
		_ = c.Respond(&tele.CallbackResponse{Text: text})
	}
}

// Links

func (b *Bot) onLinksMenu(c tele.Context) error {
	n, err := b.svc.Links.Count(b.ctx())
	if err != nil {
		return b.fail(c, "links_menu", err)
	}
	return show(c, fmt.Sprintf("🔗 Links (%d)", n), linksMenuMarkup())
}

func (b *Bot) showLinksList(c tele.Context, page int) error {
	page = pageOrFirst(page)
	links, total, err := b.svc.Links.List(b.ctx(), page, perPage)
	if err != nil {
		return b.fail(c, "links_list", err)
	}
	text := fmt.Sprintf("🔗 Links (%d), page %d/%d", total, page, pageCount(total))
	if total == 0 {
		text = "🔗 No links yet."
	}
	return show(c, text, linksListMarkup(links, page, total))
}

func (b *Bot) onLinksList(c tele.Context) error {
	return b.showLinksList(c, argInt(c, 0))
}

func (b *Bot) showLink(c tele.Context, code string, page int) error {
	l, err := b.svc.Links.Get(b.ctx(), code)
	if err != nil {
		return b.fail(c, "link_detail", err)
	}
	return show(c, linkDetailText(l, b.username()), linkDetailMarkup(l.Code, pageOrFirst(page)))
}

func (b *Bot) onLinkDetail(c tele.Context) error {
	return b.showLink(c, arg(c, 0), argInt(c, 1))
}

func (b *Bot) onLinkCreate(c tele.Context) error {
	custom := c.Callback().Unique == cbLinkCreateCustom
	return b.prompt(c, session.AwaitingLinkContent{Custom: custom},
		"📎 Send the link content: a text message, a photo or a document.")
}

func (b *Bot) onLinkDelete(c tele.Context) error {
	code, page := arg(c, 0), arg(c, 1)
	return show(c, fmt.Sprintf("🗑 Delete link %s?", code),
		confirmMarkup(cbLinkDeleteConfirm, []string{code, page}, cbLinkDetail, code, page))
}

func (b *Bot) onLinkDeleteConfirm(c tele.Context) error {
	if err := b.svc.Links.Delete(b.ctx(), arg(c, 0)); err != nil {
		return b.fail(c, "link_delete", err)
	}
	respond(c, "Link deleted.")
	return b.showLinksList(c, argInt(c, 1))
}

func (b *Bot) onLinkEditContent(c tele.Context) error {
	code := arg(c, 0)
	return b.prompt(c, session.AwaitingLinkEdit{Code: code, Page: argInt(c, 1)},
		fmt.Sprintf("📝 Send the new content for %s.", code))
}

func (b *Bot) onLinkRename(c tele.Context) error {
	code := arg(c, 0)
	return b.prompt(c, session.AwaitingNewLinkCode{OldCode: code, Page: argInt(c, 1)},
		fmt.Sprintf("🔤 Send the new code for %s.", code))
}

func (b *Bot) onLinkSearch(c tele.Context) error {
	return b.prompt(c, session.AwaitingLinkSearch{}, "🔍 Send part of a code or content text.")
}

// Reports

func (b *Bot) onReportsMenu(c tele.Context) error {
	ctx := b.ctx()
	var counts [3]int64
	for i, st := range []models.ReportStatus{models.ReportOpen, models.ReportAnswered, models.ReportClosed} {
		n, err := b.svc.Reports.CountByStatus(ctx, st)
		if err != nil {
			return b.fail(c, "reports_menu", err)
		}
		counts[i] = n
	}
	return show(c, "📝 Reports", reportsMenuMarkup(counts[0], counts[1], counts[2]))
}

func statusArg(c tele.Context, i int) models.ReportStatus {
	st := models.ReportStatus(arg(c, i))
	if !st.Valid() {
		return models.ReportOpen
	}
	return st
}

func (b *Bot) onReportsList(c tele.Context) error {
	status, page := statusArg(c, 0), pageOrFirst(argInt(c, 1))
	reports, total, err := b.svc.Reports.ListByStatus(b.ctx(), status, page, perPage)
	if err != nil {
		return b.fail(c, "reports_list", err)
	}
	text := fmt.Sprintf("📝 %s reports (%d), page %d/%d", statusLabel(status), total, page, pageCount(total))
	if total == 0 {
		text = fmt.Sprintf("📝 No %s reports.", status)
	}
	return show(c, text, reportsListMarkup(reports, status, page, total))
}

func (b *Bot) showReport(c tele.Context, id uint, status models.ReportStatus, page int) error {
	ctx := b.ctx()
	r, err := b.svc.Reports.Get(ctx, id)
	if err != nil {
		return b.fail(c, "report_detail", err)
	}
	author, err := b.svc.Users.Get(ctx, r.UserID)
	if err != nil {
		author = nil
	}
	return show(c, reportDetailText(r, author), reportDetailMarkup(r, status, pageOrFirst(page)))
}

func (b *Bot) onReportDetail(c tele.Context) error {
	return b.showReport(c, argUint(c, 0), statusArg(c, 1), argInt(c, 2))
}

func (b *Bot) onReportAnswer(c tele.Context) error {
	id := argUint(c, 0)
	return b.prompt(c, session.AwaitingReportAnswer{ReportID: id},
		fmt.Sprintf("💬 Send the answer for report #%d.", id))
}

func (b *Bot) onReportClose(c tele.Context) error {
	id := argUint(c, 0)
	if err := b.svc.Reports.Close(b.ctx(), id); err != nil {
		return b.fail(c, "report_close", err)
	}
	respond(c, "Report closed.")
	return b.showReport(c, id, models.ReportOpen, 1)
}

func (b *Bot) onReportReopen(c tele.Context) error {
	id := argUint(c, 0)
	if err := b.svc.Reports.Reopen(b.ctx(), id); err != nil {
		return b.fail(c, "report_reopen", err)
	}
	respond(c, "Report reopened.")
	return b.showReport(c, id, models.ReportOpen, 1)
}

func (b *Bot) onReportDelete(c tele.Context) error {
	id := arg(c, 0)
	return show(c, fmt.Sprintf("🗑 Delete report #%s?", id),
		confirmMarkup(cbReportDeleteConfirm, []string{id}, cbReportDetail, id))
}

func (b *Bot) onReportDeleteConfirm(c tele.Context) error {
	if err := b.svc.Reports.Delete(b.ctx(), argUint(c, 0)); err != nil {
		return b.fail(c, "report_delete", err)
	}
	respond(c, "Report deleted.")
	return b.onReportsMenu(c)
}

func (b *Bot) onReportBan(c tele.Context) error {
	r, err := b.svc.Reports.Get(b.ctx(), argUint(c, 0))
	if err != nil {
		return b.fail(c, "report_ban", err)
	}
	return b.askBanReason(c, r.UserID)
}

func (b *Bot) onReportSearch(c tele.Context) error {
	return b.prompt(c, session.AwaitingReportSearch{}, "🔍 Send a word to look for in reports.")
}

// Users

func (b *Bot) onUsersMenu(c tele.Context) error {
	n, err := b.svc.Users.Count(b.ctx())
	if err != nil {
		return b.fail(c, "users_menu", err)
	}
	return show(c, fmt.Sprintf("👥 Users (%d)", n), usersMenuMarkup())
}

func (b *Bot) showUsers(c tele.Context, unique string, page int) error {
	page = pageOrFirst(page)
	list := b.svc.Users.List
	title := "👥 Users"
	if unique == cbBannedList {
		list = b.svc.Users.ListBanned
		title = "⛔ Banned users"
	}
	users, total, err := list(b.ctx(), page, perPage)
	if err != nil {
		return b.fail(c, unique, err)
	}
	text := fmt.Sprintf("%s (%d), page %d/%d", title, total, page, pageCount(total))
	return show(c, text, usersListMarkup(users, unique, page, total))
}

func (b *Bot) onUsersList(c tele.Context) error {
	return b.showUsers(c, cbUsersList, argInt(c, 0))
}

func (b *Bot) onBannedList(c tele.Context) error {
	return b.showUsers(c, cbBannedList, argInt(c, 0))
}

func (b *Bot) showUser(c tele.Context, userID int64) error {
	u, err := b.svc.Users.Get(b.ctx(), userID)
	if err != nil {
		return b.fail(c, "user_detail", err)
	}
	return show(c, userDetailText(u), userDetailMarkup(u))
}

func (b *Bot) onUserDetail(c tele.Context) error {
	return b.showUser(c, argInt64(c, 0))
}

func (b *Bot) askBanReason(c tele.Context, userID int64) error {
	if b.svc.Roles.IsOwner(userID) {
		return b.fail(c, "user_ban", services.ErrOwnerProtected)
	}
	return b.prompt(c, session.AwaitingBanReason{UserID: userID},
		fmt.Sprintf("⛔ Send the ban reason for %d.", userID))
}

func (b *Bot) onUserBan(c tele.Context) error {
	return b.askBanReason(c, argInt64(c, 0))
}

func (b *Bot) onUserUnban(c tele.Context) error {
	id := argInt64(c, 0)
	if err := b.svc.Users.Unban(b.ctx(), id, c.Sender().ID); err != nil {
		return b.fail(c, "user_unban", err)
	}
	respond(c, "User unbanned.")
	return b.showUser(c, id)
}

func (b *Bot) onUserSearch(c tele.Context) error {
	return b.prompt(c, session.AwaitingUserSearch{}, "🔍 Send a name, @username or id.")
}

func (b *Bot) onTopUsers(c tele.Context) error {
	top, err := b.svc.Stats.TopUsers(b.ctx(), 10)
	if err != nil {
		return b.fail(c, "top_users", err)
	}
	return show(c, topUsersText(top), backMarkup(cbUsersMenu))
}

// Admins

func (b *Bot) onAdminsMenu(c tele.Context) error {
	admins, err := b.svc.Roles.ListAdmins(b.ctx())
	if err != nil {
		return b.fail(c, "admins_menu", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛡 Admins (%d)\n\n", len(admins))
	for _, a := range admins {
		fmt.Fprintf(&sb, "• %s (%d)\n", handle(a.Username), a.UserID)
	}
	sb.WriteString("\nPress an admin to remove them.")
	return show(c, sb.String(), adminsMarkup(admins, b.cfg.OwnerID))
}

func (b *Bot) onAdminAdd(c tele.Context) error {
	return b.prompt(c, session.AwaitingAdminIdentifier{}, "🛡 Send the user id or @username of the new admin.")
}

func (b *Bot) onAdminRemove(c tele.Context) error {
	id := arg(c, 0)
	return show(c, fmt.Sprintf("🛡 Remove admin %s?", id),
		confirmMarkup(cbAdminRemoveConfirm, []string{id}, cbAdminsMenu))
}

func (b *Bot) onAdminRemoveConfirm(c tele.Context) error {
	target := argInt64(c, 0)
	if err := b.svc.Roles.RemoveAdmin(b.ctx(), target, c.Sender().ID); err != nil {
		return b.fail(c, "admin_remove", err)
	}
	b.sessions.Clear(target)
	respond(c, "Admin removed.")
	return b.onAdminsMenu(c)
}

// Settings

func (b *Bot) onSettingsMenu(c tele.Context) error {
	st, err := b.svc.Settings.Get(b.ctx())
	if err != nil {
		return b.fail(c, "settings_menu", err)
	}
	return show(c, settingsText(st), settingsMarkup())
}

func (b *Bot) onSettingSet(c tele.Context) error {
	f := services.SettingField(arg(c, 0))
	if !f.Valid() || f.IsToggle() {
		return b.fail(c, "setting_set", services.ErrInvalidSetting)
	}
	return b.prompt(c, session.AwaitingSetting{Field: string(f)}, settingPrompt(f))
}

func (b *Bot) onSettingToggle(c tele.Context) error {
	st, err := b.svc.Settings.Toggle(b.ctx(), services.SettingField(arg(c, 0)))
	if err != nil {
		return b.fail(c, "setting_toggle", err)
	}
	return show(c, settingsText(st), settingsMarkup())
}

// Channels

func (b *Bot) onChannelsMenu(c tele.Context) error {
	channels, err := b.svc.Channels.List(b.ctx())
	if err != nil {
		return b.fail(c, "channels_menu", err)
	}
	text := fmt.Sprintf("📢 Subscription channels (%d)", len(channels))
	if len(channels) == 0 {
		text = "📢 No subscription channels. Everyone can use the bot."
	}
	return show(c, text, channelsMarkup(channels))
}

func (b *Bot) onChannelDetail(c tele.Context) error {
	ch, err := b.svc.Channels.Get(b.ctx(), argInt64(c, 0))
	if err != nil {
		return b.fail(c, "channel_detail", err)
	}
	scope := "every feature"
	if ch.CheckType == models.CheckLinks {
		scope = "deep links only"
	}
	text := fmt.Sprintf("📢 %s\n\nID: %d\nHandle: %s\nGates: %s\nAdded: %s",
		ch.Title, ch.ChannelID, handle(ch.Username), scope, ch.CreatedAt.Format(dateLayout))
	return show(c, text, channelDetailMarkup(ch.ChannelID))
}

func (b *Bot) onChannelAdd(c tele.Context) error {
	ct := models.CheckType(argInt(c, 0))
	if !ct.Valid() {
		ct = models.CheckAll
	}
	return b.prompt(c, session.AwaitingChannel{CheckType: ct},
		"📢 Send the channel @username or numeric id. The bot must be an administrator there.")
}

func (b *Bot) onChannelRemove(c tele.Context) error {
	if err := b.svc.Channels.Remove(b.ctx(), argInt64(c, 0)); err != nil {
		return b.fail(c, "channel_remove", err)
	}
	respond(c, "Channel removed.")
	return b.onChannelsMenu(c)
}

const auditListLimit = 10

func (b *Bot) onChannelAudit(c tele.Context) error {
	respond(c, "Checking subscriptions…")
	res, err := b.svc.Gate.Audit(b.ctx(), auditListLimit)
	if err != nil {
		return b.fail(c, "channel_audit", err)
	}
	return show(c, auditText(res), backMarkup(cbChannelsMenu))
}

// Broadcast

func (b *Bot) broadcasting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.broadcastCancel != nil
}

func (b *Bot) onBroadcastMenu(c tele.Context) error {
	if b.broadcasting() {
		return show(c, "📣 A broadcast is running.", broadcastRunningMarkup())
	}
	n, err := b.svc.Users.Count(b.ctx())
	if err != nil {
		return b.fail(c, "broadcast_menu", err)
	}
	return show(c, fmt.Sprintf("📣 Broadcast to %d users", n), broadcastMenuMarkup())
}

func (b *Bot) onBroadcastStart(c tele.Context) error {
	photo := c.Callback().Unique == cbBroadcastPhoto
	text := "✉️ Send the message to broadcast."
	if photo {
		text = "🖼 Send the photo to broadcast. Its caption is sent too."
	}
	return b.prompt(c, session.AwaitingBroadcast{Photo: photo}, text)
}

func (b *Bot) onBroadcastSend(c tele.Context) error {
	id := c.Sender().ID
	st, ok := session.As[session.AwaitingBroadcastConfirm](b.sessions, id)
	if !ok {
		return alert(c, "Nothing to send. Start a new broadcast.")
	}
	b.sessions.Clear(id)

	req := services.BroadcastRequest{Kind: models.BroadcastText, Text: st.Text, SentBy: id}
	if st.PhotoID != "" {
		req.Kind = models.BroadcastPhoto
		req.PhotoID = st.PhotoID
	}

	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		return alert(c, "The bot is shutting down.")
	}
	if b.broadcastCancel != nil {
		b.mu.Unlock()
		return alert(c, "A broadcast is already running.")
	}
	ctx, cancel := context.WithCancel(b.ctx())
	b.broadcastCancel = cancel
	b.broadcasts.Add(1)
	b.mu.Unlock()

	msg, err := b.tb.Send(c.Chat(), progressText(services.Progress{}), broadcastRunningMarkup())
	if err != nil {
		b.finishBroadcast()
		b.broadcasts.Done()
		return b.fail(c, "broadcast_send", err)
	}
	go func() {
		defer b.broadcasts.Done()
		b.runBroadcast(ctx, msg, req)
	}()
	return nil
}

func (b *Bot) runBroadcast(ctx context.Context, msg *tele.Message, req services.BroadcastRequest) {
	defer b.finishBroadcast()
	progress := func(p services.Progress) {
		if _, err := b.tb.Edit(msg, progressText(p), broadcastRunningMarkup()); err != nil && !errors.Is(err, tele.ErrSameMessageContent) {
			slog.Debug("broadcast progress edit failed", "error", err)
		}
	}
	summary, err := b.svc.Broadcast.Run(ctx, req, progress)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("broadcast failed", "sent_by", req.SentBy, "error", err)
	}
	if summary == nil {
		_, _ = b.tb.Edit(msg, msgGenericFailure)
		return
	}
	if _, err := b.tb.Edit(msg, broadcastSummaryText(summary)); err != nil {
		slog.Warn("broadcast summary edit failed", "error", err)
	}
}

func (b *Bot) finishBroadcast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broadcastCancel != nil {
		b.broadcastCancel()
		b.broadcastCancel = nil
	}
}

// drainBroadcasts refuses new broadcasts, cancels the running one and waits
// until its summary is recorded.
func (b *Bot) drainBroadcasts() {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()
	b.stopBroadcast()
	b.broadcasts.Wait()
}

// stopBroadcast cancels a running broadcast and reports whether one was running.
func (b *Bot) stopBroadcast() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.broadcastCancel == nil {
		return false
	}
	b.broadcastCancel()
	return true
}

func (b *Bot) onBroadcastStop(c tele.Context) error {
	if !b.stopBroadcast() {
		return alert(c, "No broadcast is running.")
	}
	respond(c, "Stopping…")
	return nil
}

func (b *Bot) onBroadcastStats(c tele.Context) error {
	st, err := b.svc.Broadcast.Stats(b.ctx())
	if err != nil {
		return b.fail(c, "broadcast_stats", err)
	}
	return show(c, broadcastStatsText(st), backMarkup(cbBroadcastMenu))
}

// Statistics

func (b *Bot) onStats(c tele.Context) error {
	o, err := b.svc.Stats.Overview(b.ctx())
	if err != nil {
		return b.fail(c, "stats", err)
	}
	return show(c, overviewText(o), statsMarkup())
}

func (b *Bot) onStatsDetailed(c tele.Context) error {
	d, err := b.svc.Stats.Detailed(b.ctx())
	if err != nil {
		return b.fail(c, "stats_detailed", err)
	}
	return show(c, detailedText(d), backMarkup(cbStats))
}
