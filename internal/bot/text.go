package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
)

const (
	msgGenericFailure = "Something went wrong. Please try again later."
	msgAccessDenied   = "Access denied."
	msgAdminOnly      = "This command is for administrators only."
	msgDeveloperOnly  = "This command is for developers only."
	msgLinkNotFound   = "Link not found."
	dateLayout        = "2006-01-02 15:04"
)

// userMessages maps domain errors to the text shown to the operator or user.
var userMessages = []struct {
	err  error
	text string
}{
	{services.ErrLinkNotFound, msgLinkNotFound},
	{services.ErrInvalidCode, "Codes must be 3 to 20 letters or digits."},
	{services.ErrCodeTaken, "That code is already taken. Send another one."},
	{services.ErrFileTooLarge, "The file is too large."},
	{services.ErrTextTooLong, "The text is too long."},
	{services.ErrEmptyContent, "Send some text, a photo or a document."},
	{services.ErrLinkLimit, "You have reached your link limit."},
	{services.ErrCodeExhausted, "Could not find a free code. Try again or pick one yourself."},
	{services.ErrUserBanned, "You are banned and cannot do this."},
	{services.ErrEmptyReport, "The message is empty."},
	{services.ErrReportTooLong, "The message is too long."},
	{services.ErrReportLimit, "You have too many open reports. Please wait until they are reviewed."},
	{services.ErrReportNotFound, "Report not found."},
	{services.ErrUserNotFound, "User not found. They must start the bot first."},
	{services.ErrOwnerProtected, "The owner cannot be changed."},
	{services.ErrAlreadyAdmin, "That user is already an admin."},
	{services.ErrAlreadyDeveloper, "That user is already a developer."},
	{services.ErrNotAdmin, "That user is not an admin."},
	{services.ErrNotDeveloper, "That user is not a developer."},
	{services.ErrAlreadyBanned, "That user is already banned."},
	{services.ErrNotBanned, "That user is not banned."},
	{services.ErrChannelNotFound, "Channel not found."},
	{services.ErrChannelExists, "That channel is already on the list."},
	{services.ErrInvalidChannel, "That channel cannot be added."},
	{services.ErrEmptyBroadcast, "The broadcast has no content."},
	{services.ErrBackupUnsupported, "Backups are only available for SQLite databases."},
	{services.ErrBackupNotFound, "Backup not found."},
}

// errText returns the user-facing text for err and whether err is a known
// domain error. Unknown errors get the generic failure text.
func errText(err error) (string, bool) {
	var cd *services.CooldownError
	if errors.As(err, &cd) {
		return "Please wait " + formatDuration(cd.Remaining) + " before sending another report.", true
	}
	if errors.Is(err, services.ErrInvalidSetting) {
		return "Invalid value: " + strings.TrimPrefix(err.Error(), services.ErrInvalidSetting.Error()+": "), true
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.text, true
		}
	}
	return msgGenericFailure, false
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Second {
		d = time.Second
	}
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	switch {
	case m == 0:
		return fmt.Sprintf("%d sec", s)
	case s == 0:
		return fmt.Sprintf("%d min", m)
	}
	return fmt.Sprintf("%d min %d sec", m, s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func yesNo(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func handle(username string) string {
	if username == "" {
		return "-"
	}
	return "@" + username
}

func statusLabel(s models.ReportStatus) string {
	switch s {
	case models.ReportOpen:
		return "🟢 open"
	case models.ReportAnswered:
		return "✅ answered"
	case models.ReportClosed:
		return "⚪ closed"
	}
	return string(s)
}

func deepLink(botUsername, code string) string {
	if botUsername == "" {
		return "/start " + code
	}
	return "https://t.me/" + botUsername + "?start=" + code
}

func linkDetailText(l *models.Link, botUsername string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔗 Link %s\n\n", l.Code)
	fmt.Fprintf(&b, "Type: %s\n", l.ContentType)
	if l.ContentText != "" {
		fmt.Fprintf(&b, "Text: %s\n", truncate(l.ContentText, 200))
	}
	fmt.Fprintf(&b, "Visits: %d\n", l.Visits)
	if l.LastVisitAt != nil {
		fmt.Fprintf(&b, "Last visit: %s\n", l.LastVisitAt.Format(dateLayout))
	}
	fmt.Fprintf(&b, "Created: %s by %d\n\n", l.CreatedAt.Format(dateLayout), l.CreatedBy)
	b.WriteString(deepLink(botUsername, l.Code))
	return b.String()
}

func reportDetailText(r *models.Report, author *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Report #%d (%s)\n\n", r.ID, statusLabel(r.Status))
	if author != nil {
		fmt.Fprintf(&b, "From: %s %s (%d)\n", author.DisplayName(), handle(author.Username), author.UserID)
	} else {
		fmt.Fprintf(&b, "From: %d\n", r.UserID)
	}
	fmt.Fprintf(&b, "Sent: %s\n\n%s\n", r.CreatedAt.Format(dateLayout), r.Message)
	if r.Answer != "" {
		fmt.Fprintf(&b, "\nAnswer: %s\n", r.Answer)
		if r.AnsweredAt != nil {
			fmt.Fprintf(&b, "Answered: %s\n", r.AnsweredAt.Format(dateLayout))
		}
	}
	return b.String()
}

func userDetailText(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n\n", u.DisplayName())
	fmt.Fprintf(&b, "ID: %d\nUsername: %s\n", u.UserID, handle(u.Username))
	fmt.Fprintf(&b, "Joined: %s\nLast active: %s\n", u.JoinedAt.Format(dateLayout), u.LastActiveAt.Format(dateLayout))
	fmt.Fprintf(&b, "Link visits: %d\n", u.LinkVisits)
	if u.IsBanned {
		b.WriteString("\n⛔ Banned")
		if u.BanReason != "" {
			fmt.Fprintf(&b, ": %s", u.BanReason)
		}
		if u.BannedAt != nil {
			fmt.Fprintf(&b, "\nSince: %s", u.BannedAt.Format(dateLayout))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func profileText(u *models.User, reports []models.Report) string {
	open := 0
	for _, r := range reports {
		if r.Status == models.ReportOpen {
			open++
		}
	}
	return fmt.Sprintf("📊 Your profile\n\nName: %s\nID: %d\nJoined: %s\nLink visits: %d\nOpen reports: %d",
		u.DisplayName(), u.UserID, u.JoinedAt.Format(dateLayout), u.LinkVisits, open)
}

func settingsText(st *models.Settings) string {
	limit := "unlimited"
	if st.LinkLimit > 0 {
		limit = fmt.Sprint(st.LinkLimit)
	}
	return fmt.Sprintf("⚙️ Settings\n\nLink limit per admin: %s\nLink code length: %d\nOpen report limit: %d\nReport cooldown: %d min\nAdmin notifications: %s\nAuto-close old reports: %s",
		limit, st.LinkCodeLength, st.ReportLimit, st.ReportCooldownMinutes, yesNo(st.Notifications), yesNo(st.AutoClose))
}

func settingLabel(f services.SettingField) string {
	switch f {
	case services.FieldLinkLimit:
		return "Link limit"
	case services.FieldReportLimit:
		return "Report limit"
	case services.FieldReportCooldown:
		return "Report cooldown"
	case services.FieldLinkCodeLength:
		return "Code length"
	case services.FieldNotifications:
		return "Notifications"
	case services.FieldAutoClose:
		return "Auto-close"
	}
	return string(f)
}

func settingPrompt(f services.SettingField) string {
	switch f {
	case services.FieldLinkLimit:
		return "Send the new link limit per admin (0 = unlimited)."
	case services.FieldReportLimit:
		return "Send the new open report limit per user (1-100)."
	case services.FieldReportCooldown:
		return "Send the cooldown between reports in minutes (0-1440)."
	case services.FieldLinkCodeLength:
		return fmt.Sprintf("Send the length of generated codes (%d-%d).", services.MinCodeLength, services.MaxCodeLength)
	}
	return "Send the new value."
}

func overviewText(o *services.Overview) string {
	return fmt.Sprintf("📈 Statistics\n\nUsers: %d\nActive (30d): %d\nBanned: %d\n\nLinks: %d\nVisits: %d\n\nReports: %d\nOpen: %d\nAnswered: %d\nClosed: %d\n\nChannels: %d\nAdmins: %d\nDevelopers: %d",
		o.TotalUsers, o.ActiveUsers, o.BannedUsers,
		o.TotalLinks, o.TotalVisits,
		o.TotalReports, o.OpenReports, o.AnsweredReports, o.ClosedReports,
		o.Channels, o.Admins, o.Developers)
}

func detailedText(d *services.Detailed) string {
	row := func(label string, day, week int64) string {
		return fmt.Sprintf("%s: %d / %d\n", label, day, week)
	}
	var b strings.Builder
	b.WriteString("📊 Detailed statistics (24h / 7d)\n\n")
	b.WriteString(row("New users", d.Day.NewUsers, d.Week.NewUsers))
	b.WriteString(row("Active users", d.Day.ActiveUsers, d.Week.ActiveUsers))
	b.WriteString(row("New links", d.Day.NewLinks, d.Week.NewLinks))
	b.WriteString(row("Visits on new links", d.Day.Visits, d.Week.Visits))
	b.WriteString(row("New reports", d.Day.NewReports, d.Week.NewReports))
	return b.String()
}

func topUsersText(top []services.TopUser) string {
	if len(top) == 0 {
		return "🏆 No link visits yet."
	}
	var b strings.Builder
	b.WriteString("🏆 Top users by link visits\n\n")
	for i, u := range top {
		name := u.FirstName
		if name == "" {
			name = handle(u.Username)
		}
		fmt.Fprintf(&b, "%d. %s (%d): %d\n", i+1, name, u.UserID, u.LinkVisits)
	}
	return b.String()
}

func broadcastStatsText(st *services.BroadcastStats) string {
	last := "never"
	if st.LastRunAt != nil {
		last = st.LastRunAt.Format(dateLayout)
	}
	return fmt.Sprintf("📣 Broadcasts\n\nRuns: %d\nDelivered: %d\nFailed: %d\nLast run: %s", st.Runs, st.Delivered, st.Failed, last)
}

func progressText(p services.Progress) string {
	return fmt.Sprintf("📤 Sending… %d/%d\n✅ %d  ❌ %d", p.Sent, p.Total, p.Success, p.Failed)
}

func broadcastSummaryText(b *models.Broadcast) string {
	head := "✅ Broadcast finished"
	if b.Cancelled {
		head = "⏹ Broadcast stopped"
	}
	return fmt.Sprintf("%s\n\nRecipients: %d\nDelivered: %d\nFailed: %d\nDuration: %s",
		head, b.Total, b.SuccessCount, b.FailedCount, formatDuration(b.FinishedAt.Sub(b.StartedAt)))
}

func subscribePromptText(unmet []models.SubscriptionChannel) string {
	var b strings.Builder
	b.WriteString("📢 To use this bot, please join these channels:\n\n")
	for _, ch := range unmet {
		fmt.Fprintf(&b, "• %s (%s)\n", ch.Title, handle(ch.Username))
	}
	b.WriteString("\nThen press \"I subscribed\".")
	return b.String()
}

func logsText(logs []models.SystemLog, total int64, page int) string {
	if len(logs) == 0 {
		return "📜 No log records."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📜 Logs (%d total, page %d/%d)\n\n", total, page, pageCount(total))
	for _, l := range logs {
		fmt.Fprintf(&b, "[%s] %s %s", l.Timestamp.Format("01-02 15:04:05"), l.Level, truncate(l.Message, 120))
		if l.Error != "" {
			fmt.Fprintf(&b, "\n  error: %s", truncate(l.Error, 200))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func helpText(admin, developer bool) string {
	var b strings.Builder
	b.WriteString("ℹ️ Commands\n\n")
	b.WriteString("/start - start the bot\n")
	b.WriteString("/help - show this message\n")
	b.WriteString("/profile - your statistics\n")
	b.WriteString("/report - send a report to the administrators\n")
	b.WriteString("/myreports - your reports and answers\n")
	b.WriteString("/cancel - cancel the current action\n")
	if admin {
		b.WriteString("\nAdministrators:\n/admin - admin panel\n")
	}
	if developer {
		b.WriteString("/developer_panel - developer panel\n")
	}
	return b.String()
}

func auditText(res *services.AuditResult) string {
	var b strings.Builder
	b.WriteString("🔍 Subscription audit\n\n")
	if res.Unsubscribed == 0 {
		fmt.Fprintf(&b, "✅ All %d users are subscribed.", res.Checked)
		return b.String()
	}
	fmt.Fprintf(&b, "🚫 Not subscribed: %d of %d users\n\n", res.Unsubscribed, res.Checked)
	for i, u := range res.Users {
		fmt.Fprintf(&b, "%d. %s (%s, %d)\n", i+1, u.DisplayName(), handle(u.Username), u.UserID)
	}
	if more := res.Unsubscribed - len(res.Users); more > 0 {
		fmt.Fprintf(&b, "\n…and %d more", more)
	}
	return b.String()
}
