package bot

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	tele "gopkg.in/telebot.v3"
)

func subscribeMarkup(unmet []models.SubscriptionChannel, code string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, ch := range unmet {
		if ch.Username != "" {
			rows = append(rows, m.Row(m.URL("📢 "+ch.Title, "https://t.me/"+ch.Username)))
		}
	}
	check := m.Data("✅ I subscribed", cbCheckSub)
	if code != "" {
		check = m.Data("✅ I subscribed", cbCheckSub, code)
	}
	rows = append(rows, m.Row(check))
	m.Inline(rows...)
	return m
}

func cancelMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data("✖ Cancel", cbCancel)))
	return m
}

func backMarkup(unique string, args ...string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data("« Back", unique, args...)))
	return m
}

func confirmMarkup(yesUnique string, yesArgs []string, noUnique string, noArgs ...string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data("✅ Yes", yesUnique, yesArgs...),
		m.Data("✖ No", noUnique, noArgs...),
	))
	return m
}

func adminPanelMarkup(developer bool) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := []tele.Row{
		m.Row(m.Data("🔗 Links", cbLinksMenu), m.Data("📝 Reports", cbReportsMenu)),
		m.Row(m.Data("👥 Users", cbUsersMenu), m.Data("🛡 Admins", cbAdminsMenu)),
		m.Row(m.Data("📢 Channels", cbChannelsMenu), m.Data("📣 Broadcast", cbBroadcastMenu)),
		m.Row(m.Data("📈 Statistics", cbStats), m.Data("⚙️ Settings", cbSettingsMenu)),
	}
	if developer {
		rows = append(rows, m.Row(m.Data("🛠 Developer panel", cbDevPanel)))
	}
	m.Inline(rows...)
	return m
}

func linksMenuMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("➕ Random code", cbLinkCreateAuto), m.Data("✏️ Custom code", cbLinkCreateCustom)),
		m.Row(m.Data("📋 All links", cbLinksList, "1"), m.Data("🔍 Search", cbLinkSearch)),
		m.Row(m.Data("« Back", cbAdminPanel)),
	)
	return m
}

func linksListMarkup(links []models.Link, page int, total int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, l := range links {
		label := fmt.Sprintf("%s · %s · %d visits", l.Code, l.ContentType, l.Visits)
		rows = append(rows, m.Row(m.Data(label, cbLinkDetail, l.Code, itoa(page))))
	}
	if nav := navRow(m, cbLinksList, page, total); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, m.Row(m.Data("« Back", cbLinksMenu)))
	m.Inline(rows...)
	return m
}

func linkDetailMarkup(code string, page int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	p := itoa(page)
	m.Inline(
		m.Row(m.Data("📝 Edit content", cbLinkEditContent, code, p), m.Data("🔤 Rename", cbLinkRename, code, p)),
		m.Row(m.Data("🗑 Delete", cbLinkDelete, code, p)),
		m.Row(m.Data("« Back", cbLinksList, p)),
	)
	return m
}

func reportsMenuMarkup(open, answered, closed int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data(fmt.Sprintf("🟢 Open (%d)", open), cbReportsList, string(models.ReportOpen), "1")),
		m.Row(
			m.Data(fmt.Sprintf("✅ Answered (%d)", answered), cbReportsList, string(models.ReportAnswered), "1"),
			m.Data(fmt.Sprintf("⚪ Closed (%d)", closed), cbReportsList, string(models.ReportClosed), "1"),
		),
		m.Row(m.Data("🔍 Search", cbReportSearch)),
		m.Row(m.Data("« Back", cbAdminPanel)),
	)
	return m
}

func reportsListMarkup(reports []models.Report, status models.ReportStatus, page int, total int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, r := range reports {
		label := fmt.Sprintf("#%d · %s", r.ID, truncate(r.Message, 30))
		rows = append(rows, m.Row(m.Data(label, cbReportDetail, utoa(r.ID), string(status), itoa(page))))
	}
	if nav := navRow(m, cbReportsList, page, total, string(status)); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, m.Row(m.Data("« Back", cbReportsMenu)))
	m.Inline(rows...)
	return m
}

func reportDetailMarkup(r *models.Report, status models.ReportStatus, page int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	id := utoa(r.ID)
	var rows []tele.Row
	if r.Status == models.ReportOpen {
		rows = append(rows, m.Row(m.Data("💬 Answer", cbReportAnswer, id), m.Data("⚪ Close", cbReportClose, id)))
	} else {
		rows = append(rows, m.Row(m.Data("🔄 Reopen", cbReportReopen, id)))
	}
	rows = append(rows,
		m.Row(m.Data("⛔ Ban author", cbReportBan, id), m.Data("🗑 Delete", cbReportDelete, id)),
		m.Row(m.Data("« Back", cbReportsList, string(status), itoa(page))),
	)
	m.Inline(rows...)
	return m
}

func usersMenuMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("📋 All users", cbUsersList, "1"), m.Data("⛔ Banned", cbBannedList, "1")),
		m.Row(m.Data("🔍 Search", cbUserSearch), m.Data("🏆 Top users", cbTopUsers)),
		m.Row(m.Data("« Back", cbAdminPanel)),
	)
	return m
}

func usersListMarkup(users []models.User, unique string, page int, total int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, u := range users {
		label := fmt.Sprintf("%s (%d)", u.DisplayName(), u.UserID)
		if u.IsBanned {
			label = "⛔ " + label
		}
		rows = append(rows, m.Row(m.Data(label, cbUserDetail, i64(u.UserID))))
	}
	if unique != "" {
		if nav := navRow(m, unique, page, total); len(nav) > 0 {
			rows = append(rows, nav)
		}
	}
	rows = append(rows, m.Row(m.Data("« Back", cbUsersMenu)))
	m.Inline(rows...)
	return m
}

func userDetailMarkup(u *models.User) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	id := i64(u.UserID)
	action := m.Data("⛔ Ban", cbUserBan, id)
	if u.IsBanned {
		action = m.Data("✅ Unban", cbUserUnban, id)
	}
	m.Inline(m.Row(action), m.Row(m.Data("« Back", cbUsersMenu)))
	return m
}

func adminsMarkup(admins []models.Admin, owner int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, a := range admins {
		if a.UserID == owner {
			continue
		}
		label := fmt.Sprintf("✖ %s (%d)", handle(a.Username), a.UserID)
		rows = append(rows, m.Row(m.Data(label, cbAdminRemove, i64(a.UserID))))
	}
	rows = append(rows,
		m.Row(m.Data("➕ Add admin", cbAdminAdd)),
		m.Row(m.Data("« Back", cbAdminPanel)),
	)
	m.Inline(rows...)
	return m
}

func settingsMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	var row tele.Row
	for _, f := range services.Fields() {
		unique := cbSettingSet
		if f.IsToggle() {
			unique = cbSettingToggle
		}
		row = append(row, m.Data(settingLabel(f), unique, string(f)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, m.Row(m.Data("« Back", cbAdminPanel)))
	m.Inline(rows...)
	return m
}

func channelsMarkup(channels []models.SubscriptionChannel) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, ch := range channels {
		scope := "all"
		if ch.CheckType == models.CheckLinks {
			scope = "links"
		}
		label := fmt.Sprintf("%s [%s]", ch.Title, scope)
		rows = append(rows, m.Row(m.Data(label, cbChannelDetail, i64(ch.ChannelID))))
	}
	rows = append(rows,
		m.Row(
			m.Data("➕ Gate everything", cbChannelAdd, itoa(int(models.CheckAll))),
			m.Data("➕ Gate links", cbChannelAdd, itoa(int(models.CheckLinks))),
		),
	)
	if len(channels) > 0 {
		rows = append(rows, m.Row(m.Data("🔍 Audit subscribers", cbChannelAudit)))
	}
	rows = append(rows, m.Row(m.Data("« Back", cbAdminPanel)))
	m.Inline(rows...)
	return m
}

func channelDetailMarkup(id int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("🗑 Remove", cbChannelRemove, i64(id))),
		m.Row(m.Data("« Back", cbChannelsMenu)),
	)
	return m
}

func broadcastMenuMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("✉️ Text", cbBroadcastText), m.Data("🖼 Photo", cbBroadcastPhoto)),
		m.Row(m.Data("📊 History", cbBroadcastStats)),
		m.Row(m.Data("« Back", cbAdminPanel)),
	)
	return m
}

func broadcastConfirmMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data("🚀 Send", cbBroadcastSend), m.Data("✖ Cancel", cbCancel)))
	return m
}

func broadcastRunningMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data("⏹ Stop", cbBroadcastStop)))
	return m
}

func statsMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("📊 Detailed", cbStatsDetailed), m.Data("🏆 Top users", cbTopUsers)),
		m.Row(m.Data("🔄 Refresh", cbStats), m.Data("« Back", cbAdminPanel)),
	)
	return m
}

func devPanelMarkup() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("👨‍💻 Developers", cbDevList), m.Data("📜 Logs", cbLogsView, "", "1")),
		m.Row(m.Data("❗ Errors", cbLogsView, "ERROR", "1"), m.Data("🧹 Clear logs", cbLogsClear)),
		m.Row(m.Data("💾 Create backup", cbBackupCreate), m.Data("🗂 Backups", cbBackupList)),
		m.Row(m.Data("« Admin panel", cbAdminPanel)),
	)
	return m
}

func devListMarkup(devs []models.Developer, owner int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, d := range devs {
		if d.UserID == owner {
			continue
		}
		label := fmt.Sprintf("✖ %s (%d)", handle(d.Username), d.UserID)
		rows = append(rows, m.Row(m.Data(label, cbDevRemove, i64(d.UserID))))
	}
	rows = append(rows,
		m.Row(m.Data("➕ Add developer", cbDevAdd)),
		m.Row(m.Data("« Back", cbDevPanel)),
	)
	m.Inline(rows...)
	return m
}

func logsMarkup(level string, page int, total int64) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	if nav := navRow(m, cbLogsView, page, total, level); len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, m.Row(m.Data("« Back", cbDevPanel)))
	m.Inline(rows...)
	return m
}

func backupsMarkup(backups []services.BackupInfo) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, bk := range backups {
		label := fmt.Sprintf("⬇ %s (%d KB)", bk.CreatedAt.Format(dateLayout), bk.Size/1024)
		rows = append(rows, m.Row(m.Data(label, cbBackupSend, bk.Name)))
	}
	rows = append(rows, m.Row(m.Data("« Back", cbDevPanel)))
	m.Inline(rows...)
	return m
}

func myReportsMarkup(reports []models.Report) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, r := range reports {
		label := fmt.Sprintf("#%d %s · %s", r.ID, statusLabel(r.Status), truncate(r.Message, 24))
		rows = append(rows, m.Row(m.Data(label, cbMyReport, utoa(r.ID))))
	}
	m.Inline(rows...)
	return m
}
