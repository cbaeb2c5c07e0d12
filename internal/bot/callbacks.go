package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v3"
)

// Inline button actions. Arguments travel after the action as
// "|"-separated values and are read back with c.Args().
const (
	cbCheckSub = "check_subscription"
	cbCancel   = "cancel_flow"
	cbMyReport = "my_report"

	cbAdminPanel = "admin_panel"

	cbLinksMenu         = "links_menu"
	cbLinksList         = "links_list"
	cbLinkDetail        = "link_detail"
	cbLinkCreateAuto    = "link_create_auto"
	cbLinkCreateCustom  = "link_create_custom"
	cbLinkDelete        = "link_delete"
	cbLinkDeleteConfirm = "link_delete_yes"
	cbLinkEditContent   = "link_edit_content"
	cbLinkRename        = "link_rename"
	cbLinkSearch        = "link_search"

	cbReportsMenu         = "reports_menu"
	cbReportsList         = "reports_list"
	cbReportDetail        = "report_detail"
	cbReportAnswer        = "report_answer"
	cbReportClose         = "report_close"
	cbReportReopen        = "report_reopen"
	cbReportDelete        = "report_delete"
	cbReportDeleteConfirm = "report_delete_yes"
	cbReportBan           = "report_ban"
	cbReportSearch        = "report_search"

	cbUsersMenu  = "users_menu"
	cbUsersList  = "users_list"
	cbBannedList = "banned_list"
	cbUserDetail = "user_detail"
	cbUserBan    = "user_ban"
	cbUserUnban  = "user_unban"
	cbUserSearch = "user_search"
	cbTopUsers   = "top_users"

	cbAdminsMenu         = "admins_menu"
	cbAdminAdd           = "admin_add"
	cbAdminRemove        = "admin_remove"
	cbAdminRemoveConfirm = "admin_remove_yes"

	cbSettingsMenu  = "settings_menu"
	cbSettingSet    = "setting_set"
	cbSettingToggle = "setting_toggle"

	cbChannelsMenu  = "channels_menu"
	cbChannelDetail = "channel_detail"
	cbChannelAdd    = "channel_add"
	cbChannelRemove = "channel_remove"
	cbChannelAudit  = "channel_audit"

	cbBroadcastMenu  = "broadcast_menu"
	cbBroadcastText  = "broadcast_text"
	cbBroadcastPhoto = "broadcast_photo"
	cbBroadcastSend  = "broadcast_send"
	cbBroadcastStop  = "broadcast_stop"
	cbBroadcastStats = "broadcast_stats"

	cbStats         = "stats"
	cbStatsDetailed = "stats_detailed"

	cbDevPanel         = "dev_panel"
	cbDevList          = "dev_list"
	cbDevAdd           = "dev_add"
	cbDevRemove        = "dev_remove"
	cbDevRemoveConfirm = "dev_remove_yes"
	cbLogsView         = "logs_view"
	cbLogsClear        = "logs_clear"
	cbLogsClearConfirm = "logs_clear_yes"
	cbBackupCreate     = "backup_create"
	cbBackupList       = "backup_list"
	cbBackupSend       = "backup_send"
)

const perPage = 5

func i64(n int64) string { return strconv.FormatInt(n, 10) }
func itoa(n int) string  { return strconv.Itoa(n) }
func utoa(n uint) string { return strconv.FormatUint(uint64(n), 10) }

// arg returns the i-th callback argument or "".
func arg(c tele.Context, i int) string {
	args := c.Args()
	if i < len(args) {
		return args[i]
	}
	return ""
}

func argInt(c tele.Context, i int) int {
	n, err := strconv.Atoi(arg(c, i))
	if err != nil {
		return 0
	}
	return n
}

func argInt64(c tele.Context, i int) int64 {
	n, _ := strconv.ParseInt(arg(c, i), 10, 64)
	return n
}

func argUint(c tele.Context, i int) uint {
	n, _ := strconv.ParseUint(arg(c, i), 10, 64)
	return uint(n)
}

func pageOrFirst(p int) int {
	if p < 1 {
		return 1
	}
	return p
}

func pageCount(total int64) int {
	if total <= 0 {
		return 1
	}
	return int((total + perPage - 1) / perPage)
}

// navRow renders previous/next buttons for a paged list; extra args are
// passed before the page number.
func navRow(m *tele.ReplyMarkup, unique string, page int, total int64, extra ...string) tele.Row {
	var row tele.Row
	if page > 1 {
		row = append(row, m.Data("« Prev", unique, append(append([]string{}, extra...), itoa(page-1))...))
	}
	if page < pageCount(total) {
		row = append(row, m.Data("Next »", unique, append(append([]string{}, extra...), itoa(page+1))...))
	}
	return row
}
