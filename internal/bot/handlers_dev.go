package bot

import (
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/session"
	tele "gopkg.in/telebot.v3"
)

func (b *Bot) onDevPanel(c tele.Context) error {
	b.sessions.Clear(c.Sender().ID)
	return show(c, "🛠 Developer panel", devPanelMarkup())
}

func (b *Bot) onDevList(c tele.Context) error {
	devs, err := b.svc.Roles.ListDevelopers(b.ctx())
	if err != nil {
		return b.fail(c, "dev_list", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👨‍💻 Developers (%d)\n\n", len(devs))
	for _, d := range devs {
		fmt.Fprintf(&sb, "• %s (%d)\n", handle(d.Username), d.UserID)
	}
	return show(c, sb.String(), devListMarkup(devs, b.cfg.OwnerID))
}

func (b *Bot) onDevAdd(c tele.Context) error {
	return b.prompt(c, session.AwaitingDeveloperIdentifier{}, "👨‍💻 Send the user id or @username of the new developer.")
}

func (b *Bot) onDevRemove(c tele.Context) error {
	id := arg(c, 0)
	return show(c, fmt.Sprintf("👨‍💻 Remove developer %s?", id),
		confirmMarkup(cbDevRemoveConfirm, []string{id}, cbDevList))
}

func (b *Bot) onDevRemoveConfirm(c tele.Context) error {
	target := argInt64(c, 0)
	if err := b.svc.Roles.RemoveDeveloper(b.ctx(), target, c.Sender().ID); err != nil {
		return b.fail(c, "dev_remove", err)
	}
	b.sessions.Clear(target)
	respond(c, "Developer removed.")
	return b.onDevList(c)
}

func (b *Bot) onLogsView(c tele.Context) error {
	level, page := arg(c, 0), pageOrFirst(argInt(c, 1))
	logs, total, err := b.svc.Logs.List(b.ctx(), level, page, perPage)
	if err != nil {
		return b.fail(c, "logs_view", err)
	}
	return show(c, logsText(logs, total, page), logsMarkup(level, page, total))
}

func (b *Bot) onLogsClear(c tele.Context) error {
	return show(c, "🧹 Delete all stored log records?", confirmMarkup(cbLogsClearConfirm, nil, cbDevPanel))
}

func (b *Bot) onLogsClearConfirm(c tele.Context) error {
	n, err := b.svc.Logs.Clear(b.ctx())
	if err != nil {
		return b.fail(c, "logs_clear", err)
	}
	return show(c, fmt.Sprintf("🧹 Removed %d log records.", n), backMarkup(cbDevPanel))
}

func (b *Bot) onBackupCreate(c tele.Context) error {
	info, err := b.svc.Backups.Create(b.ctx())
	if err != nil {
		return b.fail(c, "backup_create", err)
	}
	text := fmt.Sprintf("💾 Backup created\n\n%s\n%d KB", info.Name, info.Size/1024)
	return show(c, text, backMarkup(cbDevPanel))
}

func (b *Bot) onBackupList(c tele.Context) error {
	backups, err := b.svc.Backups.List()
	if err != nil {
		return b.fail(c, "backup_list", err)
	}
	text := fmt.Sprintf("🗂 Backups (%d). Press one to download it.", len(backups))
	if len(backups) == 0 {
		text = "🗂 No backups yet."
	}
	return show(c, text, backupsMarkup(backups))
}

func (b *Bot) onBackupSend(c tele.Context) error {
	info, err := b.svc.Backups.Find(arg(c, 0))
	if err != nil {
		return b.fail(c, "backup_send", err)
	}
	doc := &tele.Document{
		File:     tele.FromDisk(info.Path),
		FileName: info.Name,
		Caption:  fmt.Sprintf("💾 %s", info.CreatedAt.Format(dateLayout)),
	}
	return c.Send(doc)
}
