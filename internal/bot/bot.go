package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/session"
	"github.com/getsentry/sentry-go"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

type Services struct {
	Users     *services.UserService
	Roles     *services.RoleService
	Links     *services.LinkService
	Reports   *services.ReportService
	Settings  *services.SettingsService
	Channels  *services.ChannelService
	Gate      *services.GateService
	Broadcast *services.BroadcastService
	Backups   *services.BackupService
	Stats     *services.StatsService
	Logs      *services.LogService
}

type Bot struct {
	tb        *tele.Bot
	cfg       *config.Config
	svc       Services
	sessions  *session.Store
	transport *Transport

	base context.Context

	mu              sync.Mutex
	broadcastCancel context.CancelFunc
	closing         bool
	broadcasts      sync.WaitGroup
}

// NewTelegram creates the long-polling client. It contacts the API to fetch
// the bot's own identity.
func NewTelegram(cfg *config.Config) (*tele.Bot, error) {
	return tele.NewBot(tele.Settings{
		Token:   cfg.BotToken,
		Poller:  &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: onError,
	})
}

func onError(err error, c tele.Context) {
	attrs := []any{"error", err}
	if c != nil && c.Sender() != nil {
		attrs = append(attrs, "user_id", c.Sender().ID)
	}
	slog.Error("bot handler failed", attrs...)
	sentry.CaptureException(err)
}

func New(tb *tele.Bot, cfg *config.Config, svc Services, sessions *session.Store, transport *Transport) *Bot {
	b := &Bot{
		tb:        tb,
		cfg:       cfg,
		svc:       svc,
		sessions:  sessions,
		transport: transport,
		base:      context.Background(),
	}
	b.register()
	return b
}

func (b *Bot) register() {
	tb := b.tb
	tb.Use(middleware.Recover(func(err error, c tele.Context) {
		slog.Error("bot handler panicked", "error", err)
		sentry.CaptureException(err)
	}))
	tb.Use(middleware.AutoRespond())
	tb.Use(b.trackUser, b.subscriptionGate)

	tb.Handle("/start", b.onStart)
	tb.Handle("/help", b.onHelp)
	tb.Handle("/profile", b.onProfile)
	tb.Handle("/report", b.onReport)
	tb.Handle("/myreports", b.onMyReports)
	tb.Handle("/cancel", b.onCancel)
	tb.Handle(&tele.Btn{Unique: cbCheckSub}, b.onCheckSubscription)
	tb.Handle(&tele.Btn{Unique: cbCancel}, b.onCancel)
	tb.Handle(&tele.Btn{Unique: cbMyReport}, b.onMyReport)

	tb.Handle(tele.OnText, b.onText)
	tb.Handle(tele.OnPhoto, b.onMedia)
	tb.Handle(tele.OnDocument, b.onMedia)

	admin := tb.Group()
	admin.Use(b.requireAdmin)
	admin.Handle("/admin", b.onAdminPanel)
	b.registerAdmin(admin)

	dev := tb.Group()
	dev.Use(b.requireDeveloper)
	dev.Handle("/developer_panel", b.onDevPanel)
	b.registerDeveloper(dev)
}

func (b *Bot) registerAdmin(g *tele.Group) {
	handle := func(unique string, h tele.HandlerFunc) {
		g.Handle(&tele.Btn{Unique: unique}, h)
	}
	handle(cbAdminPanel, b.onAdminPanel)

	handle(cbLinksMenu, b.onLinksMenu)
	handle(cbLinksList, b.onLinksList)
	handle(cbLinkDetail, b.onLinkDetail)
	handle(cbLinkCreateAuto, b.onLinkCreate)
	handle(cbLinkCreateCustom, b.onLinkCreate)
	handle(cbLinkDelete, b.onLinkDelete)
	handle(cbLinkDeleteConfirm, b.onLinkDeleteConfirm)
	handle(cbLinkEditContent, b.onLinkEditContent)
	handle(cbLinkRename, b.onLinkRename)
	handle(cbLinkSearch, b.onLinkSearch)

	handle(cbReportsMenu, b.onReportsMenu)
	handle(cbReportsList, b.onReportsList)
	handle(cbReportDetail, b.onReportDetail)
	handle(cbReportAnswer, b.onReportAnswer)
	handle(cbReportClose, b.onReportClose)
	handle(cbReportReopen, b.onReportReopen)
	handle(cbReportDelete, b.onReportDelete)
	handle(cbReportDeleteConfirm, b.onReportDeleteConfirm)
	handle(cbReportBan, b.onReportBan)
	handle(cbReportSearch, b.onReportSearch)

	handle(cbUsersMenu, b.onUsersMenu)
	handle(cbUsersList, b.onUsersList)
	handle(cbBannedList, b.onBannedList)
	handle(cbUserDetail, b.onUserDetail)
	handle(cbUserBan, b.onUserBan)
	handle(cbUserUnban, b.onUserUnban)
	handle(cbUserSearch, b.onUserSearch)
	handle(cbTopUsers, b.onTopUsers)

	handle(cbAdminsMenu, b.onAdminsMenu)
	handle(cbAdminAdd, b.onAdminAdd)
	handle(cbAdminRemove, b.onAdminRemove)
	handle(cbAdminRemoveConfirm, b.onAdminRemoveConfirm)

	handle(cbSettingsMenu, b.onSettingsMenu)
	handle(cbSettingSet, b.onSettingSet)
	handle(cbSettingToggle, b.onSettingToggle)

	handle(cbChannelsMenu, b.onChannelsMenu)
	handle(cbChannelDetail, b.onChannelDetail)
	handle(cbChannelAdd, b.onChannelAdd)
	handle(cbChannelRemove, b.onChannelRemove)
	handle(cbChannelAudit, b.onChannelAudit)

	handle(cbBroadcastMenu, b.onBroadcastMenu)
	handle(cbBroadcastText, b.onBroadcastStart)
	handle(cbBroadcastPhoto, b.onBroadcastStart)
	handle(cbBroadcastSend, b.onBroadcastSend)
	handle(cbBroadcastStop, b.onBroadcastStop)
	handle(cbBroadcastStats, b.onBroadcastStats)

	handle(cbStats, b.onStats)
	handle(cbStatsDetailed, b.onStatsDetailed)
}

func (b *Bot) registerDeveloper(g *tele.Group) {
	handle := func(unique string, h tele.HandlerFunc) {
		g.Handle(&tele.Btn{Unique: unique}, h)
	}
	handle(cbDevPanel, b.onDevPanel)
	handle(cbDevList, b.onDevList)
	handle(cbDevAdd, b.onDevAdd)
	handle(cbDevRemove, b.onDevRemove)
	handle(cbDevRemoveConfirm, b.onDevRemoveConfirm)
	handle(cbLogsView, b.onLogsView)
	handle(cbLogsClear, b.onLogsClear)
	handle(cbLogsClearConfirm, b.onLogsClearConfirm)
	handle(cbBackupCreate, b.onBackupCreate)
	handle(cbBackupList, b.onBackupList)
	handle(cbBackupSend, b.onBackupSend)
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.base = ctx
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.tb.Start()
	}()
	slog.Info("bot polling started", "username", b.username())

	<-ctx.Done()
	b.drainBroadcasts()
	b.tb.Stop()
	<-done
	slog.Info("bot polling stopped")
	return nil
}

func (b *Bot) ctx() context.Context {
	return b.base
}

func (b *Bot) username() string {
	if b.tb == nil || b.tb.Me == nil {
		return ""
	}
	return b.tb.Me.Username
}

// show edits the callback's message in place, or sends a new message for
// commands and when the edit is rejected.
func show(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := []interface{}{tele.NoPreview}
	if markup != nil {
		opts = append(opts, markup)
	}
	if c.Callback() != nil {
		err := c.Edit(text, opts...)
		if err == nil || errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
	}
	return c.Send(text, opts...)
}

// alert answers a callback with a popup, or a plain message otherwise.
func alert(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}

// fail reports err to the user. Unknown errors are logged as storage failures.
func (b *Bot) fail(c tele.Context, action string, err error) error {
	text, known := errText(err)
	if !known {
		attrs := []any{"action", action, "error", err}
		if c.Sender() != nil {
			attrs = append(attrs, "user_id", c.Sender().ID)
		}
		slog.Error("bot action failed", attrs...)
	}
	return alert(c, text)
}
