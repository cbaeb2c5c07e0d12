package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/database"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/session"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

type nopMessenger struct{}

func (nopMessenger) SendText(context.Context, int64, string) error          { return nil }
func (nopMessenger) SendPhoto(context.Context, int64, string, string) error { return nil }

type memberChecker map[int64]string

func (m memberChecker) MemberStatus(_ context.Context, channelID, _ int64) (string, error) {
	if s, ok := m[channelID]; ok {
		return s, nil
	}
	return "member", nil
}

type apiCall struct {
	Method string
	Params map[string]any
}

// fakeAPI answers Bot API requests with a canned message and records them.
type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&params)
	method := path.Base(r.URL.Path)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Params: params})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if method == "answerCallbackQuery" {
		_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
		return
	}
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
}

// texts returns the "text" parameter of every call to method, oldest first.
func (f *fakeAPI) texts(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Method != method {
			continue
		}
		if s, ok := c.Params["text"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeAPI) last(method string) string {
	texts := f.texts(method)
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func newTestBot(t *testing.T, checker services.MembershipChecker) *Bot {
	b, _ := newTestBotAPI(t, checker, nopMessenger{})
	return b
}

// newTestBotAPI builds a Bot over a temporary SQLite database whose telebot
// client talks to a recording fake API. User 1 is the owner.
func newTestBotAPI(t *testing.T, checker services.MembershipChecker, m services.Messenger) (*Bot, *fakeAPI) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		BotToken:      "test",
		OwnerID:       1,
		DBDriver:      config.DriverSQLite,
		DBPath:        filepath.Join(dir, "linkbot.db"),
		BackupDir:     filepath.Join(dir, "backups"),
		BackupKeep:    2,
		MaxFileSize:   1024,
		MaxTextLength: 200,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))

	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	tb, err := tele.NewBot(tele.Settings{URL: srv.URL, Token: cfg.BotToken, Offline: true})
	require.NoError(t, err)

	settings := services.NewSettingsService(db)
	users := services.NewUserService(db, cfg, m)
	roles := services.NewRoleService(db, cfg, users)
	svc := Services{
		Users:     users,
		Roles:     roles,
		Settings:  settings,
		Links:     services.NewLinkService(db, cfg, settings, users, roles),
		Reports:   services.NewReportService(db, cfg, settings, users, roles, m),
		Channels:  services.NewChannelService(db),
		Gate:      services.NewGateService(db, checker),
		Broadcast: services.NewBroadcastService(db, cfg, m),
		Backups:   services.NewBackupService(db, cfg),
		Stats:     services.NewStatsService(db),
		Logs:      services.NewLogService(db),
	}
	b := &Bot{tb: tb, cfg: cfg, svc: svc, sessions: session.NewStore(time.Minute), base: context.Background()}
	return b, api
}

func (b *Bot) track(t *testing.T, id int64, username string) {
	t.Helper()
	_, err := b.svc.Users.Track(context.Background(), services.Profile{UserID: id, Username: username, FirstName: "U"})
	require.NoError(t, err)
}

func messageFrom(from int64, text string) tele.Update {
	return tele.Update{Message: &tele.Message{
		ID:     1,
		Text:   text,
		Sender: &tele.User{ID: from},
		Chat:   &tele.Chat{ID: from, Type: tele.ChatPrivate},
	}}
}

func callbackFrom(from int64, unique, data string) tele.Update {
	return tele.Update{Callback: &tele.Callback{
		ID:     "cb1",
		Unique: unique,
		Data:   data,
		Sender: &tele.User{ID: from},
		Message: &tele.Message{
			ID:   7,
			Chat: &tele.Chat{ID: from, Type: tele.ChatPrivate},
		},
	}}
}
