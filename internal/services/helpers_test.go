package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/config"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testOwnerID = int64(1)
	testDevID   = int64(2)
)

type sentMessage struct {
	ChatID  int64
	Text    string
	PhotoID string
}

type fakeMessenger struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{failFor: map[int64]bool{}}
}

var errBlocked = errors.New("forbidden: bot was blocked by the user")

func (m *fakeMessenger) SendText(_ context.Context, chatID int64, text string) error {
	return m.record(sentMessage{ChatID: chatID, Text: text})
}

func (m *fakeMessenger) SendPhoto(_ context.Context, chatID int64, fileID, caption string) error {
	return m.record(sentMessage{ChatID: chatID, Text: caption, PhotoID: fileID})
}

func (m *fakeMessenger) record(msg sentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[msg.ChatID] {
		return errBlocked
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMessenger) To(chatID int64) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

type fakeChecker struct {
	statuses map[int64]string
	errs     map[int64]error
	// left marks users as gone from the given channel.
	left map[int64]int64
}

func (c *fakeChecker) MemberStatus(_ context.Context, channelID, userID int64) (string, error) {
	if err := c.errs[channelID]; err != nil {
		return "", err
	}
	if ch, ok := c.left[userID]; ok && ch == channelID {
		return MemberLeft, nil
	}
	if s, ok := c.statuses[channelID]; ok {
		return s, nil
	}
	return "member", nil
}

// fakeClock is a settable Clock for cooldown and window tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		BotToken:      "test",
		OwnerID:       testOwnerID,
		DeveloperIDs:  []int64{testDevID},
		DBDriver:      config.DriverSQLite,
		DBPath:        filepath.Join(dir, "linkbot.db"),
		BackupDir:     filepath.Join(dir, "backups"),
		BackupKeep:    2,
		MaxFileSize:   1024,
		MaxTextLength: 200,
		BroadcastRate: 0,
	}
}

func testDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return db
}

// testEnv wires every service against a fresh database.
type testEnv struct {
	cfg       *config.Config
	db        *gorm.DB
	clock     *fakeClock
	messenger *fakeMessenger
	settings  *SettingsService
	users     *UserService
	roles     *RoleService
	links     *LinkService
	reports   *ReportService
	channels  *ChannelService
	broadcast *BroadcastService
	backups   *BackupService
	stats     *StatsService
	logs      *LogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	db := testDB(t, cfg)
	clock := newFakeClock()
	m := newFakeMessenger()

	e := &testEnv{cfg: cfg, db: db, clock: clock, messenger: m}
	e.settings = NewSettingsService(db)
	e.users = NewUserService(db, cfg, m)
	e.users.now = clock.Now
	e.roles = NewRoleService(db, cfg, e.users)
	e.links = NewLinkService(db, cfg, e.settings, e.users, e.roles)
	e.links.now = clock.Now
	e.reports = NewReportService(db, cfg, e.settings, e.users, e.roles, m)
	e.reports.now = clock.Now
	e.channels = NewChannelService(db)
	e.broadcast = NewBroadcastService(db, cfg, m)
	e.broadcast.now = clock.Now
	e.backups = NewBackupService(db, cfg)
	e.backups.now = clock.Now
	e.stats = NewStatsService(db)
	e.stats.now = clock.Now
	e.logs = NewLogService(db)
	return e
}

func (e *testEnv) track(t *testing.T, id int64, username string) {
	t.Helper()
	_, err := e.users.Track(context.Background(), Profile{UserID: id, Username: username, FirstName: "U"})
	require.NoError(t, err)
}
