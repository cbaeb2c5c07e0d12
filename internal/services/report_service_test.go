package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSettings(t *testing.T, e *testEnv, kv map[SettingField]string) {
	t.Helper()
	for f, v := range kv {
		_, err := e.settings.Set(context.Background(), f, v)
		require.NoError(t, err)
	}
}

func TestReportSubmitAndAnswer(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 12345, "reporter")

	id, err := e.reports.Submit(ctx, 12345, "spam link")
	require.NoError(t, err)
	assert.Positive(t, id)

	r, err := e.reports.Answer(ctx, id, "resolved", 1)
	require.NoError(t, err)
	assert.Equal(t, models.ReportAnswered, r.Status)

	got, err := e.reports.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReportAnswered, got.Status)
	assert.Equal(t, "resolved", got.Answer)
	require.NotNil(t, got.AnsweredBy)
	assert.Equal(t, int64(1), *got.AnsweredBy)

	msgs := e.messenger.To(12345)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "resolved")
}

func TestReportNotifiesAdmins(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 10, "someone")
	_, err := e.roles.AddAdmin(ctx, "55", testOwnerID)
	require.NoError(t, err)
	e.messenger.failFor[55] = true

	_, err = e.reports.Submit(ctx, 10, "broken link")
	require.NoError(t, err)

	assert.Len(t, e.messenger.To(testOwnerID), 1)
	assert.Len(t, e.messenger.To(testDevID), 1)
	assert.Empty(t, e.messenger.To(55))
	assert.Contains(t, e.messenger.To(testOwnerID)[0].Text, "@someone")

	setSettings(t, e, map[SettingField]string{FieldNotifications: "off", FieldReportCooldown: "0"})
	_, err = e.reports.Submit(ctx, 10, "again")
	require.NoError(t, err)
	assert.Len(t, e.messenger.To(testOwnerID), 1)
}

func TestReportBannedRejectedRegardless(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 20, "")
	require.NoError(t, e.users.Ban(ctx, 20, "abuse", testOwnerID))

	_, err := e.reports.Submit(ctx, 20, "let me in")
	assert.ErrorIs(t, err, ErrUserBanned)

	setSettings(t, e, map[SettingField]string{FieldReportCooldown: "0", FieldReportLimit: "100"})
	e.clock.Advance(24 * time.Hour)
	_, err = e.reports.Submit(ctx, 20, "let me in")
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestReportLimit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 30, "")
	setSettings(t, e, map[SettingField]string{FieldReportLimit: "3", FieldReportCooldown: "0"})

	var ids []uint
	for i := 0; i < 3; i++ {
		id, err := e.reports.Submit(ctx, 30, "report")
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := e.reports.Submit(ctx, 30, "one too many")
	assert.ErrorIs(t, err, ErrReportLimit)

	require.NoError(t, e.reports.Close(ctx, ids[0]))
	_, err = e.reports.Submit(ctx, 30, "now allowed")
	require.NoError(t, err)

	_, err = e.reports.Submit(ctx, 30, "limit again")
	assert.ErrorIs(t, err, ErrReportLimit)
	require.NoError(t, e.reports.Delete(ctx, ids[1]))
	_, err = e.reports.Submit(ctx, 30, "after delete")
	assert.NoError(t, err)
}

func TestReportCooldown(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 40, "")
	setSettings(t, e, map[SettingField]string{FieldReportCooldown: "5"})

	_, err := e.reports.Submit(ctx, 40, "first")
	require.NoError(t, err)

	e.clock.Advance(2 * time.Minute)
	_, err = e.reports.Submit(ctx, 40, "second")
	require.ErrorIs(t, err, ErrReportCooldown)
	var cd *CooldownError
	require.True(t, errors.As(err, &cd))
	assert.Equal(t, 3*time.Minute, cd.Remaining)

	e.clock.Advance(3 * time.Minute)
	_, err = e.reports.Submit(ctx, 40, "third")
	assert.NoError(t, err)
}

func TestReportValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.reports.Submit(ctx, 50, "   ")
	assert.ErrorIs(t, err, ErrEmptyReport)
	_, err = e.reports.Submit(ctx, 50, strings.Repeat("x", 201))
	assert.ErrorIs(t, err, ErrReportTooLong)
}

func TestReportAutoClose(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 60, "")
	setSettings(t, e, map[SettingField]string{FieldAutoClose: "on", FieldReportCooldown: "0"})

	old, err := e.reports.Submit(ctx, 60, "old one")
	require.NoError(t, err)
	e.clock.Advance(8 * 24 * time.Hour)
	fresh, err := e.reports.Submit(ctx, 60, "fresh one")
	require.NoError(t, err)

	r, err := e.reports.Get(ctx, old)
	require.NoError(t, err)
	assert.Equal(t, models.ReportClosed, r.Status)
	r, err = e.reports.Get(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, models.ReportOpen, r.Status)
}

func TestReportStateTransitions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id, err := e.reports.Submit(ctx, 70, "text")
	require.NoError(t, err)

	require.NoError(t, e.reports.Close(ctx, id))
	require.NoError(t, e.reports.Close(ctx, id))
	r, err := e.reports.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReportClosed, r.Status)

	require.NoError(t, e.reports.Reopen(ctx, id))
	n, err := e.reports.CountByStatus(ctx, models.ReportOpen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, e.reports.Close(ctx, 9999), ErrReportNotFound)
	_, err = e.reports.Answer(ctx, 9999, "x", 1)
	assert.ErrorIs(t, err, ErrReportNotFound)

	require.NoError(t, e.reports.Delete(ctx, id))
	assert.ErrorIs(t, e.reports.Delete(ctx, id), ErrReportNotFound)
}

func TestReportAnswerNotificationFailureIsNotReturned(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id, err := e.reports.Submit(ctx, 80, "help")
	require.NoError(t, err)
	e.messenger.failFor[80] = true

	r, err := e.reports.Answer(ctx, id, "done", testOwnerID)
	require.NoError(t, err)
	assert.Equal(t, "done", r.Answer)
}

func TestReportListAndSearch(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	setSettings(t, e, map[SettingField]string{FieldReportCooldown: "0"})

	a, err := e.reports.Submit(ctx, 90, "broken deep link")
	require.NoError(t, err)
	_, err = e.reports.Submit(ctx, 91, "rude user")
	require.NoError(t, err)
	require.NoError(t, e.reports.Close(ctx, a))

	open, total, err := e.reports.ListByStatus(ctx, models.ReportOpen, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, open, 1)
	assert.Equal(t, int64(91), open[0].UserID)

	found, err := e.reports.Search(ctx, "DEEP", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a, found[0].ID)

	mine, err := e.reports.ListForUser(ctx, 90, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
