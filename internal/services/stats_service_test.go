package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.track(t, 10, "old")
	e.clock.Advance(10 * 24 * time.Hour)
	e.track(t, 11, "fresh")
	e.track(t, 12, "troll")
	require.NoError(t, e.users.Ban(ctx, 12, "", testOwnerID))

	_, err := e.links.Create(ctx, CreateLinkInput{Code: "hot", CreatedBy: testOwnerID, Content: textContent("x")})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := e.links.Resolve(ctx, "hot", 11)
		require.NoError(t, err)
	}
	_, err = e.links.Resolve(ctx, "hot", 10)
	require.NoError(t, err)
	_, err = e.reports.Submit(ctx, 11, "problem")
	require.NoError(t, err)

	o, err := e.stats.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), o.TotalUsers)
	assert.Equal(t, int64(3), o.ActiveUsers)
	assert.Equal(t, int64(1), o.BannedUsers)
	assert.Equal(t, int64(1), o.TotalLinks)
	assert.Equal(t, int64(4), o.TotalVisits)
	assert.Equal(t, int64(1), o.OpenReports)

	d, err := e.stats.Detailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Day.NewUsers)
	assert.Equal(t, int64(2), d.Week.NewUsers)
	assert.Equal(t, int64(1), d.Day.NewLinks)
	assert.Equal(t, int64(4), d.Week.Visits)

	top, err := e.stats.TopUsers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(11), top[0].UserID)
	assert.Equal(t, int64(3), top[0].LinkVisits)
}
