package services

import (
	"context"
	"testing"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastRun(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	for id := int64(100); id < 125; id++ {
		e.track(t, id, "")
	}
	e.messenger.failFor[103] = true
	e.messenger.failFor[117] = true

	var updates []Progress
	summary, err := e.broadcast.Run(ctx, BroadcastRequest{Text: "hello all", SentBy: testOwnerID}, func(p Progress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 25, summary.Total)
	assert.Equal(t, 23, summary.SuccessCount)
	assert.Equal(t, 2, summary.FailedCount)
	assert.False(t, summary.Cancelled)
	assert.Equal(t, models.BroadcastText, summary.Kind)

	require.Len(t, updates, 3)
	assert.Equal(t, 10, updates[0].Sent)
	assert.Equal(t, 20, updates[1].Sent)
	assert.Equal(t, 25, updates[2].Sent)

	assert.Len(t, e.messenger.To(100), 1)
	assert.Empty(t, e.messenger.To(103))

	stats, err := e.broadcast.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Runs)
	assert.Equal(t, int64(23), stats.Delivered)
	assert.Equal(t, int64(2), stats.Failed)
	require.NotNil(t, stats.LastRunAt)
}

func TestBroadcastPhoto(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.track(t, 1000, "")

	_, err := e.broadcast.Run(ctx, BroadcastRequest{Kind: models.BroadcastPhoto, SentBy: testOwnerID}, nil)
	assert.ErrorIs(t, err, ErrEmptyBroadcast)

	summary, err := e.broadcast.Run(ctx, BroadcastRequest{
		Kind: models.BroadcastPhoto, PhotoID: "pic", Text: "caption", SentBy: testOwnerID,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)
	msgs := e.messenger.To(1000)
	require.Len(t, msgs, 1)
	assert.Equal(t, "pic", msgs[0].PhotoID)
}

func TestBroadcastCancelRecordsPartial(t *testing.T) {
	e := newTestEnv(t)
	for id := int64(200); id < 230; id++ {
		e.track(t, id, "")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summary, err := e.broadcast.Run(ctx, BroadcastRequest{Text: "partial", SentBy: testOwnerID}, func(p Progress) {
		if p.Sent == 10 {
			cancel()
		}
	})
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 10, summary.SuccessCount)

	rows, total, err := e.broadcast.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 10, rows[0].SuccessCount)
}
