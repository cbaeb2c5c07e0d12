package services

import (
	"context"
	"time"
)

// Messenger delivers outbound chat messages. The bot package provides the
// telebot-backed implementation; tests use an in-memory fake.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
}

// MembershipChecker reports a user's status in a channel, using the platform's
// vocabulary (creator, administrator, member, restricted, left, kicked).
type MembershipChecker interface {
	MemberStatus(ctx context.Context, channelID, userID int64) (string, error)
}

const (
	MemberLeft   = "left"
	MemberKicked = "kicked"
)

// Clock is swapped in tests to move past cooldowns without sleeping.
type Clock func() time.Time

func pageOffset(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = 10
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage, perPage
}
