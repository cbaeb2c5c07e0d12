package bot

import (
	"context"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// Transport adapts the telebot client to the services' Messenger and
// MembershipChecker interfaces.
type Transport struct {
	tb *tele.Bot
}

func NewTransport(tb *tele.Bot) *Transport {
	return &Transport{tb: tb}
}

func (t *Transport) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.tb.Send(&tele.User{ID: chatID}, text, tele.NoPreview)
	return err
}

func (t *Transport) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	_, err := t.tb.Send(&tele.User{ID: chatID}, photo)
	return err
}

func (t *Transport) MemberStatus(ctx context.Context, channelID, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := t.tb.ChatMemberOf(&tele.Chat{ID: channelID}, &tele.User{ID: userID})
	if err != nil {
		return "", err
	}
	return string(member.Role), nil
}

// ResolveChat looks a channel up by numeric id or @handle.
func (t *Transport) ResolveChat(identifier string) (*tele.Chat, error) {
	identifier = strings.TrimSpace(identifier)
	if id, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return t.tb.ChatByID(id)
	}
	if !strings.HasPrefix(identifier, "@") {
		identifier = "@" + identifier
	}
	return t.tb.ChatByUsername(identifier)
}
