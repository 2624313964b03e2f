// Package middleware contains telegram middleware: an allowlist ACL and a
// per-user rate limiter.
package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"morningbot/internal/adapter/telegram"
)

// ACL restricts the bot to an allowlist of Telegram user IDs.
// An empty allowlist means the bot is open to everyone.
type ACL struct{ allowed map[int64]struct{} }

// NewACL creates an ACL from a list of IDs.
func NewACL(ids []int64) *ACL {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return &ACL{allowed: m}
}

// IsAllowed reports whether the user may talk to the bot.
func (a *ACL) IsAllowed(id int64) bool {
	if len(a.allowed) == 0 {
		return true
	}
	_, ok := a.allowed[id]
	return ok
}

// Middleware drops updates from users outside the allowlist.
func (a *ACL) Middleware(next telegram.HandlerFunc) telegram.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, upd *models.Update) {
		var uid, chat int64
		if m := upd.Message; m != nil {
			chat = m.Chat.ID
			if m.From != nil {
				uid = m.From.ID
			}
		}
		if uid == 0 || a.IsAllowed(uid) {
			next(ctx, b, upd)
			return
		}
		if chat != 0 && b != nil {
			_, _ = b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chat, Text: "Sorry, this bot is private."})
		}
	}
}
