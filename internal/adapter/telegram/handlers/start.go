package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Start handles /start and /help commands.
func (h *Handlers) Start(ctx context.Context, b *bot.Bot, msg *models.Message) {
	h.reply(ctx, b, msg, "Hi, "+displayName(msg)+"! "+helpText)
}
