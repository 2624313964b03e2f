package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Ping handles /ping command.
func (h *Handlers) Ping(ctx context.Context, b *bot.Bot, msg *models.Message) {
	h.reply(ctx, b, msg, "pong")
}
