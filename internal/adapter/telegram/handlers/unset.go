package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Unset handles /unset and /stop.
func (h *Handlers) Unset(ctx context.Context, b *bot.Bot, msg *models.Message) {
	userID := msg.Chat.ID

	removed, err := h.svc.Unset(ctx, userID)
	if err != nil {
		h.log.Error("unset time", slog.Int64("user_id", userID), slog.Any("error", err))
		h.reply(ctx, b, msg, "Something went wrong, try again in a minute.")
		return
	}

	if removed {
		h.reply(ctx, b, msg, "Messages successfully cancelled!")
	} else {
		h.reply(ctx, b, msg, "You have not set a time for messages.")
	}
}
