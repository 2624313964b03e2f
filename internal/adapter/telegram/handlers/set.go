package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"morningbot/internal/reminder"
	"morningbot/internal/shared"
)

const (
	setUsageText   = "Usage: /set <hour> <minute>"
	badTimeText    = "Sorry, but we can not travel in time!"
	notMorningText = "Sorry, but those aren't my morning hours..."
	setFailedText  = "Something went wrong, your time was not saved. Try again in a minute."
)

// Set handles /set. Without arguments the bot picks a random morning minute;
// with arguments it schedules the exact requested time.
func (h *Handlers) Set(ctx context.Context, b *bot.Bot, msg *models.Message, args string) {
	userID := msg.Chat.ID
	name := displayName(msg)

	fields := strings.Fields(args)
	if len(fields) == 0 {
		replaced, at, err := h.svc.SetRandom(ctx, userID, name)
		if err != nil {
			h.log.Error("set random time", slog.Int64("user_id", userID), slog.Any("error", err))
			h.reply(ctx, b, msg, setFailedText)
			return
		}
		h.log.Debug("random time chosen",
			slog.Int64("user_id", userID), slog.String("at", at.String()))
		if replaced {
			h.reply(ctx, b, msg, "Was already planning on that... but sure, picked a new minute 😏")
			return
		}
		h.reply(ctx, b, msg, "OK, you'll hear from me soon 😏")
		return
	}

	if len(fields) != 2 {
		h.reply(ctx, b, msg, setUsageText)
		return
	}

	hour, errH := strconv.Atoi(fields[0])
	minute, errM := strconv.Atoi(fields[1])
	if errH != nil || errM != nil {
		h.reply(ctx, b, msg, setUsageText)
		return
	}

	replaced, err := h.svc.Set(ctx, userID, name, hour, minute)
	switch {
	case errors.Is(err, reminder.ErrOutsideWindow):
		h.reply(ctx, b, msg, notMorningText)
		return
	case shared.IsValidation(err):
		h.reply(ctx, b, msg, badTimeText)
		return
	case err != nil:
		h.log.Error("set time", slog.Int64("user_id", userID), slog.Any("error", err))
		h.reply(ctx, b, msg, setFailedText)
		return
	}

	text := fmt.Sprintf("Time successfully set to %02d:%02d!", hour, minute)
	if replaced {
		text += " Old schedule was removed."
	}
	h.reply(ctx, b, msg, text)
}
