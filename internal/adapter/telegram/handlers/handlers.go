package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"morningbot/internal/reminder"
)

const helpText = "I send a good-morning message every day at the time you pick.\n\n" +
	"/set <hour> <minute> — pick your morning time\n" +
	"/set — let me pick a random morning minute for you\n" +
	"/unset — stop the daily messages\n" +
	"/ping — check that I'm alive"

// Handlers routes bot commands to the reminder service.
type Handlers struct {
	svc *reminder.Service
	log *slog.Logger
}

// New creates the command handlers.
func New(svc *reminder.Service, log *slog.Logger) *Handlers {
	return &Handlers{svc: svc, log: log}
}

// Handle routes updates to command handlers.
func (h *Handlers) Handle(ctx context.Context, b *bot.Bot, upd *models.Update) {
	msg := upd.Message
	if msg == nil || !strings.HasPrefix(msg.Text, "/") {
		return
	}

	cmd, args := parseCommand(msg.Text)

	switch cmd {
	case "start", "help":
		h.Start(ctx, b, msg)
	case "set":
		h.Set(ctx, b, msg, args)
	case "unset", "stop":
		h.Unset(ctx, b, msg)
	case "ping":
		h.Ping(ctx, b, msg)
	}
}

// parseCommand splits "/set@botname 7 30" into ("set", "7 30").
func parseCommand(text string) (cmd, args string) {
	cmd, args, _ = strings.Cut(text, " ")
	cmd = strings.TrimPrefix(cmd, "/")
	// commands in groups arrive as /set@botname
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd, args
}

// reply sends text to the chat the message came from, logging send failures.
func (h *Handlers) reply(ctx context.Context, b *bot.Bot, msg *models.Message, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   text,
	})
	if err != nil {
		h.log.Error("send reply", slog.Int64("chat_id", msg.Chat.ID), slog.Any("error", err))
	}
}

// displayName picks the friendliest available name for the sender.
func displayName(msg *models.Message) string {
	if msg.From == nil {
		return "friend"
	}
	if msg.From.FirstName != "" {
		return msg.From.FirstName
	}
	if msg.From.Username != "" {
		return msg.From.Username
	}
	return "friend"
}
