package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"morningbot/internal/shared"
)

// Sender is the subset of bot.Bot used by the sink, extracted for tests.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// DeliverySink sends reminder texts to users over Telegram. User IDs double
// as chat IDs since the bot only talks in private chats.
type DeliverySink struct {
	sender Sender
}

// NewDeliverySink wraps a bot client as a reminder delivery sink.
func NewDeliverySink(sender Sender) *DeliverySink {
	return &DeliverySink{sender: sender}
}

// Deliver implements reminder.Sink.
func (s *DeliverySink) Deliver(ctx context.Context, userID int64, text string) error {
	_, err := s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	if err != nil {
		return shared.MarkKind(fmt.Errorf("telegram: send to %d: %w", userID, err), shared.KindDelivery)
	}
	return nil
}
