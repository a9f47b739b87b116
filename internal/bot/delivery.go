package bot

import (
	"context"

	"chessclub-bot/internal/platform/telegram"
	"chessclub-bot/internal/service/admin"
)

// MessageSender is the part of the Telegram client the bot writes through.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
}

// Delivery renders service-level notices and broadcasts and sends them to Telegram.
// It satisfies admin.Notifier and broadcast.Sender.
type Delivery struct {
	sender MessageSender
}

func NewDelivery(sender MessageSender) *Delivery {
	return &Delivery{sender: sender}
}

func (d *Delivery) Notify(ctx context.Context, userID int64, event admin.Event) error {
	return d.sender.SendMessage(ctx, userID, notificationText(event), "")
}

// SendBroadcast delivers to the user's private chat, whose id equals the user id.
func (d *Delivery) SendBroadcast(ctx context.Context, userID int64, text string) error {
	return d.sender.SendMessage(ctx, userID, broadcastBody(text), telegram.ParseModeHTML)
}
