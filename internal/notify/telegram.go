package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatDirectory resolves a user id to the Telegram chat the user linked.
type ChatDirectory interface {
	GetChatID(ctx context.Context, userID string) (int64, error)
}

// TelegramSender delivers notifications over the Telegram Bot API.
type TelegramSender struct {
	bot   *tgbotapi.BotAPI
	chats ChatDirectory
}

// NewTelegramSender creates a sender from a bot token.
func NewTelegramSender(token string, chats ChatDirectory) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chats: chats}, nil
}

// Send delivers title and message as one Telegram message. Without a chat
// directory the user id itself must be a numeric chat id.
func (s *TelegramSender) Send(ctx context.Context, userID, title, message string) error {
	var chatID int64
	var err error
	if s.chats != nil {
		chatID, err = s.chats.GetChatID(ctx, userID)
	} else {
		chatID, err = strconv.ParseInt(userID, 10, 64)
	}
	if err != nil {
		return fmt.Errorf("resolve chat for user %s: %w", userID, err)
	}

	msg := tgbotapi.NewMessage(chatID, title+"\n\n"+message)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send to chat %s: %w", strconv.FormatInt(chatID, 10), err)
	}
	return nil
}

// LogSender is a no-transport sender used when no push channel is
// configured; deliveries are dropped silently.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, userID, title, message string) error {
	return nil
}
