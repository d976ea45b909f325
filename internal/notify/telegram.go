package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/RemindoT/internal/models"
)

// TelegramTransport delivers reminder notifications as Telegram messages.
// The contact address is the numeric chat ID.
type TelegramTransport struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
}

// NewTelegramTransport creates the bot API client for the given token
func NewTelegramTransport(token string, logger *logrus.Logger) (*TelegramTransport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &TelegramTransport{api: api, logger: logger}, nil
}

// Send posts the reminder text to the chat identified by the address
func (t *TelegramTransport) Send(_ context.Context, address string, reminder *models.Reminder, alert AlertContext) error {
	chatID, err := strconv.ParseInt(address, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram address %q is not a chat ID: %w", address, err)
	}

	text := fmt.Sprintf("⏰ *%s*", reminder.Title)
	if reminder.Description != "" {
		text += "\n" + reminder.Description
	}
	if reminder.Location != "" {
		text += "\n📍 " + reminder.Location
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	t.logger.Debugf("Sent telegram message for reminder %d to chat %d", reminder.ID, chatID)
	return nil
}
