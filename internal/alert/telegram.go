package alert

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/harpreetsingh-7782/AI-Content-Optimizer-Project/internal/core/ports"
)

// TelegramSink sends alerts to a fixed chat via the bot API.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ ports.Sink = (*TelegramSink)(nil)

func NewTelegramSink(token, chatIDStr string) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id: %v", err)
	}
	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

func (t *TelegramSink) Name() string { return "telegram" }

func (t *TelegramSink) Send(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(t.chatID, escapeMarkdown(message))
	msg.ParseMode = "Markdown"
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

// escapeMarkdown prevents parse errors from characters the bot API
// treats as formatting.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
