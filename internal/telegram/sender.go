package telegram

import (
	"context"
	"fmt"
	"log"

	"stock_pulse/internal/logger"
)

// maxMessageLen is the Bot API limit for a message text.
const maxMessageLen = 4096

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Notify sends text to the authorized chat. Replies use Markdown; if
// Telegram rejects the markup the text is resent as plain text.
func (b *Bot) Notify(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen-3] + "..."
	}
	logger.Debugf("Telegram Notify: %s", text)

	err := b.send(ctx, sendMessageRequest{ChatID: b.chatID, Text: text, ParseMode: "Markdown"})
	if err == nil {
		return nil
	}
	log.Printf("Telegram Markdown send failed, retrying as plain text: %v", err)
	return b.send(ctx, sendMessageRequest{ChatID: b.chatID, Text: text})
}

func (b *Bot) send(ctx context.Context, req sendMessageRequest) error {
	var res apiResponse[struct{}]
	if err := b.call(ctx, "sendMessage", req, &res); err != nil {
		if res.Description != "" {
			return fmt.Errorf("%w: %s", err, res.Description)
		}
		return err
	}
	if !res.Ok {
		return fmt.Errorf("telegram sendMessage: %s (code %d)", res.Description, res.ErrorCode)
	}
	return nil
}
