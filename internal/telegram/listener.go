package telegram

import (
	"context"
	"log"
	"strings"
	"time"
)

// Update represents a Telegram Update object (partial schema)
type Update struct {
	UpdateID int `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type getUpdatesRequest struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// CommandHandler defines the callback signature for processing commands
type CommandHandler func(ctx context.Context, command string) string

// retryDelay is the pause after a failed poll.
var retryDelay = 5 * time.Second

// Listen long-polls for commands until ctx is done. Messages from other
// chats are logged and never answered.
func (b *Bot) Listen(ctx context.Context, handler CommandHandler) {
	offset := 0
	log.Println("Telegram Listener: Started")

	for {
		if ctx.Err() != nil {
			log.Println("Telegram Listener: Stopped")
			return
		}

		var res apiResponse[[]Update]
		err := b.call(ctx, "getUpdates", getUpdatesRequest{
			Offset:         offset,
			Timeout:        pollTimeout,
			AllowedUpdates: []string{"message"},
		}, &res)
		if err != nil || !res.Ok {
			if ctx.Err() != nil {
				continue
			}
			if err != nil {
				log.Printf("Telegram Listener Error: %v", err)
			} else {
				log.Printf("Telegram API Error: %s (Code: %d)", res.Description, res.ErrorCode)
			}
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}

		for _, update := range res.Result {
			offset = update.UpdateID + 1

			// Access Control
			if update.Message.Chat.ID != b.chatID {
				log.Printf("⚠️ UNAUTHORIZED ACCESS ATTEMPT: User %s (ID: %d) tried: %s",
					update.Message.From.Username, update.Message.Chat.ID, update.Message.Text)
				continue
			}

			text := strings.TrimSpace(update.Message.Text)
			if !strings.HasPrefix(text, "/") {
				continue
			}
			log.Printf("Command received: %s", text)
			if err := b.Notify(ctx, handler(ctx, text)); err != nil {
				log.Printf("Telegram Alert Failed: %v", err)
			}
		}
	}
}
