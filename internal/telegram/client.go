// Package telegram is the optional remote command channel: a long-polling
// bot restricted to one chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultAPIURL is the Telegram Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// pollTimeout is the long-poll duration requested from getUpdates.
const pollTimeout = 60

// Bot talks to the Bot API on behalf of a single authorized chat.
type Bot struct {
	client *resty.Client
	chatID int64
}

// apiResponse is the envelope of every Bot API answer.
type apiResponse[T any] struct {
	Ok          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

// NewBot returns a bot for token that only serves chatID.
func NewBot(apiURL, token string, chatID int64) (*Bot, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram credentials missing")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	client := resty.New().
		SetBaseURL(fmt.Sprintf("%s/bot%s", apiURL, token)).
		// Long polls hold the connection open for pollTimeout seconds.
		SetTimeout((pollTimeout + 10) * time.Second)
	return &Bot{client: client, chatID: chatID}, nil
}

func (b *Bot) call(ctx context.Context, method string, body any, result any) error {
	resp, err := b.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetBody(body).
		SetResult(result).
		SetError(result).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram %s: status %d", method, resp.StatusCode())
	}
	return nil
}
