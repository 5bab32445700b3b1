// Package telegram is the chat-transport collaborator: outbound messages
// with reply keyboards, and resolution/download of user attachments.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/danmiller22/botfarm/internal/application/outbound"
)

const downloadLimit = 20 << 20 // Bot API caps file downloads at 20 MB

// Client wraps the Telegram Bot API.
type Client struct {
	bot    *tgbotapi.BotAPI
	http   *http.Client
	logger zerolog.Logger
}

func New(token string, logger zerolog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Client{
		bot:    bot,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logger.With().Str("service", "telegram").Logger(),
	}, nil
}

// Username returns the bot account name, for startup logging.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// Send implements outbound.Messenger.
func (c *Client) Send(_ context.Context, msg outbound.Message) error {
	m := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if markup := replyMarkup(msg.Keyboard); markup != nil {
		m.ReplyMarkup = markup
	}
	if _, err := c.bot.Send(m); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

// ResolveURL turns a file id into a transient download URL. Telegram file
// paths stay valid for at least an hour, far beyond one finalization.
func (c *Client) ResolveURL(_ context.Context, fileID string) (string, error) {
	f, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("getFile: %w", err)
	}
	return f.Link(c.bot.Token), nil
}

// Download fetches the attachment bytes and their MIME type.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, downloadLimit))
	if err != nil {
		return nil, "", fmt.Errorf("download: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return data, mime, nil
}

func replyMarkup(kb outbound.Keyboard) interface{} {
	if kb.Remove {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	if len(kb.Rows) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.OneTimeKeyboard = kb.OneTime
	return markup
}

var _ outbound.Messenger = (*Client)(nil)
