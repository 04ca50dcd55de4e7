package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramClient posts alert messages to a Telegram bot's sendMessage endpoint.
type TelegramClient struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewTelegramClient(botToken string) *TelegramClient {
	return &TelegramClient{
		token:   botToken,
		baseURL: telegramAPIBase,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewTelegramClientWithBaseURL exists for tests pointing at a fake API server.
func NewTelegramClientWithBaseURL(botToken, baseURL string) *TelegramClient {
	c := NewTelegramClient(botToken)
	c.baseURL = baseURL
	return c
}

func (t *TelegramClient) SendMessage(chatID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram API returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
