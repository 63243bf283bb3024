package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultAPIURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API. It is stateless: the bot token is
// passed per call since different accounts use different bots.
type Client struct {
	httpClient *http.Client
	userAgent  string
	apiURL     string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		apiURL:     defaultAPIURL,
	}
}

// NewClientWithURL points the client at a non-default API host. Used in tests.
func NewClientWithURL(httpClient *http.Client, userAgent, apiURL string) *Client {
	c := NewClient(httpClient, userAgent)
	c.apiURL = apiURL
	return c
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// SendMessage delivers one message to a chat. A non-success HTTP response
// surfaces as an error carrying the response body; the Bot API explains
// rejections there.
func (c *Client) SendMessage(ctx context.Context, token, chatID, text string, asHTML bool) error {
	req := sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	}
	if asHTML {
		req.ParseMode = "HTML"
	}
	return c.call(ctx, token, "sendMessage", req)
}

// SetWebhook registers the inbound webhook URL for a bot.
func (c *Client) SetWebhook(ctx context.Context, token, webhookURL, secret string) error {
	body := map[string]string{"url": webhookURL}
	if secret != "" {
		body["secret_token"] = secret
	}
	return c.call(ctx, token, "setWebhook", body)
}

func (c *Client) call(ctx context.Context, token, method string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiURL, token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed: %d %s: %s", method, resp.StatusCode, resp.Status, respBody)
	}

	return nil
}
