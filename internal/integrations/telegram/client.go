package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://api.telegram.org"

// Client sends plain text messages through the Bot API sendMessage method.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendMessageReq struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResp struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Notify implements notify.Port; recipient is the chat id.
func (c *Client) Notify(ctx context.Context, recipient, text string) error {
	if c.token == "" {
		return errors.New("telegram: bot token is not configured")
	}
	body, err := json.Marshal(sendMessageReq{ChatID: recipient, Text: text})
	if err != nil {
		return errors.Wrap(err, "marshal")
	}

	u := c.baseURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		// в тексте ошибки url с токеном, его не логируем
		return errors.New("telegram: request failed: " + redact(err.Error(), c.token))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var r apiResp
	_ = json.Unmarshal(raw, &r)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telegram http %d: %s", resp.StatusCode, r.Description)
	}
	if !r.OK {
		return fmt.Errorf("telegram not ok: %s", r.Description)
	}
	return nil
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "***")
}
