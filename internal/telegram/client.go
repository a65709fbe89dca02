package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// APIError is a response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Client is a minimal Bot API client covering long polling and sending text.
type Client struct {
	http *resty.Client
}

// NewClient: timeout bounds every HTTP call and must exceed the long poll timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/") + "/bot" + token).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

// GetUpdates long-polls for up to timeout seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	var out apiResponse[[]Update]
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"offset":          offset,
			"timeout":         timeout,
			"allowed_updates": []string{"message"},
		}).
		SetResult(&out).
		SetError(&out).
		Post("/getUpdates")
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}
	if !res.IsSuccess() || !out.OK {
		return nil, &APIError{Method: "getUpdates", Code: res.StatusCode(), Description: out.Description}
	}
	return out.Result, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return errors.New("telegram sendMessage: empty text")
	}
	var out apiResponse[Message]
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"chat_id": chatID, "text": text}).
		SetResult(&out).
		SetError(&out).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	if !res.IsSuccess() || !out.OK {
		return &APIError{Method: "sendMessage", Code: res.StatusCode(), Description: out.Description}
	}
	return nil
}
