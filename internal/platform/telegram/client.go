package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "chessclub-bot/internal/common/errors"
)

const (
	DefaultAPIURL = "https://api.telegram.org"

	ParseModeHTML = "HTML"

	requestTimeout = 10 * time.Second
)

// Client is a minimal Bot API client: long polling and sendMessage.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        zerolog.Logger
}

func NewClient(token, baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		// Per-request deadlines come from the context; getUpdates outlives requestTimeout.
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		log:        log,
	}
}

type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
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

type responseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

type tgResponse[T any] struct {
	Ok          bool                `json:"ok"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Description string              `json:"description,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
	Result      T                   `json:"result"`
}

// APIError is an unsuccessful Bot API reply.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Blocked reports whether the recipient has blocked the bot or cannot be messaged.
func (e *APIError) Blocked() bool {
	return e.Code == http.StatusForbidden
}

func (c *Client) GetMe(ctx context.Context) (User, error) {
	var resp tgResponse[User]
	if err := c.call(ctx, "getMe", nil, requestTimeout, &resp); err != nil {
		return User{}, err
	}
	return resp.Result, nil
}

// GetUpdates long-polls for message updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(int(timeout.Seconds()))},
		"allowed_updates": {`["message"]`},
	}
	var resp tgResponse[[]Update]
	if err := c.call(ctx, "getUpdates", params, timeout+requestTimeout, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// SendMessage posts text to chatID. parseMode may be empty for plain text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	params := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	if parseMode != "" {
		params.Set("parse_mode", parseMode)
	}
	var resp tgResponse[Message]
	if err := c.call(ctx, "sendMessage", params, requestTimeout, &resp); err != nil {
		c.log.Debug().Err(err).Int64("chat_id", chatID).Msg("sendMessage failed")
		return err
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, timeout time.Duration, out interface{ ok() (bool, *APIError) }) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	if err := c.makeRequest(ctx, http.MethodPost, endpoint, params, out); err != nil {
		return apperrors.NewTelegramAPIError(method, err)
	}
	if ok, apiErr := out.ok(); !ok {
		apiErr.Method = method
		return apperrors.NewTelegramAPIError(method, apiErr).WithDetail("status", apiErr.Code)
	}
	return nil
}

func (r *tgResponse[T]) ok() (bool, *APIError) {
	if r.Ok {
		return true, nil
	}
	e := &APIError{Code: r.ErrorCode, Description: r.Description}
	if r.Parameters != nil {
		e.RetryAfter = time.Duration(r.Parameters.RetryAfter) * time.Second
	}
	return false, e
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, data url.Values, out any) error {
	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(data.Encode()))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		if len(data) > 0 {
			endpoint = endpoint + "?" + data.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Strip the URL from the error so the token never reaches the logs.
		if uerr, ok := err.(*url.Error); ok {
			err = uerr.Err
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
