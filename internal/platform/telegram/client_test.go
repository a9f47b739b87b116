package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chessclub-bot/internal/common/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("TOKEN", srv.URL, zerolog.Nop())
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotChat, gotText, gotMode string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		gotMode = r.PostForm.Get("parse_mode")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":42,"type":"private"},"date":0}}`))
	})

	err := c.SendMessage(context.Background(), 42, "<b>hi</b>", ParseModeHTML)
	require.NoError(t, err)
	assert.Equal(t, "/botTOKEN/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "<b>hi</b>", gotText)
	assert.Equal(t, "HTML", gotMode)
}

func TestSendMessage_APIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	})

	err := c.SendMessage(context.Background(), 42, "hi", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTelegramAPI))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Blocked())
	assert.Equal(t, "sendMessage", apiErr.Method)
	assert.NotContains(t, err.Error(), "TOKEN")
}

func TestGetUpdates(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/botTOKEN/getUpdates", r.URL.Path)
		assert.Equal(t, "101", r.PostForm.Get("offset"))
		assert.Equal(t, "30", r.PostForm.Get("timeout"))
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":101,"message":{"message_id":5,"from":{"id":7,"is_bot":false,"first_name":"Ann","username":"ann"},"chat":{"id":7,"type":"private"},"date":1,"text":"/start"}},
			{"update_id":102}
		]}`))
	})

	updates, err := c.GetUpdates(context.Background(), 101, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(101), updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, "ann", updates[0].Message.From.Username)
	assert.Nil(t, updates[1].Message)
}

func TestRetryAfter(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`))
	})

	_, err := c.GetMe(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
}

func TestTransportErrorHidesToken(t *testing.T) {
	c := NewClient("SECRET", "http://127.0.0.1:1", zerolog.Nop())
	err := c.SendMessage(context.Background(), 1, "x", "")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "SECRET"))
}
