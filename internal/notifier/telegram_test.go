package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = url
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendSplitsLongMessages(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		texts = append(texts, body["text"])
		mu.Unlock()
	}))
	defer srv.Close()

	line := strings.Repeat("x", 99) + "\n"
	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), strings.Repeat(line, 100)))
	require.Len(t, texts, 3)
	for _, s := range texts {
		assert.LessOrEqual(t, len(s), MaxMessageLen)
	}
}

func TestSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"chat not found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "hi", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendWithRetryStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := newTestNotifier(srv.URL).SendWithRetry(ctx, "hi", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 10))
	assert.Equal(t, []string{"aaaa", "bbbb"}, SplitMessage("aaaa\nbbbb", 6))

	parts := SplitMessage(strings.Repeat("đ", 10), 5)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p), "%q", p)
		assert.LessOrEqual(t, len(p), 5)
	}
	assert.Equal(t, strings.Repeat("đ", 10), strings.Join(parts, ""))
}

func TestParseUpdates(t *testing.T) {
	updates, err := parseUpdates([]byte(`{"ok":true,"result":[
		{"update_id":7,"message":{"chat":{"id":42},"text":" /status "}},
		{"update_id":8,"edited_message":{"text":"x"}}
	]}`))
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, update{ID: 7, ChatID: "42", Text: "/status"}, updates[0])
	assert.Equal(t, int64(8), updates[1].ID)
	assert.Empty(t, updates[1].Text)

	_, err = parseUpdates([]byte(`{"ok":false,"description":"Unauthorized"}`))
	assert.ErrorContains(t, err, "Unauthorized")

	_, err = parseUpdates([]byte(`<html>`))
	assert.Error(t, err)
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var replies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			assert.Equal(t, "0", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":1,"message":{"chat":{"id":99},"text":"/run"}},
				{"update_id":2,"message":{"chat":{"id":42},"text":"/status"}}
			]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies = append(replies, body["text"])
			cancel()
		}
	}))
	defer srv.Close()

	var commands []string
	done := make(chan struct{})
	go func() {
		newTestNotifier(srv.URL).StartPolling(ctx, func(cmd string) string {
			commands = append(commands, cmd)
			return "ok: " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/status"}, commands)
	assert.Equal(t, []string{"ok: /status"}, replies)
}
