package notifier

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// update is the part of a Telegram update the bot reads.
type update struct {
	ID     int64
	ChatID string
	Text   string
}

func parseUpdates(body []byte) ([]update, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON")
	}
	res := gjson.ParseBytes(body)
	if !res.Get("ok").Bool() {
		return nil, fmt.Errorf("telegram API error: %s", res.Get("description").String())
	}
	var out []update
	for _, u := range res.Get("result").Array() {
		out = append(out, update{
			ID:     u.Get("update_id").Int(),
			ChatID: u.Get("message.chat.id").String(),
			Text:   strings.TrimSpace(u.Get("message.text").String()),
		})
	}
	return out, nil
}

// StartPolling begins long-polling for Telegram commands. Only messages from
// the configured chat are handled. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	var offset int64
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.endpoint("getUpdates"), offset)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			log.Printf("[ERROR] create polling request: %v", err)
			return
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			sleep(ctx, 5*time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[WARN] read polling response: %v", err)
			continue
		}

		updates, err := parseUpdates(body)
		if err != nil {
			log.Printf("[WARN] decode polling response: %v", err)
			sleep(ctx, 5*time.Second)
			continue
		}

		for _, u := range updates {
			offset = u.ID + 1
			if u.Text == "" {
				continue
			}
			if u.ChatID != t.ChatID {
				log.Printf("[WARN] ignoring command from chat %s", u.ChatID)
				continue
			}
			log.Printf("[INFO] received command: %s", u.Text)
			if reply := handler(u.Text); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
