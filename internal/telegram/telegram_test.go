package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeAPI struct {
	mu       sync.Mutex
	polls    int
	sent     []sendMessageRequest
	rejectMD bool
	bareBody bool
	done     chan struct{}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.bareBody {
		w.Header().Set("Content-Type", "application/json")
	}
	switch r.URL.Path {
	case "/botTOKEN/getUpdates":
		f.polls++
		if f.polls > 1 {
			w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[
			{"update_id":10,"message":{"text":"/ping","chat":{"id":999},"from":{"username":"mallory"}}},
			{"update_id":11,"message":{"text":"hello","chat":{"id":42}}},
			{"update_id":12,"message":{"text":" /ping ","chat":{"id":42},"from":{"username":"owner"}}}
		]}`))
	case "/botTOKEN/sendMessage":
		var req sendMessageRequest
		json.NewDecoder(r.Body).Decode(&req)
		if f.rejectMD && req.ParseMode != "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"can't parse entities"}`))
			return
		}
		f.sent = append(f.sent, req)
		w.Write([]byte(`{"ok":true,"result":{}}`))
		if f.done != nil {
			close(f.done)
			f.done = nil
		}
	default:
		http.NotFound(w, r)
	}
}

func TestListen_RepliesOnlyToAuthorizedChat(t *testing.T) {
	api := &fakeAPI{done: make(chan struct{})}
	srv := httptest.NewServer(api)
	defer srv.Close()

	bot, err := NewBot(srv.URL, "TOKEN", 42)
	if err != nil {
		t.Fatalf("NewBot failed: %v", err)
	}

	var mu sync.Mutex
	var received []string
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		bot.Listen(ctx, func(ctx context.Context, cmd string) string {
			mu.Lock()
			received = append(received, cmd)
			mu.Unlock()
			return "Pong"
		})
		close(stopped)
	}()

	select {
	case <-api.done:
	case <-time.After(5 * time.Second):
		t.Fatal("No reply sent")
	}
	cancel()
	<-stopped

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0] != "/ping" {
		t.Errorf("Expected only the authorized /ping, got %v", received)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.sent) != 1 || api.sent[0].ChatID != 42 || api.sent[0].Text != "Pong" {
		t.Errorf("Unexpected replies %+v", api.sent)
	}
}

func TestNotify_FallsBackToPlainText(t *testing.T) {
	api := &fakeAPI{rejectMD: true}
	srv := httptest.NewServer(api)
	defer srv.Close()

	bot, _ := NewBot(srv.URL, "TOKEN", 42)
	if err := bot.Notify(context.Background(), "BRK_B *unbalanced"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0].ParseMode != "" {
		t.Errorf("Expected one plain-text message, got %+v", api.sent)
	}
}

func TestNotify_DecodesBodyWithoutContentType(t *testing.T) {
	api := &fakeAPI{bareBody: true}
	srv := httptest.NewServer(api)
	defer srv.Close()

	bot, _ := NewBot(srv.URL, "TOKEN", 42)
	if err := bot.Notify(context.Background(), "*AAPL* 150.25"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(api.sent) != 1 || api.sent[0].ParseMode != "Markdown" {
		t.Errorf("Expected one Markdown message, got %+v", api.sent)
	}

	api.rejectMD = true
	if err := bot.Notify(context.Background(), "BRK_B *unbalanced"); err != nil {
		t.Fatalf("Notify fallback failed: %v", err)
	}
	if len(api.sent) != 2 || api.sent[1].ParseMode != "" {
		t.Errorf("Expected a plain-text retry, got %+v", api.sent)
	}
}

func TestNewBot_RequiresCredentials(t *testing.T) {
	if _, err := NewBot("", "", 42); err == nil {
		t.Error("Expected error without token")
	}
	if _, err := NewBot("", "TOKEN", 0); err == nil {
		t.Error("Expected error without chat ID")
	}
}
