package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"MarketLens/internal/model"
)

func TestTelegramSend(t *testing.T) {
	var got map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if path != "/botTOKEN/sendMessage" {
		t.Errorf("path = %s", path)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("payload = %v", got)
	}
}

func TestTelegramSend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad chat", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	err := n.Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("err = %v", err)
	}
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := n.SendWithRetry(ctx, "hello", 3); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartPolling_RepliesInChat(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	replies := make(chan map[string]string, 1)
	var served atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if served.Swap(true) {
				<-ctx.Done()
				return
			}
			w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /ask BTC trend ","chat":{"id":99}}}]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()
	defer cancel()

	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	go n.StartPolling(ctx, func(_ context.Context, text string) string {
		return "echo: " + text
	})

	select {
	case body := <-replies:
		if body["chat_id"] != "99" || body["text"] != "echo: /ask BTC trend" {
			t.Errorf("reply = %v", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
}

func TestNewEvents(t *testing.T) {
	prev := model.RegimeSignals{MACDCross: model.CrossNone}
	cur := model.RegimeSignals{Breakout: true, VolumeSpike: true, MACDCross: model.CrossBull}
	events := NewEvents(&prev, cur)
	if len(events) != 3 {
		t.Fatalf("events = %v", events)
	}
	if ev := NewEvents(&cur, cur); len(ev) != 0 {
		t.Errorf("repeat signals reported again: %v", ev)
	}
	if ev := NewEvents(nil, cur); ev != nil {
		t.Errorf("first reading should not alert: %v", ev)
	}
}

func TestFormatters(t *testing.T) {
	snap := sampleSnapshot()
	msg := FormatSnapshotMessage("BTC<1>", snap)
	if !strings.Contains(msg, "<b>BTC&lt;1&gt;</b>") || !strings.Contains(msg, "2024-06-01 12:00") {
		t.Errorf("snapshot message = %s", msg)
	}
	alert := FormatAlert("BTC", []string{"volume spike"}, snap)
	if !strings.Contains(alert, "• volume spike") || !strings.Contains(alert, "bias up") {
		t.Errorf("alert = %s", alert)
	}
	board := FormatBoard([]*model.Snapshot{snap}, snap.GeneratedAt)
	if !strings.Contains(board, "BTC 64210.50 | 24h +2.10% | up 58%") {
		t.Errorf("board = %s", board)
	}
	if empty := FormatBoard(nil, snap.GeneratedAt); !strings.Contains(empty, model.NotEnoughDataMsg) {
		t.Errorf("empty board = %s", empty)
	}
}
