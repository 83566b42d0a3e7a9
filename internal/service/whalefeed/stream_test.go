package whalefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"CoinPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestStreamFiltersBelowFloor(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// consume the subscribe frame
		var sub map[string]interface{}
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if sub["type"] != "subscribe" {
			t.Errorf("subscribe frame = %v", sub)
			return
		}

		frames := []string{
			`{"type":"transfer","symbol":"BTC","amount_usd":2500000,"direction":"exchange_in","timestamp":1755172800}`,
			`{"type":"transfer","symbol":"DOGE","amount_usd":9000,"direction":"unknown","timestamp":1755172801}`,
			`{"type":"heartbeat"}`,
			`{"type":"transfer","symbol":"ETH","amount_usd":1200000,"direction":"exchange_out","timestamp":1755172802}`,
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// keep the conn open until the client is done
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := New(Config{URL: url, MinTransferUSD: 1_000_000}, testLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	transfers, errs := s.Read(ctx)

	var got []string
	for len(got) < 2 {
		select {
		case tr := <-transfers:
			got = append(got, tr.Symbol)
		case err := <-errs:
			t.Fatalf("stream error: %v", err)
		case <-ctx.Done():
			t.Fatalf("timed out, got %v", got)
		}
	}

	if got[0] != "BTC" || got[1] != "ETH" {
		t.Fatalf("transfers = %v, want [BTC ETH]", got)
	}
}

func TestStreamReconnectAfterClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var sub map[string]interface{}
		_ = conn.ReadJSON(&sub)
		time.Sleep(100 * time.Millisecond)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := New(Config{URL: url, ReconnectDelay: 10 * time.Millisecond}, testLogger(t))

	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Reconnect(ctx); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	defer s.Close()
}
