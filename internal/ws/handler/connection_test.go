package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

func TestHubDefaultChannel(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := NewHub(log, "draws")
	hub.RunServer()

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	// subscriber names no channel and must land on the default
	sub, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial subscriber: %v", err)
	}
	defer sub.Close()

	// give the handler goroutine time to register the subscription
	time.Sleep(100 * time.Millisecond)

	producer, _, err := websocket.DefaultDialer.Dial(wsURL+"?channel=draws", nil)
	if err != nil {
		t.Fatalf("failed to dial producer: %v", err)
	}
	defer producer.Close()

	msg := Message{
		Channel: "draws",
		Event:   "winner-selected",
		Data:    map[string]interface{}{"draw_id": "draw-1"},
	}

	if err = producer.WriteJSON(msg); err != nil {
		t.Fatalf("failed to write message: %v", err)
	}

	if err = sub.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}

	var got Message
	if err = sub.ReadJSON(&got); err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}

	if got.Channel != "draws" || got.Event != "winner-selected" {
		t.Errorf("unexpected message: %+v", got)
	}
}
