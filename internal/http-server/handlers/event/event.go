package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/lib/logger/sl"
)

// Message is one observability event as broadcast to the hub. Data always
// carries draw_id and an RFC3339 timestamp.
type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

// Pusher is what the coordinators publish through; satisfied by the ws hub
// client below and by the Pusher Channels client in pusher.go.
type Pusher interface {
	TriggerEvent(m Message) error
}

type HubEvent struct {
	log  *slog.Logger
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewHubEvent(log *slog.Logger, conn *websocket.Conn) *HubEvent {
	return &HubEvent{
		log:  log,
		conn: conn,
	}
}

func (p *HubEvent) TriggerEvent(m Message) error {
	const op = "handlers.event.TriggerEvent"

	msg, err := json.Marshal(m)
	if err != nil {
		p.log.Error("failed to marshal message", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	// gorilla allows one concurrent writer per conn
	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		p.log.Error("failed to trigger event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
