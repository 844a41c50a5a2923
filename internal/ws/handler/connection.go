package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/lib/logger/sl"
)

type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

type Subscription struct {
	Conn    *websocket.Conn
	Channel string
}

// Hub fans observability events out to channel subscribers. The api binary
// connects as a producer; audit UIs and reconciliation tooling subscribe.
// Connections that name no channel land on the configured default.
type Hub struct {
	channels       map[string]map[*websocket.Conn]bool
	broadcast      chan Message
	subscribe      chan Subscription
	unsubscribe    chan *websocket.Conn
	mutex          sync.RWMutex
	log            *slog.Logger
	defaultChannel string
}

func NewHub(log *slog.Logger, defaultChannel string) *Hub {
	return &Hub{
		channels:       make(map[string]map[*websocket.Conn]bool),
		broadcast:      make(chan Message),
		subscribe:      make(chan Subscription),
		unsubscribe:    make(chan *websocket.Conn),
		log:            log,
		defaultChannel: defaultChannel,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (hub *Hub) run() {
	for {
		select {
		case sub := <-hub.subscribe:
			hub.mutex.Lock()
			if hub.channels[sub.Channel] == nil {
				hub.channels[sub.Channel] = make(map[*websocket.Conn]bool)
			}
			hub.channels[sub.Channel][sub.Conn] = true
			hub.mutex.Unlock()
		case conn := <-hub.unsubscribe:
			hub.mutex.Lock()
			for _, receivers := range hub.channels {
				delete(receivers, conn)
			}
			hub.mutex.Unlock()
		case message := <-hub.broadcast:
			hub.mutex.RLock()
			receivers, ok := hub.channels[message.Channel]
			hub.mutex.RUnlock()

			if !ok {
				continue
			}

			data, err := json.Marshal(message)
			if err != nil {
				hub.log.Error("failed to marshal message", sl.Err(err))

				continue
			}

			hub.log.Info("broadcasting message",
				sl.String("channel", message.Channel),
				sl.String("event", message.Event))

			for conn := range receivers {
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					hub.log.Error("failed to write message", sl.Err(err))
				}
			}
		}
	}
}

func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}

	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = hub.defaultChannel
	}

	if channel != "" {
		hub.subscribe <- Subscription{Conn: ws, Channel: channel}
	}

	defer func(ws *websocket.Conn) {
		hub.unsubscribe <- ws

		if err = ws.Close(); err != nil {
			hub.log.Error("failed to close connection", sl.Err(err))
		}
	}(ws)

	for {
		var message Message

		_, p, err := ws.ReadMessage()
		if err != nil {
			return
		}

		if err = json.Unmarshal(p, &message); err != nil {
			hub.log.Error("failed to unmarshal message", sl.Err(err))

			continue
		}

		hub.log.Info("incoming message",
			sl.String("channel", message.Channel),
			sl.String("event", message.Event))

		hub.mutex.RLock()
		known := hub.channels[message.Channel] != nil
		hub.mutex.RUnlock()

		if !known {
			hub.subscribe <- Subscription{Conn: ws, Channel: message.Channel}
		}

		hub.broadcast <- message
	}
}

func (hub *Hub) RunServer() {
	go hub.run()
}
