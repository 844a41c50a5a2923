package event

import (
	"fmt"

	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/lib/logger/sl"
)

// ChannelsEvent publishes events through Pusher Channels instead of the
// local ws hub; selected by the events.driver config value.
type ChannelsEvent struct {
	log    *slog.Logger
	pusher *pusher.Client
}

func NewChannelsEvent(log *slog.Logger, pusherClient *pusher.Client) *ChannelsEvent {
	return &ChannelsEvent{
		log:    log,
		pusher: pusherClient,
	}
}

func (p *ChannelsEvent) TriggerEvent(m Message) error {
	const op = "handlers.event.pusher.TriggerEvent"

	if err := p.pusher.Trigger(m.Channel, m.Event, m.Data); err != nil {
		p.log.Error("failed to trigger pusher event", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
