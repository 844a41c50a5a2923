package draws

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/draw"
	resp "go-jackpot/internal/lib/api/response"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/model"
)

type WinnerResponse struct {
	resp.Response
	Winner string `json:"winner"`
}

type Event struct {
	Event     string    `json:"event"`
	Address   string    `json:"address,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type EventsResponse struct {
	resp.Response
	DrawID string  `json:"draw_id"`
	Events []Event `json:"events"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=WinnerSource
type WinnerSource interface {
	Winner(drawID string) (string, error)
}

type EventLister interface {
	ListEventsByDraw(drawID string) ([]model.AuditEvent, error)
}

type Draws struct {
	log    *slog.Logger
	draws  WinnerSource
	events EventLister
}

func NewDraws(log *slog.Logger, drawsSource WinnerSource, events EventLister) *Draws {
	return &Draws{
		log:    log,
		draws:  drawsSource,
		events: events,
	}
}

// Winner exposes the recorded winner for reconciliation callers.
func (d *Draws) Winner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.draws.Winner"

		log := d.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		drawID := chi.URLParam(r, "drawID")

		winner, err := d.draws.Winner(drawID)
		if err != nil {
			log.Error("failed to get winner", sl.Err(err))

			switch {
			case errors.Is(err, draw.ErrInvalidDrawID):
				render.JSON(w, r, resp.Fail("invalid_draw_id", "unknown draw", http.StatusNotFound))
			case errors.Is(err, draw.ErrInvalidState):
				render.JSON(w, r, resp.Fail("invalid_state", "winner not selected yet", http.StatusUnprocessableEntity))
			default:
				render.JSON(w, r, resp.Error("failed to get winner", http.StatusInternalServerError))
			}

			return
		}

		render.JSON(w, r, WinnerResponse{
			Response: resp.OK(),
			Winner:   winner,
		})
	}
}

// Events reconstructs the audit trail for a draw from the event store.
func (d *Draws) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.draws.Events"

		log := d.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		drawID := chi.URLParam(r, "drawID")

		events, err := d.events.ListEventsByDraw(drawID)
		if err != nil {
			log.Error("failed to list draw events", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to list draw events", http.StatusInternalServerError))

			return
		}

		out := make([]Event, 0, len(events))
		for _, ev := range events {
			out = append(out, Event{
				Event:     ev.Event,
				Address:   ev.Address,
				Amount:    ev.Amount,
				RequestID: ev.RequestID,
				CreatedAt: ev.CreatedAt,
			})
		}

		render.JSON(w, r, EventsResponse{
			Response: resp.OK(),
			DrawID:   drawID,
			Events:   out,
		})
	}
}
