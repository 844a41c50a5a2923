package purge

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/draw"
	resp "go-jackpot/internal/lib/api/response"
	"go-jackpot/internal/lib/logger/sl"
)

type Request struct {
	MaxItems int `json:"max_items" validate:"required,min=1"`
}

type Response struct {
	resp.Response
	Purged int `json:"purged"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=BatchPurger
type BatchPurger interface {
	PurgeBatch(caller string, maxItems int) (int, error)
	PurgeOpen(drawID string) error
}

type Purge struct {
	log       *slog.Logger
	validator *validator.Validate
	draws     BatchPurger
}

func NewPurge(log *slog.Logger, draws BatchPurger) *Purge {
	return &Purge{
		log:       log,
		validator: validator.New(),
		draws:     draws,
	}
}

// Batch processes the purge queue, bounded by max_items per call.
func (p *Purge) Batch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.purge.Batch"

		log := p.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := p.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		caller := r.Header.Get("X-Component-Key")

		purged, err := p.draws.PurgeBatch(caller, req.MaxItems)
		if err != nil {
			log.Error("failed to process purge batch", sl.Err(err))

			if errors.Is(err, draw.ErrUnauthorized) {
				render.JSON(w, r, resp.Fail("unauthorized", "caller is not an operator", http.StatusForbidden))

				return
			}

			render.JSON(w, r, resp.Error("failed to process purge batch", http.StatusInternalServerError))

			return
		}

		log.Info("purge batch processed", slog.Int("purged", purged))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Purged:   purged,
		})
	}
}

// Open purges a single draw through the delay-gated path; no authorization,
// the elapsed delay is the gate.
func (p *Purge) Open() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.purge.Open"

		log := p.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		drawID := chi.URLParam(r, "drawID")

		err := p.draws.PurgeOpen(drawID)
		if err != nil {
			log.Error("failed to purge draw", sl.Err(err))

			switch {
			case errors.Is(err, draw.ErrInvalidDrawID):
				render.JSON(w, r, resp.Fail("invalid_draw_id", "unknown draw", http.StatusNotFound))
			case errors.Is(err, draw.ErrAlreadyPurged):
				render.JSON(w, r, resp.Fail("already_purged", "draw records already purged", http.StatusConflict))
			case errors.Is(err, draw.ErrNotPurgeable):
				render.JSON(w, r, resp.Fail("not_purgeable", "draw is not eligible for purge", http.StatusUnprocessableEntity))
			default:
				render.JSON(w, r, resp.Error("failed to purge draw", http.StatusInternalServerError))
			}

			return
		}

		log.Info("draw purged", slog.String("draw_id", drawID))

		render.JSON(w, r, resp.OK())
	}
}
