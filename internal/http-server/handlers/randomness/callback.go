package randomness

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/draw"
	resp "go-jackpot/internal/lib/api/response"
	"go-jackpot/internal/lib/logger/sl"
)

type Request struct {
	RequestID string `json:"request_id" validate:"required"`
	Value     uint64 `json:"value"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=RandomnessHandler
type RandomnessHandler interface {
	OnRandomnessDelivered(caller string, requestID string, value uint64) error
}

type Callback struct {
	log       *slog.Logger
	validator *validator.Validate
	draws     RandomnessHandler
}

func NewCallback(log *slog.Logger, draws RandomnessHandler) *Callback {
	return &Callback{
		log:       log,
		validator: validator.New(),
		draws:     draws,
	}
}

// New handles the oracle's one-shot delivery. The oracle never resends, so
// apart from authorization nothing is surfaced back as a failure: unknown or
// out-of-state requests are logged and acknowledged.
func (c *Callback) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.randomness.callback.New"

		log := c.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		log.Info("request body decoded", slog.Any("request", req))

		if err := c.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		caller := r.Header.Get("X-Component-Key")

		err := c.draws.OnRandomnessDelivered(caller, req.RequestID, req.Value)
		if err != nil {
			if errors.Is(err, draw.ErrUnauthorized) {
				log.Error("unauthorized oracle callback", sl.Err(err))

				render.JSON(w, r, resp.Fail("unauthorized", "caller is not the oracle", http.StatusForbidden))

				return
			}

			// acknowledged regardless; the value cannot be re-requested
			log.Error("randomness callback not applied", sl.Err(err))
		}

		render.JSON(w, r, resp.OK())
	}
}
