package claim

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	resp "go-jackpot/internal/lib/api/response"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/prize"
)

type Request struct {
	Address string `json:"address" validate:"required"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=PrizeClaimer
type PrizeClaimer interface {
	Claim(claimant string, drawID string) error
	ResetClaimable(caller string, drawID string) error
}

type Claim struct {
	log       *slog.Logger
	validator *validator.Validate
	prizes    PrizeClaimer
}

func NewClaim(log *slog.Logger, prizes PrizeClaimer) *Claim {
	return &Claim{
		log:       log,
		validator: validator.New(),
		prizes:    prizes,
	}
}

func (c *Claim) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.claim.New"

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

		if err := c.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		drawID := chi.URLParam(r, "drawID")

		err := c.prizes.Claim(req.Address, drawID)
		if err != nil {
			log.Error("claim rejected", sl.Err(err))

			switch {
			case errors.Is(err, prize.ErrInvalidDrawID):
				render.JSON(w, r, resp.Fail("invalid_draw_id", "unknown draw", http.StatusNotFound))
			case errors.Is(err, prize.ErrAlreadyClaimed):
				render.JSON(w, r, resp.Fail("already_claimed", "prize already claimed", http.StatusConflict))
			case errors.Is(err, prize.ErrNotClaimable):
				render.JSON(w, r, resp.Fail("not_claimable", "prize is not claimable", http.StatusUnprocessableEntity))
			case errors.Is(err, prize.ErrUnauthorized):
				render.JSON(w, r, resp.Fail("unauthorized", "claimant is not the winner", http.StatusForbidden))
			case errors.Is(err, prize.ErrInsufficientFunds):
				render.JSON(w, r, resp.Fail("insufficient_funds", "pool balance below the prize amount", http.StatusUnprocessableEntity))
			case errors.Is(err, prize.ErrTransferFailed):
				render.JSON(w, r, resp.Fail("transfer_failed", "prize transfer failed, claim may be retried", http.StatusBadGateway))
			case errors.Is(err, prize.ErrTransferValidationFailed):
				render.JSON(w, r, resp.Fail("transfer_validation_failed", "prize transfer could not be validated", http.StatusBadGateway))
			default:
				render.JSON(w, r, resp.Error("failed to claim prize", http.StatusInternalServerError))
			}

			return
		}

		log.Info("prize claimed",
			slog.String("draw_id", drawID),
			slog.String("winner", req.Address))

		render.JSON(w, r, resp.OK())
	}
}

// Reset re-asserts the claimable flag on a stuck record; operator only.
func (c *Claim) Reset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.claim.Reset"

		log := c.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		drawID := chi.URLParam(r, "drawID")
		caller := r.Header.Get("X-Component-Key")

		err := c.prizes.ResetClaimable(caller, drawID)
		if err != nil {
			log.Error("failed to reset claimable flag", sl.Err(err))

			switch {
			case errors.Is(err, prize.ErrUnauthorized):
				render.JSON(w, r, resp.Fail("unauthorized", "caller is not an operator", http.StatusForbidden))
			case errors.Is(err, prize.ErrInvalidDrawID):
				render.JSON(w, r, resp.Fail("invalid_draw_id", "unknown draw", http.StatusNotFound))
			case errors.Is(err, prize.ErrAlreadyClaimed):
				render.JSON(w, r, resp.Fail("already_claimed", "prize already claimed", http.StatusConflict))
			case errors.Is(err, prize.ErrInvalidState):
				render.JSON(w, r, resp.Fail("invalid_state", "record is not awaiting a claim", http.StatusUnprocessableEntity))
			default:
				render.JSON(w, r, resp.Error("failed to reset claimable flag", http.StatusInternalServerError))
			}

			return
		}

		log.Info("claimable flag re-asserted", slog.String("draw_id", drawID))

		render.JSON(w, r, resp.OK())
	}
}
