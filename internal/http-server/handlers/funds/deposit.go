package funds

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	resp "go-jackpot/internal/lib/api/response"
	"go-jackpot/internal/lib/converter"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/prize"
)

type Request struct {
	DrawID string  `json:"draw_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required,min=0.01"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=FundsReceiver
type FundsReceiver interface {
	ReceiveFunds(caller string, drawID string, amount int64) error
}

type Deposit struct {
	log       *slog.Logger
	validator *validator.Validate
	prizes    FundsReceiver
}

func NewDeposit(log *slog.Logger, prizes FundsReceiver) *Deposit {
	return &Deposit{
		log:       log,
		validator: validator.New(),
		prizes:    prizes,
	}
}

func (d *Deposit) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.funds.deposit.New"

		log := d.log.With(
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

		if err := d.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		caller := r.Header.Get("X-Component-Key")

		err := d.prizes.ReceiveFunds(caller, req.DrawID, converter.ConvertAmountFloatToCents(req.Amount))
		if err != nil {
			log.Error("failed to receive funds", sl.Err(err))

			switch {
			case errors.Is(err, prize.ErrUnauthorized):
				render.JSON(w, r, resp.Fail("unauthorized", "caller is not the ledger", http.StatusForbidden))
			case errors.Is(err, prize.ErrRecordExists):
				render.JSON(w, r, resp.Fail("record_exists", "prize record already exists", http.StatusConflict))
			case errors.Is(err, prize.ErrInvalidDrawID):
				render.JSON(w, r, resp.Fail("invalid_draw_id", "invalid draw id", http.StatusBadRequest))
			case errors.Is(err, prize.ErrInvalidAmount):
				render.JSON(w, r, resp.Fail("invalid_amount", "amount does not match the fixed prize", http.StatusBadRequest))
			case errors.Is(err, prize.ErrPoolUnderfunded):
				render.JSON(w, r, resp.Fail("pool_underfunded", "pool balance below the deposited amount", http.StatusUnprocessableEntity))
			default:
				render.JSON(w, r, resp.Error("failed to receive funds", http.StatusInternalServerError))
			}

			return
		}

		log.Info("funds accepted", slog.String("draw_id", req.DrawID))

		render.JSON(w, r, resp.OK())
	}
}
