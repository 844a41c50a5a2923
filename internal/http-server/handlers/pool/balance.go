package pool

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	resp "go-jackpot/internal/lib/api/response"
	"go-jackpot/internal/lib/converter"
	"go-jackpot/internal/lib/logger/sl"
)

type Response struct {
	resp.Response
	Balance string `json:"balance"`
}

type BalanceSource interface {
	Balance() (int64, error)
}

type Pool struct {
	log   *slog.Logger
	vault BalanceSource
}

func NewPool(log *slog.Logger, vault BalanceSource) *Pool {
	return &Pool{
		log:   log,
		vault: vault,
	}
}

func (p *Pool) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.pool.Balance"

		log := p.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		balance, err := p.vault.Balance()
		if err != nil {
			log.Error("failed to read pool balance", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to read pool balance", http.StatusBadGateway))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Balance:  converter.ConvertCentsToAmountString(balance),
		})
	}
}
