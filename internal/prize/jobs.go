package prize

import (
	"errors"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/draw"
	"go-jackpot/internal/http-server/handlers/job"
	"go-jackpot/internal/lib/logger/sl"
)

const maxSelectionAttempts = 5

// retrySelectionJob re-drives the Prize→Draw selection call after a failed
// attempt during ReceiveFunds.
type retrySelectionJob struct {
	prizes  *Coordinator
	drawID  string
	attempt int
}

func (j *retrySelectionJob) Execute() {
	j.prizes.retrySelection(j.drawID, j.attempt)
}

func (c *Coordinator) retrySelection(drawID string, attempt int) {
	const op = "prize.Coordinator.retrySelection"

	err := c.draws.RequestSelection(c.keys.SelfKey, drawID)
	if err == nil || errors.Is(err, draw.ErrAlreadyRequested) {
		return
	}

	if attempt >= maxSelectionAttempts {
		c.log.Error("giving up selection retry",
			slog.String("op", op),
			slog.String("draw_id", drawID),
			slog.Int("attempt", attempt),
			sl.Err(err))

		return
	}

	job.Dispatch(&retrySelectionJob{prizes: c, drawID: drawID, attempt: attempt + 1}, c.retryDelay)
}
