package draw

import (
	"golang.org/x/exp/slog"

	"go-jackpot/internal/http-server/handlers/job"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/model"
)

const maxDeliveryAttempts = 5

// redeliverWinnerJob re-drives Draw→Prize winner delivery from the recorded
// winner after a failed attempt.
type redeliverWinnerJob struct {
	draws   *Coordinator
	drawID  string
	attempt int
}

func (j *redeliverWinnerJob) Execute() {
	j.draws.redeliver(j.drawID, j.attempt)
}

func (c *Coordinator) redeliver(drawID string, attempt int) {
	const op = "draw.Coordinator.redeliver"

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil || rec.Status != model.DrawStatusWinnerSelected {
		return
	}

	err := c.deliver(rec)
	if err == nil {
		return
	}

	if attempt >= maxDeliveryAttempts {
		c.log.Error("giving up winner delivery",
			slog.String("op", op),
			slog.String("draw_id", drawID),
			slog.Int("attempt", attempt),
			sl.Err(err))

		return
	}

	job.Dispatch(&redeliverWinnerJob{draws: c, drawID: drawID, attempt: attempt + 1}, c.retryDelay)
}

// openPurgeJob fires after the purge delay and clears the draw through the
// open path, so records do not linger if the Prize Coordinator never calls.
type openPurgeJob struct {
	draws  *Coordinator
	drawID string
}

func (j *openPurgeJob) Execute() {
	if err := j.draws.PurgeOpen(j.drawID); err != nil {
		return
	}
}
