package draw

import (
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/metrics"
	"go-jackpot/internal/model"
)

// ConfirmPurge purges a single confirmed draw on behalf of the Prize
// Coordinator.
func (c *Coordinator) ConfirmPurge(caller string, drawID string) error {
	const op = "draw.Coordinator.ConfirmPurge"

	if caller != c.keys.PrizeKey {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	unlock := c.locks.Lock(drawID)
	defer unlock()

	if err := c.purgeLocked(drawID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.dequeue(drawID)

	return nil
}

// PurgeOpen is the unauthenticated safety valve: once the purge delay has
// elapsed since payout confirmation, anyone may purge the draw even if the
// Prize Coordinator is gone.
func (c *Coordinator) PurgeOpen(drawID string) error {
	const op = "draw.Coordinator.PurgeOpen"

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	if rec.Status == model.DrawStatusRecordsPurged {
		return fmt.Errorf("%s: %w", op, ErrAlreadyPurged)
	}

	if rec.Status != model.DrawStatusPayoutConfirmed || rec.PayoutConfirmedAt == nil {
		return fmt.Errorf("%s: %w", op, ErrNotPurgeable)
	}

	if time.Since(*rec.PayoutConfirmedAt) < c.purgeDelay {
		return fmt.Errorf("%s: %w", op, ErrNotPurgeable)
	}

	if err := c.purgeLocked(drawID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.dequeue(drawID)

	return nil
}

// PurgeBatch walks the purge queue, purging up to maxItems eligible draws
// and keeping the rest queued. The queue is compacted after the pass.
func (c *Coordinator) PurgeBatch(caller string, maxItems int) (int, error) {
	const op = "draw.Coordinator.PurgeBatch"

	if caller != c.keys.OperatorKey {
		return 0, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if maxItems <= 0 {
		return 0, nil
	}

	c.queueMu.Lock()
	queued := make([]string, len(c.purgeQueue))
	copy(queued, c.purgeQueue)
	c.queueMu.Unlock()

	var (
		purged  int
		pending []string
	)

	for _, drawID := range queued {
		if purged >= maxItems {
			pending = append(pending, drawID)

			continue
		}

		unlock := c.locks.Lock(drawID)
		err := c.purgeLocked(drawID)
		unlock()

		if err != nil {
			// not yet eligible (or already gone); keep it queued unless purged elsewhere
			rec := c.record(drawID)
			if rec != nil && rec.Status != model.DrawStatusRecordsPurged {
				pending = append(pending, drawID)
			}

			continue
		}

		purged++
	}

	c.queueMu.Lock()
	c.purgeQueue = pending
	c.queueMu.Unlock()

	c.log.Info("purge batch processed",
		slog.String("op", op),
		slog.Int("purged", purged),
		slog.Int("pending", len(pending)))

	return purged, nil
}

// purgeLocked zeroes the sensitive fields and keeps the audit remnant:
// winner address and transition timestamps survive, everything else goes.
// Caller holds the draw lock.
func (c *Coordinator) purgeLocked(drawID string) error {
	rec := c.record(drawID)
	if rec == nil {
		return ErrInvalidDrawID
	}

	if rec.Status == model.DrawStatusRecordsPurged {
		return ErrAlreadyPurged
	}

	if rec.Status != model.DrawStatusPayoutConfirmed {
		return ErrNotPurgeable
	}

	if rec.RequestID != "" {
		c.mu.Lock()
		delete(c.byRequest, rec.RequestID)
		c.mu.Unlock()
	}

	now := time.Now()
	rec.PlayerCount = 0
	rec.RequestID = ""
	rec.RandomSeed = 0
	rec.SeedSet = false
	rec.WinnerIndex = 0
	rec.Status = model.DrawStatusRecordsPurged
	rec.PurgedAt = &now

	metrics.PurgesCompleted.Inc()

	c.emit(model.EventPurgeCompleted, drawID, rec.WinnerAddress, "", nil)

	return nil
}

func (c *Coordinator) dequeue(drawID string) {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	for i, id := range c.purgeQueue {
		if id == drawID {
			c.purgeQueue = append(c.purgeQueue[:i], c.purgeQueue[i+1:]...)

			return
		}
	}
}
