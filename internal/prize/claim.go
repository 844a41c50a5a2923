package prize

import (
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/lib/converter"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/metrics"
	"go-jackpot/internal/model"
)

// Claim pays the prize to the recorded winner, pull-style: only the winner
// can invoke it, so a claimant that cannot receive funds fails alone and
// never blocks other draws.
//
// Ordering is the whole point here: the claimed flag and status flip before
// the transfer, and flip back with it if the transfer fails or the observed
// balance delta is off. The two are one atomic unit under the draw lock.
func (c *Coordinator) Claim(claimant string, drawID string) error {
	const op = "prize.Coordinator.Claim"

	unlock := c.locks.Lock(drawID)
	defer unlock()

	log := c.log.With(
		slog.String("op", op),
		slog.String("draw_id", drawID),
	)

	rec := c.record(drawID)
	if rec == nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	if rec.Claimed {
		return fmt.Errorf("%s: %w", op, ErrAlreadyClaimed)
	}

	if rec.Status != model.PrizeStatusWinnerSelected || !rec.Claimable {
		return fmt.Errorf("%s: %w", op, ErrNotClaimable)
	}

	if claimant != rec.WinnerAddress {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	// balance is re-validated here, not at record creation, to catch drift
	// from unrelated pool activity
	balanceBefore, err := c.vault.Balance()
	if err != nil {
		log.Error("failed to read pool balance", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if balanceBefore < rec.Amount {
		return fmt.Errorf("%s: %w", op, ErrInsufficientFunds)
	}

	now := time.Now()
	rec.Claimed = true
	rec.Status = model.PrizeStatusClaimed
	rec.ClaimedAt = &now

	if err = c.vault.Transfer(rec.WinnerAddress, rec.Amount); err != nil {
		log.Error("transfer failed, reverting claim", sl.Err(err))

		c.revertClaim(rec)

		return fmt.Errorf("%s: %w", op, ErrTransferFailed)
	}

	balanceAfter, err := c.vault.Balance()
	if err != nil {
		log.Error("failed to validate transfer, reverting claim", sl.Err(err))

		c.revertClaim(rec)

		return fmt.Errorf("%s: %w", op, ErrTransferValidationFailed)
	}

	if balanceBefore-balanceAfter != rec.Amount {
		log.Error("unexpected balance delta, reverting claim",
			sl.Int64("expected", rec.Amount),
			sl.Int64("observed", balanceBefore-balanceAfter))

		c.revertClaim(rec)

		return fmt.Errorf("%s: %w", op, ErrTransferValidationFailed)
	}

	metrics.PrizesClaimed.Inc()

	log.Info("prize claimed",
		sl.String("winner", rec.WinnerAddress),
		sl.String("amount", converter.ConvertCentsToAmountString(rec.Amount)))

	c.emit(model.EventPayoutConfirmed, drawID, rec.WinnerAddress, rec.Amount, nil)

	c.notifyPurge(drawID)

	c.purgeRecordLocked(rec)

	return nil
}

func (c *Coordinator) revertClaim(rec *model.PrizeRecord) {
	rec.Claimed = false
	rec.Status = model.PrizeStatusWinnerSelected
	rec.ClaimedAt = nil
}

// notifyPurge fans the cleanup signal out to the peers. Every failure is
// caught and logged; cleanup is advisory, not a correctness requirement.
func (c *Coordinator) notifyPurge(drawID string) {
	const op = "prize.Coordinator.notifyPurge"

	log := c.log.With(
		slog.String("op", op),
		slog.String("draw_id", drawID),
	)

	if err := c.draws.ConfirmPayout(c.keys.SelfKey, drawID); err != nil {
		log.Error("failed to confirm payout with draw coordinator", sl.Err(err))
	} else if err = c.draws.ConfirmPurge(c.keys.SelfKey, drawID); err != nil {
		log.Error("failed to purge draw record", sl.Err(err))
	}

	for _, peer := range c.peers {
		if err := peer.PurgeDraw(drawID); err != nil {
			log.Error("peer purge signal failed", sl.Err(err))
		}
	}
}

// purgeRecordLocked closes out the prize record: the amount is zeroed and
// claimability withdrawn, while the winner address, the claimed flag and the
// timestamps remain as the audit remnant. Caller holds the draw lock.
func (c *Coordinator) purgeRecordLocked(rec *model.PrizeRecord) {
	now := time.Now()
	rec.Amount = 0
	rec.Claimable = false
	rec.Status = model.PrizeStatusPurgeCompleted
	rec.PurgeCompletedAt = &now
}
