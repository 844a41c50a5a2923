package model

import "time"

const (
	EventSelectionRequested  = "selection-requested"
	EventRandomnessFulfilled = "randomness-fulfilled"
	EventWinnerSelected      = "winner-selected"
	EventWinnerDelivered     = "winner-delivered"
	EventPayoutConfirmed     = "payout-confirmed"
	EventPurgeQueued         = "purge-queued"
	EventPurgeCompleted      = "purge-completed"
)

// AuditEvent is one row of the reconstruction trail. Address and Amount are
// filled only where the event carries them.
type AuditEvent struct {
	ID        int64
	DrawID    string
	Event     string
	Address   string
	Amount    int64
	RequestID string
	CreatedAt time.Time
}
