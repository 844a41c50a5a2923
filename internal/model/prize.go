package model

import "time"

type PrizeStatus string

const (
	PrizeStatusFundsReceived      PrizeStatus = "funds_received"
	PrizeStatusSelectionInitiated PrizeStatus = "selection_initiated"
	PrizeStatusWinnerSelected     PrizeStatus = "winner_selected"
	PrizeStatusClaimed            PrizeStatus = "prize_claimed"
	PrizeStatusPurgeCompleted     PrizeStatus = "purge_completed"
)

// PrizeRecord tracks the funds lifecycle of a single draw. Claimed is set
// before any transfer is attempted and is never cleared once a transfer has
// been verified.
type PrizeRecord struct {
	DrawID        string
	Amount        int64
	WinnerAddress string
	Claimable     bool
	Claimed       bool
	Status        PrizeStatus

	CreatedAt            time.Time
	SelectionInitiatedAt *time.Time
	WinnerSelectedAt     *time.Time
	ClaimedAt            *time.Time
	PurgeCompletedAt     *time.Time
}
