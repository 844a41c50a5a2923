package model

import "time"

type DrawStatus string

const (
	DrawStatusPending             DrawStatus = "pending"
	DrawStatusRandomnessRequested DrawStatus = "randomness_requested"
	DrawStatusWinnerSelected      DrawStatus = "winner_selected"
	DrawStatusWinnerDelivered     DrawStatus = "winner_delivered"
	DrawStatusPayoutConfirmed     DrawStatus = "payout_confirmed"
	DrawStatusRecordsPurged       DrawStatus = "records_purged"
)

// DrawRecord tracks the randomness lifecycle of a single draw. PlayerCount,
// RequestID, RandomSeed and the winner fields are set exactly once; a purge
// zeroes everything except WinnerAddress and the transition timestamps.
type DrawRecord struct {
	DrawID        string
	PlayerCount   int64
	RequestID     string
	RandomSeed    uint64
	SeedSet       bool
	WinnerAddress string
	WinnerIndex   int64
	Status        DrawStatus

	CreatedAt             time.Time
	RandomnessRequestedAt *time.Time
	WinnerSelectedAt      *time.Time
	WinnerDeliveredAt     *time.Time
	PayoutConfirmedAt     *time.Time
	PurgedAt              *time.Time
}
