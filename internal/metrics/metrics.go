package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-wide totals. Each counter is its own atomic; there is no shared
// lock across metrics.
var (
	DrawsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jackpot_draws_processed_total",
		Help: "Number of draws that received a randomness callback.",
	})

	PrizesClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jackpot_prizes_claimed_total",
		Help: "Number of prizes paid out through the claim path.",
	})

	PurgesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jackpot_purges_completed_total",
		Help: "Number of draw records purged after payout confirmation.",
	})
)
