package draw

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"go-jackpot/internal/clients/registry"
	"go-jackpot/internal/http-server/handlers/event"
	"go-jackpot/internal/http-server/handlers/job"
	"go-jackpot/internal/lib/keylock"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/metrics"
	"go-jackpot/internal/model"
)

var (
	ErrUnauthorized       = errors.New("unauthorized caller")
	ErrInvalidDrawID      = errors.New("invalid draw id")
	ErrAlreadyRequested   = errors.New("randomness already requested")
	ErrNoPlayers          = errors.New("draw has no players")
	ErrRegistryIncomplete = errors.New("player registry has not finalized the draw")
	ErrUnknownRequest     = errors.New("unknown randomness request")
	ErrInvalidState       = errors.New("draw is not in a valid state")
	ErrInvalidWinner      = errors.New("registry resolved an empty winner address")
	ErrNotPurgeable       = errors.New("draw is not eligible for purge")
	ErrAlreadyPurged      = errors.New("draw records already purged")
)

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=PlayerRegistry
type PlayerRegistry interface {
	DrawInfo(drawID string) (*registry.DrawInfo, error)
	PlayerByIndex(drawID string, index int64) (string, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=RandomnessSource
type RandomnessSource interface {
	RequestRandomness(requestID string) error
}

// WinnerSink is the Prize Coordinator's winner-delivery entry point.
type WinnerSink interface {
	ReceiveWinner(caller string, drawID string, winner string) error
}

type AuditLog interface {
	SaveEvent(ev model.AuditEvent) error
}

// Keys holds the shared component keys: the identities the coordinator
// accepts on inbound calls and the one it presents on outbound calls.
type Keys struct {
	PrizeKey    string
	OracleKey   string
	OperatorKey string
	SelfKey     string
}

// Coordinator owns the per-draw randomness lifecycle. Records live in a
// keyed store and are mutated only here, one operation per draw at a time.
type Coordinator struct {
	log      *slog.Logger
	keys     Keys
	registry PlayerRegistry
	oracle   RandomnessSource
	winners  WinnerSink
	events   event.Pusher
	audit    AuditLog

	locks *keylock.Keyed

	mu        sync.RWMutex
	records   map[string]*model.DrawRecord
	byRequest map[string]string

	queueMu    sync.Mutex
	purgeQueue []string

	purgeDelay time.Duration
	retryDelay time.Duration
}

func New(
	log *slog.Logger,
	keys Keys,
	playerRegistry PlayerRegistry,
	oracle RandomnessSource,
	events event.Pusher,
	audit AuditLog,
	purgeDelay time.Duration) *Coordinator {
	return &Coordinator{
		log:        log,
		keys:       keys,
		registry:   playerRegistry,
		oracle:     oracle,
		events:     events,
		audit:      audit,
		locks:      keylock.New(),
		records:    make(map[string]*model.DrawRecord),
		byRequest:  make(map[string]string),
		purgeDelay: purgeDelay,
		retryDelay: 30 * time.Second,
	}
}

// SetWinnerSink wires the Prize Coordinator in after both coordinators are
// constructed; the two reference each other only through interfaces.
func (c *Coordinator) SetWinnerSink(winners WinnerSink) {
	c.winners = winners
}

// RequestSelection validates the draw against the registry and dispatches
// exactly one randomness request for it. A draw left pending by a failed
// oracle call may be re-entered; a draw with a live request may not.
func (c *Coordinator) RequestSelection(caller string, drawID string) error {
	const op = "draw.Coordinator.RequestSelection"

	if caller != c.keys.PrizeKey {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if drawID == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	unlock := c.locks.Lock(drawID)
	defer unlock()

	log := c.log.With(
		slog.String("op", op),
		slog.String("draw_id", drawID),
	)

	rec := c.record(drawID)
	if rec != nil && rec.RequestID != "" {
		return fmt.Errorf("%s: %w", op, ErrAlreadyRequested)
	}

	info, err := c.registry.DrawInfo(drawID)
	if err != nil {
		log.Error("failed to fetch draw info", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if !info.Finalized {
		return fmt.Errorf("%s: %w", op, ErrRegistryIncomplete)
	}

	if info.PlayerCount == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoPlayers)
	}

	if rec == nil {
		rec = &model.DrawRecord{
			DrawID:    drawID,
			Status:    model.DrawStatusPending,
			CreatedAt: time.Now(),
		}

		c.mu.Lock()
		c.records[drawID] = rec
		c.mu.Unlock()
	}

	rec.PlayerCount = info.PlayerCount

	requestID := uuid.New().String()

	if err = c.oracle.RequestRandomness(requestID); err != nil {
		log.Error("failed to request randomness", sl.Err(err))

		// record stays pending; the deposit-side retry job re-enters here
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	rec.RequestID = requestID
	rec.Status = model.DrawStatusRandomnessRequested
	rec.RandomnessRequestedAt = &now

	c.mu.Lock()
	c.byRequest[requestID] = drawID
	c.mu.Unlock()

	log.Info("selection requested",
		sl.String("request_id", requestID),
		sl.Int64("player_count", info.PlayerCount))

	c.emit(model.EventSelectionRequested, drawID, "", requestID, map[string]interface{}{
		"player_count": info.PlayerCount,
		"requested_by": caller,
	})

	return nil
}

// OnRandomnessDelivered resolves the winner from the oracle value and hands
// it to the Prize Coordinator. The oracle sends each value exactly once, so
// a failed registry lookup leaves the draw parked for operator action and a
// failed delivery is retried by a background job; neither is surfaced back
// to the oracle.
func (c *Coordinator) OnRandomnessDelivered(caller string, requestID string, value uint64) error {
	const op = "draw.Coordinator.OnRandomnessDelivered"

	if caller != c.keys.OracleKey {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	c.mu.RLock()
	drawID, ok := c.byRequest[requestID]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", op, ErrUnknownRequest)
	}

	unlock := c.locks.Lock(drawID)
	defer unlock()

	log := c.log.With(
		slog.String("op", op),
		slog.String("draw_id", drawID),
		slog.String("request_id", requestID),
	)

	rec := c.record(drawID)
	if rec == nil {
		return fmt.Errorf("%s: %w", op, ErrUnknownRequest)
	}

	if rec.Status != model.DrawStatusRandomnessRequested {
		return fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	if !rec.SeedSet {
		rec.RandomSeed = value
		rec.SeedSet = true

		metrics.DrawsProcessed.Inc()

		log.Info("randomness recorded", sl.Uint64("value", value))

		c.emit(model.EventRandomnessFulfilled, drawID, "", requestID, map[string]interface{}{
			"value": value,
		})
	}

	// modulo over the oracle's output space; the slight bias for counts
	// that do not divide the range evenly is accepted
	winnerIndex := int64(value % uint64(rec.PlayerCount))

	winner, err := c.registry.PlayerByIndex(drawID, winnerIndex)
	if err != nil {
		log.Error("failed to resolve winner address", sl.Err(err))

		return fmt.Errorf("%s: %w", op, ErrInvalidWinner)
	}

	if winner == "" {
		log.Error("registry resolved an empty winner address", sl.Int64("winner_index", winnerIndex))

		return fmt.Errorf("%s: %w", op, ErrInvalidWinner)
	}

	now := time.Now()
	rec.WinnerIndex = winnerIndex
	rec.WinnerAddress = winner
	rec.Status = model.DrawStatusWinnerSelected
	rec.WinnerSelectedAt = &now

	log.Info("winner selected",
		sl.String("winner", winner),
		sl.Int64("winner_index", winnerIndex))

	c.emit(model.EventWinnerSelected, drawID, winner, requestID, map[string]interface{}{
		"winner_index": winnerIndex,
	})

	if err = c.deliver(rec); err != nil {
		log.Error("failed to deliver winner", sl.Err(err))

		job.Dispatch(&redeliverWinnerJob{draws: c, drawID: drawID, attempt: 1}, c.retryDelay)
	}

	return nil
}

// deliver hands the winner to the Prize Coordinator. Caller holds the draw
// lock; the record stays in winner_selected if the call fails so delivery
// can be re-driven from the recorded winner.
func (c *Coordinator) deliver(rec *model.DrawRecord) error {
	if err := c.winners.ReceiveWinner(c.keys.SelfKey, rec.DrawID, rec.WinnerAddress); err != nil {
		return err
	}

	now := time.Now()
	rec.Status = model.DrawStatusWinnerDelivered
	rec.WinnerDeliveredAt = &now

	c.emit(model.EventWinnerDelivered, rec.DrawID, rec.WinnerAddress, rec.RequestID, nil)

	return nil
}

// ConfirmPayout is called by the Prize Coordinator after a verified claim.
// It makes the draw purge-eligible and schedules the open purge valve.
func (c *Coordinator) ConfirmPayout(caller string, drawID string) error {
	const op = "draw.Coordinator.ConfirmPayout"

	if caller != c.keys.PrizeKey {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	if rec.Status != model.DrawStatusWinnerDelivered {
		return fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	now := time.Now()
	rec.Status = model.DrawStatusPayoutConfirmed
	rec.PayoutConfirmedAt = &now

	c.queueMu.Lock()
	c.purgeQueue = append(c.purgeQueue, drawID)
	c.queueMu.Unlock()

	c.log.Info("payout confirmed",
		slog.String("op", op),
		slog.String("draw_id", drawID))

	c.emit(model.EventPayoutConfirmed, drawID, rec.WinnerAddress, rec.RequestID, nil)
	c.emit(model.EventPurgeQueued, drawID, "", "", nil)

	job.Dispatch(&openPurgeJob{draws: c, drawID: drawID}, c.purgeDelay)

	return nil
}

// Winner returns the recorded winner address for reconciliation callers.
// Record fields are only stable under the draw lock, so reads take it too.
func (c *Coordinator) Winner(drawID string) (string, error) {
	const op = "draw.Coordinator.Winner"

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	if rec.WinnerAddress == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	return rec.WinnerAddress, nil
}

// Record returns a copy of the draw record for inspection.
func (c *Coordinator) Record(drawID string) (model.DrawRecord, error) {
	const op = "draw.Coordinator.Record"

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil {
		return model.DrawRecord{}, fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	return *rec, nil
}

func (c *Coordinator) record(drawID string) *model.DrawRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.records[drawID]
}

func (c *Coordinator) emit(name string, drawID string, address string, requestID string, data map[string]interface{}) {
	now := time.Now()

	if err := c.audit.SaveEvent(model.AuditEvent{
		DrawID:    drawID,
		Event:     name,
		Address:   address,
		RequestID: requestID,
		CreatedAt: now,
	}); err != nil {
		c.log.Error("failed to save audit event", sl.String("event", name), sl.Err(err))
	}

	if data == nil {
		data = make(map[string]interface{})
	}

	data["draw_id"] = drawID
	data["timestamp"] = now.Format(time.RFC3339)
	if address != "" {
		data["address"] = address
	}

	msg := event.Message{
		Channel: "draws",
		Event:   name,
		Data:    data,
	}

	// hub pushes ride the worker pool so a slow hub write never sits inside
	// the draw lock; with no pool running the push happens inline
	if job.Queue != nil {
		job.Dispatch(&job.SendEventJob{EventMessage: msg, Event: c.events}, 0)

		return
	}

	if err := c.events.TriggerEvent(msg); err != nil {
		c.log.Error("failed to push event", sl.String("event", name), sl.Err(err))
	}
}
