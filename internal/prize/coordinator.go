package prize

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/http-server/handlers/event"
	"go-jackpot/internal/http-server/handlers/job"
	"go-jackpot/internal/lib/keylock"
	"go-jackpot/internal/lib/logger/sl"
	"go-jackpot/internal/model"
)

var (
	ErrUnauthorized             = errors.New("unauthorized caller")
	ErrInvalidDrawID            = errors.New("invalid draw id")
	ErrRecordExists             = errors.New("prize record already exists")
	ErrInvalidAmount            = errors.New("amount does not match the fixed prize")
	ErrPoolUnderfunded          = errors.New("pool balance below the deposited amount")
	ErrInvalidWinner            = errors.New("winner address is empty")
	ErrInvalidState             = errors.New("prize record is not in a valid state")
	ErrNotClaimable             = errors.New("prize is not claimable")
	ErrAlreadyClaimed           = errors.New("prize already claimed")
	ErrInsufficientFunds        = errors.New("pool balance below the prize amount")
	ErrTransferFailed           = errors.New("prize transfer failed")
	ErrTransferValidationFailed = errors.New("prize transfer could not be validated")
)

// DrawCoordinator is the peer that runs selection and draw-side cleanup.
type DrawCoordinator interface {
	RequestSelection(caller string, drawID string) error
	ConfirmPayout(caller string, drawID string) error
	ConfirmPurge(caller string, drawID string) error
}

// FundsVault custodies the prize pool. Claim validates payouts through a
// balance delta, so both reads and the transfer go through here.
//
//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=FundsVault
type FundsVault interface {
	Balance() (int64, error)
	Transfer(to string, amount int64) error
}

// PurgePeer receives the best-effort cleanup signal after a payout.
type PurgePeer interface {
	PurgeDraw(drawID string) error
}

type AuditLog interface {
	SaveEvent(ev model.AuditEvent) error
}

type Keys struct {
	LedgerKey   string
	DrawKey     string
	OperatorKey string
	SelfKey     string
}

// Coordinator owns the per-draw funds lifecycle: deposits in, one pull-style
// claim out, then advisory cleanup. Records are mutated only here, one
// operation per draw at a time.
type Coordinator struct {
	log    *slog.Logger
	keys   Keys
	draws  DrawCoordinator
	vault  FundsVault
	peers  []PurgePeer
	events event.Pusher
	audit  AuditLog

	locks *keylock.Keyed

	mu      sync.RWMutex
	records map[string]*model.PrizeRecord

	prizeAmount int64
	retryDelay  time.Duration
}

func New(
	log *slog.Logger,
	keys Keys,
	draws DrawCoordinator,
	vault FundsVault,
	peers []PurgePeer,
	events event.Pusher,
	audit AuditLog,
	prizeAmount int64) *Coordinator {
	return &Coordinator{
		log:         log,
		keys:        keys,
		draws:       draws,
		vault:       vault,
		peers:       peers,
		events:      events,
		audit:       audit,
		locks:       keylock.New(),
		records:     make(map[string]*model.PrizeRecord),
		prizeAmount: prizeAmount,
		retryDelay:  30 * time.Second,
	}
}

// ReceiveFunds opens the prize record for a draw and kicks off selection.
// Deposits must match the fixed prize amount exactly; funds are never
// returned automatically.
func (c *Coordinator) ReceiveFunds(caller string, drawID string, amount int64) error {
	const op = "prize.Coordinator.ReceiveFunds"

	if caller != c.keys.LedgerKey {
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

	if c.record(drawID) != nil {
		return fmt.Errorf("%s: %w", op, ErrRecordExists)
	}

	if amount != c.prizeAmount {
		return fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}

	balance, err := c.vault.Balance()
	if err != nil {
		log.Error("failed to verify pool balance", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if balance < amount {
		return fmt.Errorf("%s: %w", op, ErrPoolUnderfunded)
	}

	rec := &model.PrizeRecord{
		DrawID:    drawID,
		Amount:    amount,
		Status:    model.PrizeStatusFundsReceived,
		CreatedAt: time.Now(),
	}

	c.mu.Lock()
	c.records[drawID] = rec
	c.mu.Unlock()

	log.Info("funds received", sl.Int64("amount", amount))

	// selection failure is caught, not propagated: the deposit stands and
	// a background job re-drives the selection call
	if err = c.draws.RequestSelection(c.keys.SelfKey, drawID); err != nil {
		log.Error("failed to initiate selection", sl.Err(err))

		job.Dispatch(&retrySelectionJob{prizes: c, drawID: drawID, attempt: 1}, c.retryDelay)
	}

	now := time.Now()
	rec.Status = model.PrizeStatusSelectionInitiated
	rec.SelectionInitiatedAt = &now

	return nil
}

// ReceiveWinner marks the draw claimable for the delivered winner. No funds
// move here; re-delivery of the same winner is a no-op so the draw side can
// safely retry.
func (c *Coordinator) ReceiveWinner(caller string, drawID string, winner string) error {
	const op = "prize.Coordinator.ReceiveWinner"

	if caller != c.keys.DrawKey {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if winner == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidWinner)
	}

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	if rec.Status == model.PrizeStatusWinnerSelected && rec.WinnerAddress == winner {
		return nil
	}

	if rec.Status != model.PrizeStatusFundsReceived && rec.Status != model.PrizeStatusSelectionInitiated {
		return fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	now := time.Now()
	rec.WinnerAddress = winner
	rec.Claimable = true
	rec.Status = model.PrizeStatusWinnerSelected
	rec.WinnerSelectedAt = &now

	c.log.Info("winner recorded",
		slog.String("op", op),
		slog.String("draw_id", drawID),
		slog.String("winner", winner))

	return nil
}

// ResetClaimable re-asserts claimability on a stuck record. It cannot touch
// the winner or the claimed flag, so it can never re-arm a paid prize.
func (c *Coordinator) ResetClaimable(caller string, drawID string) error {
	const op = "prize.Coordinator.ResetClaimable"

	if caller != c.keys.OperatorKey {
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	if rec.Claimed {
		return fmt.Errorf("%s: %w", op, ErrAlreadyClaimed)
	}

	if rec.Status != model.PrizeStatusWinnerSelected || rec.WinnerAddress == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidState)
	}

	rec.Claimable = true

	c.log.Info("claimable flag re-asserted",
		slog.String("op", op),
		slog.String("draw_id", drawID))

	return nil
}

// Record returns a copy of the prize record for inspection. Record fields
// are only stable under the draw lock, so reads take it too.
func (c *Coordinator) Record(drawID string) (model.PrizeRecord, error) {
	const op = "prize.Coordinator.Record"

	unlock := c.locks.Lock(drawID)
	defer unlock()

	rec := c.record(drawID)
	if rec == nil {
		return model.PrizeRecord{}, fmt.Errorf("%s: %w", op, ErrInvalidDrawID)
	}

	return *rec, nil
}

func (c *Coordinator) record(drawID string) *model.PrizeRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.records[drawID]
}

func (c *Coordinator) emit(name string, drawID string, address string, amount int64, data map[string]interface{}) {
	now := time.Now()

	if err := c.audit.SaveEvent(model.AuditEvent{
		DrawID:    drawID,
		Event:     name,
		Address:   address,
		Amount:    amount,
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
