package prize

import (
	"io"
	"sync"
	"testing"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/http-server/handlers/event"
	"go-jackpot/internal/model"
)

const (
	testLedgerKey   = "ledger-key"
	testDrawKey     = "draw-key"
	testOperatorKey = "operator-key"
	testPrizeKey    = "prize-key"

	testPrizeAmount = int64(250000)
)

type fakeDraws struct {
	mu           sync.Mutex
	selections   []string
	payouts      []string
	purges       []string
	lastCaller   string
	selectionErr error
	payoutErr    error
	purgeErr     error
}

func newFakeDraws() *fakeDraws {
	return &fakeDraws{}
}

func (f *fakeDraws) RequestSelection(caller string, drawID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastCaller = caller

	if f.selectionErr != nil {
		return f.selectionErr
	}

	f.selections = append(f.selections, drawID)

	return nil
}

func (f *fakeDraws) ConfirmPayout(caller string, drawID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.payoutErr != nil {
		return f.payoutErr
	}

	f.payouts = append(f.payouts, drawID)

	return nil
}

func (f *fakeDraws) ConfirmPurge(caller string, drawID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.purgeErr != nil {
		return f.purgeErr
	}

	f.purges = append(f.purges, drawID)

	return nil
}

func (f *fakeDraws) selectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.selections)
}

// fakeVault debits the balance on transfer so the delta validation in Claim
// sees what a real ledger would show. noDebit simulates a transfer the ledger
// acknowledged but never applied.
type fakeVault struct {
	mu          sync.Mutex
	balance     int64
	transfers   map[string]int64
	transferErr error
	balanceErr  error
	noDebit     bool
}

func newFakeVault(balance int64) *fakeVault {
	return &fakeVault{balance: balance, transfers: make(map[string]int64)}
}

func (f *fakeVault) Balance() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.balanceErr != nil {
		return 0, f.balanceErr
	}

	return f.balance, nil
}

func (f *fakeVault) Transfer(to string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.transferErr != nil {
		return f.transferErr
	}

	if !f.noDebit {
		f.balance -= amount
	}

	f.transfers[to] += amount

	return nil
}

func (f *fakeVault) transferredTo(to string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.transfers[to]
}

type fakePeer struct {
	mu     sync.Mutex
	purged []string
	err    error
}

func (f *fakePeer) PurgeDraw(drawID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.purged = append(f.purged, drawID)

	return nil
}

type fakeEvents struct {
	mu       sync.Mutex
	messages []event.Message
}

func (f *fakeEvents) TriggerEvent(m event.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, m)

	return nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []model.AuditEvent
}

func (f *fakeAudit) SaveEvent(ev model.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, ev)

	return nil
}

type testEnv struct {
	coord  *Coordinator
	draws  *fakeDraws
	vault  *fakeVault
	peer   *fakePeer
	events *fakeEvents
	audit  *fakeAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		draws:  newFakeDraws(),
		vault:  newFakeVault(10 * testPrizeAmount),
		peer:   &fakePeer{},
		events: &fakeEvents{},
		audit:  &fakeAudit{},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env.coord = New(
		log,
		Keys{
			LedgerKey:   testLedgerKey,
			DrawKey:     testDrawKey,
			OperatorKey: testOperatorKey,
			SelfKey:     testPrizeKey,
		},
		env.draws,
		env.vault,
		[]PurgePeer{env.peer},
		env.events,
		env.audit,
		testPrizeAmount)

	return env
}

// fundAndSelect sets up a claimable record for the given winner.
func (env *testEnv) fundAndSelect(t *testing.T, drawID string, winner string) {
	t.Helper()

	if err := env.coord.ReceiveFunds(testLedgerKey, drawID, testPrizeAmount); err != nil {
		t.Fatalf("ReceiveFunds failed: %v", err)
	}

	if err := env.coord.ReceiveWinner(testDrawKey, drawID, winner); err != nil {
		t.Fatalf("ReceiveWinner failed: %v", err)
	}
}
