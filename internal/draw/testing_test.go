package draw

import (
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/exp/slog"

	"go-jackpot/internal/clients/registry"
	"go-jackpot/internal/http-server/handlers/event"
	"go-jackpot/internal/model"
)

const (
	testPrizeKey    = "prize-key"
	testOracleKey   = "oracle-key"
	testOperatorKey = "operator-key"
	testDrawKey     = "draw-key"
)

type fakeRegistry struct {
	mu        sync.Mutex
	info      map[string]registry.DrawInfo
	players   map[string]map[int64]string
	infoErr   error
	playerErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		info:    make(map[string]registry.DrawInfo),
		players: make(map[string]map[int64]string),
	}
}

func (f *fakeRegistry) DrawInfo(drawID string) (*registry.DrawInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.infoErr != nil {
		return nil, f.infoErr
	}

	info, ok := f.info[drawID]
	if !ok {
		return nil, errors.New("draw not found")
	}

	return &info, nil
}

func (f *fakeRegistry) PlayerByIndex(drawID string, index int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.playerErr != nil {
		return "", f.playerErr
	}

	return f.players[drawID][index], nil
}

type fakeOracle struct {
	mu       sync.Mutex
	requests []string
	err      error
}

func (f *fakeOracle) RequestRandomness(requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.requests = append(f.requests, requestID)

	return nil
}

func (f *fakeOracle) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

func (f *fakeOracle) lastRequest() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.requests) == 0 {
		return ""
	}

	return f.requests[len(f.requests)-1]
}

type fakeSink struct {
	mu        sync.Mutex
	delivered map[string]string
	err       error
}

func newFakeSink() *fakeSink {
	return &fakeSink{delivered: make(map[string]string)}
}

func (f *fakeSink) ReceiveWinner(caller string, drawID string, winner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != testDrawKey {
		return errors.New("unexpected caller")
	}

	if f.err != nil {
		return f.err
	}

	f.delivered[drawID] = winner

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

func (f *fakeEvents) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		names = append(names, m.Event)
	}

	return names
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
	coord    *Coordinator
	registry *fakeRegistry
	oracle   *fakeOracle
	sink     *fakeSink
	events   *fakeEvents
	audit    *fakeAudit
}

func newTestEnv(t *testing.T, purgeDelay time.Duration) *testEnv {
	t.Helper()

	env := &testEnv{
		registry: newFakeRegistry(),
		oracle:   &fakeOracle{},
		sink:     newFakeSink(),
		events:   &fakeEvents{},
		audit:    &fakeAudit{},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env.coord = New(
		log,
		Keys{
			PrizeKey:    testPrizeKey,
			OracleKey:   testOracleKey,
			OperatorKey: testOperatorKey,
			SelfKey:     testDrawKey,
		},
		env.registry,
		env.oracle,
		env.events,
		env.audit,
		purgeDelay)

	env.coord.SetWinnerSink(env.sink)

	return env
}

func (env *testEnv) addDraw(drawID string, playerCount int64, finalized bool) {
	env.registry.mu.Lock()
	defer env.registry.mu.Unlock()

	env.registry.info[drawID] = registry.DrawInfo{PlayerCount: playerCount, Finalized: finalized}

	players := make(map[int64]string, playerCount)
	for i := int64(0); i < playerCount; i++ {
		players[i] = "player-" + drawID + "-" + strconv.FormatInt(i, 10)
	}
	env.registry.players[drawID] = players
}

// selectAndDeliver drives a draw through selection and the oracle callback.
func (env *testEnv) selectAndDeliver(t *testing.T, drawID string, value uint64) {
	t.Helper()

	if err := env.coord.RequestSelection(testPrizeKey, drawID); err != nil {
		t.Fatalf("RequestSelection failed: %v", err)
	}

	if err := env.coord.OnRandomnessDelivered(testOracleKey, env.oracle.lastRequest(), value); err != nil {
		t.Fatalf("OnRandomnessDelivered failed: %v", err)
	}
}
