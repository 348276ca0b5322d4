package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"squabble_server/internal/cache"
	"squabble_server/internal/domain"
	"squabble_server/internal/game"
)

type fakeGames struct {
	mu      sync.Mutex
	games   map[string]*domain.Game
	updates []domain.GameUpdate
	winner  map[string]int64
	gets    int
}

func newFakeGames(games ...*domain.Game) *fakeGames {
	f := &fakeGames{games: make(map[string]*domain.Game), winner: make(map[string]int64)}
	for _, g := range games {
		f.games[g.ID] = g
	}
	return f
}

func (f *fakeGames) GetByID(_ context.Context, id string) (*domain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	g, ok := f.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (f *fakeGames) Update(_ context.Context, id string, upd domain.GameUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	if g, ok := f.games[id]; ok {
		if upd.Status != nil {
			g.Status = *upd.Status
		}
		if upd.TotalFunds != nil {
			g.TotalFunds = *upd.TotalFunds
		}
	}
	return nil
}

func (f *fakeGames) SetWinner(_ context.Context, id string, playerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.winner[id] = playerID
	return nil
}

func (f *fakeGames) status(id string) domain.GameStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.games[id].Status
}

type ledgerKey struct {
	player int64
	game   string
}

type fakeLedger struct {
	mu   sync.Mutex
	rows map[ledgerKey]*domain.GameParticipant
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[ledgerKey]*domain.GameParticipant)}
}

func (f *fakeLedger) Upsert(_ context.Context, p *domain.GameParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ledgerKey{p.PlayerID, p.GameID}
	points := 0
	if old, ok := f.rows[k]; ok {
		points = old.Points
	}
	cp := *p
	cp.Points = points
	f.rows[k] = &cp
	return nil
}

func (f *fakeLedger) Get(_ context.Context, playerID int64, gameID string) (*domain.GameParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[ledgerKey{playerID, gameID}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeLedger) ListByGame(_ context.Context, gameID string) ([]*domain.GameParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.GameParticipant
	for k, p := range f.rows {
		if k.game == gameID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLedger) UpdatePoints(_ context.Context, playerID int64, gameID string, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := ledgerKey{playerID, gameID}
	p, ok := f.rows[k]
	if !ok {
		p = &domain.GameParticipant{PlayerID: playerID, GameID: gameID, Joined: true}
		f.rows[k] = p
	}
	if points > p.Points {
		p.Points = points
	}
	return nil
}

type chainResult struct {
	ref     int64
	isDraw  bool
	winners []string
}

type fakeChain struct {
	mu       sync.Mutex
	startErr error
	starts   []int64
	joins    []string
	results  []chainResult

	// если заданы, StartGame сообщает о входе и ждет release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeChain) StartGame(_ context.Context, ref int64) error {
	f.mu.Lock()
	f.starts = append(f.starts, ref)
	err := f.startErr
	entered, release := f.entered, f.release
	f.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}
	return err
}

func (f *fakeChain) SetGameResult(_ context.Context, ref int64, isDraw bool, winners []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, chainResult{ref, isDraw, winners})
	return errors.New("contract unreachable")
}

func (f *fakeChain) JoinGame(_ context.Context, _ int64, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, address)
	return nil
}

func (f *fakeChain) snapshot() ([]int64, []chainResult, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.starts...), append([]chainResult(nil), f.results...), append([]string(nil), f.joins...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) SendMessage(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// словарь с предсказуемым стартовым словом
type fixedSeedDict struct {
	*game.WordList
	seed string
}

func (d fixedSeedDict) RandomWord(int, int) string {
	return d.seed
}

type fakeStakes struct {
	err error
}

func (f fakeStakes) VerifyStake(context.Context, string, string, int64) error {
	return f.err
}

type sentEvent struct {
	room    string
	conn    string
	event   string
	payload any
}

type recorder struct {
	mu     sync.Mutex
	events []sentEvent
	subs   map[string]map[string]bool
}

func newRecorder() *recorder {
	return &recorder{subs: make(map[string]map[string]bool)}
}

func (r *recorder) Subscribe(connID, gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[gameID] == nil {
		r.subs[gameID] = make(map[string]bool)
	}
	r.subs[gameID][connID] = true
}

func (r *recorder) Unsubscribe(connID, gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs[gameID], connID)
}

func (r *recorder) DropRoom(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, gameID)
}

func (r *recorder) BroadcastToRoom(gameID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{room: gameID, event: event, payload: payload})
}

func (r *recorder) SendTo(connID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{conn: connID, event: event, payload: payload})
}

// find - последнее событие с таким именем
func (r *recorder) find(event string) (sentEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].event == event {
			return r.events[i], true
		}
	}
	return sentEvent{}, false
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (r *recorder) waitFor(t *testing.T, event string) sentEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := r.find(event)
		return ok
	}, 2*time.Second, 2*time.Millisecond, "no %s event", event)
	e, _ := r.find(event)
	return e
}

type fixture struct {
	games    *fakeGames
	ledger   *fakeLedger
	chain    *fakeChain
	notifier *fakeNotifier
	cache    *cache.MemoryStore
	out      *recorder
	registry *RoomRegistry
	svc      *SessionService
}

type fixtureOpts struct {
	bet      int64
	duration int
	tick     time.Duration
	stakes   StakeVerifier
	store    *cache.MemoryStore
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	if opts.duration == 0 {
		opts.duration = 60
	}
	if opts.tick == 0 {
		opts.tick = time.Hour
	}
	if opts.store == nil {
		opts.store = cache.NewMemoryStore()
	}

	ref := int64(501)
	f := &fixture{
		games: newFakeGames(
			&domain.Game{ID: "g1", Status: domain.GameStatusPending, ContractGameID: &ref, BetAmount: opts.bet, ConversationID: "-1001"},
			&domain.Game{ID: "no-contract", Status: domain.GameStatusPending},
		),
		ledger:   newFakeLedger(),
		chain:    &fakeChain{},
		notifier: &fakeNotifier{},
		cache:    opts.store,
		out:      newRecorder(),
	}
	f.registry = NewRoomRegistry(f.games, f.cache, opts.duration, time.Hour)
	settlement := NewSettlementCoordinator(f.games, f.ledger, f.chain, f.notifier, NoopAuditor{}, time.Second)
	f.svc = NewSessionService(SessionDeps{
		Registry:   f.registry,
		Games:      f.games,
		Ledger:     f.ledger,
		Dictionary: fixedSeedDict{WordList: game.NewWordList([]string{"word", "words", "or", "so", "do"}), seed: "word"},
		Letters:    game.NewSeededLetterBag(3),
		Chain:      f.chain,
		Stakes:     opts.stakes,
		Out:        f.out,
		Settlement: settlement,
	}, SessionConfig{TickInterval: opts.tick, CallTimeout: time.Second})
	t.Cleanup(f.svc.Close)
	return f
}

func player(id int64) *domain.Player {
	return &domain.Player{ID: id, DisplayName: "player" + string(rune('0'+id)), Address: "EQaddr" + string(rune('0'+id))}
}

func (f *fixture) join(t *testing.T, id int64) {
	t.Helper()
	require.NoError(t, f.svc.ConnectToLobby(context.Background(), connOf(id), domain.LobbyRequest{Player: player(id), GameID: "g1"}))
}

func connOf(id int64) string {
	return "conn-" + string(rune('0'+id))
}
