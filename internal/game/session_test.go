package game

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squabble_server/internal/domain"
)

func newTestSession(t *testing.T, paid bool) *Session {
	t.Helper()
	ref := int64(77)
	g := &domain.Game{ID: "game-1", Status: domain.GameStatusPending, ContractGameID: &ref, ConversationID: "-100"}
	if paid {
		g.BetAmount = 1_000_000_000
	}
	return NewSession(g, 60)
}

func TestStartGate(t *testing.T) {
	s := newTestSession(t, false)
	_, _, _ = s.Roster.Join(newPlayer(1), nil, false)
	assert.ErrorIs(t, s.CanStart(), ErrNotEnoughReady)

	_, _, _ = s.Roster.Join(newPlayer(2), nil, false)
	require.NoError(t, s.BeginStart())
	assert.ErrorIs(t, s.BeginStart(), ErrAlreadyStarting)

	require.NoError(t, s.Begin("word", NewSeededLetterBag(1)))
	assert.Equal(t, domain.GameStatusPlaying, s.Status)
	assert.Equal(t, "W", s.Board[5][3])
	for _, p := range s.Roster.Players() {
		assert.Len(t, p.AvailableLetters, RackSize)
	}
	assert.ErrorIs(t, s.CanStart(), ErrNotPending)
}

func TestStartReservationFreezesStakes(t *testing.T) {
	s := newTestSession(t, true)
	_, _, _ = s.Roster.Join(newPlayer(1), nil, true)
	_, _, _ = s.Roster.Join(newPlayer(2), nil, true)
	_, _ = s.Roster.ConfirmStake(1, "h1", "")
	_, _ = s.Roster.ConfirmStake(2, "h2", "")

	require.NoError(t, s.BeginStart())
	assert.True(t, s.Starting())
	_, err := s.RefundStake(2)
	assert.ErrorIs(t, err, ErrAlreadyStarting)

	// готовых стало меньше двух - Begin не стартует и снимает резерв
	_, _ = s.Roster.RefundStake(2)
	assert.ErrorIs(t, s.Begin("word", NewSeededLetterBag(1)), ErrNotEnoughReady)
	assert.False(t, s.Starting())
	assert.Equal(t, domain.GameStatusPending, s.Status)

	p, err := s.RefundStake(1)
	require.NoError(t, err)
	assert.False(t, p.Ready)
}

func TestPaidStartNeedsStakes(t *testing.T) {
	s := newTestSession(t, true)
	_, _, _ = s.Roster.Join(newPlayer(1), nil, true)
	_, _, _ = s.Roster.Join(newPlayer(2), nil, true)
	assert.ErrorIs(t, s.CanStart(), ErrNotEnoughReady)

	_, _ = s.Roster.ConfirmStake(1, "h1", "")
	_, _ = s.Roster.ConfirmStake(2, "h2", "")
	assert.NoError(t, s.CanStart())
}

func TestStatusNeverRegresses(t *testing.T) {
	s := newTestSession(t, false)
	require.NoError(t, s.Transition(domain.GameStatusPlaying))
	assert.ErrorIs(t, s.Transition(domain.GameStatusPending), ErrInvalidTransition)
	assert.ErrorIs(t, s.Transition(domain.GameStatusPlaying), ErrInvalidTransition)

	assert.True(t, s.Finish())
	assert.False(t, s.Finish())
	assert.ErrorIs(t, s.Transition(domain.GameStatusPlaying), ErrInvalidTransition)
}

func TestSubmitWordScores(t *testing.T) {
	s := newTestSession(t, false)
	_, _, _ = s.Roster.Join(newPlayer(1), nil, false)
	_, _, _ = s.Roster.Join(newPlayer(2), nil, false)
	require.NoError(t, s.Begin("cat", NewSeededLetterBag(1)))

	require.NoError(t, s.PlaceTile(1, domain.Position{X: 6, Y: 5}, "S"))
	assert.ErrorIs(t, s.PlaceTile(2, domain.Position{X: 6, Y: 5}, "T"), ErrCellTaken)

	res, total, err := s.SubmitWord(testDict(), 1, Placement{
		Word:   "cats",
		Path:   row(5, 3, 4, 5, 6),
		Placed: []domain.PlacedLetter{{Letter: "S", X: 6, Y: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Score)
	assert.Equal(t, 6, total)
	assert.Zero(t, s.PendingCount(1))

	_, _, err = s.SubmitWord(testDict(), 9, Placement{Word: "cats", Path: row(5, 3, 4, 5, 6)})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRemoveTileIsIdempotent(t *testing.T) {
	s := newTestSession(t, false)
	_, _, _ = s.Roster.Join(newPlayer(1), nil, false)
	_, _, _ = s.Roster.Join(newPlayer(2), nil, false)
	require.NoError(t, s.Begin("cat", NewSeededLetterBag(1)))

	pos := domain.Position{X: 0, Y: 0}
	require.NoError(t, s.PlaceTile(1, pos, "A"))
	assert.False(t, s.RemoveTile(2, pos))
	assert.True(t, s.RemoveTile(1, pos))
	assert.False(t, s.RemoveTile(1, pos))

	assert.ErrorIs(t, s.PlaceTile(1, domain.Position{X: 3, Y: 5}, "Z"), ErrCellTaken)
}

func TestRefreshRackTouchesOnlyOnePlayer(t *testing.T) {
	s := newTestSession(t, false)
	_, _, _ = s.Roster.Join(newPlayer(1), nil, false)
	_, _, _ = s.Roster.Join(newPlayer(2), nil, false)
	require.NoError(t, s.Begin("cat", NewSeededLetterBag(1)))

	other, _ := s.Roster.Get(2)
	before := append([]domain.LetterTile(nil), other.AvailableLetters...)

	require.NoError(t, s.RefreshRack(1, NewSeededLetterBag(99)))
	other, _ = s.Roster.Get(2)
	assert.Equal(t, before, other.AvailableLetters)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestSession(t, true)
	_, _, _ = s.Roster.Join(newPlayer(1), nil, true)
	_, _ = s.Roster.ConfirmStake(1, "h", "EQa")
	s.Board.Seed("cat")
	s.TimeRemaining = 17

	back, err := SessionFromSnapshot(s.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, s.ID, back.ID)
	assert.Equal(t, s.Board, back.Board)
	assert.Equal(t, 17, back.TimeRemaining)
	assert.Equal(t, int64(77), back.ContractGameID)
	assert.False(t, back.Clock().Running())

	p, ok := back.Roster.Get(1)
	require.True(t, ok)
	assert.True(t, p.Staked)
}

func TestSnapshotValidation(t *testing.T) {
	good := func() *Snapshot {
		s := newTestSession(t, false)
		_, _, _ = s.Roster.Join(newPlayer(1), nil, false)
		return s.Snapshot()
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"missing id", func(s *Snapshot) { s.ID = "" }},
		{"short board", func(s *Snapshot) { s.Board = s.Board[:3] }},
		{"unknown status", func(s *Snapshot) { s.Status = "LOST" }},
		{"entry id mismatch", func(s *Snapshot) { s.Players[0].ID = 42 }},
		{"nil player", func(s *Snapshot) { s.Players[0].Player = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := good()
			tt.mutate(snap)
			_, err := SessionFromSnapshot(snap)
			assert.ErrorIs(t, err, ErrBadSnapshot)
		})
	}
}

func TestCountdownTicksAndExpiresOnce(t *testing.T) {
	c := NewCountdown()
	ticks := make(chan int, 10)
	var expired atomic.Int32
	done := make(chan struct{})

	c.Start(context.Background(), 3, time.Millisecond, func(left int) { ticks <- left }, func() {
		expired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	close(ticks)

	var got []int
	for v := range ticks {
		got = append(got, v)
	}
	assert.Equal(t, []int{2, 1, 0}, got)
	assert.Equal(t, int32(1), expired.Load())
	assert.False(t, c.Running())
	assert.False(t, c.Stop())
}

func TestCountdownRestartReplacesPrevious(t *testing.T) {
	c := NewCountdown()
	var firstTicks, expiries atomic.Int32
	done := make(chan struct{})

	c.Start(context.Background(), 1000, time.Millisecond, func(int) { firstTicks.Add(1) }, func() { expiries.Add(1) })
	c.Start(context.Background(), 2, time.Millisecond, func(int) {}, func() {
		expiries.Add(1)
		close(done)
	})
	afterRestart := firstTicks.Load()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, int32(1), expiries.Load())
	assert.LessOrEqual(t, firstTicks.Load(), afterRestart+1)
}

func TestCountdownStop(t *testing.T) {
	c := NewCountdown()
	var expiries atomic.Int32
	c.Start(context.Background(), 1000, time.Millisecond, func(int) {}, func() { expiries.Add(1) })

	assert.True(t, c.Running())
	assert.True(t, c.Stop())
	assert.False(t, c.Stop())
	assert.False(t, c.Running())
	assert.Zero(t, expiries.Load())
}

func TestCountdownZeroRemainingExpiresImmediately(t *testing.T) {
	c := NewCountdown()
	done := make(chan struct{})
	c.Start(context.Background(), 0, time.Hour, func(int) { t.Error("unexpected tick") }, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown did not expire")
	}
}
