package game

import (
	"errors"
	"fmt"
	"sync"

	"squabble_server/internal/domain"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotPending        = errors.New("game already started")
	ErrNotPlaying        = errors.New("game is not in progress")
	ErrNotEnoughReady    = errors.New("not enough ready players")
	ErrAlreadyStarting   = errors.New("game is already starting")
	ErrCellTaken         = errors.New("cell is taken")
	ErrBadSnapshot       = errors.New("malformed session snapshot")
)

type pendingTile struct {
	PlayerID int64
	Letter   string
}

// Session - состояние одной комнаты.
// Все методы кроме Lock/Unlock ожидают, что вызывающий держит блокировку.
type Session struct {
	mu sync.Mutex

	ID             string
	Status         domain.GameStatus
	Board          Board
	Roster         *Roster
	TimeRemaining  int
	ContractGameID int64
	ConversationID string
	BetAmount      int64

	starting bool
	pending  map[domain.Position]pendingTile
	clock    *Countdown
}

// NewSession - пустая комната с полным временем раунда
func NewSession(g *domain.Game, durationSec int) *Session {
	s := &Session{
		ID:             g.ID,
		Status:         domain.GameStatusPending,
		Roster:         NewRoster(),
		TimeRemaining:  durationSec,
		ConversationID: g.ConversationID,
		BetAmount:      g.BetAmount,
		pending:        make(map[domain.Position]pendingTile),
		clock:          NewCountdown(),
	}
	if g.ContractGameID != nil {
		s.ContractGameID = *g.ContractGameID
	}
	return s
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) Clock() *Countdown {
	return s.clock
}

func (s *Session) IsPaid() bool {
	return s.BetAmount > 0
}

// Transition - только вперед
func (s *Session) Transition(next domain.GameStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, next)
	}
	s.Status = next
	return nil
}

// CanStart проверяет условия старта без изменений
func (s *Session) CanStart() error {
	if s.Status != domain.GameStatusPending {
		return ErrNotPending
	}
	if s.starting {
		return ErrAlreadyStarting
	}
	if s.Roster.CountReady() < MinReadyPlayers {
		return ErrNotEnoughReady
	}
	return nil
}

// BeginStart резервирует старт, пока идут внешние вызовы
func (s *Session) BeginStart() error {
	if err := s.CanStart(); err != nil {
		return err
	}
	s.starting = true
	return nil
}

// AbortStart снимает резерв после неудачного внешнего вызова
func (s *Session) AbortStart() {
	s.starting = false
}

// Starting - старт зарезервирован, состав менять нельзя
func (s *Session) Starting() bool {
	return s.starting
}

// Begin переводит комнату в PLAYING: засевает поле и раздает руки.
// Условие старта проверяется повторно, резерв снимается в любом случае.
func (s *Session) Begin(seedWord string, bag *LetterBag) error {
	s.starting = false
	if s.Roster.CountReady() < MinReadyPlayers {
		return ErrNotEnoughReady
	}
	if err := s.Transition(domain.GameStatusPlaying); err != nil {
		return err
	}
	s.Board.Seed(seedWord)
	s.pending = make(map[domain.Position]pendingTile)
	for _, id := range s.Roster.IDs() {
		_ = s.Roster.SetRack(id, bag.Rack())
	}
	return nil
}

// Tick уменьшает остаток, не уходит ниже нуля
func (s *Session) Tick(left int) {
	if left < 0 {
		left = 0
	}
	s.TimeRemaining = left
}

// Finish - FINISHED, повторный вызов возвращает false
func (s *Session) Finish() bool {
	if s.Status == domain.GameStatusFinished {
		return false
	}
	s.Status = domain.GameStatusFinished
	s.clock.Stop()
	return true
}

// PlaceTile ставит временную букву на пустую клетку
func (s *Session) PlaceTile(playerID int64, pos domain.Position, letter string) error {
	if s.Status != domain.GameStatusPlaying {
		return ErrNotPlaying
	}
	if _, ok := s.Roster.Get(playerID); !ok {
		return ErrPlayerNotFound
	}
	if !s.Board.InBounds(pos) {
		return fmt.Errorf("%w: (%d,%d) out of bounds", ErrInvalidPlacement, pos.X, pos.Y)
	}
	if !s.Board.IsEmpty(pos) {
		return ErrCellTaken
	}
	if t, ok := s.pending[pos]; ok && t.PlayerID != playerID {
		return ErrCellTaken
	}
	s.pending[pos] = pendingTile{PlayerID: playerID, Letter: letter}
	return nil
}

// RemoveTile снимает свою временную букву, false если снимать нечего
func (s *Session) RemoveTile(playerID int64, pos domain.Position) bool {
	t, ok := s.pending[pos]
	if !ok || t.PlayerID != playerID {
		return false
	}
	delete(s.pending, pos)
	return true
}

// PendingCount - сколько временных букв у игрока
func (s *Session) PendingCount(playerID int64) int {
	n := 0
	for _, t := range s.pending {
		if t.PlayerID == playerID {
			n++
		}
	}
	return n
}

// SubmitWord проверяет и фиксирует ход, начисляет очки
func (s *Session) SubmitWord(dict Dictionary, playerID int64, pl Placement) (*PlacementResult, int, error) {
	if s.Status != domain.GameStatusPlaying {
		return nil, 0, ErrNotPlaying
	}
	if _, ok := s.Roster.Get(playerID); !ok {
		return nil, 0, ErrPlayerNotFound
	}

	res, err := s.Board.Place(dict, pl)
	if err != nil {
		return nil, 0, err
	}

	for _, p := range pl.Path {
		if t, ok := s.pending[p]; ok && t.PlayerID == playerID {
			delete(s.pending, p)
		}
	}
	total, err := s.Roster.AddScore(playerID, res.Score)
	if err != nil {
		return nil, 0, err
	}
	return res, total, nil
}

// RefreshRack выдает игроку новую руку, остальные не трогаем
func (s *Session) RefreshRack(playerID int64, bag *LetterBag) error {
	if s.Status != domain.GameStatusPlaying {
		return ErrNotPlaying
	}
	return s.Roster.SetRack(playerID, bag.Rack())
}

// RefundStake снимает ставку игрока; во время старта состав заморожен
func (s *Session) RefundStake(playerID int64) (*domain.Player, error) {
	if s.Status != domain.GameStatusPending {
		return nil, ErrNotPending
	}
	if s.starting {
		return nil, ErrAlreadyStarting
	}
	return s.Roster.RefundStake(playerID)
}

// RemovePlayer убирает игрока и его временные буквы
func (s *Session) RemovePlayer(playerID int64) (*domain.Player, bool) {
	p, ok := s.Roster.Remove(playerID)
	if !ok {
		return nil, false
	}
	for pos, t := range s.pending {
		if t.PlayerID == playerID {
			delete(s.pending, pos)
		}
	}
	return p, true
}

// PlayerEntry - элемент упорядоченного списка игроков в кэше
type PlayerEntry struct {
	ID     int64          `json:"id"`
	Player *domain.Player `json:"player"`
}

// Snapshot - то, что сохраняется в кэш
type Snapshot struct {
	ID             string            `json:"id"`
	Status         domain.GameStatus `json:"status"`
	Board          [][]string        `json:"board"`
	Players        []PlayerEntry     `json:"players"`
	TimeRemaining  int               `json:"timeRemaining"`
	ContractGameID int64             `json:"contractGameId"`
	ConversationID string            `json:"conversationId"`
	BetAmount      int64             `json:"betAmount"`
}

func (s *Session) Snapshot() *Snapshot {
	players := s.Roster.Players()
	entries := make([]PlayerEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, PlayerEntry{ID: p.ID, Player: p})
	}
	return &Snapshot{
		ID:             s.ID,
		Status:         s.Status,
		Board:          s.Board.Rows(),
		Players:        entries,
		TimeRemaining:  s.TimeRemaining,
		ContractGameID: s.ContractGameID,
		ConversationID: s.ConversationID,
		BetAmount:      s.BetAmount,
	}
}

// SessionFromSnapshot проверяет обязательные поля, отсчет создается неактивным
func SessionFromSnapshot(snap *Snapshot) (*Session, error) {
	if snap == nil || snap.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrBadSnapshot)
	}
	switch snap.Status {
	case domain.GameStatusPending, domain.GameStatusPlaying, domain.GameStatusFinished:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadSnapshot, snap.Status)
	}
	board, err := BoardFromRows(snap.Board)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	roster := NewRoster()
	for i, e := range snap.Players {
		if e.Player == nil || e.ID == 0 || e.Player.ID != e.ID {
			return nil, fmt.Errorf("%w: bad player entry %d", ErrBadSnapshot, i)
		}
		if _, dup := roster.Get(e.ID); dup {
			return nil, fmt.Errorf("%w: duplicate player %d", ErrBadSnapshot, e.ID)
		}
		roster.restore(e.Player)
	}
	if roster.Len() > MaxPlayers {
		return nil, fmt.Errorf("%w: %d players", ErrBadSnapshot, roster.Len())
	}

	remaining := snap.TimeRemaining
	if remaining < 0 {
		remaining = 0
	}
	return &Session{
		ID:             snap.ID,
		Status:         snap.Status,
		Board:          board,
		Roster:         roster,
		TimeRemaining:  remaining,
		ContractGameID: snap.ContractGameID,
		ConversationID: snap.ConversationID,
		BetAmount:      snap.BetAmount,
		pending:        make(map[domain.Position]pendingTile),
		clock:          NewCountdown(),
	}, nil
}
