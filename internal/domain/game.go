package domain

import "time"

// статус игры в базе и в комнате
type GameStatus string

const (
	GameStatusPending  GameStatus = "PENDING"
	GameStatusPlaying  GameStatus = "PLAYING"
	GameStatusFinished GameStatus = "FINISHED"
)

// порядок статусов, назад переходить нельзя
func (s GameStatus) rank() int {
	switch s {
	case GameStatusPending:
		return 0
	case GameStatusPlaying:
		return 1
	case GameStatusFinished:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo сообщает, допустим ли переход из s в next
func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	return s.rank() >= 0 && next.rank() > s.rank()
}

// запись игры, созданная внешним API (лобби, ставка, контракт)
type Game struct {
	ID             string     `db:"id" json:"id"`
	Status         GameStatus `db:"status" json:"status"`
	ContractGameID *int64     `db:"contract_game_id" json:"contractGameId,omitempty"`
	BetAmount      int64      `db:"bet_amount" json:"betAmount"`
	TotalFunds     int64      `db:"total_funds" json:"totalFunds"`
	ConversationID string     `db:"conversation_id" json:"conversationId,omitempty"`
	WinnerID       *int64     `db:"winner_id" json:"winnerId,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// IsPaid - игра со ставкой
func (g *Game) IsPaid() bool {
	return g.BetAmount > 0
}

// частичное обновление записи игры, nil поля не трогаем
type GameUpdate struct {
	Status     *GameStatus
	TotalFunds *int64
}
