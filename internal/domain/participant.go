package domain

import "time"

// участник игры - финансовые факты живут здесь, а не в кеше комнаты
type GameParticipant struct {
	PlayerID    int64     `db:"player_id" json:"playerId"`
	GameID      string    `db:"game_id" json:"gameId"`
	Joined      bool      `db:"joined" json:"joined"`
	Paid        bool      `db:"paid" json:"paid"`
	Winner      bool      `db:"winner" json:"winner"`
	PaymentHash string    `db:"payment_hash" json:"paymentHash,omitempty"`
	Address     string    `db:"address" json:"address,omitempty"`
	Points      int       `db:"points" json:"points"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
