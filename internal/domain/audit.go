package domain

import "time"

// запись аудита по важным событиям комнаты
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	PlayerID  int64                  `db:"player_id" json:"player_id"`
	GameID    string                 `db:"game_id" json:"game_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Категории
const (
	AuditCategoryLobby   = "lobby"
	AuditCategoryGame    = "game"
	AuditCategoryPayment = "payment"
)

const (
	// Лобби
	AuditActionJoin  = "join"
	AuditActionLeave = "leave"

	// Игра
	AuditActionGameStart   = "game_start"
	AuditActionGameEnd     = "game_end"
	AuditActionGameAborted = "game_aborted"

	// Ставки
	AuditActionStakeConfirmed = "stake_confirmed"
	AuditActionStakeRefunded  = "stake_refunded"
	AuditActionPayout         = "payout"
)
