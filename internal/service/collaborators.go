package service

import (
	"context"
	"time"

	"squabble_server/internal/domain"
)

// запись игры в основной базе
type GameStore interface {
	GetByID(ctx context.Context, id string) (*domain.Game, error)
	Update(ctx context.Context, id string, upd domain.GameUpdate) error
	SetWinner(ctx context.Context, id string, playerID int64) error
}

// журнал участников
type ParticipantLedger interface {
	Upsert(ctx context.Context, p *domain.GameParticipant) error
	Get(ctx context.Context, playerID int64, gameID string) (*domain.GameParticipant, error)
	ListByGame(ctx context.Context, gameID string) ([]*domain.GameParticipant, error)
	UpdatePoints(ctx context.Context, playerID int64, gameID string, points int) error
}

// долговременный уровень кэша комнат
type SessionCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) ([]string, error)
}

// контракт игры в сети
type ChainSettler interface {
	StartGame(ctx context.Context, contractGameID int64) error
	SetGameResult(ctx context.Context, contractGameID int64, isDraw bool, winners []string) error
	JoinGame(ctx context.Context, contractGameID int64, address string) error
}

// проверка оплаты ставки по хешу транзакции
type StakeVerifier interface {
	VerifyStake(ctx context.Context, paymentHash, payerAddress string, amount int64) error
}

// сообщения в чат игры
type Notifier interface {
	SendMessage(ctx context.Context, conversationID, text string) error
}

// доставка событий клиентам
type Broadcaster interface {
	Subscribe(connID, gameID string)
	Unsubscribe(connID, gameID string)
	DropRoom(gameID string)
	BroadcastToRoom(gameID, event string, payload any)
	SendTo(connID, event string, payload any)
}

// журнал аудита
type Auditor interface {
	Log(ctx context.Context, playerID int64, gameID, action, category string, details map[string]any)
	LogGameEnd(ctx context.Context, result *domain.GameResult)
	LogStake(ctx context.Context, playerID int64, gameID, action, paymentHash string)
}

// заглушки для запуска без внешних систем

type NoopSettler struct{}

func (NoopSettler) StartGame(context.Context, int64) error                     { return nil }
func (NoopSettler) SetGameResult(context.Context, int64, bool, []string) error { return nil }
func (NoopSettler) JoinGame(context.Context, int64, string) error              { return nil }

type NoopNotifier struct{}

func (NoopNotifier) SendMessage(context.Context, string, string) error { return nil }

type NoopAuditor struct{}

func (NoopAuditor) Log(context.Context, int64, string, string, string, map[string]any) {}
func (NoopAuditor) LogGameEnd(context.Context, *domain.GameResult)                     {}
func (NoopAuditor) LogStake(context.Context, int64, string, string, string)            {}
