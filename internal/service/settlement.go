package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"squabble_server/internal/domain"
	"squabble_server/internal/logger"
	"squabble_server/internal/metrics"
)

// RoomMeta - неизменяемые данные комнаты, нужные для расчета
type RoomMeta struct {
	GameID         string
	ContractGameID int64
	ConversationID string
	BetAmount      int64
}

// SettlementCoordinator записывает итог игры и передает его в контракт и в чат.
// Все внешние вызовы best effort: ошибки логируются и не откатывают итог.
type SettlementCoordinator struct {
	games    GameStore
	ledger   ParticipantLedger
	chain    ChainSettler
	notifier Notifier
	audit    Auditor
	timeout  time.Duration
	log      *slog.Logger
}

func NewSettlementCoordinator(games GameStore, ledger ParticipantLedger, chain ChainSettler, notifier Notifier, audit Auditor, timeout time.Duration) *SettlementCoordinator {
	return &SettlementCoordinator{
		games:    games,
		ledger:   ledger,
		chain:    chain,
		notifier: notifier,
		audit:    audit,
		timeout:  timeout,
		log:      logger.Component("settlement"),
	}
}

func (c *SettlementCoordinator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Settle сохраняет очки и победителей, закрывает запись игры, отправляет выплату и сообщение
func (c *SettlementCoordinator) Settle(ctx context.Context, meta RoomMeta, result *domain.GameResult) {
	log := c.log.With("game_id", meta.GameID)

	winners := make(map[int64]bool, len(result.Winners))
	for _, w := range result.Winners {
		winners[w.ID] = true
	}

	var staked int64
	for _, p := range result.Ranking {
		if p.Staked {
			staked++
		}
		c.call(ctx, log, "ledger", func(ctx context.Context) error {
			return c.ledger.UpdatePoints(ctx, p.ID, meta.GameID, p.Score)
		})
		if winners[p.ID] {
			c.call(ctx, log, "ledger", func(ctx context.Context) error {
				return c.ledger.Upsert(ctx, &domain.GameParticipant{
					PlayerID:    p.ID,
					GameID:      meta.GameID,
					Joined:      true,
					Paid:        p.Staked,
					Winner:      true,
					PaymentHash: p.PaymentHash,
					Address:     p.Address,
				})
			})
		}
	}

	finished := domain.GameStatusFinished
	total := meta.BetAmount * staked
	c.call(ctx, log, "game_store", func(ctx context.Context) error {
		return c.games.Update(ctx, meta.GameID, domain.GameUpdate{Status: &finished, TotalFunds: &total})
	})
	if !result.IsDraw && len(result.Winners) == 1 {
		c.call(ctx, log, "game_store", func(ctx context.Context) error {
			return c.games.SetWinner(ctx, meta.GameID, result.Winners[0].ID)
		})
	}

	addresses := result.WinnerAddresses()
	c.call(ctx, log, "chain", func(ctx context.Context) error {
		return c.chain.SetGameResult(ctx, meta.ContractGameID, result.IsDraw, addresses)
	})
	if meta.BetAmount > 0 {
		c.audit.Log(ctx, 0, meta.GameID, domain.AuditActionPayout, domain.AuditCategoryPayment, map[string]any{
			"winners":     addresses,
			"total_funds": total,
			"is_draw":     result.IsDraw,
		})
	}

	if meta.ConversationID != "" {
		text := ResultMessage(result)
		c.call(ctx, log, "notifier", func(ctx context.Context) error {
			return c.notifier.SendMessage(ctx, meta.ConversationID, text)
		})
	}

	c.audit.LogGameEnd(ctx, result)
	log.Info("game settled", "is_draw", result.IsDraw, "winners", len(result.Winners), "total_funds", total)
}

// Abandon закрывает запись игры без итогов, когда все вышли
func (c *SettlementCoordinator) Abandon(ctx context.Context, meta RoomMeta) {
	log := c.log.With("game_id", meta.GameID)
	finished := domain.GameStatusFinished
	c.call(ctx, log, "game_store", func(ctx context.Context) error {
		return c.games.Update(ctx, meta.GameID, domain.GameUpdate{Status: &finished})
	})
	c.audit.Log(ctx, 0, meta.GameID, domain.AuditActionGameAborted, domain.AuditCategoryGame, nil)
	log.Info("game abandoned")
}

// Notify - сообщение в чат игры, best effort
func (c *SettlementCoordinator) Notify(ctx context.Context, meta RoomMeta, text string) {
	if meta.ConversationID == "" {
		return
	}
	c.call(ctx, c.log.With("game_id", meta.GameID), "notifier", func(ctx context.Context) error {
		return c.notifier.SendMessage(ctx, meta.ConversationID, text)
	})
}

func (c *SettlementCoordinator) call(ctx context.Context, log *slog.Logger, collaborator string, fn func(context.Context) error) {
	callCtx, cancel := c.callCtx(ctx)
	defer cancel()
	if err := fn(callCtx); err != nil {
		metrics.Failure(collaborator)
		log.Error("collaborator call failed", "collaborator", collaborator, "error", err)
	}
}

// ResultMessage - текст итога для чата
func ResultMessage(result *domain.GameResult) string {
	if len(result.Winners) == 0 {
		return "Game over! Nobody scored."
	}
	names := make([]string, 0, len(result.Winners))
	for _, w := range result.Winners {
		names = append(names, w.Name())
	}
	score := result.Winners[0].Score
	if result.IsDraw {
		return fmt.Sprintf("Game over! It's a draw between %s with %d points each.", strings.Join(names, ", "), score)
	}
	return fmt.Sprintf("Game over! %s wins with %d points.", names[0], score)
}
