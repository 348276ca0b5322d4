package service

import (
	"context"

	"squabble_server/internal/domain"
	"squabble_server/internal/logger"
)

type auditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// обрабатывает логирование аудита
type AuditService struct {
	repo auditStore
}

// создает новый сервис аудита
func NewAuditService(repo auditStore) *AuditService {
	return &AuditService{repo: repo}
}

// создает новую запись в журнале аудита, ошибки только логируются
func (s *AuditService) Log(ctx context.Context, playerID int64, gameID, action, category string, details map[string]any) {
	log := &domain.AuditLog{
		PlayerID: playerID,
		GameID:   gameID,
		Action:   action,
		Category: category,
		Details:  details,
	}

	if err := s.repo.Create(ctx, log); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", action, "game_id", gameID, "player_id", playerID)
	}
}

// логирует итог игры
func (s *AuditService) LogGameEnd(ctx context.Context, result *domain.GameResult) {
	winners := make([]int64, 0, len(result.Winners))
	for _, w := range result.Winners {
		winners = append(winners, w.ID)
	}
	s.Log(ctx, 0, result.GameID, domain.AuditActionGameEnd, domain.AuditCategoryGame, map[string]any{
		"is_draw": result.IsDraw,
		"winners": winners,
		"players": len(result.Ranking),
	})
}

// логирует подтверждение или возврат ставки
func (s *AuditService) LogStake(ctx context.Context, playerID int64, gameID, action, paymentHash string) {
	s.Log(ctx, playerID, gameID, action, domain.AuditCategoryPayment, map[string]any{
		"payment_hash": paymentHash,
	})
}
