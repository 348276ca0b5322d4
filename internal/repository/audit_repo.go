package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"squabble_server/internal/domain"
)

// отвечает за журнал аудита игр
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// создает новую запись в журнале
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO game_audit_logs (player_id, game_id, action, category, details)
		VALUES ($1, $2, $3, $4, $5)
	`, log.PlayerID, log.GameID, log.Action, log.Category, detailsJSON)
	return err
}

// возвращает последние записи по игре
func (r *AuditRepository) GetByGame(ctx context.Context, gameID string, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, player_id, game_id, action, category, details, created_at
		FROM game_audit_logs
		WHERE game_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, gameID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// преобразует строки из БД в структуры AuditLog
func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.PlayerID, &log.GameID, &log.Action, &log.Category, &detailsJSON, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
