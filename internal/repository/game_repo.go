package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"squabble_server/internal/domain"
)

// записи игр создаются внешним API, здесь только чтение и обновление
type GameRepository struct {
	db *pgxpool.Pool
}

func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// возвращает игру по id, nil если не найдена
func (r *GameRepository) GetByID(ctx context.Context, id string) (*domain.Game, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, status, contract_game_id, bet_amount, total_funds, conversation_id, winner_id, created_at
		FROM games
		WHERE id = $1
	`, id)

	var g domain.Game
	if err := row.Scan(
		&g.ID, &g.Status, &g.ContractGameID, &g.BetAmount, &g.TotalFunds, &g.ConversationID, &g.WinnerID, &g.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// обновляет только заданные поля
func (r *GameRepository) Update(ctx context.Context, id string, upd domain.GameUpdate) error {
	sets := make([]string, 0, 3)
	args := []any{id}
	if upd.Status != nil {
		args = append(args, string(*upd.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if upd.TotalFunds != nil {
		args = append(args, *upd.TotalFunds)
		sets = append(sets, fmt.Sprintf("total_funds = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	_, err := r.db.Exec(ctx, "UPDATE games SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
	return err
}

// записывает победителя игры
func (r *GameRepository) SetWinner(ctx context.Context, id string, playerID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE games SET winner_id = $2, updated_at = now()
		WHERE id = $1
	`, id, playerID)
	return err
}
