package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"squabble_server/internal/domain"
)

// журнал участников: кто вошел, кто оплатил, кто выиграл
type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// создает или обновляет запись участника, очки не трогаем
func (r *ParticipantRepository) Upsert(ctx context.Context, p *domain.GameParticipant) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_participants (player_id, game_id, joined, paid, winner, payment_hash, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player_id, game_id) DO UPDATE SET
			joined = EXCLUDED.joined,
			paid = EXCLUDED.paid,
			winner = EXCLUDED.winner,
			payment_hash = EXCLUDED.payment_hash,
			address = EXCLUDED.address,
			updated_at = now()
	`, p.PlayerID, p.GameID, p.Joined, p.Paid, p.Winner, p.PaymentHash, p.Address)
	return err
}

// возвращает участника, nil если записи нет
func (r *ParticipantRepository) Get(ctx context.Context, playerID int64, gameID string) (*domain.GameParticipant, error) {
	row := r.db.QueryRow(ctx, `
		SELECT player_id, game_id, joined, paid, winner, payment_hash, address, points, updated_at
		FROM game_participants
		WHERE player_id = $1 AND game_id = $2
	`, playerID, gameID)

	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// возвращает всех участников игры по убыванию очков
func (r *ParticipantRepository) ListByGame(ctx context.Context, gameID string) ([]*domain.GameParticipant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT player_id, game_id, joined, paid, winner, payment_hash, address, points, updated_at
		FROM game_participants
		WHERE game_id = $1
		ORDER BY points DESC, player_id
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.GameParticipant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// обновляет очки, запись создается если ее еще нет
func (r *ParticipantRepository) UpdatePoints(ctx context.Context, playerID int64, gameID string, points int) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO game_participants (player_id, game_id, joined, points)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (player_id, game_id) DO UPDATE SET
			points = GREATEST(game_participants.points, EXCLUDED.points),
			updated_at = now()
	`, playerID, gameID, points)
	return err
}

func scanParticipant(row pgx.Row) (*domain.GameParticipant, error) {
	var p domain.GameParticipant
	if err := row.Scan(
		&p.PlayerID, &p.GameID, &p.Joined, &p.Paid, &p.Winner, &p.PaymentHash, &p.Address, &p.Points, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
