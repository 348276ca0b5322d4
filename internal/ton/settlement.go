package ton

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"squabble_server/internal/logger"
)

// сколько победителей помещается в сообщение результата
const maxResultWinners = 255

var ErrTooManyWinners = errors.New("too many winners for one result message")

type Sender interface {
	Send(ctx context.Context, to *address.Address, amount tlb.Coins, body *cell.Cell) (string, error)
}

// Settlement - вызовы контракта игры: старт, результат, вход в бесплатную игру
type Settlement struct {
	sender   Sender
	contract *address.Address
	value    tlb.Coins
	queryID  func() uint64
	log      *slog.Logger
}

func NewSettlement(s Sender, contractAddr string) (*Settlement, error) {
	contract, err := ParseAddress(contractAddr)
	if err != nil {
		return nil, fmt.Errorf("settlement contract: %w", err)
	}
	return &Settlement{
		sender:   s,
		contract: contract,
		value:    tlb.MustFromTON(ContractMessageValue),
		queryID:  func() uint64 { return uint64(time.Now().UnixNano()) },
		log:      logger.Component("ton_settlement"),
	}, nil
}

func (s *Settlement) StartGame(ctx context.Context, contractGameID int64) error {
	body := StartGameBody(s.queryID(), contractGameID)
	return s.send(ctx, "start_game", contractGameID, body)
}

func (s *Settlement) SetGameResult(ctx context.Context, contractGameID int64, isDraw bool, winners []string) error {
	addrs := make([]*address.Address, 0, len(winners))
	for _, w := range winners {
		a, err := ParseAddress(w)
		if err != nil {
			return fmt.Errorf("winner address: %w", err)
		}
		addrs = append(addrs, a)
	}
	body, err := GameResultBody(s.queryID(), contractGameID, isDraw, addrs)
	if err != nil {
		return err
	}
	return s.send(ctx, "set_game_result", contractGameID, body)
}

func (s *Settlement) JoinGame(ctx context.Context, contractGameID int64, playerAddr string) error {
	a, err := ParseAddress(playerAddr)
	if err != nil {
		return fmt.Errorf("player address: %w", err)
	}
	return s.send(ctx, "join_game", contractGameID, JoinGameBody(s.queryID(), contractGameID, a))
}

func (s *Settlement) send(ctx context.Context, op string, contractGameID int64, body *cell.Cell) error {
	hash, err := s.sender.Send(ctx, s.contract, s.value, body)
	if err != nil {
		return fmt.Errorf("%s for game %d: %w", op, contractGameID, err)
	}
	s.log.Info("contract call sent", "op", op, "contract_game_id", contractGameID, "tx", hash)
	return nil
}

func header(op uint32, queryID uint64, contractGameID int64) *cell.Builder {
	return cell.BeginCell().
		MustStoreUInt(uint64(op), 32).
		MustStoreUInt(queryID, 64).
		MustStoreUInt(uint64(contractGameID), 64)
}

// StartGameBody: op | query_id | game_id
func StartGameBody(queryID uint64, contractGameID int64) *cell.Cell {
	return header(OpStartGame, queryID, contractGameID).EndCell()
}

// JoinGameBody: op | query_id | game_id | player
func JoinGameBody(queryID uint64, contractGameID int64, player *address.Address) *cell.Cell {
	return header(OpJoinGame, queryID, contractGameID).MustStoreAddr(player).EndCell()
}

// GameResultBody: op | query_id | game_id | is_draw | count | ^winners.
// Победители лежат цепочкой ячеек, по одному адресу в каждой.
func GameResultBody(queryID uint64, contractGameID int64, isDraw bool, winners []*address.Address) (*cell.Cell, error) {
	if len(winners) > maxResultWinners {
		return nil, fmt.Errorf("%w: %d", ErrTooManyWinners, len(winners))
	}

	var chain *cell.Cell
	for i := len(winners) - 1; i >= 0; i-- {
		b := cell.BeginCell().MustStoreAddr(winners[i])
		if chain != nil {
			b.MustStoreRef(chain)
		}
		chain = b.EndCell()
	}

	b := header(OpSetGameResult, queryID, contractGameID).
		MustStoreBoolBit(isDraw).
		MustStoreUInt(uint64(len(winners)), 8)
	if chain != nil {
		b.MustStoreRef(chain)
	}
	return b.EndCell(), nil
}
