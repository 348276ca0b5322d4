package game

import (
	"errors"
	"sort"

	"github.com/samber/lo"

	"squabble_server/internal/domain"
)

const (
	MaxPlayers      = 6
	MinReadyPlayers = 2
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrPlayerNotFound = errors.New("player not in room")
)

// Roster - игроки комнаты по ID
type Roster struct {
	players map[int64]*domain.Player
}

func NewRoster() *Roster {
	return &Roster{players: make(map[int64]*domain.Player)}
}

// Join добавляет игрока или обновляет соединение при повторном входе.
// При повторном входе готовность, ставка, очки и рука сохраняются.
// prior - запись из журнала участников, может быть nil.
func (r *Roster) Join(in *domain.Player, prior *domain.GameParticipant, paidGame bool) (p *domain.Player, rejoined bool, err error) {
	if existing, ok := r.players[in.ID]; ok {
		existing.SocketID = in.SocketID
		if in.DisplayName != "" {
			existing.DisplayName = in.DisplayName
		}
		if in.Username != "" {
			existing.Username = in.Username
		}
		if in.AvatarURL != "" {
			existing.AvatarURL = in.AvatarURL
		}
		if in.Address != "" && !existing.Staked {
			existing.Address = in.Address
		}
		if !paidGame {
			existing.Ready = true
		}
		return existing, true, nil
	}

	if len(r.players) >= MaxPlayers {
		return nil, false, ErrRoomFull
	}

	p = &domain.Player{
		ID:          in.ID,
		SocketID:    in.SocketID,
		DisplayName: in.DisplayName,
		Username:    in.Username,
		AvatarURL:   in.AvatarURL,
		Address:     in.Address,
		Ready:       !paidGame,
	}
	if prior != nil {
		p.Score = prior.Points
		if prior.Paid {
			p.Ready = true
			p.Staked = true
			p.PaymentHash = prior.PaymentHash
			if prior.Address != "" {
				p.Address = prior.Address
			}
		}
	}
	r.players[p.ID] = p
	return p, false, nil
}

func (r *Roster) Get(id int64) (*domain.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// MarkReady - готовность в бесплатной игре
func (r *Roster) MarkReady(id int64) (*domain.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	p.Ready = true
	return p, nil
}

// ConfirmStake помечает ставку оплаченной, адрес выплаты берется из платежа
func (r *Roster) ConfirmStake(id int64, paymentHash, address string) (*domain.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	p.Ready = true
	p.Staked = true
	p.PaymentHash = paymentHash
	if address != "" {
		p.Address = address
	}
	return p, nil
}

// RefundStake снимает готовность, доказательство оплаты и адрес выплаты
func (r *Roster) RefundStake(id int64) (*domain.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	p.Ready = false
	p.Staked = false
	p.PaymentHash = ""
	p.Address = ""
	return p, nil
}

func (r *Roster) Remove(id int64) (*domain.Player, bool) {
	p, ok := r.players[id]
	if ok {
		delete(r.players, id)
	}
	return p, ok
}

// AddScore - очки только растут
func (r *Roster) AddScore(id int64, delta int) (int, error) {
	p, ok := r.players[id]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	if delta > 0 {
		p.Score += delta
	}
	return p.Score, nil
}

func (r *Roster) SetRack(id int64, rack []domain.LetterTile) error {
	p, ok := r.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	p.AvailableLetters = rack
	return nil
}

func (r *Roster) CountReady() int {
	return lo.CountBy(lo.Values(r.players), func(p *domain.Player) bool { return p.Ready })
}

func (r *Roster) Len() int {
	return len(r.players)
}

// Players - копии игроков, отсортированные по ID
func (r *Roster) Players() []*domain.Player {
	out := lo.Map(lo.Values(r.players), func(p *domain.Player, _ int) *domain.Player { return p.Clone() })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Roster) IDs() []int64 {
	ids := lo.Keys(r.players)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// restore используется при загрузке из кэша
func (r *Roster) restore(p *domain.Player) {
	r.players[p.ID] = p.Clone()
}
