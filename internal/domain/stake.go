package domain

// подтверждение ставки, присланное клиентом после оплаты
type StakeConfirmation struct {
	PlayerID     int64
	GameID       string
	PaymentHash  string
	PayerAddress string
}

// итог игры, который уходит в контракт и в чат
type GameResult struct {
	GameID  string    `json:"gameId"`
	IsDraw  bool      `json:"isDraw"`
	Winners []*Player `json:"winners"`
	Ranking []*Player `json:"ranking"`
}

// WinnerAddresses - адреса выплат победителей, пустые пропускаем
func (r *GameResult) WinnerAddresses() []string {
	out := make([]string, 0, len(r.Winners))
	for _, w := range r.Winners {
		if w.Address != "" {
			out = append(out, w.Address)
		}
	}
	return out
}
