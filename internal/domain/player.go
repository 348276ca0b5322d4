package domain

// буква на руке игрока
type LetterTile struct {
	Letter string `json:"letter"`
	Value  int    `json:"value"`
}

// клетка поля, x - столбец, y - строка
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// буква, выставленная ходом
type PlacedLetter struct {
	Letter string `json:"letter"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

func (p PlacedLetter) Position() Position {
	return Position{X: p.X, Y: p.Y}
}

// Player - участник комнаты.
// SocketID меняется при переподключении, идентичность только по ID.
type Player struct {
	ID               int64        `json:"fid"`
	SocketID         string       `json:"socketId,omitempty"`
	DisplayName      string       `json:"displayName,omitempty"`
	Username         string       `json:"username,omitempty"`
	AvatarURL        string       `json:"avatarUrl,omitempty"`
	Address          string       `json:"address,omitempty"`
	Ready            bool         `json:"ready"`
	Staked           bool         `json:"staked"`
	PaymentHash      string       `json:"paymentHash,omitempty"`
	Score            int          `json:"score"`
	AvailableLetters []LetterTile `json:"availableLetters,omitempty"`
}

// Name возвращает имя для сообщений в чат
func (p *Player) Name() string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.Username != "":
		return p.Username
	default:
		return "player"
	}
}

// Clone - копия без общих слайсов
func (p *Player) Clone() *Player {
	cp := *p
	if p.AvailableLetters != nil {
		cp.AvailableLetters = append([]LetterTile(nil), p.AvailableLetters...)
	}
	return &cp
}
