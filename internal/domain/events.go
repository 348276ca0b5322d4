package domain

// события websocket
const (
	// клиент -> сервер
	EventConnectToLobby = "connect_to_lobby"
	EventPlayerReady    = "player_ready"
	EventStakeConfirmed = "player_stake_confirmed"
	EventStakeRefunded  = "player_stake_refunded"
	EventLeaveGame      = "leave_game"
	EventStartGame      = "start_game"
	EventPlaceLetter    = "place_letter"
	EventRemoveLetter   = "remove_letter"
	EventSubmitWord     = "submit_word"
	EventRefreshLetters = "refresh_available_letters"

	// сервер -> клиент
	EventPlayerJoined          = "player_joined"
	EventPlayerLeft            = "player_left"
	EventGameUpdate            = "game_update"
	EventGameFull              = "game_full"
	EventGameLoading           = "game_loading"
	EventGameStarted           = "game_started"
	EventTimerTick             = "timer_tick"
	EventLetterPlaced          = "letter_placed"
	EventLetterRemoved         = "letter_removed"
	EventWordSubmitted         = "word_submitted"
	EventWordNotValid          = "word_not_valid"
	EventAdjacentWordsNotValid = "adjacent_words_not_valid"
	EventScoreUpdate           = "score_update"
	EventGameEnded             = "game_ended"
	EventError                 = "error"
)

// входящие

type LobbyRequest struct {
	Player *Player `json:"player"`
	GameID string  `json:"gameId"`
}

type StakeConfirmedRequest struct {
	Player       *Player `json:"player"`
	GameID       string  `json:"gameId"`
	PaymentHash  string  `json:"paymentHash"`
	PayerAddress string  `json:"payerAddress"`
}

type StakeRefundedRequest struct {
	Player          *Player `json:"player"`
	GameID          string  `json:"gameId"`
	TransactionHash string  `json:"transactionHash"`
}

type PlaceLetterRequest struct {
	Player *Player `json:"player"`
	GameID string  `json:"gameId"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Letter string  `json:"letter"`
}

type RemoveLetterRequest struct {
	Player *Player `json:"player"`
	GameID string  `json:"gameId"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
}

type SubmitWordRequest struct {
	Player        *Player        `json:"player"`
	GameID        string         `json:"gameId"`
	Word          string         `json:"word"`
	Path          []Position     `json:"path"`
	PlacedLetters []PlacedLetter `json:"placedLetters"`
}

type RefreshLettersRequest struct {
	GameID   string `json:"gameId"`
	PlayerID int64  `json:"playerId"`
}

// исходящие

type PlayerJoinedPayload struct {
	Player *Player `json:"player"`
	GameID string  `json:"gameId"`
}

type PlayerLeftPayload struct {
	Player *Player `json:"player"`
	GameID string  `json:"gameId"`
}

type GameUpdatePayload struct {
	GameID  string     `json:"gameId"`
	Players []*Player  `json:"players"`
	Status  GameStatus `json:"status"`
}

type GameFullPayload struct {
	GameID  string    `json:"gameId"`
	Players []*Player `json:"players"`
}

type GameLoadingPayload struct {
	GameID string `json:"gameId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type GameStartedPayload struct {
	GameID        string     `json:"gameId"`
	Board         [][]string `json:"board"`
	TimeRemaining int        `json:"timeRemaining"`
	Players       []*Player  `json:"players"`
	StartTime     int64      `json:"startTime"`
	EndTime       int64      `json:"endTime"`
}

type TimerTickPayload struct {
	GameID        string `json:"gameId"`
	TimeRemaining int    `json:"timeRemaining"`
}

type LetterPlacedPayload struct {
	GameID   string   `json:"gameId"`
	Player   *Player  `json:"player"`
	Position Position `json:"position"`
	Letter   string   `json:"letter"`
}

type LetterRemovedPayload struct {
	GameID   string   `json:"gameId"`
	Player   *Player  `json:"player"`
	Position Position `json:"position"`
}

type WordSubmittedPayload struct {
	GameID string     `json:"gameId"`
	Player *Player    `json:"player"`
	Words  []string   `json:"words"`
	Score  int        `json:"score"`
	Path   []Position `json:"path"`
	Board  [][]string `json:"board"`
}

// ответ на отклоненное слово, word_not_valid или adjacent_words_not_valid
type WordRejectedPayload struct {
	GameID string     `json:"gameId"`
	Player *Player    `json:"player"`
	Word   string     `json:"word"`
	Board  [][]string `json:"board"`
	Path   []Position `json:"path"`
}

type ScoreUpdatePayload struct {
	GameID     string  `json:"gameId"`
	Player     *Player `json:"player"`
	NewScore   int     `json:"newScore"`
	TotalScore int     `json:"totalScore"`
}

type LettersRefreshedPayload struct {
	GameID   string    `json:"gameId"`
	Players  []*Player `json:"players"`
	PlayerID int64     `json:"playerId"`
}

type GameEndedPayload struct {
	GameID  string    `json:"gameId"`
	Players []*Player `json:"players"`
	IsDraw  bool      `json:"isDraw"`
	Winners []*Player `json:"winners"`
}

type ErrorPayload struct {
	GameID  string `json:"gameId,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
