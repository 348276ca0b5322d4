package service

import (
	"errors"
	"fmt"

	"squabble_server/internal/game"
)

// коды ошибок для клиента
const (
	CodeBadRequest     = "bad_request"
	CodeGameNotFound   = "game_not_found"
	CodeNoContract     = "no_contract"
	CodeGameFull       = "game_full"
	CodeAlreadyStarted = "already_started"
	CodeNotPlaying     = "not_playing"
	CodeNotEnoughReady = "not_enough_ready"
	CodeUnknownPlayer  = "unknown_player"
	CodeBadPlacement   = "invalid_placement"
	CodeCellTaken      = "cell_taken"
	CodeStakeRequired  = "stake_required"
	CodeStakeInvalid   = "stake_invalid"
	CodeUnavailable    = "unavailable"
)

// ValidationError - отказ по запросу клиента, состояние не меняется
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Message
}

func newValidation(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsValidation достает ValidationError из цепочки
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// toValidation переводит ошибки игрового движка в коды для клиента
func toValidation(err error) *ValidationError {
	if ve, ok := AsValidation(err); ok {
		return ve
	}
	switch {
	case errors.Is(err, game.ErrRoomFull):
		return newValidation(CodeGameFull, "room is full")
	case errors.Is(err, game.ErrNotPending), errors.Is(err, game.ErrAlreadyStarting), errors.Is(err, game.ErrInvalidTransition):
		return newValidation(CodeAlreadyStarted, "game already started")
	case errors.Is(err, game.ErrNotPlaying):
		return newValidation(CodeNotPlaying, "game is not in progress")
	case errors.Is(err, game.ErrNotEnoughReady):
		return newValidation(CodeNotEnoughReady, "need at least %d ready players", game.MinReadyPlayers)
	case errors.Is(err, game.ErrPlayerNotFound):
		return newValidation(CodeUnknownPlayer, "player is not in this game")
	case errors.Is(err, game.ErrCellTaken):
		return newValidation(CodeCellTaken, "cell is taken")
	case errors.Is(err, game.ErrInvalidPlacement):
		return newValidation(CodeBadPlacement, "%v", err)
	default:
		return newValidation(CodeUnavailable, "service unavailable, try again")
	}
}
