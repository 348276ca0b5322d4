package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"squabble_server/internal/domain"
	"squabble_server/internal/logger"
	"squabble_server/internal/service"
)

// Sessions - операции игровой сессии, доступные по websocket
type Sessions interface {
	ConnectToLobby(ctx context.Context, connID string, req domain.LobbyRequest) error
	PlayerReady(ctx context.Context, connID string, req domain.LobbyRequest) error
	StakeConfirmed(ctx context.Context, connID string, req domain.StakeConfirmedRequest) error
	StakeRefunded(ctx context.Context, connID string, req domain.StakeRefundedRequest) error
	StartGame(ctx context.Context, connID string, req domain.LobbyRequest) error
	PlaceLetter(ctx context.Context, connID string, req domain.PlaceLetterRequest) error
	RemoveLetter(ctx context.Context, connID string, req domain.RemoveLetterRequest) error
	SubmitWord(ctx context.Context, connID string, req domain.SubmitWordRequest) error
	RefreshLetters(ctx context.Context, connID string, req domain.RefreshLettersRequest) error
	Leave(ctx context.Context, connID string, req domain.LobbyRequest) error
	Disconnect(ctx context.Context, connID, gameID string, playerID int64)
}

// Dispatcher разбирает конверт и вызывает нужную операцию сессии
type Dispatcher struct {
	hub      *Hub
	sessions Sessions
	log      *slog.Logger
}

func NewDispatcher(hub *Hub, sessions Sessions) *Dispatcher {
	return &Dispatcher{hub: hub, sessions: sessions, log: logger.Component("ws_dispatch")}
}

// Dispatch - ошибки операций сервис сам отправляет клиенту, здесь только логируем
func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, raw []byte) {
	msg, err := decode(raw)
	if err != nil {
		d.reject(c, "", service.CodeBadRequest, "malformed message")
		return
	}

	err = d.route(ctx, c, msg)
	if err != nil {
		d.log.Debug("event failed", "conn_id", c.ID, "event", msg.Type, "error", err)
	}
}

func (d *Dispatcher) route(ctx context.Context, c *Client, msg *inbound) error {
	switch msg.Type {
	case domain.EventConnectToLobby:
		var req domain.LobbyRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		if err := d.sessions.ConnectToLobby(ctx, c.ID, req); err != nil {
			return err
		}
		c.track(req.GameID, req.Player.ID)
		return nil

	case domain.EventPlayerReady:
		var req domain.LobbyRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		return d.sessions.PlayerReady(ctx, c.ID, req)

	case domain.EventStakeConfirmed:
		var req domain.StakeConfirmedRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		return d.sessions.StakeConfirmed(ctx, c.ID, req)

	case domain.EventStakeRefunded:
		var req domain.StakeRefundedRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		return d.sessions.StakeRefunded(ctx, c.ID, req)

	case domain.EventStartGame:
		var req domain.LobbyRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		return d.sessions.StartGame(ctx, c.ID, req)

	case domain.EventPlaceLetter:
		var req domain.PlaceLetterRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		return d.sessions.PlaceLetter(ctx, c.ID, req)

	case domain.EventRemoveLetter:
		var req domain.RemoveLetterRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		return d.sessions.RemoveLetter(ctx, c.ID, req)

	case domain.EventSubmitWord:
		var req domain.SubmitWordRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		return d.sessions.SubmitWord(ctx, c.ID, req)

	case domain.EventRefreshLetters:
		var req domain.RefreshLettersRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, req.PlayerID) {
			return nil
		}
		return d.sessions.RefreshLetters(ctx, c.ID, req)

	case domain.EventLeaveGame:
		var req domain.LobbyRequest
		if !d.bind(c, msg, &req) || !d.owns(c, req.GameID, playerID(req.Player)) {
			return nil
		}
		if err := d.sessions.Leave(ctx, c.ID, req); err != nil {
			return err
		}
		c.untrack(req.GameID)
		return nil

	default:
		d.reject(c, "", CodeUnknownEvent, "unknown event "+msg.Type)
		return nil
	}
}

// bind декодирует payload, при ошибке отвечает bad_request
func (d *Dispatcher) bind(c *Client, msg *inbound, dst any) bool {
	if len(msg.Payload) == 0 {
		d.reject(c, "", service.CodeBadRequest, msg.Type+": missing payload")
		return false
	}
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		d.reject(c, "", service.CodeBadRequest, msg.Type+": malformed payload")
		return false
	}
	return true
}

// owns - аутентифицированное соединение действует только от своего игрока
func (d *Dispatcher) owns(c *Client, gameID string, id int64) bool {
	if c.PlayerID == 0 || id == 0 || id == c.PlayerID {
		return true
	}
	d.log.Warn("player mismatch", "conn_id", c.ID, "auth_player_id", c.PlayerID, "player_id", id)
	d.reject(c, gameID, CodeUnauthorized, "player does not match connection")
	return false
}

func (d *Dispatcher) reject(c *Client, gameID, code, message string) {
	d.hub.SendTo(c.ID, domain.EventError, domain.ErrorPayload{GameID: gameID, Code: code, Message: message})
}

func (d *Dispatcher) disconnect(ctx context.Context, c *Client, gameID string, playerID int64) {
	d.sessions.Disconnect(ctx, c.ID, gameID, playerID)
}

func playerID(p *domain.Player) int64 {
	if p == nil {
		return 0
	}
	return p.ID
}
