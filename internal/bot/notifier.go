package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"squabble_server/internal/logger"
)

var ErrBadConversation = errors.New("bad conversation id")

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier пишет сообщения о ходе игры в чат, привязанный к игре
type Notifier struct {
	api sender
	log *slog.Logger
}

// NewNotifier авторизует бота по токену
func NewNotifier(token string) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	n := newNotifier(api)
	n.log.Info("bot authorized", "username", api.Self.UserName)
	return n, nil
}

func newNotifier(api sender) *Notifier {
	return &Notifier{api: api, log: logger.Component("notifier")}
}

// SendMessage - conversationID это числовой chat id или @username канала
func (n *Notifier) SendMessage(ctx context.Context, conversationID, text string) error {
	msg, err := buildMessage(conversationID, text)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// у клиента нет отмены по контексту, дожидаемся ответа в отдельной горутине
	done := make(chan error, 1)
	go func() {
		_, err := n.api.Send(msg)
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send to %s: %w", conversationID, err)
		}
		n.log.Debug("message sent", "conversation_id", conversationID)
		return nil
	}
}

func buildMessage(conversationID, text string) (tgbotapi.MessageConfig, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return tgbotapi.MessageConfig{}, ErrBadConversation
	}
	if strings.HasPrefix(conversationID, "@") {
		return tgbotapi.NewMessageToChannel(conversationID, text), nil
	}
	chatID, err := strconv.ParseInt(conversationID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("%w: %q", ErrBadConversation, conversationID)
	}
	return tgbotapi.NewMessage(chatID, text), nil
}
