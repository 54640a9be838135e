package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultPollTimeout is the long-poll timeout in seconds for GetUpdates.
const DefaultPollTimeout = 60

// TelegramService implements Service over the Telegram Bot API using long
// polling. Updates are handled sequentially, which preserves per-chat event
// ordering.
type TelegramService struct {
	bot  *tgbotapi.BotAPI
	done chan struct{}
	wg   sync.WaitGroup
}

// NewTelegramService creates a TelegramService authenticated with the given
// bot token.
func NewTelegramService(token string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot client: %w", err)
	}
	slog.Info("TelegramService authorized", "username", bot.Self.UserName)
	return &TelegramService{bot: bot, done: make(chan struct{})}, nil
}

// Start begins long polling for updates and feeds them to the handler.
func (s *TelegramService) Start(ctx context.Context, handler Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = DefaultPollTimeout
	updates := s.bot.GetUpdatesChan(cfg)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				s.handleUpdate(ctx, handler, update)
			}
		}
	}()
	slog.Info("TelegramService started polling")
	return nil
}

// Stop stops polling and waits for the update loop to drain.
func (s *TelegramService) Stop() error {
	close(s.done)
	s.bot.StopReceivingUpdates()
	s.wg.Wait()
	slog.Info("TelegramService stopped")
	return nil
}

// SendMessage sends a message to a chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, body string) error {
	if body == "" {
		return nil
	}
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, body)); err != nil {
		slog.Error("TelegramService SendMessage error", "error", err, "chatID", chatID)
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}

func (s *TelegramService) handleUpdate(ctx context.Context, handler Handler, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	var reply string
	if msg.Location != nil {
		reply = handler.HandleLocation(ctx, chatID, msg.Location.Latitude, msg.Location.Longitude)
	} else if msg.Text != "" {
		reply = handler.HandleMessage(ctx, chatID, msg.Text)
	}
	if reply == "" {
		return
	}
	if err := s.SendMessage(ctx, chatID, reply); err != nil {
		slog.Error("TelegramService failed to deliver reply", "error", err, "chatID", chatID)
	}
}
