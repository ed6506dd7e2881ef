package notifier

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"moodwatch/internal/models"
)

// sender is the part of tgbotapi.BotAPI used for outgoing messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts high risk notifications to one Telegram chat and answers
// /start and /help so operators can look up the chat id.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	sender sender
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier authorizes the bot token.
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	return &TelegramNotifier{
		api:    botAPI,
		sender: botAPI,
		chatID: chatID,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) NotifyHighRisk(_ context.Context, assessment models.UserRiskAssessment, alerts []models.Alert) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatHighRisk(assessment, alerts))
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Error("Failed to send high risk notification",
			zap.Int64("chat_id", n.chatID),
			zap.String("user_handle", assessment.UserHandle),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Info("High risk notification sent",
		zap.Int64("chat_id", n.chatID),
		zap.String("user_handle", assessment.UserHandle),
		zap.Int("alerts", len(alerts)),
	)
	return nil
}

// Start listens for bot commands until ctx is done.
func (n *TelegramNotifier) Start(ctx context.Context) {
	if n.api == nil {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := n.api.GetUpdatesChan(u)

	n.logger.Info("Telegram bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Telegram bot shutting down...")
			n.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message != nil {
				n.handleMessage(update.Message)
			}
		}
	}
}

func (n *TelegramNotifier) handleMessage(message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start":
		name := "there"
		if message.From != nil {
			name = message.From.FirstName
		}
		n.reply(message.Chat.ID, fmt.Sprintf(
			"👋 Hi, %s!\n\nI post a message here whenever a journal user reaches HIGH risk.\n\nUse /help for more.",
			name,
		))
	case "help":
		n.reply(message.Chat.ID, "📚 Help:\n\n"+
			"/start - Welcome message\n"+
			"/help - This message\n\n"+
			"Set notifier.chat_id to this chat's id to receive alerts here.\n"+
			"Chat ID: "+strconv.FormatInt(message.Chat.ID, 10))
	default:
		n.reply(message.Chat.ID, "Unknown command. Use /help.")
	}
}

func (n *TelegramNotifier) reply(chatID int64, text string) {
	if _, err := n.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		n.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
