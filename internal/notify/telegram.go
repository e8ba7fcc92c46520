package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
)

// Notifier pushes out-of-band notices to players who linked a Telegram chat.
// Delivery is best-effort; game state never depends on a notice arriving.
type Notifier struct {
	bot *tgbotapi.BotAPI
}

// New builds a notifier, or returns nil when no bot token is configured.
// A nil *Notifier is safe to call; every method becomes a no-op.
func New(token string) *Notifier {
	if token == "" {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Warn("telegram notifier disabled", "error", err)
		return nil
	}

	logger.Info("telegram notifier ready", "bot", bot.Self.UserName)
	return &Notifier{bot: bot}
}

// DailyRewardReady nudges a player whose daily reward is unclaimed.
func (n *Notifier) DailyRewardReady(player *models.Player) {
	if n == nil || player.TelegramChatID == 0 {
		return
	}
	n.send(player.TelegramChatID, fmt.Sprintf(
		"🎁 Your daily reward is waiting, %s! Claim it before the day rolls over.",
		player.DisplayName))
}

// KickedFromCoven tells a player they were removed from their coven.
func (n *Notifier) KickedFromCoven(player *models.Player, covenName string) {
	if n == nil || player.TelegramChatID == 0 {
		return
	}
	n.send(player.TelegramChatID, fmt.Sprintf(
		"You have been removed from the coven %q.", covenName))
}

// CovenDisbanded tells a member their coven no longer exists.
func (n *Notifier) CovenDisbanded(player *models.Player, covenName string) {
	if n == nil || player.TelegramChatID == 0 {
		return
	}
	n.send(player.TelegramChatID, fmt.Sprintf(
		"The coven %q has been disbanded by its leader.", covenName))
}

func (n *Notifier) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		logger.Warn("failed to send telegram notice", "chat_id", chatID, "error", err)
	}
}
