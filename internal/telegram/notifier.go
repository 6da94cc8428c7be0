package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arnaubm/noise-trader/internal/config"
	"github.com/arnaubm/noise-trader/internal/logger"
)

type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	ticker  string
	enabled bool
	logger  *logger.Logger
}

func NewNotifier(cfg *config.Config, log *logger.Logger) *Notifier {
	if !cfg.Telegram.Enabled {
		return &Notifier{enabled: false, ticker: cfg.Trading.Ticker, logger: log}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Error("failed to create telegram bot", "error", err)
		return &Notifier{enabled: false, ticker: cfg.Trading.Ticker, logger: log}
	}

	log.Info("telegram bot connected", "username", bot.Self.UserName)

	return &Notifier{
		bot:     bot,
		chatID:  cfg.Telegram.ChatID,
		ticker:  cfg.Trading.Ticker,
		enabled: true,
		logger:  log,
	}
}

func (n *Notifier) NotifyBuy(price, amount, cost float64) {
	msg := fmt.Sprintf("🟢 *BUY* %s\nPrice: %.2f\nAmount: %.4f\nCost: %.2f",
		n.ticker, price, amount, cost)
	n.send(msg)
}

func (n *Notifier) NotifyStopMoved(amount, trigger, limit float64, grouped int) {
	msg := fmt.Sprintf("🛡 *STOP MOVED* %s\nAmount: %.4f\nTrigger: %.2f\nLimit: %.2f\nRegrouped orders: %d",
		n.ticker, amount, trigger, limit, grouped)
	n.send(msg)
}

func (n *Notifier) NotifyError(context string, err error) {
	msg := fmt.Sprintf("⚠️ *Error* [%s] %s\n%v", context, n.ticker, err)
	n.send(msg)
}

func (n *Notifier) NotifyStatus(message string) {
	n.send(message)
}

func (n *Notifier) send(text string) {
	if !n.enabled {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
	}
}
