package telegram

import (
	"context"
	"time"

	"golang-stock-analysis/config"
	"golang-stock-analysis/pkg/logger"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier pushes one-way operational messages (daily picks, cleanup notices)
// to a fixed chat. It never polls for updates.
type Notifier struct {
	cfg     *config.TelegramConfig
	log     *logger.Logger
	bot     *telebot.Bot
	limiter *rate.Limiter
}

func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger) (*Notifier, error) {
	if !cfg.Enabled {
		return &Notifier{cfg: cfg, log: log}, nil
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.BotToken,
		Offline: false,
	})
	if err != nil {
		return nil, err
	}

	return &Notifier{
		cfg: cfg,
		log: log,
		bot: bot,
		// Telegram allows ~30 msg/sec; one per second is plenty here.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// Send delivers a Markdown message to the configured chat. Disabled or failed
// delivery is logged and swallowed; notifications are best effort.
func (n *Notifier) Send(ctx context.Context, message string) {
	if n.bot == nil {
		return
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.log.WarnContext(ctx, "Telegram notification cancelled", logger.ErrorField(err))
		return
	}

	chat := &telebot.Chat{ID: n.cfg.ChatID}
	if _, err := n.bot.Send(chat, message, telebot.ModeMarkdown); err != nil {
		n.log.WarnContext(ctx, "Failed to send telegram notification", logger.ErrorField(err))
	}
}
