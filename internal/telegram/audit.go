package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/televizor/billing/internal/config"
)

const maxAuditMessageLen = 4096

// AuditLogger mirrors billing events into an admin Telegram chat. A zero
// AuditChatID disables it.
type AuditLogger struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewAuditLogger(b *bot.Bot, cfg *config.Config) *AuditLogger {
	return &AuditLogger{bot: b, cfg: cfg}
}

func (l *AuditLogger) log(message string) {
	if l == nil || l.cfg.AuditChatID == 0 {
		return
	}

	if len([]rune(message)) > maxAuditMessageLen {
		message = string([]rune(message)[:maxAuditMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.SendTimeout)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    l.cfg.AuditChatID,
		Text:      message,
		ParseMode: "Markdown",
	})
	if err != nil {
		slog.Error("failed to send audit message", "error", err)
	}
}

func (l *AuditLogger) PaymentCaptured(userID int64, paymentID string, stars int64, euro string) {
	l.log(fmt.Sprintf("⭐ *Payment captured*\n\n*User:* `%d`\n*Charge:* `%s`\n*Amount:* %d ⭐ (≈ €%s)",
		userID, paymentID, stars, euro))
}

func (l *AuditLogger) PaymentRefunded(userID int64, paymentID string) {
	l.log(fmt.Sprintf("↩️ *Payment refunded*\n\n*User:* `%d`\n*Charge:* `%s`", userID, paymentID))
}

func (l *AuditLogger) InvoicesExpired(count int64) {
	l.log(fmt.Sprintf("🧹 *Invoice sweep*\n\n*Expired:* %d\n*Time:* %s",
		count, time.Now().Format("2006-01-02 15:04:05")))
}
