package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// starsCurrency is Telegram's currency code for Stars. The provider token is
// left empty for this currency.
const starsCurrency = "XTR"

// Client wraps the bot API as the outbound messaging collaborator.
type Client struct {
	bot *bot.Bot
}

func NewClient(b *bot.Bot) *Client {
	return &Client{bot: b}
}

// SendInvoice sends a Stars invoice; payloadRef comes back on pre-checkout
// and payment events and keys the stored invoice.
func (c *Client) SendInvoice(ctx context.Context, userID int64, title, description, payloadRef string, amountStars int64) (int64, error) {
	msg, err := c.bot.SendInvoice(ctx, &bot.SendInvoiceParams{
		ChatID:      userID,
		Title:       title,
		Description: description,
		Payload:     payloadRef,
		Currency:    starsCurrency,
		Prices: []models.LabeledPrice{
			{Label: title, Amount: int(amountStars)},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("send invoice: %w", err)
	}
	return int64(msg.ID), nil
}

func (c *Client) SendMessage(ctx context.Context, userID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// RefundStarPayment refunds a captured Stars payment by its charge id.
func (c *Client) RefundStarPayment(ctx context.Context, userID int64, chargeID string) error {
	ok, err := c.bot.RefundStarPayment(ctx, &bot.RefundStarPaymentParams{
		UserID:                  userID,
		TelegramPaymentChargeID: chargeID,
	})
	if err != nil {
		return fmt.Errorf("refund star payment: %w", err)
	}
	if !ok {
		return fmt.Errorf("refund star payment: provider declined")
	}
	return nil
}
