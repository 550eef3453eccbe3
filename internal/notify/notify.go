// Package notify forwards new orders to the operator channel. Delivery is
// best effort: callers log a failure and carry on.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/metrics"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/utils"
)

// Sender is the part of *tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts an order summary to an operator chat.
type Telegram struct {
	bot     Sender
	chatID  int64
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewTelegram returns a notifier that writes to chatID through bot.
func NewTelegram(bot Sender, chatID int64, m *metrics.Metrics, log zerolog.Logger) *Telegram {
	return &Telegram{
		bot:     bot,
		chatID:  chatID,
		metrics: m,
		log:     log.With().Str("component", "notify").Logger(),
	}
}

// NotifyOrder sends the summary of o. The Telegram client has no per-call
// context, so a context that is already done skips the send.
func (t *Telegram) NotifyOrder(ctx context.Context, o *domain.Order) error {
	if err := ctx.Err(); err != nil {
		t.metrics.Notification("skipped")
		return fmt.Errorf("notify order %s: %w", o.ID, err)
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatOrder(o))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	start := time.Now()
	_, err := t.bot.Send(msg)
	t.metrics.ObserveUpstream("telegram", "send_message", start, err)
	if err != nil {
		t.metrics.Notification("failed")
		return fmt.Errorf("notify order %s: %w", o.ID, err)
	}
	t.metrics.Notification("sent")
	t.log.Debug().Str("order_id", o.ID).Msg("operator notified")
	return nil
}

// Nop drops every notification. Used when no operator chat is configured.
type Nop struct{}

func (Nop) NotifyOrder(context.Context, *domain.Order) error { return nil }

// FormatOrder renders o as Telegram HTML.
func FormatOrder(o *domain.Order) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }

	var b strings.Builder
	fmt.Fprintf(&b, "🛍 <b>Yangi buyurtma</b> #%s\n\n", esc(o.ID))
	fmt.Fprintf(&b, "👤 %s\n", esc(o.CustomerName()))
	fmt.Fprintf(&b, "📞 %s\n", esc(o.Phone))
	fmt.Fprintf(&b, "📍 %s, %s\n", esc(o.City), esc(o.Address))
	fmt.Fprintf(&b, "💳 %s\n\n", paymentLabel(o.PaymentMethod))

	b.WriteString("<b>Mahsulotlar:</b>\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "• %s × %d = %s\n", esc(it.Name), it.Quantity, utils.FormatSom(it.LineTotal()))
	}
	b.WriteString("\n")
	if o.DiscountAmount > 0 {
		code := ""
		if o.PromoCode != nil {
			code = " " + esc(*o.PromoCode)
		}
		fmt.Fprintf(&b, "Oraliq summa: %s\n", utils.FormatSom(o.Subtotal))
		fmt.Fprintf(&b, "Chegirma%s: −%s\n", code, utils.FormatSom(o.DiscountAmount))
	}
	fmt.Fprintf(&b, "<b>Jami: %s</b>\n", utils.FormatSom(o.Total))
	if o.Source != "" {
		fmt.Fprintf(&b, "Manba: %s", esc(o.Source))
	}
	return strings.TrimRight(b.String(), "\n")
}

func paymentLabel(m domain.PaymentMethod) string {
	switch m {
	case domain.PaymentPaynet:
		return "Paynet"
	case domain.PaymentCard:
		return "Karta"
	case domain.PaymentCash:
		return "Naqd pul"
	}
	return string(m)
}
