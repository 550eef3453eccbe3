package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/checkout"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/session"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/utils"
)

func (e *Engine) flow(s *session.Session) *checkout.Flow {
	return checkout.NewFlow(&s.Cart, &s.Draft, e.d.Promos, e.d.Orders)
}

func (e *Engine) beginCheckout(s *session.Session) []Reply {
	if err := e.flow(s).Begin(); err != nil {
		return one(menu(checkout.Message(err)))
	}
	s.Mode = session.ModeCheckout
	return one(Reply{Text: msgCheckoutStart + "\n\n" + msgAskName, Buttons: cancelRow()})
}

// checkoutText feeds free text to the current wizard step. CONTACT and
// ADDRESS each take two messages; the first half is held in the draft until
// the step's setter validates the whole. A phone shared before the full name
// is held the same way.
func (e *Engine) checkoutText(ctx context.Context, s *session.Session, text string) ([]Reply, error) {
	f := e.flow(s)
	d := &s.Draft
	switch d.Step {
	case checkout.StepContact:
		if d.Contact.FirstName == "" {
			first, last := splitName(text)
			if last == "" {
				return one(Reply{Text: msgAskFullName, Buttons: cancelRow()}), nil
			}
			d.Contact.FirstName, d.Contact.LastName = first, last
			if d.Contact.Phone != "" {
				return e.setPhone(s, d.Contact.Phone), nil
			}
			return one(Reply{Text: msgAskPhone, RequestContact: true}), nil
		}
		return e.setPhone(s, text), nil

	case checkout.StepAddress:
		if d.Address.City == "" {
			d.Address.City = text
			return one(Reply{Text: msgAskStreet, Buttons: cancelRow()}), nil
		}
		if err := f.SetAddress(checkout.Address{City: d.Address.City, Street: text}); err != nil {
			return one(Reply{Text: checkout.Message(err), Buttons: cancelRow()}), nil
		}
		return one(promoPrompt(f.Totals())), nil

	case checkout.StepPromo:
		p, err := f.ApplyPromo(ctx, text)
		if err != nil {
			reply := promoPrompt(f.Totals())
			reply.Text = checkout.Message(err) + "\n\n" + msgPromoRetry
			if errors.Is(err, checkout.ErrUnavailable) {
				return one(reply), fmt.Errorf("promo: %w", err)
			}
			return one(reply), nil
		}
		r := paymentPrompt(f.Totals())
		r.Text = fmt.Sprintf("✅ Promokod %s qo'llandi: −%s\n\n%s", p.Code, utils.FormatSom(f.Totals().Discount), r.Text)
		return one(r), nil

	case checkout.StepPayment:
		return one(paymentPrompt(f.Totals())), nil
	}
	return one(menu(msgMainMenu)), nil
}

func (e *Engine) setPhone(s *session.Session, phone string) []Reply {
	c := s.Draft.Contact
	c.Phone = phone
	if err := e.flow(s).SetContact(c); err != nil {
		return one(Reply{Text: checkout.Message(err), RequestContact: true})
	}
	return []Reply{{Text: msgPhoneSaved, RemoveKeyboard: true}, {Text: msgAskCity, Buttons: cancelRow()}}
}

func (e *Engine) skipPromo(s *session.Session) []Reply {
	f := e.flow(s)
	if err := f.SkipPromo(); err != nil {
		return one(menu(checkout.Message(err)))
	}
	return one(paymentPrompt(f.Totals()))
}

// pay records the method and submits. A failed submission leaves the draft
// at PAYMENT so the user can pick again.
func (e *Engine) pay(ctx context.Context, s *session.Session, method string) ([]Reply, error) {
	f := e.flow(s)
	if err := f.SetPayment(method); err != nil {
		if errors.Is(err, checkout.ErrWrongStep) {
			return one(menu(checkout.Message(err))), nil
		}
		return one(paymentPrompt(f.Totals())), nil
	}
	r, err := f.Submit(ctx)
	if err != nil {
		reply := paymentPrompt(f.Totals())
		reply.Text = checkout.Message(err) + "\n\n" + reply.Text
		if errors.Is(err, checkout.ErrUnavailable) {
			return one(reply), fmt.Errorf("submit order: %w", err)
		}
		return one(reply), nil
	}
	s.OrderID = r.OrderID
	s.Mode = session.ModeMenu

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Buyurtmangiz qabul qilindi!\n\nBuyurtma raqami: #%s\n", r.OrderID)
	if r.Discount > 0 {
		fmt.Fprintf(&b, "Chegirma: −%s\n", utils.FormatSom(r.Discount))
	}
	fmt.Fprintf(&b, "Jami: %s\n\n%s", utils.FormatSom(r.Total), msgOperatorWillCall)
	return one(menu(b.String())), nil
}

func promoPrompt(t checkout.Totals) Reply {
	return Reply{
		Text: fmt.Sprintf("Buyurtma summasi: %s\n\n%s", utils.FormatSom(t.Subtotal), msgAskPromo),
		Buttons: [][]Button{
			{{Text: "⏭ O'tkazib yuborish", Data: "skip_promo"}},
			{{Text: "✖️ Bekor qilish", Data: "menu"}},
		},
	}
}

func paymentPrompt(t checkout.Totals) Reply {
	var b strings.Builder
	if t.Discount > 0 {
		fmt.Fprintf(&b, "Summa: %s\nChegirma: −%s\n", utils.FormatSom(t.Subtotal), utils.FormatSom(t.Discount))
	}
	fmt.Fprintf(&b, "To'lov uchun: %s\n\n%s", utils.FormatSom(t.Total), msgAskPayment)
	return Reply{Text: b.String(), Buttons: [][]Button{
		{{Text: "Paynet", Data: "pay:paynet"}, {Text: "💳 Karta", Data: "pay:card"}, {Text: "💵 Naqd", Data: "pay:cash"}},
		{{Text: "✖️ Bekor qilish", Data: "menu"}},
	}}
}

func cancelRow() [][]Button {
	return [][]Button{{{Text: "✖️ Bekor qilish", Data: "menu"}}}
}

// splitName splits "Ali Valiyev" into first and last name. Everything after
// the first word is the last name.
func splitName(s string) (first, last string) {
	parts := strings.Fields(s)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
