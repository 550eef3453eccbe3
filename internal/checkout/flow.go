package checkout

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/cart"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/utils"
)

// Promo is an accepted promo code.
type Promo struct {
	Code            string
	DiscountPercent int
	DiscountAmount  int64
}

// Order is what gets submitted.
type Order struct {
	ID             string
	Contact        Contact
	Address        Address
	PaymentMethod  domain.PaymentMethod
	Lines          []cart.Line
	Subtotal       int64
	PromoCode      string
	DiscountAmount int64
	Total          int64
}

// PromoValidator checks a promo code against a cart total. Rejections wrap
// ErrPromoNotFound, ErrPromoExpired or ErrPromoRejected; transport failures
// wrap ErrUnavailable.
type PromoValidator interface {
	ValidatePromo(ctx context.Context, code string, cartTotal int64) (Promo, error)
}

// OrderSubmitter persists an order and returns its id. Rejections wrap
// ErrOrderRejected; transport failures wrap ErrUnavailable.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, o Order) (string, error)
}

// Receipt is returned by a successful Submit.
type Receipt struct {
	OrderID string
	Totals
}

// Flow applies wizard actions to a cart and draft owned by the caller (one
// session). A Flow is not safe for concurrent use.
type Flow struct {
	cart   *cart.Cart
	draft  *Draft
	promos PromoValidator
	orders OrderSubmitter
	newID  func() string
}

// NewFlow binds the wizard to c and d. Both must be non-nil.
func NewFlow(c *cart.Cart, d *Draft, promos PromoValidator, orders OrderSubmitter) *Flow {
	return &Flow{cart: c, draft: d, promos: promos, orders: orders, newID: uuid.NewString}
}

// Draft exposes the bound draft.
func (f *Flow) Draft() *Draft { return f.draft }

// Totals prices the bound draft against the current cart.
func (f *Flow) Totals() Totals { return totals(f.draft, f.cart.Total()) }

// Begin starts a fresh draft at CONTACT. A draft already in progress keeps its
// order id so an abandoned-then-resumed checkout still deduplicates.
func (f *Flow) Begin() error {
	if f.cart.IsEmpty() {
		return ErrEmptyCart
	}
	if f.draft.Step == StepSubmitting {
		return ErrWrongStep
	}
	id := f.draft.OrderID
	if !f.draft.Active() || id == "" {
		id = f.newID()
	}
	*f.draft = Draft{OrderID: id, Step: StepContact}
	return nil
}

// SetContact validates and stores contact details, advancing to ADDRESS.
func (f *Flow) SetContact(c Contact) error {
	if f.draft.Step != StepContact {
		return ErrWrongStep
	}
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	if c.FirstName == "" {
		return invalid("firstName", "required")
	}
	if c.LastName == "" {
		return invalid("lastName", "required")
	}
	phone := utils.NormalizePhone(c.Phone)
	if phone == "" {
		return invalid("phone", "invalid phone number")
	}
	c.Phone = phone
	f.draft.Contact = c
	f.draft.Step = StepAddress
	return nil
}

// SetAddress validates and stores the delivery address, advancing to PROMO.
func (f *Flow) SetAddress(a Address) error {
	if f.draft.Step != StepAddress {
		return ErrWrongStep
	}
	a.City = strings.TrimSpace(a.City)
	a.Street = strings.TrimSpace(a.Street)
	if a.City == "" {
		return invalid("city", "required")
	}
	if a.Street == "" {
		return invalid("address", "required")
	}
	f.draft.Address = a
	f.draft.Step = StepPromo
	return nil
}

// ApplyPromo validates code against the current cart total. On success the
// normalized code and discount are stored and the draft advances to PAYMENT.
// On any failure the draft is left untouched and stays at PROMO.
func (f *Flow) ApplyPromo(ctx context.Context, code string) (Promo, error) {
	if f.draft.Step != StepPromo {
		return Promo{}, ErrWrongStep
	}
	code = NormalizeCode(code)
	if code == "" {
		return Promo{}, invalid("promoCode", "required")
	}
	total := f.cart.Total()
	if total <= 0 {
		return Promo{}, ErrEmptyCart
	}
	p, err := f.promos.ValidatePromo(ctx, code, total)
	if err != nil {
		return Promo{}, err
	}
	if p.Code == "" {
		p.Code = code
	}
	if p.DiscountAmount > total {
		p.DiscountAmount = total
	}
	if p.DiscountAmount < 0 {
		p.DiscountAmount = 0
	}
	f.draft.PromoCode = p.Code
	f.draft.DiscountPercent = p.DiscountPercent
	f.draft.DiscountAmount = p.DiscountAmount
	f.draft.Step = StepPayment
	return p, nil
}

// SkipPromo advances from PROMO to PAYMENT without a discount.
func (f *Flow) SkipPromo() error {
	if f.draft.Step != StepPromo {
		return ErrWrongStep
	}
	f.draft.PromoCode = ""
	f.draft.DiscountPercent = 0
	f.draft.DiscountAmount = 0
	f.draft.Step = StepPayment
	return nil
}

// SetPayment records the payment method. The draft stays at PAYMENT.
func (f *Flow) SetPayment(method string) error {
	if f.draft.Step != StepPayment {
		return ErrWrongStep
	}
	m, ok := domain.ParsePaymentMethod(method)
	if !ok {
		return invalid("paymentMethod", "must be one of paynet, card, cash")
	}
	f.draft.PaymentMethod = m
	return nil
}

// Submit sends the order. On success the cart is cleared and the draft is
// DONE. On failure the cart and draft are restored exactly and the draft is
// back at PAYMENT; the error carries the collaborator's message.
func (f *Flow) Submit(ctx context.Context) (Receipt, error) {
	if f.draft.Step != StepPayment {
		return Receipt{}, ErrWrongStep
	}
	if f.draft.PaymentMethod == "" {
		return Receipt{}, invalid("paymentMethod", "required")
	}
	if f.cart.IsEmpty() {
		return Receipt{}, ErrEmptyCart
	}

	savedDraft := *f.draft
	savedCart := f.cart.Clone()

	t := f.Totals()
	order := Order{
		ID:             f.draft.OrderID,
		Contact:        f.draft.Contact,
		Address:        f.draft.Address,
		PaymentMethod:  f.draft.PaymentMethod,
		Lines:          f.cart.Clone().Lines,
		Subtotal:       t.Subtotal,
		PromoCode:      f.draft.PromoCode,
		DiscountAmount: t.Discount,
		Total:          t.Total,
	}
	f.draft.Step = StepSubmitting

	id, err := f.orders.SubmitOrder(ctx, order)
	if err != nil {
		*f.draft = savedDraft
		*f.cart = *savedCart
		return Receipt{}, err
	}
	if id == "" {
		id = order.ID
	}
	f.cart.Clear()
	f.draft.OrderID = id
	f.draft.DiscountAmount = t.Discount
	f.draft.Step = StepDone
	return Receipt{OrderID: id, Totals: t}, nil
}

// NormalizeCode trims and uppercases a promo code.
func NormalizeCode(code string) string { return domain.NormalizePromoCode(code) }
