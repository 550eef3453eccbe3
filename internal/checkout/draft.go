// Package checkout drives the order wizard over a cart: contact, address,
// promo, payment, submission. Steps only move forward, except that a failed
// submission returns to PAYMENT with the draft and cart exactly as they were.
package checkout

import "github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"

// Step is the position of a draft in the wizard.
type Step string

const (
	StepContact    Step = "CONTACT"
	StepAddress    Step = "ADDRESS"
	StepPromo      Step = "PROMO"
	StepPayment    Step = "PAYMENT"
	StepSubmitting Step = "SUBMITTING"
	StepDone       Step = "DONE"
)

// IsTerminal reports whether the draft has been submitted successfully.
func (s Step) IsTerminal() bool { return s == StepDone }

// String representation (for logging).
func (s Step) String() string {
	if s == "" {
		return "NONE"
	}
	return string(s)
}

// Contact is who receives the order.
type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Address is where the order is delivered.
type Address struct {
	City   string `json:"city"`
	Street string `json:"street"`
}

// Draft is the in-progress checkout. OrderID is fixed for the life of the
// draft so repeated submissions are recognised as the same order.
type Draft struct {
	OrderID         string               `json:"orderId"`
	Step            Step                 `json:"step"`
	Contact         Contact              `json:"contact"`
	Address         Address              `json:"address"`
	PromoCode       string               `json:"promoCode,omitempty"`
	DiscountPercent int                  `json:"discountPercent,omitempty"`
	DiscountAmount  int64                `json:"discountAmount"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod,omitempty"`
}

// Active reports whether the draft is mid-wizard.
func (d *Draft) Active() bool {
	return d != nil && d.Step != "" && d.Step != StepDone
}

// Totals is the price breakdown of a draft over a cart.
type Totals struct {
	Subtotal int64
	Discount int64
	Total    int64
}

func totals(d *Draft, subtotal int64) Totals {
	discount := d.DiscountAmount
	if d.DiscountPercent > 0 {
		discount = domain.Discount(subtotal, d.DiscountPercent)
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    domain.ApplyDiscount(subtotal, discount),
	}
}
