package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/repo"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/utils"
)

// TrackLimit caps how many orders a tracking lookup returns.
const TrackLimit = 50

// OrderLine is one cart line in an order request.
type OrderLine struct {
	ProductID int64
	Name      string
	Price     int64
	Quantity  int
	Image     string
}

// CreateOrderInput is an order creation request as received from a client.
type CreateOrderInput struct {
	OrderID        string
	FirstName      string
	LastName       string
	Phone          string
	Address        string
	City           string
	PaymentMethod  string
	Total          int64
	Cart           []OrderLine
	PromoCode      string
	DiscountAmount int64
	Source         string // web|bot; defaults to web
}

// Notifier forwards a new order to the operator channel.
type Notifier interface {
	NotifyOrder(ctx context.Context, o *domain.Order) error
}

// OrderService creates and looks up orders.
type OrderService struct {
	DB       *gorm.DB
	Promos   *PromoService
	Notifier Notifier // optional
	Log      zerolog.Logger

	// NotifyTimeout bounds the post-commit notification.
	NotifyTimeout time.Duration
	NewID         func() string
}

// NewOrderService builds an OrderService with defaults.
func NewOrderService(db *gorm.DB, promos *PromoService, n Notifier, log zerolog.Logger) *OrderService {
	return &OrderService{
		DB:            db,
		Promos:        promos,
		Notifier:      n,
		Log:           log,
		NotifyTimeout: 5 * time.Second,
		NewID:         uuid.NewString,
	}
}

// Create validates in, recomputes the totals and persists the order with its
// items. created is false when the order id was already stored for the same
// customer and total; the stored order is returned and nobody is notified
// again.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (order *domain.Order, created bool, err error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("order.id", in.OrderID),
			attribute.Int("order.lines", len(in.Cart)),
		),
	)
	defer span.End()

	o, err := s.build(ctx, in)
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(attribute.String("order.id", o.ID))

	if err := repo.CreateOrder(ctx, s.DB, o); err != nil {
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, false, err
		}
		existing, gerr := repo.GetOrder(ctx, s.DB, o.ID)
		if gerr != nil {
			return nil, false, gerr
		}
		if existing.Phone != o.Phone || existing.Total != o.Total {
			return nil, false, ErrOrderConflict
		}
		return existing, false, nil
	}

	s.notify(ctx, o)
	return o, true, nil
}

// build validates the request and returns the order to persist. Amounts are
// recomputed from the cart; the client's total and discount are only checked.
func (s *OrderService) build(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	id := strings.TrimSpace(in.OrderID)
	if id == "" {
		id = s.newID()
	}
	if len(id) > 64 {
		return nil, invalidField("orderId", "too long")
	}

	o := &domain.Order{
		ID:        id,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     utils.NormalizePhone(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		Status:    domain.StatusNew,
		Source:    "web",
	}
	if src := strings.TrimSpace(in.Source); src != "" {
		o.Source = src
	}

	switch {
	case o.FirstName == "":
		return nil, invalidField("firstName", "required")
	case o.LastName == "":
		return nil, invalidField("lastName", "required")
	case o.Phone == "":
		return nil, invalidField("phone", "invalid")
	case o.Address == "":
		return nil, invalidField("address", "required")
	case o.City == "":
		return nil, invalidField("city", "required")
	}
	pm, ok := domain.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, invalidField("paymentMethod", "must be paynet, card or cash")
	}
	o.PaymentMethod = pm
	if in.Total < 0 {
		return nil, invalidField("total", "must not be negative")
	}
	if in.DiscountAmount < 0 {
		return nil, invalidField("discountAmount", "must not be negative")
	}
	if len(in.Cart) == 0 {
		return nil, invalidField("cart", "empty")
	}

	o.Items = make([]domain.OrderItem, 0, len(in.Cart))
	for _, l := range in.Cart {
		name := strings.TrimSpace(l.Name)
		switch {
		case l.ProductID <= 0:
			return nil, invalidField("cart", "productId required")
		case name == "":
			return nil, invalidField("cart", "name required")
		case l.Quantity < 1:
			return nil, invalidField("cart", "quantity must be at least 1")
		case l.Price < 0:
			return nil, invalidField("cart", "price must not be negative")
		}
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: l.ProductID,
			Name:      name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Image:     l.Image,
		})
		o.Subtotal += l.Price * int64(l.Quantity)
	}

	discount := in.DiscountAmount
	if code := domain.NormalizePromoCode(in.PromoCode); code != "" {
		if s.Promos == nil {
			return nil, ErrPromoNotFound
		}
		p, err := s.Promos.Validate(ctx, code, o.Subtotal)
		if err != nil {
			return nil, err
		}
		if abs(discount-p.DiscountAmount) > 1 {
			return nil, ErrDiscountMismatch
		}
		discount = p.DiscountAmount
		o.PromoCode = &p.Code
	} else if discount > 0 {
		return nil, ErrDiscountMismatch
	}
	if discount > o.Subtotal {
		return nil, ErrDiscountMismatch
	}
	o.DiscountAmount = discount
	o.Total = domain.ApplyDiscount(o.Subtotal, discount)
	if abs(in.Total-o.Total) > 1 {
		return nil, ErrTotalMismatch
	}
	return o, nil
}

// notify forwards o to the operator. It runs after commit and never fails
// the order; the caller's cancellation does not cut it short.
func (s *OrderService) notify(ctx context.Context, o *domain.Order) {
	if s.Notifier == nil {
		return
	}
	nctx := context.WithoutCancel(ctx)
	if s.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		nctx, cancel = context.WithTimeout(nctx, s.NotifyTimeout)
		defer cancel()
	}
	if err := s.Notifier.NotifyOrder(nctx, o); err != nil {
		s.Log.Warn().Err(err).Str("order_id", o.ID).Msg("order notification failed")
	}
}

// Track returns the newest orders placed with phone, items included.
func (s *OrderService) Track(ctx context.Context, phone string) ([]domain.Order, error) {
	tr := otel.Tracer("services/OrderService")
	ctx, span := tr.Start(ctx, "Track")
	defer span.End()

	p := utils.NormalizePhone(phone)
	if p == "" {
		return nil, ErrPhoneRequired
	}
	out, err := repo.ListOrdersByPhone(ctx, s.DB, p, TrackLimit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Order{}
	}
	span.SetAttributes(attribute.Int("orders.count", len(out)))
	return out, nil
}

func (s *OrderService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
