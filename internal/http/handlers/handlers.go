package handlers

import (
	"context"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
)

// OrderService creates and tracks orders.
type OrderService interface {
	Create(ctx context.Context, in services.CreateOrderInput) (*domain.Order, bool, error)
	Track(ctx context.Context, phone string) ([]domain.Order, error)
}

// PromoService validates promo codes against a cart total.
type PromoService interface {
	Validate(ctx context.Context, code string, cartTotal int64) (services.PromoResult, error)
}

// CatalogService serves products and categories.
type CatalogService interface {
	List(ctx context.Context, q services.ProductQuery) ([]domain.Product, int64, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Version(ctx context.Context, categoryID int64) (string, error)
	Search(ctx context.Context, query string, k int) ([]domain.Product, error)
}

// VoiceService hands out live voice session descriptors.
type VoiceService interface {
	Descriptor() (services.VoiceDescriptor, error)
}

// AssistantService proxies text generation.
type AssistantService interface {
	Generate(ctx context.Context, in services.GenerateInput) (string, error)
}

// IdempotencyRecorder stores the order id created under an Idempotency-Key so
// a retry is answered from the record.
type IdempotencyRecorder interface {
	Record(ctx context.Context, clientID, scope, key, orderID string, status int) error
}

// Deps bundles the services behind the handlers. Nil services make their
// endpoints answer 503.
type Deps struct {
	Orders      OrderService
	Promos      PromoService
	Catalog     CatalogService
	Voice       VoiceService
	Assistant   AssistantService
	Idempotency IdempotencyRecorder
}

// Handlers groups the storefront endpoints.
type Handlers struct {
	orders  OrderService
	promos  PromoService
	catalog CatalogService
	voice   VoiceService
	ai      AssistantService
	idem    IdempotencyRecorder
}

// New returns Handlers bound to d.
func New(d Deps) *Handlers {
	return &Handlers{
		orders:  d.Orders,
		promos:  d.Promos,
		catalog: d.Catalog,
		voice:   d.Voice,
		ai:      d.Assistant,
		idem:    d.Idempotency,
	}
}
