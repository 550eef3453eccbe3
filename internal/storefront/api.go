package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/assistant"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/checkout"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/voice"
)

// Page is the pagination block of a product listing.
type Page struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// ---- promo ----

type promoRequest struct {
	Code      string `json:"code"`
	CartTotal int64  `json:"cartTotal"`
}

type promoResponse struct {
	Valid           bool   `json:"valid"`
	Code            string `json:"code"`
	DiscountAmount  int64  `json:"discountAmount"`
	DiscountPercent int    `json:"discountPercent"`
	Error           string `json:"error"`
	Reason          string `json:"reason"`
}

// ValidatePromo implements checkout.PromoValidator. An invalid code keeps the
// API's message and is classified by the reason it reports.
func (c *Client) ValidatePromo(ctx context.Context, code string, cartTotal int64) (checkout.Promo, error) {
	var out promoResponse
	_, err := c.do(ctx, "promo_validate", http.MethodPost, "/promo/validate",
		promoRequest{Code: code, CartTotal: cartTotal}, nil, &out)
	if err != nil {
		return checkout.Promo{}, rejection(err, checkout.ErrPromoRejected)
	}
	if !out.Valid {
		kind := checkout.ErrPromoRejected
		switch out.Reason {
		case "not_found":
			kind = checkout.ErrPromoNotFound
		case "expired":
			kind = checkout.ErrPromoExpired
		}
		return checkout.Promo{}, checkout.Rejected(kind, out.Error)
	}
	return checkout.Promo{
		Code:            out.Code,
		DiscountPercent: out.DiscountPercent,
		DiscountAmount:  out.DiscountAmount,
	}, nil
}

// ---- orders ----

type orderLine struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

type orderRequest struct {
	OrderID        string      `json:"orderId"`
	FirstName      string      `json:"firstName"`
	LastName       string      `json:"lastName"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	City           string      `json:"city"`
	PaymentMethod  string      `json:"paymentMethod"`
	Total          int64       `json:"total"`
	Cart           []orderLine `json:"cart"`
	PromoCode      string      `json:"promoCode,omitempty"`
	DiscountAmount int64       `json:"discountAmount,omitempty"`
	Source         string      `json:"source,omitempty"`
}

// SubmitOrder implements checkout.OrderSubmitter. The order id doubles as the
// Idempotency-Key, so a retry after a lost response returns the stored order.
func (c *Client) SubmitOrder(ctx context.Context, o checkout.Order) (string, error) {
	req := orderRequest{
		OrderID:        o.ID,
		FirstName:      o.Contact.FirstName,
		LastName:       o.Contact.LastName,
		Phone:          o.Contact.Phone,
		Address:        o.Address.Street,
		City:           o.Address.City,
		PaymentMethod:  string(o.PaymentMethod),
		Total:          o.Total,
		PromoCode:      o.PromoCode,
		DiscountAmount: o.DiscountAmount,
		Source:         c.source,
		Cart:           make([]orderLine, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		req.Cart = append(req.Cart, orderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			Quantity:  l.Quantity,
			Image:     l.Image,
		})
	}
	hdr := http.Header{}
	if o.ID != "" {
		hdr.Set("Idempotency-Key", o.ID)
	}

	var out dataEnvelope[struct {
		OrderID string `json:"orderId"`
	}]
	res, err := c.do(ctx, "order_create", http.MethodPost, "/orders", req, hdr, &out)
	if err != nil {
		return "", rejection(err, checkout.ErrOrderRejected)
	}
	if res.header.Get("Idempotency-Replayed") == "true" {
		c.log.Info().Str("order_id", out.Data.OrderID).Msg("order submission replayed")
	}
	return out.Data.OrderID, nil
}

// TrackOrders returns orders placed with phone, newest first.
func (c *Client) TrackOrders(ctx context.Context, phone string) ([]domain.Order, error) {
	var out dataEnvelope[[]domain.Order]
	if _, err := c.do(ctx, "order_track", http.MethodPost, "/orders/track",
		struct {
			Phone string `json:"phone"`
		}{phone}, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ---- catalog ----

// Categories lists catalog categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if _, err := c.do(ctx, "categories", http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products returns one page of active products, optionally in one category.
func (c *Client) Products(ctx context.Context, categoryID int64, page, pageSize int) ([]domain.Product, Page, error) {
	var out struct {
		Products   []domain.Product `json:"products"`
		Pagination Page             `json:"pagination"`
	}
	path := "/products" + query(
		"category", itoa(categoryID),
		"page", itoa(int64(page)),
		"page_size", itoa(int64(pageSize)),
	)
	if _, err := c.do(ctx, "products", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, Page{}, err
	}
	return out.Products, out.Pagination, nil
}

// Product fetches one product. A missing product returns ErrNotFound.
func (c *Client) Product(ctx context.Context, id int64) (*domain.Product, error) {
	var out domain.Product
	if _, err := c.do(ctx, "product", http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &out, nil
}

// Search ranks products against q.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	var out struct {
		Products []domain.Product `json:"products"`
	}
	path := "/search" + query("q", q, "limit", itoa(int64(limit)))
	if _, err := c.do(ctx, "search", http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// ---- assistant ----

type generateRequest struct {
	Message           string           `json:"message,omitempty"`
	Prompt            string           `json:"prompt,omitempty"`
	SystemInstruction string           `json:"systemInstruction,omitempty"`
	History           []assistant.Turn `json:"history,omitempty"`
	ResponseMIMEType  string           `json:"responseMimeType,omitempty"`
}

// Generate implements assistant.Generator over the API's generation proxy.
func (c *Client) Generate(ctx context.Context, req assistant.Request) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if _, err := c.do(ctx, "generate", http.MethodPost, "/ai/generate", generateRequest{
		Message:           req.Message,
		Prompt:            req.Prompt,
		SystemInstruction: req.SystemInstruction,
		History:           req.History,
		ResponseMIMEType:  req.ResponseMIMEType,
	}, nil, &out); err != nil {
		return "", err
	}
	if out.Text == "" {
		return "", assistant.ErrEmptyResponse
	}
	return out.Text, nil
}

// ---- voice ----

// VoiceDescriptor fetches a live session descriptor. It is never cached.
func (c *Client) VoiceDescriptor(ctx context.Context) (voice.Descriptor, error) {
	var out struct {
		WSURL string `json:"wsUrl"`
		Model string `json:"model"`
	}
	if _, err := c.do(ctx, "voice_session", http.MethodGet, "/voice/session", nil, nil, &out); err != nil {
		return voice.Descriptor{}, fmt.Errorf("%w: %v", voice.ErrDescriptor, err)
	}
	if out.WSURL == "" || out.Model == "" {
		return voice.Descriptor{}, fmt.Errorf("%w: incomplete descriptor", voice.ErrDescriptor)
	}
	return voice.Descriptor{URL: out.WSURL, Model: out.Model}, nil
}

// rejection maps a call error onto the checkout taxonomy: API refusals keep
// their message under kind, anything else is retryable.
func rejection(err error, kind error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status < 500 {
		return checkout.Rejected(kind, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", checkout.ErrUnavailable, err)
}
