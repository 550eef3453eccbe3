package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/http/middleware"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
)

// CartLineRequest is one cart line of an order.
type CartLineRequest struct {
	ProductID int64  `json:"productId" example:"12"`
	Name      string `json:"name"      example:"Oltin uzuk"`
	Price     int64  `json:"price"     example:"100000"`
	Quantity  int    `json:"quantity"  example:"2"`
	Image     string `json:"image,omitempty"`
}

// CreateOrderRequest is the order submission payload. Amounts are whole so'm.
type CreateOrderRequest struct {
	OrderID        string            `json:"orderId"        example:"5b0e8f1c-6f44-4a53-9a51-0f3f7f8b9a10"`
	FirstName      string            `json:"firstName"      example:"Aziz"`
	LastName       string            `json:"lastName"       example:"Karimov"`
	Phone          string            `json:"phone"          example:"+998901234567"`
	Address        string            `json:"address"        example:"Amir Temur ko'chasi 1"`
	City           string            `json:"city"           example:"Toshkent"`
	PaymentMethod  string            `json:"paymentMethod"  example:"card" enums:"paynet,card,cash"`
	Total          int64             `json:"total"          example:"180000"`
	Cart           []CartLineRequest `json:"cart"`
	PromoCode      string            `json:"promoCode,omitempty"      example:"LUXE2026"`
	DiscountAmount int64             `json:"discountAmount,omitempty" example:"20000"`
	Source         string            `json:"source,omitempty"         example:"web" enums:"web,bot"`
}

// OrderCreated is the data of a successful order submission.
type OrderCreated struct {
	OrderID string `json:"orderId" example:"5b0e8f1c-6f44-4a53-9a51-0f3f7f8b9a10"`
}

// TrackRequest is the order tracking payload.
type TrackRequest struct {
	Phone string `json:"phone" example:"+998901234567"`
}

// CreateOrder godoc
// @ID          createOrder
// @Summary     Submit an order
// @Description Validates the cart, re-checks the promo code and persists the order. Resubmitting the same orderId, or the same Idempotency-Key, returns the stored order without notifying the operator again.
// @Tags        Orders
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Client retry key"  example(9f0c1c2e-checkout)
// @Param       X-Client-ID      header  string  false  "Client installation id"
// @Param       body             body    handlers.CreateOrderRequest  true  "Order"
//
// @Success     201  {object}  handlers.DataResponse[handlers.OrderCreated]
// @Success     200  {object}  handlers.DataResponse[handlers.OrderCreated]  "Replayed"
// @Header      200  {string}  Idempotency-Replayed  "true when answered from a previous submission"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid order"
// @Failure     409  {object}  handlers.ErrorResponse  "Order id reused"
// @Failure     422  {object}  handlers.ErrorResponse  "Totals or promo rejected"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders [post]
func (h *Handlers) CreateOrder(c *gin.Context) {
	if id, replay := middleware.ReplayID(c); replay {
		ok(c, http.StatusOK, DataResponse[OrderCreated]{Data: OrderCreated{OrderID: id}})
		return
	}
	if h.orders == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgOrderFailed)
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadJSON)
		return
	}

	in := services.CreateOrderInput{
		OrderID:        req.OrderID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		PaymentMethod:  req.PaymentMethod,
		Total:          req.Total,
		PromoCode:      req.PromoCode,
		DiscountAmount: req.DiscountAmount,
		Source:         req.Source,
		Cart:           make([]services.OrderLine, 0, len(req.Cart)),
	}
	for _, l := range req.Cart {
		in.Cart = append(in.Cart, services.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Image:     l.Image,
		})
	}

	order, created, err := h.orders.Create(c.Request.Context(), in)
	if err != nil {
		e := orderError(err)
		fail(c, e.status, e.code, e.msg, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
		c.Header(middleware.HeaderReplayed, "true")
	}
	h.recordIdempotency(c, order.ID, status)
	ok(c, status, DataResponse[OrderCreated]{Data: OrderCreated{OrderID: order.ID}})
}

// recordIdempotency remembers the order under the request's key. A lost race
// or a storage error is logged only: the orderId still deduplicates retries.
func (h *Handlers) recordIdempotency(c *gin.Context, orderID string, status int) {
	key, has := middleware.GetIdempotencyKey(c)
	if !has || h.idem == nil {
		return
	}
	if err := h.idem.Record(c.Request.Context(), middleware.ClientID(c), c.FullPath(), key, orderID, status); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record failed")
	}
}

// TrackOrders godoc
// @ID          trackOrders
// @Summary     Track orders by phone
// @Description Returns the orders placed with the phone number, newest first, with their items. An empty list is a valid answer.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.TrackRequest  true  "Phone"
// @Success     200  {object}  handlers.DataResponse[[]domain.Order]
// @Failure     400  {object}  handlers.ErrorResponse  "Phone missing"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /orders/track [post]
func (h *Handlers) TrackOrders(c *gin.Context) {
	if h.orders == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgInternal)
		return
	}
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadJSON)
		return
	}
	orders, err := h.orders.Track(c.Request.Context(), req.Phone)
	switch {
	case errors.Is(err, services.ErrPhoneRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgPhoneRequired)
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	ok(c, http.StatusOK, DataResponse[[]domain.Order]{Data: orders})
}
