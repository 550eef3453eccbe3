package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
)

// ValidatePromoRequest is the promo validation payload.
type ValidatePromoRequest struct {
	Code      string `json:"code"      example:"LUXE2026"`
	CartTotal int64  `json:"cartTotal" example:"200000"`
}

// ValidatePromoResponse reports whether the code applies. Rejected codes keep
// a 200 status with valid=false; reason is "not_found" or "expired".
type ValidatePromoResponse struct {
	Valid           bool   `json:"valid"`
	Code            string `json:"code,omitempty"   example:"LUXE2026"`
	DiscountAmount  int64  `json:"discountAmount"   example:"20000"`
	DiscountPercent int    `json:"discountPercent"  example:"10"`
	Error           string `json:"error,omitempty"  example:"Promokod topilmadi"`
	Reason          string `json:"reason,omitempty" example:"not_found" enums:"not_found,expired"`
}

// ValidatePromo godoc
// @ID          validatePromo
// @Summary     Validate a promo code
// @Description Checks a promo code against a cart total and returns the discount it grants.
// @Tags        Promo
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ValidatePromoRequest  true  "Code and cart total"
// @Success     200  {object}  handlers.ValidatePromoResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing code or bad total"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /promo/validate [post]
func (h *Handlers) ValidatePromo(c *gin.Context) {
	if h.promos == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgInternal)
		return
	}
	var req ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadJSON)
		return
	}

	res, err := h.promos.Validate(c.Request.Context(), req.Code, req.CartTotal)
	switch {
	case err == nil:
		ok(c, http.StatusOK, ValidatePromoResponse{
			Valid:           true,
			Code:            res.Code,
			DiscountAmount:  res.DiscountAmount,
			DiscountPercent: res.DiscountPercent,
		})
	case errors.Is(err, services.ErrPromoCodeRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgPromoRequired)
	case errors.Is(err, services.ErrInvalidCartTotal):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgCartTotal)
	case errors.Is(err, services.ErrPromoNotFound):
		ok(c, http.StatusOK, ValidatePromoResponse{Error: msgPromoNotFound, Reason: "not_found"})
	case errors.Is(err, services.ErrPromoExpired):
		ok(c, http.StatusOK, ValidatePromoResponse{Error: msgPromoExpired, Reason: "expired"})
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
	}
}
