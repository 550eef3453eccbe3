package handlers

import (
	"errors"
	"net/http"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
)

// Error codes. Generic codes mirror the status; the rest name the business
// rule that refused the request.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	ErrCodeInvalidOrder     = "invalid_order"
	ErrCodeTotalMismatch    = "total_mismatch"
	ErrCodeDiscountMismatch = "discount_mismatch"
	ErrCodePromoNotFound    = "promo_not_found"
	ErrCodePromoExpired     = "promo_expired"
	ErrCodeOrderFailed      = "order_failed"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeGenerationFailed = "generation_failed"
)

// Shopper-facing messages.
const (
	msgBadJSON          = "So'rov formati noto'g'ri"
	msgInternal         = "Ichki xatolik yuz berdi"
	msgNotFound         = "Topilmadi"
	msgMethodNotAllowed = "Bu usul qo'llab-quvvatlanmaydi"
	msgPromoRequired    = "Promokodni kiriting"
	msgCartTotal        = "Savat summasi noto'g'ri"
	msgPromoNotFound    = "Promokod topilmadi"
	msgPromoExpired     = "Promokod muddati tugagan"
	msgTotalMismatch    = "Buyurtma summasi savatga mos kelmadi"
	msgDiscountMismatch = "Chegirma summasi noto'g'ri"
	msgOrderConflict    = "Bu buyurtma raqami allaqachon ishlatilgan"
	msgOrderFailed      = "Buyurtmani saqlab bo'lmadi, qayta urinib ko'ring"
	msgPhoneRequired    = "Telefon raqamini kiriting"
	msgProductNotFound  = "Mahsulot topilmadi"
	msgVoiceUnavailable = "Ovozli yordamchi hozircha mavjud emas"
	msgAIUnavailable    = "AI yordamchi hozircha mavjud emas"
	msgGenerateMode     = "message yoki prompt maydonlaridan faqat bittasini yuboring"
	msgTooLong          = "Matn juda uzun"
	msgInvalidHistory   = "Suhbat tarixidagi rol noto'g'ri"
	msgGenerationFailed = "Javob olib bo'lmadi, birozdan keyin urinib ko'ring"
)

var fieldMessages = map[string]string{
	"orderId":        "Buyurtma raqami noto'g'ri",
	"firstName":      "Ismingizni kiriting",
	"lastName":       "Familiyangizni kiriting",
	"phone":          "Telefon raqami noto'g'ri",
	"address":        "Manzilni kiriting",
	"city":           "Shaharni kiriting",
	"paymentMethod":  "To'lov usuli noto'g'ri",
	"total":          "Buyurtma summasi noto'g'ri",
	"discountAmount": "Chegirma summasi noto'g'ri",
	"cart":           "Savatdagi mahsulotlar noto'g'ri",
}

// apiError is the HTTP rendition of a service error.
type apiError struct {
	status int
	code   string
	msg    string
}

// orderError maps order creation failures.
func orderError(err error) apiError {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		msg, found := fieldMessages[ve.Field]
		if !found {
			msg = "Buyurtma ma'lumotlari noto'g'ri"
		}
		return apiError{http.StatusBadRequest, ErrCodeInvalidOrder, msg}
	case errors.Is(err, services.ErrPromoNotFound):
		return apiError{http.StatusUnprocessableEntity, ErrCodePromoNotFound, msgPromoNotFound}
	case errors.Is(err, services.ErrPromoExpired):
		return apiError{http.StatusUnprocessableEntity, ErrCodePromoExpired, msgPromoExpired}
	case errors.Is(err, services.ErrTotalMismatch):
		return apiError{http.StatusUnprocessableEntity, ErrCodeTotalMismatch, msgTotalMismatch}
	case errors.Is(err, services.ErrDiscountMismatch):
		return apiError{http.StatusUnprocessableEntity, ErrCodeDiscountMismatch, msgDiscountMismatch}
	case errors.Is(err, services.ErrOrderConflict):
		return apiError{http.StatusConflict, ErrCodeConflict, msgOrderConflict}
	}
	return apiError{http.StatusInternalServerError, ErrCodeOrderFailed, msgOrderFailed}
}

// generateError maps text generation failures.
func generateError(err error) apiError {
	switch {
	case errors.Is(err, services.ErrGenerateMode):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, msgGenerateMode}
	case errors.Is(err, services.ErrTooLong):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, msgTooLong}
	case errors.Is(err, services.ErrInvalidHistory):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, msgInvalidHistory}
	case errors.Is(err, services.ErrAssistantUnavailable):
		return apiError{http.StatusServiceUnavailable, ErrCodeUnavailable, msgAIUnavailable}
	}
	// The last upstream error is surfaced so clients can tell quota from outage.
	return apiError{http.StatusBadGateway, ErrCodeGenerationFailed, msgGenerationFailed + ": " + err.Error()}
}
