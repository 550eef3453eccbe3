package checkout

import "errors"

var fieldMessages = map[string]string{
	"firstName":     "Ismingizni kiriting.",
	"lastName":      "Familiyangizni kiriting.",
	"phone":         "Telefon raqami noto'g'ri. Masalan: +998 90 123 45 67",
	"city":          "Shaharni kiriting.",
	"address":       "Yetkazib berish manzilini kiriting.",
	"promoCode":     "Promokodni kiriting.",
	"paymentMethod": "To'lov usulini tanlang.",
}

// Message returns the Uzbek text shown to a shopper for err. Collaborator
// messages pass through unchanged.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		if m, ok := fieldMessages[fe.Field]; ok {
			return m
		}
	}
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "Savatchangiz bo'sh."
	case errors.Is(err, ErrWrongStep):
		return "Bu amalni hozir bajarib bo'lmaydi."
	case errors.Is(err, ErrPromoNotFound):
		return "Promokod topilmadi."
	case errors.Is(err, ErrPromoExpired):
		return "Promokod muddati tugagan."
	case errors.Is(err, ErrPromoRejected):
		return "Promokodni qo'llab bo'lmadi."
	case errors.Is(err, ErrOrderRejected):
		return "Buyurtma qabul qilinmadi."
	case errors.Is(err, ErrValidation):
		return "Ma'lumotlar noto'g'ri."
	}
	return "Tarmoq xatosi. Iltimos, qayta urinib ko'ring."
}
