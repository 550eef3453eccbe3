package domain

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PromoRule is a percentage discount addressed by an uppercase code.
// A nil ExpiresAt never expires.
type PromoRule struct {
	Code            string     `json:"code"             gorm:"type:varchar(64);primaryKey"`
	DiscountPercent int        `json:"discount_percent" gorm:"not null;check:discount_percent >= 0 AND discount_percent <= 100"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Active          bool       `json:"active"           gorm:"not null;default:true"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName returns the database table name for PromoRule.
func (PromoRule) TableName() string { return "promo_codes" }

// Expired reports whether the rule is past its expiry at now.
func (p PromoRule) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Discount returns percent of total rounded half away from zero, clamped to
// [0, total].
func Discount(total int64, percent int) int64 {
	if total <= 0 || percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return total
	}
	d := int64(math.Round(float64(total) * float64(percent) / 100))
	if d > total {
		return total
	}
	return d
}

// ApplyDiscount returns total minus discount, never below zero.
func ApplyDiscount(total, discount int64) int64 {
	if discount >= total {
		return 0
	}
	if discount < 0 {
		return total
	}
	return total - discount
}

// NormalizePromoCode trims and uppercases a user-entered code.
func NormalizePromoCode(code string) string {
	// A Caser keeps state between calls, so build one per use.
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}
