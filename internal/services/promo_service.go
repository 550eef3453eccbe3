package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/repo"
)

// JSONCache is the subset of cache.Redis used for promo lookups.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// PromoResult is an accepted promo applied to a cart total.
type PromoResult struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discountPercent"`
	DiscountAmount  int64  `json:"discountAmount"`
}

// PromoService validates promo codes. Lookups go through an optional cache
// and are collapsed per code so a burst of checkouts hits the database once.
type PromoService struct {
	DB    *gorm.DB
	Cache JSONCache // optional
	TTL   time.Duration
	Log   zerolog.Logger
	Now   func() time.Time

	group singleflight.Group
}

// NewPromoService builds a PromoService. cache may be nil.
func NewPromoService(db *gorm.DB, cache JSONCache, ttl time.Duration, log zerolog.Logger) *PromoService {
	return &PromoService{DB: db, Cache: cache, TTL: ttl, Log: log, Now: time.Now}
}

// Validate checks code against cartTotal. The checks run in a fixed order:
// blank code, non-positive total, unknown or inactive code, expiry.
func (s *PromoService) Validate(ctx context.Context, code string, cartTotal int64) (PromoResult, error) {
	tr := otel.Tracer("services/PromoService")
	ctx, span := tr.Start(ctx, "Validate",
		trace.WithAttributes(attribute.Int64("cart.total", cartTotal)),
	)
	defer span.End()

	code = domain.NormalizePromoCode(code)
	if code == "" {
		return PromoResult{}, ErrPromoCodeRequired
	}
	if cartTotal <= 0 {
		return PromoResult{}, ErrInvalidCartTotal
	}
	span.SetAttributes(attribute.String("promo.code", code))

	rule, err := s.lookup(ctx, code)
	if err != nil {
		return PromoResult{}, err
	}
	if !rule.Active || rule.DiscountPercent < 0 || rule.DiscountPercent > 100 {
		return PromoResult{}, ErrPromoNotFound
	}
	if rule.Expired(s.now()) {
		return PromoResult{}, ErrPromoExpired
	}
	return PromoResult{
		Code:            rule.Code,
		DiscountPercent: rule.DiscountPercent,
		DiscountAmount:  domain.Discount(cartTotal, rule.DiscountPercent),
	}, nil
}

func (s *PromoService) lookup(ctx context.Context, code string) (*domain.PromoRule, error) {
	key := "promo:" + code
	if s.Cache != nil {
		var cached domain.PromoRule
		ok, err := s.Cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.Log.Warn().Err(err).Str("code", code).Msg("promo cache read failed")
		} else if ok {
			return &cached, nil
		}
	}

	v, err, _ := s.group.Do(code, func() (any, error) {
		rule, err := repo.GetPromo(ctx, s.DB, code)
		if err != nil {
			return nil, err
		}
		if s.Cache != nil && s.TTL > 0 {
			if err := s.Cache.SetJSON(ctx, key, rule, s.TTL); err != nil {
				s.Log.Warn().Err(err).Str("code", code).Msg("promo cache write failed")
			}
		}
		return rule, nil
	})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}
	return v.(*domain.PromoRule), nil
}

func (s *PromoService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
