package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedPromos(t *testing.T, db *gorm.DB) {
	t.Helper()
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(24 * time.Hour)
	rules := []domain.PromoRule{
		{Code: "LUXE2026", DiscountPercent: 10, ExpiresAt: &future, Active: true},
		{Code: "OLD10", DiscountPercent: 10, ExpiresAt: &past, Active: true},
		{Code: "OFF", DiscountPercent: 50, Active: false},
		{Code: "ALL", DiscountPercent: 100, Active: true},
		{Code: "ODD15", DiscountPercent: 15, Active: true},
	}
	for i := range rules {
		if err := repo.CreatePromo(context.Background(), db, &rules[i]); err != nil {
			t.Fatalf("seed promo %s: %v", rules[i].Code, err)
		}
	}
}

func newPromoService(t *testing.T, db *gorm.DB, c JSONCache) *PromoService {
	t.Helper()
	s := NewPromoService(db, c, time.Minute, zerolog.Nop())
	s.Now = func() time.Time { return fixedNow }
	return s
}

// ----- promo -----

type memCache struct {
	mu     sync.Mutex
	m      map[string][]byte
	sets   int
	getErr error
}

func (c *memCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	c.m[key] = b
	c.sets++
	return nil
}

func TestPromo_Validate(t *testing.T) {
	db := newTestDB(t)
	seedPromos(t, db)
	s := newPromoService(t, db, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		code    string
		total   int64
		want    PromoResult
		wantErr error
	}{
		{"blank code checked first", "  ", 0, PromoResult{}, ErrPromoCodeRequired},
		{"non-positive total", "LUXE2026", 0, PromoResult{}, ErrInvalidCartTotal},
		{"ten percent", " luxe2026 ", 200000, PromoResult{Code: "LUXE2026", DiscountPercent: 10, DiscountAmount: 20000}, nil},
		{"unknown", "FAKE", 200000, PromoResult{}, ErrPromoNotFound},
		{"inactive looks unknown", "off", 200000, PromoResult{}, ErrPromoNotFound},
		{"expired is distinct", "OLD10", 200000, PromoResult{}, ErrPromoExpired},
		{"full discount bounded", "ALL", 5000, PromoResult{Code: "ALL", DiscountPercent: 100, DiscountAmount: 5000}, nil},
		{"rounds half up", "ODD15", 333, PromoResult{Code: "ODD15", DiscountPercent: 15, DiscountAmount: 50}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Validate(ctx, tc.code, tc.total)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("got %+v; want %+v", got, tc.want)
			}
		})
	}
}

func TestPromo_RejectionIsRepeatable(t *testing.T) {
	s := newPromoService(t, newTestDB(t), nil)
	for i := 0; i < 2; i++ {
		if _, err := s.Validate(context.Background(), "FAKE", 200000); !errors.Is(err, ErrPromoNotFound) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
}

func TestPromo_CacheServesRepeatLookups(t *testing.T) {
	db := newTestDB(t)
	seedPromos(t, db)
	c := &memCache{}
	s := newPromoService(t, db, c)
	ctx := context.Background()

	if _, err := s.Validate(ctx, "LUXE2026", 1000); err != nil {
		t.Fatalf("first: %v", err)
	}
	if c.sets != 1 {
		t.Fatalf("sets = %d; want 1", c.sets)
	}
	if err := db.Where("code = ?", "LUXE2026").Delete(&domain.PromoRule{}).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.Validate(ctx, "LUXE2026", 1000)
	if err != nil || got.DiscountAmount != 100 {
		t.Fatalf("cached lookup: %+v %v", got, err)
	}

	// A broken cache degrades to the database.
	c.getErr = errors.New("redis down")
	if _, err := s.Validate(ctx, "LUXE2026", 1000); !errors.Is(err, ErrPromoNotFound) {
		t.Fatalf("db fallback after cache error: %v", err)
	}
}

// ----- orders -----

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) NotifyOrder(ctx context.Context, o *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	n.calls = append(n.calls, o.ID)
	return n.err
}

func baseOrder() CreateOrderInput {
	return CreateOrderInput{
		OrderID:       "ord-1",
		FirstName:     "Aziz",
		LastName:      "Karimov",
		Phone:         "+998 (90) 123-45-67",
		Address:       "Amir Temur 1",
		City:          "Toshkent",
		PaymentMethod: "cash",
		Total:         200000,
		Cart:          []OrderLine{{ProductID: 1, Name: "P1", Price: 100000, Quantity: 2}},
	}
}

func newOrderService(t *testing.T) (*OrderService, *recordingNotifier, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	seedPromos(t, db)
	n := &recordingNotifier{}
	s := NewOrderService(db, newPromoService(t, db, nil), n, zerolog.Nop())
	return s, n, db
}

func TestOrder_CreateWithPromo(t *testing.T) {
	s, n, db := newOrderService(t)
	in := baseOrder()
	in.PromoCode = "luxe2026"
	in.DiscountAmount = 20000
	in.Total = 180000

	o, created, err := s.Create(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	if o.Total != 180000 || o.Subtotal != 200000 || o.DiscountAmount != 20000 {
		t.Fatalf("amounts: %+v", o)
	}
	if o.PromoCode == nil || *o.PromoCode != "LUXE2026" || o.Phone != "+998901234567" || o.Status != domain.StatusNew {
		t.Fatalf("fields: %+v", o)
	}
	stored, err := repo.GetOrder(context.Background(), db, "ord-1")
	if err != nil || len(stored.Items) != 1 || stored.Items[0].Quantity != 2 {
		t.Fatalf("stored: %+v %v", stored, err)
	}
	if len(n.calls) != 1 {
		t.Fatalf("notifications = %v", n.calls)
	}
}

func TestOrder_ReplayIsNotNotifiedTwice(t *testing.T) {
	s, n, _ := newOrderService(t)
	ctx := context.Background()
	if _, created, err := s.Create(ctx, baseOrder()); err != nil || !created {
		t.Fatalf("first: %v", err)
	}
	o, created, err := s.Create(ctx, baseOrder())
	if err != nil || created || o.ID != "ord-1" {
		t.Fatalf("replay: created=%v err=%v", created, err)
	}
	if len(n.calls) != 1 {
		t.Fatalf("notifications = %v", n.calls)
	}

	other := baseOrder()
	other.Cart[0].Quantity = 3
	other.Total = 300000
	if _, _, err := s.Create(ctx, other); !errors.Is(err, ErrOrderConflict) {
		t.Fatalf("reused id: %v", err)
	}
}

func TestOrder_NotificationFailureDoesNotFailOrder(t *testing.T) {
	s, n, _ := newOrderService(t)
	n.err = errors.New("telegram 502")
	if _, created, err := s.Create(context.Background(), baseOrder()); err != nil || !created {
		t.Fatalf("create: %v", err)
	}
}

func TestOrder_GeneratesMissingID(t *testing.T) {
	s, _, _ := newOrderService(t)
	s.NewID = func() string { return "generated" }
	in := baseOrder()
	in.OrderID = " "
	o, _, err := s.Create(context.Background(), in)
	if err != nil || o.ID != "generated" {
		t.Fatalf("got %+v %v", o, err)
	}
}

func TestOrder_Validation(t *testing.T) {
	s, n, _ := newOrderService(t)

	tests := []struct {
		name    string
		mutate  func(*CreateOrderInput)
		field   string
		wantErr error
	}{
		{"first name", func(in *CreateOrderInput) { in.FirstName = " " }, "firstName", ErrInvalidOrder},
		{"last name", func(in *CreateOrderInput) { in.LastName = "" }, "lastName", ErrInvalidOrder},
		{"phone", func(in *CreateOrderInput) { in.Phone = "12" }, "phone", ErrInvalidOrder},
		{"address", func(in *CreateOrderInput) { in.Address = "" }, "address", ErrInvalidOrder},
		{"city", func(in *CreateOrderInput) { in.City = "" }, "city", ErrInvalidOrder},
		{"payment", func(in *CreateOrderInput) { in.PaymentMethod = "bitcoin" }, "paymentMethod", ErrInvalidOrder},
		{"negative total", func(in *CreateOrderInput) { in.Total = -1 }, "total", ErrInvalidOrder},
		{"empty cart", func(in *CreateOrderInput) { in.Cart = nil }, "cart", ErrInvalidOrder},
		{"zero quantity", func(in *CreateOrderInput) { in.Cart[0].Quantity = 0 }, "cart", ErrInvalidOrder},
		{"negative price", func(in *CreateOrderInput) { in.Cart[0].Price = -5 }, "cart", ErrInvalidOrder},
		{"total mismatch", func(in *CreateOrderInput) { in.Total = 150000 }, "", ErrTotalMismatch},
		{"discount without promo", func(in *CreateOrderInput) { in.DiscountAmount = 1000; in.Total = 199000 }, "", ErrDiscountMismatch},
		{"promo discount mismatch", func(in *CreateOrderInput) {
			in.PromoCode = "LUXE2026"
			in.DiscountAmount = 50000
			in.Total = 150000
		}, "", ErrDiscountMismatch},
		{"expired promo", func(in *CreateOrderInput) { in.PromoCode = "OLD10" }, "", ErrPromoExpired},
		{"unknown promo", func(in *CreateOrderInput) { in.PromoCode = "FAKE" }, "", ErrPromoNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := baseOrder()
			in.Cart = append([]OrderLine(nil), in.Cart...)
			tc.mutate(&in)
			_, _, err := s.Create(context.Background(), in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			var ve *ValidationError
			if tc.field != "" && (!errors.As(err, &ve) || ve.Field != tc.field) {
				t.Fatalf("field = %+v; want %s", ve, tc.field)
			}
		})
	}
	if len(n.calls) != 0 {
		t.Fatalf("rejected orders must not notify: %v", n.calls)
	}
}

func TestOrder_ToleratesRoundingByOne(t *testing.T) {
	s, _, _ := newOrderService(t)
	in := baseOrder()
	in.Total = 200001
	o, _, err := s.Create(context.Background(), in)
	if err != nil || o.Total != 200000 {
		t.Fatalf("got %+v %v", o, err)
	}
}

func TestOrder_Track(t *testing.T) {
	s, _, _ := newOrderService(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		in := baseOrder()
		in.OrderID = id
		if _, _, err := s.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	got, err := s.Track(ctx, "90 123 45 67")
	if err != nil || len(got) != 2 || len(got[0].Items) != 1 {
		t.Fatalf("track: %+v %v", got, err)
	}
	none, err := s.Track(ctx, "+998 91 000 00 00")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("unknown phone: %#v %v", none, err)
	}
	if _, err := s.Track(ctx, " "); !errors.Is(err, ErrPhoneRequired) {
		t.Fatalf("blank phone: %v", err)
	}
}

// ----- catalog -----

func seedProducts(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	cats := []domain.Category{{Name: "Sumkalar", Slug: "bags", Position: 1}, {Name: "Soatlar", Slug: "watches", Position: 2}}
	for i := range cats {
		if err := repo.CreateCategory(ctx, db, &cats[i]); err != nil {
			t.Fatalf("category: %v", err)
		}
	}
	products := []domain.Product{
		{CategoryID: cats[0].ID, Name: "Hermes Birkin", Description: "Qora charm sumka", Price: 90000000},
		{CategoryID: cats[0].ID, Name: "Chanel Classic Flap", Description: "Kichik sumka", Price: 70000000},
		{CategoryID: cats[1].ID, Name: "Rolex Submariner", Description: "Po'lat soat", Price: 150000000},
	}
	for i := range products {
		if err := repo.CreateProduct(ctx, db, &products[i]); err != nil {
			t.Fatalf("product: %v", err)
		}
	}
}

func TestCatalog_ListGetCategories(t *testing.T) {
	db := newTestDB(t)
	seedProducts(t, db)
	s := NewCatalogService(db)
	ctx := context.Background()

	page, total, err := s.List(ctx, ProductQuery{Page: 2, PageSize: 2})
	if err != nil || total != 3 || len(page) != 1 {
		t.Fatalf("page 2: %d items, total %d, %v", len(page), total, err)
	}
	empty, total, err := s.List(ctx, ProductQuery{Query: "telefon"})
	if err != nil || total != 0 || empty == nil {
		t.Fatalf("no match should be an empty slice: %#v %v", empty, err)
	}

	p, err := s.Get(ctx, page[0].ID)
	if err != nil || p.Name != page[0].Name {
		t.Fatalf("get: %+v %v", p, err)
	}
	if _, err := s.Get(ctx, 9999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing: %v", err)
	}

	cats, err := s.Categories(ctx)
	if err != nil || len(cats) != 2 || cats[0].Slug != "bags" {
		t.Fatalf("categories: %+v %v", cats, err)
	}
}

func TestCatalog_SearchRebuildsOnChange(t *testing.T) {
	db := newTestDB(t)
	seedProducts(t, db)
	s := NewCatalogService(db)
	ctx := context.Background()

	got, err := s.Search(ctx, "sumka", 5)
	if err != nil || len(got) != 2 {
		t.Fatalf("search: %+v %v", got, err)
	}
	v1, _ := s.Version(ctx, 0)

	if err := repo.CreateProduct(ctx, db, &domain.Product{CategoryID: got[0].CategoryID, Name: "Dior Saddle", Description: "Sumka", Price: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	v2, _ := s.Version(ctx, 0)
	if v1 == v2 {
		t.Fatalf("version should change after insert")
	}
	got, err = s.Search(ctx, "saddle", 5)
	if err != nil || len(got) != 1 || got[0].Name != "Dior Saddle" {
		t.Fatalf("search after insert: %+v %v", got, err)
	}
}

// ----- voice -----

func TestVoice_Descriptor(t *testing.T) {
	s := &VoiceService{Endpoint: "wss://example.test/live", Model: "gemini-live", APIKeys: []string{" ", "k1", "k2"}}
	d, err := s.Descriptor()
	if err != nil {
		t.Fatalf("descriptor: %v", err)
	}
	if d.WSURL != "wss://example.test/live?key=k1" || d.Model != "gemini-live" {
		t.Fatalf("got %+v", d)
	}
	if _, err := (&VoiceService{Endpoint: "wss://x", Model: "m"}).Descriptor(); !errors.Is(err, ErrVoiceUnavailable) {
		t.Fatalf("no key: %v", err)
	}
}
