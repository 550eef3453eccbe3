package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/repo"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/search"
)

// ProductQuery selects one page of the catalog.
type ProductQuery struct {
	CategoryID int64
	Query      string
	Page       int
	PageSize   int
}

// CatalogService serves categories and active products.
type CatalogService struct {
	DB          *gorm.DB
	MaxPageSize int

	mu       sync.Mutex
	idx      search.Index
	byID     map[string]domain.Product
	idxStamp string
}

// NewCatalogService builds a CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db, MaxPageSize: 100}
}

// List returns a page of active products and the total number of matches.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) ([]domain.Product, int64, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int64("category.id", q.CategoryID),
			attribute.Int("page", q.Page),
			attribute.Int("page_size", q.PageSize),
		),
	)
	defer span.End()

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if s.MaxPageSize > 0 && q.PageSize > s.MaxPageSize {
		q.PageSize = s.MaxPageSize
	}
	items, total, err := repo.ListProducts(ctx, s.DB, repo.ProductFilter{
		CategoryID: q.CategoryID,
		Query:      q.Query,
		Offset:     (q.Page - 1) * q.PageSize,
		Limit:      q.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, total, nil
}

// Get returns one active product.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := repo.GetProduct(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Categories returns every category in display order.
func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	out, err := repo.ListCategories(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Category{}
	}
	return out, nil
}

// Version returns a fingerprint of the active products in categoryID (0 for
// all) that changes whenever a product is added, removed or edited.
func (s *CatalogService) Version(ctx context.Context, categoryID int64) (string, error) {
	count, maxUpdated, err := repo.ProductsStats(ctx, s.DB, categoryID)
	if err != nil {
		return "", err
	}
	var ts int64
	if maxUpdated != nil {
		ts = maxUpdated.UTC().UnixNano()
	}
	return fmt.Sprintf("%d-%d-%d", categoryID, count, ts), nil
}

// Search ranks active products by name and description. The index is
// rebuilt only when the catalog version changes.
func (s *CatalogService) Search(ctx context.Context, query string, k int) ([]domain.Product, error) {
	tr := otel.Tracer("services/CatalogService")
	ctx, span := tr.Start(ctx, "Search")
	defer span.End()

	idx, byID, err := s.index(ctx)
	if err != nil {
		return nil, err
	}
	hits := idx.TopK(query, k)
	out := make([]domain.Product, 0, len(hits))
	for _, h := range hits {
		if p, ok := byID[h.ID]; ok {
			out = append(out, p)
		}
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

func (s *CatalogService) index(ctx context.Context) (search.Index, map[string]domain.Product, error) {
	stamp, err := s.Version(ctx, 0)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil && s.idxStamp == stamp {
		return s.idx, s.byID, nil
	}

	start := time.Now()
	products, _, err := repo.ListProducts(ctx, s.DB, repo.ProductFilter{})
	if err != nil {
		return nil, nil, err
	}
	docs := make([]search.Doc, 0, len(products))
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		id := strconv.FormatInt(p.ID, 10)
		docs = append(docs, search.Doc{ID: id, Text: p.Name + "\n" + p.Description})
		byID[id] = p
	}
	s.idx = search.NewIndex(docs)
	s.byID = byID
	s.idxStamp = stamp
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("index.docs", len(docs)),
		attribute.Int64("index.build_us", time.Since(start).Microseconds()),
	)
	return s.idx, s.byID, nil
}
