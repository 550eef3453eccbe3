package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/domain"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/services"
	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListProductsResponse wraps a page of products.
type ListProductsResponse struct {
	Products   []domain.Product `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

// SearchResponse is the ranked result of a catalog search.
type SearchResponse struct {
	Query    string           `json:"query"`
	Products []domain.Product `json:"products"`
}

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
	maxSearchLimit  = 50
)

// clampPagination parses page and page_size and bounds them.
func clampPagination(c *gin.Context) (page, pageSize int) {
	page = utils.IntInRange(c.Query("page"), defaultPage, 1, math.MaxInt32)
	pageSize = utils.IntInRange(c.Query("page_size"), defaultPageSize, 1, maxPageSize)
	return page, pageSize
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List products (paginated)
// @Description Returns a page of active products, optionally filtered by category and a name filter. Unfiltered-by-text pages carry a weak ETag and may return 304.
// @Tags        Catalog
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       category       query   int     false  "Category id"
// @Param       q              query   string  false  "Name filter"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListProductsResponse
// @Header      200  {string}  ETag  "Weak ETag for the current page"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad category"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	if h.catalog == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgInternal)
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	var categoryID int64
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Kategoriya noto'g'ri")
			return
		}
		categoryID = id
	}
	q := strings.TrimSpace(c.Query("q"))

	// ETag pre-check (best effort, only for pages without a text filter).
	if q == "" {
		if v, err := h.catalog.Version(ctx, categoryID); err == nil {
			etag := fmt.Sprintf(`W/"products:%s:%d:%d"`, v, page, pageSize)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.catalog.List(ctx, services.ProductQuery{
		CategoryID: categoryID,
		Query:      q,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListProductsResponse{
		Products: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetProduct godoc
// @ID          getProduct
// @Summary     Get a product
// @Tags        Catalog
// @Produce     json
// @Param       id   path  int  true  "Product id"  minimum(1)
// @Success     200  {object}  domain.Product
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /products/{id} [get]
func (h *Handlers) GetProduct(c *gin.Context) {
	if h.catalog == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgInternal)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Mahsulot raqami noto'g'ri")
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgProductNotFound)
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
	default:
		ok(c, http.StatusOK, p)
	}
}

// SearchProducts godoc
// @ID          searchProducts
// @Summary     Search the catalog
// @Description Ranks active products by how well their name and description match the query.
// @Tags        Catalog
// @Produce     json
// @Param       q      query  string  true   "Search text"
// @Param       limit  query  int     false  "Max results"  minimum(1) maximum(50) default(10)
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing query"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /search [get]
func (h *Handlers) SearchProducts(c *gin.Context) {
	if h.catalog == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgInternal)
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Qidiruv so'zini kiriting")
		return
	}
	limit := utils.IntInRange(c.Query("limit"), 10, 1, maxSearchLimit)
	items, err := h.catalog.Search(c.Request.Context(), q, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
		return
	}
	if items == nil {
		items = []domain.Product{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Products: items})
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Tags        Catalog
// @Produce     json
// @Success     200  {array}   domain.Category
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	if h.catalog == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, msgInternal)
		return
	}
	cats, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
		return
	}
	ok(c, http.StatusOK, cats)
}
