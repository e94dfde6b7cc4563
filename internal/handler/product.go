package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/evermart/storefront/internal/domain/product"
)

type productResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Color       string  `json:"color"`
	Count       int     `json:"count"`
	Sold        int     `json:"sold"`
	TotalRating int     `json:"total_rating"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Brand:       p.Brand,
		Color:       p.Color,
		Count:       p.Count,
		Sold:        p.Sold,
		TotalRating: p.TotalRating,
	}
}

// ListProducts returns catalog products matching the query-string filter,
// e.g. ?category=phones&price[gte]=100&sort=-price&page=2&limit=20.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

type productRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Color       string          `json:"color"`
	Count       int             `json:"count"`
}

// CreateProduct adds a catalog entry.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &product.Product{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Brand:       req.Brand,
		Color:       req.Color,
		Count:       req.Count,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

// UpdateProduct rewrites an existing catalog entry.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := &product.Product{
		ID:          chi.URLParam(r, "productID"),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Brand:       req.Brand,
		Color:       req.Color,
		Count:       req.Count,
	}
	if err := h.products.Update(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

// DeleteProduct removes a catalog entry.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "productID")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ratingRequest struct {
	Star    int    `json:"star"`
	Comment string `json:"comment"`
}

// RateProduct records the caller's star rating and returns the product's
// recomputed average.
func (h *Handler) RateProduct(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	avg, err := h.products.Rate(r.Context(),
		chi.URLParam(r, "productID"), UserID(r.Context()), req.Star, req.Comment)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total_rating": avg})
}

// parseListFilter converts query-string parameters into a ListFilter.
// Comparison operators use the field[op] form; bare fields mean equality.
func parseListFilter(r *http.Request) (product.ListFilter, error) {
	var filter product.ListFilter

	for key, values := range r.URL.Query() {
		if len(values) == 0 || values[0] == "" {
			continue
		}
		value := values[0]

		switch key {
		case "page":
			filter.Page, _ = strconv.Atoi(value)
			continue
		case "limit":
			filter.Limit, _ = strconv.Atoi(value)
			continue
		case "sort":
			filter.Sort = strings.Split(value, ",")
			continue
		}

		field, op := key, product.OpEq
		if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
			field = key[:i]
			op = product.Op(key[i+1 : len(key)-1])
		}
		filter.Conditions = append(filter.Conditions, product.Condition{
			Field: field,
			Op:    op,
			Value: value,
		})
	}

	err := filter.Validate()
	return filter, err
}
