package product

import (
	"fmt"
	"strings"
)

// Op enumerates the comparison operators accepted by ListFilter.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

// DefaultLimit and MaxLimit bound catalog page sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// InvalidFilterError reports a filter referencing a field or operator
// outside the allow-list.
type InvalidFilterError struct {
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return "invalid filter: " + e.Reason
}

// Condition is a single field comparison, e.g. price >= 100.
type Condition struct {
	Field string
	Op    Op
	Value string
}

// ListFilter describes catalog filtering, sorting, and pagination. All
// fields and operators are validated against an allow-list before any SQL
// is built, so untrusted query-string input cannot widen the query shape.
type ListFilter struct {
	Conditions []Condition
	// Sort holds allow-listed field names, each optionally prefixed with
	// '-' for descending order.
	Sort  []string
	Page  int
	Limit int
}

var filterableFields = map[string]string{
	"title":        "title",
	"price":        "price",
	"category":     "category",
	"brand":        "brand",
	"color":        "color",
	"count":        "count",
	"sold":         "sold",
	"total_rating": "total_rating",
}

var sortableFields = map[string]string{
	"title":        "title",
	"price":        "price",
	"sold":         "sold",
	"total_rating": "total_rating",
	"created_at":   "created_at",
}

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Validate checks every condition and sort key against the allow-lists and
// normalizes pagination bounds.
func (f *ListFilter) Validate() error {
	for _, c := range f.Conditions {
		if _, ok := filterableFields[c.Field]; !ok {
			return &InvalidFilterError{Reason: fmt.Sprintf("unknown field %q", c.Field)}
		}
		if _, ok := sqlOps[c.Op]; !ok {
			return &InvalidFilterError{Reason: fmt.Sprintf("unknown operator %q", c.Op)}
		}
	}
	for _, s := range f.Sort {
		key := strings.TrimPrefix(s, "-")
		if _, ok := sortableFields[key]; !ok {
			return &InvalidFilterError{Reason: fmt.Sprintf("unsortable field %q", key)}
		}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return nil
}

// BuildSQL compiles the filter into a WHERE clause, ORDER BY clause, and
// positional arguments starting at $1. Validate must have been called; an
// unvalidated filter with unknown fields yields an error, never raw SQL.
func (f *ListFilter) BuildSQL() (where, orderBy string, args []any, err error) {
	if err := f.Validate(); err != nil {
		return "", "", nil, err
	}

	var clauses []string
	for _, c := range f.Conditions {
		col := filterableFields[c.Field]
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", col, sqlOps[c.Op], len(args)+1))
		args = append(args, c.Value)
	}
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	var orders []string
	for _, s := range f.Sort {
		dir := "ASC"
		key := s
		if strings.HasPrefix(s, "-") {
			dir = "DESC"
			key = s[1:]
		}
		orders = append(orders, sortableFields[key]+" "+dir)
	}
	if len(orders) == 0 {
		orders = append(orders, "created_at DESC")
	}
	orderBy = "ORDER BY " + strings.Join(orders, ", ")

	return where, orderBy, args, nil
}

// Offset returns the row offset implied by Page and Limit.
func (f *ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
