// Package catalog implements course listing semantics: filtering by category,
// level and free text, sorting and page-based pagination.
package catalog

import (
	"fmt"
	"math"
	"strings"
)

// SortKey selects the listing order.
type SortKey string

const (
	SortRating   SortKey = "rating"
	SortStudents SortKey = "students"
	SortPrice    SortKey = "price"
	SortDate     SortKey = "date"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// AllValue disables the category or level filter.
	AllValue = "All"
)

// Query describes one course listing request.
type Query struct {
	Category  string
	Level     string
	Search    string
	SortBy    SortKey
	SortOrder SortOrder
	Page      int
	Limit     int
}

// ParseSortKey validates a sort key; empty selects the rating default.
func ParseSortKey(raw string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(raw))); key {
	case "":
		return SortRating, nil
	case SortRating, SortStudents, SortPrice, SortDate:
		return key, nil
	default:
		return "", fmt.Errorf("invalid sortBy value")
	}
}

// ParseSortOrder validates a direction; empty selects descending.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(raw))); order {
	case "":
		return Desc, nil
	case Asc, Desc:
		return order, nil
	default:
		return "", fmt.Errorf("invalid sortOrder value")
	}
}

// Normalize applies defaults, clamps the limit and drops "All" filters.
func (q Query) Normalize() Query {
	q.Category = normalizeFilter(q.Category)
	q.Level = normalizeFilter(q.Level)
	q.Search = strings.TrimSpace(q.Search)
	if q.SortBy == "" {
		q.SortBy = SortRating
	}
	if q.SortOrder == "" {
		q.SortOrder = Desc
	}
	q.Page, q.Limit = NormalizePage(q.Page, q.Limit)
	return q
}

// Offset is the number of rows skipped before the current page.
func (q Query) Offset() int {
	return Offset(q.Page, q.Limit)
}

func normalizeFilter(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, AllValue) {
		return ""
	}
	return value
}

// Pagination is the metadata returned alongside a page of results.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// NewPagination builds pagination metadata for a page of a total.
func NewPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}
}

// NormalizePage applies the page/limit defaults and the limit cap.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Offset converts a 1-based page into a row offset.
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
