package catalog

import (
	"cmp"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Clark-Hu/course-reviews/internal/domain"
)

// PricePattern extracts the numeric part of a display price such as "$89.99".
// The repository uses the same expression in SQL.
const PricePattern = `[0-9]+(?:\.[0-9]+)?`

var priceRe = regexp.MustCompile(PricePattern)

// PriceValue returns the numeric value of a display price, 0 when absent.
func PriceValue(price string) float64 {
	match := priceRe.FindString(strings.ReplaceAll(price, ",", ""))
	if match == "" {
		return 0
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return val
}

// Sort orders items in place by key and direction. Ties fall back to newest
// first, then id descending, matching the SQL ordering.
func Sort(items []domain.CourseWithRating, key SortKey, order SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if c := compare(a, b, key); c != 0 {
			if order == Asc {
				return c < 0
			}
			return c > 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func compare(a, b domain.CourseWithRating, key SortKey) int {
	switch key {
	case SortRating:
		return cmp.Compare(a.Rating.Average, b.Rating.Average)
	case SortStudents:
		return cmp.Compare(a.Students, b.Students)
	case SortPrice:
		return cmp.Compare(PriceValue(a.Price), PriceValue(b.Price))
	case SortDate:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

// Paginate returns the page-th slice of size limit.
func Paginate[T any](items []T, page, limit int) []T {
	start := Offset(page, limit)
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// SortPage orders an already filtered set by q and returns the requested
// page together with the size of the set.
func SortPage(items []domain.CourseWithRating, q Query) ([]domain.CourseWithRating, int) {
	q = q.Normalize()
	Sort(items, q.SortBy, q.SortOrder)
	return Paginate(items, q.Page, q.Limit), len(items)
}
