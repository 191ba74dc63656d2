package catalog

import (
	"math"
	"testing"
)

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		raw     string
		want    SortKey
		wantErr bool
	}{
		{"", SortRating, false},
		{"rating", SortRating, false},
		{" Students ", SortStudents, false},
		{"PRICE", SortPrice, false},
		{"date", SortDate, false},
		{"title", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortKey(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseSortKey(%q) = %q, %v", tt.raw, got, err)
		}
	}
}

func TestParseSortOrder(t *testing.T) {
	if got, err := ParseSortOrder(""); err != nil || got != Desc {
		t.Fatalf("default = %q, %v", got, err)
	}
	if got, err := ParseSortOrder("ASC"); err != nil || got != Asc {
		t.Fatalf("ASC = %q, %v", got, err)
	}
	if _, err := ParseSortOrder("sideways"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestQueryNormalize(t *testing.T) {
	q := Query{Category: " All ", Level: "all", Search: "  go  ", Page: -1, Limit: 1000}.Normalize()
	if q.Category != "" || q.Level != "" {
		t.Fatalf("All filters not dropped: %+v", q)
	}
	if q.Search != "go" {
		t.Fatalf("search = %q", q.Search)
	}
	if q.SortBy != SortRating || q.SortOrder != Desc {
		t.Fatalf("sort defaults = %s %s", q.SortBy, q.SortOrder)
	}
	if q.Page != DefaultPage || q.Limit != MaxLimit {
		t.Fatalf("page/limit = %d/%d", q.Page, q.Limit)
	}
	if q.Offset() != 0 {
		t.Fatalf("offset = %d", q.Offset())
	}

	q = Query{Category: "Design", Page: 3, Limit: 0}.Normalize()
	if q.Category != "Design" || q.Limit != DefaultLimit || q.Offset() != 20 {
		t.Fatalf("normalized = %+v offset %d", q, q.Offset())
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.limit); got != tt.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	if p.Page != 2 || p.Limit != 10 || p.Total != 25 || p.TotalPages != 3 {
		t.Fatalf("pagination = %+v", p)
	}
}

func TestOffsetSaturates(t *testing.T) {
	if got := Offset(3, 10); got != 20 {
		t.Fatalf("Offset(3, 10) = %d", got)
	}
	if got := Offset(math.MaxInt, MaxLimit); got != math.MaxInt {
		t.Fatalf("Offset overflowed: %d", got)
	}
	if got := Paginate([]int{1, 2}, math.MaxInt, MaxLimit); len(got) != 0 {
		t.Fatalf("huge page = %v", got)
	}
}
