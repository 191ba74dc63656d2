package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/Clark-Hu/course-reviews/internal/domain"
)

func course(id, title, category, level, price string, students int, age time.Duration, avg float64) domain.CourseWithRating {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.CourseWithRating{
		Course: domain.Course{
			ID:          id,
			Title:       title,
			Instructor:  "Taught by " + title,
			Description: "A course about " + title,
			Category:    category,
			Level:       level,
			Price:       price,
			Students:    students,
			CreatedAt:   base.Add(-age),
		},
		Rating: domain.RatingAggregate{Average: avg, Count: 1},
	}
}

func ids(items []domain.CourseWithRating) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return fmt.Sprint(out)
}

func fixture() []domain.CourseWithRating {
	return []domain.CourseWithRating{
		course("a", "Python Basics", "Programming", "Beginner", "$89.99", 15420, 4*time.Hour, 4.5),
		course("b", "React Advanced", "Web Development", "Intermediate", "$129.99", 8750, 3*time.Hour, 4.8),
		course("c", "Figma Design", "Design", "Beginner", "Free", 300, 2*time.Hour, 4.5),
		course("d", "Machine Learning", "Data Science", "Advanced", "$1,049.00", 5200, 1*time.Hour, 3.9),
	}
}

func TestPriceValue(t *testing.T) {
	tests := map[string]float64{
		"$89.99":    89.99,
		"$1,049.00": 1049,
		"Free":      0,
		"":          0,
		"USD 15":    15,
	}
	for in, want := range tests {
		if got := PriceValue(in); got != want {
			t.Fatalf("PriceValue(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		key   SortKey
		order SortOrder
		want  string
	}{
		// a and c tie on rating; a is older so c comes first either way.
		{SortRating, Desc, "[b c a d]"},
		{SortRating, Asc, "[d c a b]"},
		{SortStudents, Desc, "[a b d c]"},
		{SortStudents, Asc, "[c d b a]"},
		{SortPrice, Asc, "[c a b d]"},
		{SortPrice, Desc, "[d b a c]"},
		{SortDate, Desc, "[d c b a]"},
		{SortDate, Asc, "[a b c d]"},
	}
	for _, tt := range tests {
		t.Run(string(tt.key)+"-"+string(tt.order), func(t *testing.T) {
			items := fixture()
			Sort(items, tt.key, tt.order)
			if got := ids(items); got != tt.want {
				t.Fatalf("Sort = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Paginate(items, 1, 2); fmt.Sprint(got) != "[1 2]" {
		t.Fatalf("page 1 = %v", got)
	}
	if got := Paginate(items, 3, 2); fmt.Sprint(got) != "[5]" {
		t.Fatalf("page 3 = %v", got)
	}
	if got := Paginate(items, 4, 2); len(got) != 0 || got == nil {
		t.Fatalf("page past end = %#v", got)
	}
}

func TestSortPageSortsBeforePaginating(t *testing.T) {
	q := Query{SortBy: SortRating, SortOrder: Desc, Page: 1, Limit: 2}

	first, total := SortPage(fixture(), q)
	if total != 4 || ids(first) != "[b c]" {
		t.Fatalf("page 1 = %s (total %d)", ids(first), total)
	}
	q.Page = 2
	second, _ := SortPage(fixture(), q)
	if ids(second) != "[a d]" {
		t.Fatalf("page 2 = %s", ids(second))
	}
	q.Page = 3
	if past, total := SortPage(fixture(), q); len(past) != 0 || total != 4 {
		t.Fatalf("page 3 = %s (total %d)", ids(past), total)
	}
}

func TestSortPageKeepsEveryItem(t *testing.T) {
	// Items arrive filtered; SortPage must not drop any of them, including
	// ones whose text would not match a search term.
	items := fixture()
	items[0].Title = "ŞPython"
	got, total := SortPage(items, Query{Search: "şpython", SortBy: SortStudents, SortOrder: Asc, Limit: 10})
	if total != 4 || ids(got) != "[c d b a]" {
		t.Fatalf("SortPage = %s (total %d)", ids(got), total)
	}
}

func FuzzSortPage(f *testing.F) {
	f.Add("rating", "desc", 1, 2)
	f.Add("price", "asc", 3, 1)
	f.Add("students", "asc", 0, 0)

	f.Fuzz(func(t *testing.T, sortBy, sortOrder string, page, limit int) {
		key, err := ParseSortKey(sortBy)
		if err != nil {
			return
		}
		order, err := ParseSortOrder(sortOrder)
		if err != nil {
			return
		}
		q := Query{SortBy: key, SortOrder: order, Page: page, Limit: limit}
		got, total := SortPage(fixture(), q)
		n := q.Normalize()
		if total != 4 || len(got) > n.Limit {
			t.Fatalf("page of %d (total %d) exceeds limit %d", len(got), total, n.Limit)
		}
	})
}
