package httpserver

import (
	"net/url"
	"testing"

	"github.com/Clark-Hu/course-reviews/internal/catalog"
)

func FuzzBuildCourseQuery(f *testing.F) {
	seeds := []string{
		"category=Programming&level=Beginner&search=python",
		"sortBy=rating&sortOrder=asc&page=2&limit=5",
		"sortBy=bogus",
		"limit=100000",
		"page=-3",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		q, err := buildCourseQuery(values)
		if err != nil {
			return
		}
		if q.Page < 1 || q.Limit < 1 || q.Limit > catalog.MaxLimit {
			t.Fatalf("page/limit out of range: %d/%d", q.Page, q.Limit)
		}
		if q.Category == catalog.AllValue || q.Level == catalog.AllValue {
			t.Fatalf("All filter not dropped: %+v", q)
		}
	})
}
