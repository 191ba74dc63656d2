package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Clark-Hu/course-reviews/internal/repository"
)

func BenchmarkHandleCreateReview(b *testing.B) {
	srv := buildTestServer(b)
	token, _ := signUp(b, srv, "bench@example.com", "Bench")
	body := map[string]interface{}{"title": "Benchmark review", "content": "Benchmark review body", "rating": 4}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		course, err := srv.repo.Courses.Create(context.Background(), repository.CourseCreateParams{
			Title:       fmt.Sprintf("Benchmark Course %d", i),
			Instructor:  "Bench",
			Description: "Benchmark",
			Category:    "Programming",
			Level:       "Beginner",
			Duration:    "1 hour",
			Price:       "$1",
		})
		if err != nil {
			b.Fatalf("create course: %v", err)
		}
		b.StartTimer()

		rec := doRequest(b, srv, http.MethodPost, "/api/courses/"+course.ID+"/reviews", token, body)
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
