package httpserver

import (
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestCreateReview(t *testing.T) {
	srv := buildTestServer(t)
	token, userID := signUp(t, srv, "alice@example.com", "Alice")
	course := seedCourse(t, srv, "Complete Python Programming", "Programming", "Beginner", "$89.99", 15420)
	path := "/api/courses/" + course.ID + "/reviews"

	valid := map[string]interface{}{
		"title":   "Great course",
		"content": "Clear explanations throughout.",
		"rating":  5,
		"pros":    "  Pacing  ",
		"cons":    "   ",
	}

	t.Run("requires auth", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, path, "", valid)
		expectStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name string
			body map[string]interface{}
			want string
		}{
			{"missing rating", map[string]interface{}{"title": "Great course", "content": "Clear explanations throughout."}, "Missing required fields"},
			{"rating too high", map[string]interface{}{"title": "Great course", "content": "Clear explanations throughout.", "rating": 6}, "Rating must be between 1 and 5"},
			{"rating zero", map[string]interface{}{"title": "Great course", "content": "Clear explanations throughout.", "rating": 0}, "Rating must be between 1 and 5"},
			{"short title", map[string]interface{}{"title": "Meh", "content": "Clear explanations throughout.", "rating": 3}, "Title must be at least 5 characters long"},
			{"short content", map[string]interface{}{"title": "Great course", "content": "Too short", "rating": 3}, "Content must be at least 10 characters long"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := doRequest(t, srv, http.MethodPost, path, token, tc.body)
				expectStatus(t, rec, http.StatusBadRequest)
				if env := decodeEnvelope(t, rec, nil); env.Message != tc.want {
					t.Fatalf("message = %q, want %q", env.Message, tc.want)
				}
			})
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/courses/"+uuid.NewString()+"/reviews", token, valid)
		expectStatus(t, rec, http.StatusNotFound)
	})

	var created reviewResponse
	t.Run("success", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, path, token, valid)
		expectStatus(t, rec, http.StatusCreated)
		decodeEnvelope(t, rec, &created)
		if created.UserID != userID || created.CourseID != course.ID || created.Rating != 5 {
			t.Fatalf("created = %+v", created)
		}
		if !created.WouldRecommend {
			t.Fatalf("wouldRecommend should default to true")
		}
		if created.Pros == nil || *created.Pros != "Pacing" || created.Cons != nil {
			t.Fatalf("pros/cons not normalized: %+v %+v", created.Pros, created.Cons)
		}
		if created.User == nil || created.User.Name != "Alice" {
			t.Fatalf("author summary missing: %+v", created.User)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, path, token, valid)
		expectStatus(t, rec, http.StatusConflict)
		if env := decodeEnvelope(t, rec, nil); env.Message != "You have already reviewed this course" {
			t.Fatalf("message = %q", env.Message)
		}
	})

	t.Run("course aggregate reflects review", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/courses/"+course.ID, "", nil)
		expectStatus(t, rec, http.StatusOK)
		var detail courseResponse
		decodeEnvelope(t, rec, &detail)
		if *detail.AverageRating != 5 || *detail.ReviewCount != 1 {
			t.Fatalf("aggregate = %v/%v", *detail.AverageRating, *detail.ReviewCount)
		}
	})
}

func TestCreateReview_ConcurrentDuplicates(t *testing.T) {
	srv := buildTestServer(t)
	token, _ := signUp(t, srv, "racer@example.com", "Racer")
	course := seedCourse(t, srv, "Race Conditions 101", "Programming", "Advanced", "$10", 0)

	body := map[string]interface{}{"title": "Same review", "content": "Posted from many tabs at once.", "rating": 4}
	const attempts = 8
	codes := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := doRequest(t, srv, http.MethodPost, "/api/courses/"+course.ID+"/reviews", token, body)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	if created != 1 {
		t.Fatalf("created %d reviews, want exactly 1", created)
	}
}

func TestReviewOwnership(t *testing.T) {
	srv := buildTestServer(t)
	aliceToken, _ := signUp(t, srv, "alice@example.com", "Alice")
	bobToken, _ := signUp(t, srv, "bob@example.com", "Bob")
	course := seedCourse(t, srv, "Advanced React", "Web Development", "Intermediate", "$129.99", 8750)
	other := seedCourse(t, srv, "UI Design Basics", "Design", "Beginner", "$59.99", 10)

	rec := doRequest(t, srv, http.MethodPost, "/api/courses/"+course.ID+"/reviews", aliceToken, map[string]interface{}{
		"title": "Solid material", "content": "Hooks chapter was excellent.", "rating": 4, "pros": "Hooks", "cons": "Long",
	})
	expectStatus(t, rec, http.StatusCreated)
	var review reviewResponse
	decodeEnvelope(t, rec, &review)

	scoped := "/api/courses/" + course.ID + "/reviews/" + review.ID
	flat := "/api/reviews/" + review.ID

	t.Run("missing review is 404 before ownership", func(t *testing.T) {
		missing := "/api/courses/" + course.ID + "/reviews/" + uuid.NewString()
		rec := doRequest(t, srv, http.MethodPut, missing, bobToken, map[string]interface{}{"rating": 1})
		expectStatus(t, rec, http.StatusNotFound)
		rec = doRequest(t, srv, http.MethodDelete, "/api/reviews/garbage", bobToken, nil)
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("review scoped to another course is 404", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/courses/"+other.ID+"/reviews/"+review.ID, "", nil)
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("non-author is forbidden", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPut, scoped, bobToken, map[string]interface{}{"rating": 1})
		expectStatus(t, rec, http.StatusForbidden)
		if env := decodeEnvelope(t, rec, nil); env.Message != "Not authorized to update this review" {
			t.Fatalf("message = %q", env.Message)
		}
		rec = doRequest(t, srv, http.MethodDelete, flat, bobToken, nil)
		expectStatus(t, rec, http.StatusForbidden)
		if env := decodeEnvelope(t, rec, nil); env.Message != "Not authorized to delete this review" {
			t.Fatalf("message = %q", env.Message)
		}
	})

	t.Run("author patches selected fields", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPut, scoped, aliceToken, map[string]interface{}{"rating": 2, "cons": nil})
		expectStatus(t, rec, http.StatusOK)
		var updated reviewResponse
		decodeEnvelope(t, rec, &updated)
		if updated.Rating != 2 || updated.Title != "Solid material" {
			t.Fatalf("updated = %+v", updated)
		}
		if updated.Pros == nil || *updated.Pros != "Hooks" || updated.Cons != nil {
			t.Fatalf("pros/cons = %v/%v", updated.Pros, updated.Cons)
		}
		if updated.Course == nil || updated.Course.Title != "Advanced React" {
			t.Fatalf("course summary missing: %+v", updated.Course)
		}
	})

	t.Run("patch validates provided fields", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPut, scoped, aliceToken, map[string]interface{}{"rating": 9})
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("author replaces review", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPut, flat, aliceToken, map[string]interface{}{
			"title": "Changed my mind", "content": "Second half dragged a lot.", "rating": 3, "wouldRecommend": false,
		})
		expectStatus(t, rec, http.StatusOK)
		var replaced reviewResponse
		env := decodeEnvelope(t, rec, &replaced)
		if env.Message != "Review updated successfully" {
			t.Fatalf("message = %q", env.Message)
		}
		if replaced.Rating != 3 || replaced.WouldRecommend || replaced.Pros != nil {
			t.Fatalf("replaced = %+v", replaced)
		}
	})

	t.Run("author deletes review", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodDelete, scoped, aliceToken, nil)
		expectStatus(t, rec, http.StatusOK)
		if env := decodeEnvelope(t, rec, nil); env.Message != "Review deleted successfully" {
			t.Fatalf("message = %q", env.Message)
		}
		rec = doRequest(t, srv, http.MethodGet, flat, "", nil)
		expectStatus(t, rec, http.StatusNotFound)
	})
}

func TestListReviews(t *testing.T) {
	srv := buildTestServer(t)
	course := seedCourse(t, srv, "Machine Learning Fundamentals", "Data Science", "Advanced", "$149.99", 5200)
	other := seedCourse(t, srv, "Statistics Primer", "Data Science", "Beginner", "$19.99", 40)

	var firstUser string
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		token, userID := signUp(t, srv, email, "Reviewer")
		if i == 0 {
			firstUser = userID
		}
		rec := doRequest(t, srv, http.MethodPost, "/api/courses/"+course.ID+"/reviews", token, map[string]interface{}{
			"title": "Worth the time", "content": "Covers the math properly.", "rating": i + 3,
		})
		expectStatus(t, rec, http.StatusCreated)
	}
	token, _ := signUp(t, srv, "d@example.com", "Reviewer")
	rec := doRequest(t, srv, http.MethodPost, "/api/courses/"+other.ID+"/reviews", token, map[string]interface{}{
		"title": "Good primer", "content": "Short and practical overview.", "rating": 4,
	})
	expectStatus(t, rec, http.StatusCreated)

	t.Run("course scoped paginated", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/courses/"+course.ID+"/reviews?limit=2", "", nil)
		expectStatus(t, rec, http.StatusOK)
		var items []reviewResponse
		env := decodeEnvelope(t, rec, &items)
		if len(items) != 2 || env.Pagination.Total != 3 || env.Pagination.TotalPages != 2 {
			t.Fatalf("items=%d pagination=%+v", len(items), env.Pagination)
		}
		if !items[0].CreatedAt.After(items[1].CreatedAt) && !items[0].CreatedAt.Equal(items[1].CreatedAt) {
			t.Fatalf("reviews not newest first")
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/courses/"+uuid.NewString()+"/reviews", "", nil)
		expectStatus(t, rec, http.StatusNotFound)
	})

	t.Run("global filters", func(t *testing.T) {
		cases := []struct {
			query url.Values
			want  int
		}{
			{url.Values{}, 4},
			{url.Values{"courseId": {other.ID}}, 1},
			{url.Values{"userId": {firstUser}}, 1},
			{url.Values{"userId": {firstUser}, "courseId": {other.ID}}, 0},
		}
		for _, tc := range cases {
			rec := doRequest(t, srv, http.MethodGet, "/api/reviews?"+tc.query.Encode(), "", nil)
			expectStatus(t, rec, http.StatusOK)
			var items []reviewResponse
			env := decodeEnvelope(t, rec, &items)
			if len(items) != tc.want || env.Pagination.Total != tc.want {
				t.Fatalf("%s: got %d, want %d", tc.query.Encode(), len(items), tc.want)
			}
			for _, item := range items {
				if item.Course == nil {
					t.Fatalf("global listing should embed course summary")
				}
			}
		}
	})

	t.Run("invalid filter", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/reviews?courseId=nope", "", nil)
		expectStatus(t, rec, http.StatusBadRequest)
		if env := decodeEnvelope(t, rec, nil); env.Message != "invalid courseId value" {
			t.Fatalf("message = %q", env.Message)
		}
	})
}
