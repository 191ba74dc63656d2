package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/course-reviews/internal/catalog"
	"github.com/Clark-Hu/course-reviews/internal/domain"
	"github.com/Clark-Hu/course-reviews/internal/repository"
	"github.com/Clark-Hu/course-reviews/internal/reviews"
)

type courseCreateRequest struct {
	Title       string  `json:"title"`
	Instructor  string  `json:"instructor"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Level       string  `json:"level"`
	Duration    string  `json:"duration"`
	Price       string  `json:"price"`
	Thumbnail   *string `json:"thumbnail"`
	Students    *int    `json:"students"`
}

type courseUpdateRequest struct {
	Title       *string `json:"title"`
	Instructor  *string `json:"instructor"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Level       *string `json:"level"`
	Duration    *string `json:"duration"`
	Price       *string `json:"price"`
	Thumbnail   *string `json:"thumbnail"`
	Students    *int    `json:"students"`
}

type courseResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Instructor    string    `json:"instructor"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Level         string    `json:"level"`
	Duration      string    `json:"duration"`
	Price         string    `json:"price"`
	Thumbnail     *string   `json:"thumbnail"`
	Students      int       `json:"students"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	AverageRating *float64  `json:"averageRating,omitempty"`
	ReviewCount   *int      `json:"reviewCount,omitempty"`
}

// courseDetailResponse always carries reviews, empty when there are none.
type courseDetailResponse struct {
	courseResponse
	Reviews []reviewResponse `json:"reviews"`
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	q, err := buildCourseQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.repo.Courses.List(r.Context(), q)
	if err != nil {
		s.respondInternal(w, r, "list courses failed", err)
		return
	}

	items := make([]courseResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, toCourseWithRatingResponse(item.Course, item.Rating))
	}
	s.respondPage(w, items, catalog.NewPagination(q.Page, q.Limit, result.Total))
}

func buildCourseQuery(query url.Values) (catalog.Query, error) {
	var q catalog.Query

	q.Category = strings.TrimSpace(query.Get("category"))
	q.Level = strings.TrimSpace(query.Get("level"))
	q.Search = strings.TrimSpace(query.Get("search"))

	sortBy, err := catalog.ParseSortKey(query.Get("sortBy"))
	if err != nil {
		return q, err
	}
	q.SortBy = sortBy

	sortOrder, err := catalog.ParseSortOrder(query.Get("sortOrder"))
	if err != nil {
		return q, err
	}
	q.SortOrder = sortOrder

	page, limit, err := parsePageParams(query)
	if err != nil {
		return q, err
	}
	q.Page, q.Limit = page, limit

	return q.Normalize(), nil
}

func parsePageParams(query url.Values) (int, int, error) {
	page, limit := 0, 0
	if val := strings.TrimSpace(query.Get("page")); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed < 1 {
			return 0, 0, fmt.Errorf("invalid page value")
		}
		page = parsed
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed < 1 {
			return 0, 0, fmt.Errorf("invalid limit value")
		}
		limit = parsed
	}
	page, limit = catalog.NormalizePage(page, limit)
	return page, limit, nil
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req courseCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	params := repository.CourseCreateParams{
		Title:       strings.TrimSpace(req.Title),
		Instructor:  strings.TrimSpace(req.Instructor),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Level:       strings.TrimSpace(req.Level),
		Duration:    strings.TrimSpace(req.Duration),
		Price:       strings.TrimSpace(req.Price),
		Thumbnail:   normalizeStringPtr(req.Thumbnail),
	}
	if params.Title == "" || params.Instructor == "" || params.Description == "" || params.Category == "" ||
		params.Level == "" || params.Duration == "" || params.Price == "" {
		s.respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Students != nil {
		if *req.Students < 0 {
			s.respondError(w, http.StatusBadRequest, "students must be non-negative")
			return
		}
		params.Students = *req.Students
	}

	course, err := s.repo.Courses.Create(r.Context(), params)
	if err != nil {
		s.respondInternal(w, r, "create course failed", err)
		return
	}

	w.Header().Set("Location", "/api/courses/"+course.ID)
	s.respondData(w, http.StatusCreated, toCourseResponse(course), "")
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, ok := s.loadCourse(w, r)
	if !ok {
		return
	}

	items, err := s.repo.Reviews.ListByCourse(r.Context(), course.ID)
	if err != nil {
		s.respondInternal(w, r, "load course reviews failed", err)
		return
	}

	resp := courseDetailResponse{
		courseResponse: toCourseWithRatingResponse(course, reviews.AggregateReviews(items)),
		Reviews:        make([]reviewResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Reviews = append(resp.Reviews, toReviewResponse(item, false))
	}
	s.respondData(w, http.StatusOK, resp, "")
}

func (s *Server) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if !validID(courseID) {
		s.respondError(w, http.StatusNotFound, "Course not found")
		return
	}

	var req courseUpdateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	params := repository.CourseUpdateParams{Thumbnail: normalizeStringPtr(req.Thumbnail), Students: req.Students}
	fields := []struct {
		name string
		src  *string
		dst  **string
	}{
		{"title", req.Title, &params.Title},
		{"instructor", req.Instructor, &params.Instructor},
		{"description", req.Description, &params.Description},
		{"category", req.Category, &params.Category},
		{"level", req.Level, &params.Level},
		{"duration", req.Duration, &params.Duration},
		{"price", req.Price, &params.Price},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		val := strings.TrimSpace(*f.src)
		if val == "" {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("%s cannot be empty", f.name))
			return
		}
		*f.dst = &val
	}
	if req.Students != nil && *req.Students < 0 {
		s.respondError(w, http.StatusBadRequest, "students must be non-negative")
		return
	}

	course, err := s.repo.Courses.Update(r.Context(), courseID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Course not found")
			return
		}
		s.respondInternal(w, r, "update course failed", err)
		return
	}
	s.respondData(w, http.StatusOK, toCourseResponse(course), "")
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if !validID(courseID) {
		s.respondError(w, http.StatusNotFound, "Course not found")
		return
	}

	if err := s.repo.Courses.Delete(r.Context(), courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Course not found")
			return
		}
		s.respondInternal(w, r, "delete course failed", err)
		return
	}
	s.respondData(w, http.StatusOK, nil, "Course deleted successfully")
}

// loadCourse resolves the {courseID} path parameter, writing a 404 when the
// course does not exist.
func (s *Server) loadCourse(w http.ResponseWriter, r *http.Request) (domain.Course, bool) {
	courseID := chi.URLParam(r, "courseID")
	if !validID(courseID) {
		s.respondError(w, http.StatusNotFound, "Course not found")
		return domain.Course{}, false
	}
	course, err := s.repo.Courses.GetByID(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Course not found")
			return domain.Course{}, false
		}
		s.respondInternal(w, r, "load course failed", err)
		return domain.Course{}, false
	}
	return course, true
}

func toCourseResponse(course domain.Course) courseResponse {
	return courseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Instructor:  course.Instructor,
		Description: course.Description,
		Category:    course.Category,
		Level:       course.Level,
		Duration:    course.Duration,
		Price:       course.Price,
		Thumbnail:   course.Thumbnail,
		Students:    course.Students,
		CreatedAt:   course.CreatedAt,
		UpdatedAt:   course.UpdatedAt,
	}
}

func toCourseWithRatingResponse(course domain.Course, agg domain.RatingAggregate) courseResponse {
	resp := toCourseResponse(course)
	avg, count := agg.Average, agg.Count
	resp.AverageRating = &avg
	resp.ReviewCount = &count
	return resp
}
