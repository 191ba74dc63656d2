package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Clark-Hu/course-reviews/internal/catalog"
	"github.com/Clark-Hu/course-reviews/internal/domain"
	"github.com/Clark-Hu/course-reviews/internal/repository"
	"github.com/Clark-Hu/course-reviews/internal/reviews"
)

type reviewCreateRequest struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Rating         *int    `json:"rating"`
	Pros           *string `json:"pros"`
	Cons           *string `json:"cons"`
	WouldRecommend *bool   `json:"wouldRecommend"`
	// Sent by the web client; the path parameter is authoritative.
	CourseID string `json:"courseId"`
}

type reviewPatchRequest struct {
	Title          *string        `json:"title"`
	Content        *string        `json:"content"`
	Rating         *int           `json:"rating"`
	Pros           optionalString `json:"pros"`
	Cons           optionalString `json:"cons"`
	WouldRecommend *bool          `json:"wouldRecommend"`
}

type reviewReplaceRequest struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Rating         int     `json:"rating"`
	Pros           *string `json:"pros"`
	Cons           *string `json:"cons"`
	WouldRecommend *bool   `json:"wouldRecommend"`
}

type userSummaryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type courseSummaryResponse struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
}

type reviewResponse struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	Rating         int                    `json:"rating"`
	Pros           *string                `json:"pros"`
	Cons           *string                `json:"cons"`
	WouldRecommend bool                   `json:"wouldRecommend"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	UserID         string                 `json:"userId"`
	CourseID       string                 `json:"courseId"`
	User           *userSummaryResponse   `json:"user,omitempty"`
	Course         *courseSummaryResponse `json:"course,omitempty"`
}

func (s *Server) handleListCourseReviews(w http.ResponseWriter, r *http.Request) {
	course, ok := s.loadCourse(w, r)
	if !ok {
		return
	}
	page, limit, err := parsePageParams(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.listReviews(w, r, repository.ReviewListFilters{CourseID: course.ID, Page: page, Limit: limit}, false)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	filters, err := buildReviewFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.listReviews(w, r, filters, true)
}

func buildReviewFilters(query url.Values) (repository.ReviewListFilters, error) {
	var filters repository.ReviewListFilters
	if val := strings.TrimSpace(query.Get("courseId")); val != "" {
		if !validID(val) {
			return filters, errors.New("invalid courseId value")
		}
		filters.CourseID = val
	}
	if val := strings.TrimSpace(query.Get("userId")); val != "" {
		if !validID(val) {
			return filters, errors.New("invalid userId value")
		}
		filters.UserID = val
	}
	page, limit, err := parsePageParams(query)
	if err != nil {
		return filters, err
	}
	filters.Page, filters.Limit = page, limit
	return filters, nil
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request, filters repository.ReviewListFilters, withCourse bool) {
	result, err := s.repo.Reviews.List(r.Context(), filters)
	if err != nil {
		s.respondInternal(w, r, "list reviews failed", err)
		return
	}
	items := make([]reviewResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, toReviewResponse(item, withCourse))
	}
	s.respondPage(w, items, catalog.NewPagination(filters.Page, filters.Limit, result.Total))
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" || req.Rating == nil {
		s.respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err := reviews.ValidateDraft(req.Title, req.Content, *req.Rating); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	course, ok := s.loadCourse(w, r)
	if !ok {
		return
	}

	userID := userIDFromContext(r.Context())
	if err := reviews.EnsureUnique(r.Context(), s.repo.Reviews, userID, course.ID); err != nil {
		if errors.Is(err, reviews.ErrDuplicateReview) {
			s.respondError(w, http.StatusConflict, "You have already reviewed this course")
			return
		}
		s.respondInternal(w, r, "check duplicate review failed", err)
		return
	}

	wouldRecommend := true
	if req.WouldRecommend != nil {
		wouldRecommend = *req.WouldRecommend
	}

	review, err := s.repo.Reviews.Create(r.Context(), repository.ReviewCreateParams{
		UserID:         userID,
		CourseID:       course.ID,
		Title:          strings.TrimSpace(req.Title),
		Content:        strings.TrimSpace(req.Content),
		Rating:         *req.Rating,
		Pros:           normalizeStringPtr(req.Pros),
		Cons:           normalizeStringPtr(req.Cons),
		WouldRecommend: wouldRecommend,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.respondError(w, http.StatusConflict, "You have already reviewed this course")
		case errors.Is(err, repository.ErrNotFound):
			// The course was checked above, so the token's user is gone.
			s.respondError(w, http.StatusUnauthorized, "Invalid token")
		default:
			s.respondInternal(w, r, "create review failed", err)
		}
		return
	}

	w.Header().Set("Location", "/api/reviews/"+review.ID)
	s.respondData(w, http.StatusCreated, toReviewResponse(review, false), "")
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review, ok := s.lookupReview(w, r)
	if !ok {
		return
	}
	if review == nil {
		s.respondError(w, http.StatusNotFound, "Review not found")
		return
	}
	s.respondData(w, http.StatusOK, toReviewResponse(*review, true), "")
}

func (s *Server) handlePatchReview(w http.ResponseWriter, r *http.Request) {
	var req reviewPatchRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Rating != nil {
		if err := reviews.ValidateRating(*req.Rating); err != nil {
			s.respondValidation(w, r, err)
			return
		}
	}
	if req.Title != nil {
		if err := reviews.ValidateTitle(*req.Title); err != nil {
			s.respondValidation(w, r, err)
			return
		}
	}
	if req.Content != nil {
		if err := reviews.ValidateContent(*req.Content); err != nil {
			s.respondValidation(w, r, err)
			return
		}
	}

	review, ok := s.authorizeReview(w, r, "update")
	if !ok {
		return
	}

	patch := repository.ReviewPatch{
		Title:          trimmedPtr(req.Title),
		Content:        trimmedPtr(req.Content),
		Rating:         req.Rating,
		SetPros:        req.Pros.Set,
		Pros:           normalizeStringPtr(req.Pros.Value),
		SetCons:        req.Cons.Set,
		Cons:           normalizeStringPtr(req.Cons.Value),
		WouldRecommend: req.WouldRecommend,
	}
	s.applyReviewPatch(w, r, review.ID, patch, "")
}

func (s *Server) handleReplaceReview(w http.ResponseWriter, r *http.Request) {
	var req reviewReplaceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if err := reviews.ValidateDraft(req.Title, req.Content, req.Rating); err != nil {
		s.respondValidation(w, r, err)
		return
	}

	review, ok := s.authorizeReview(w, r, "update")
	if !ok {
		return
	}

	wouldRecommend := true
	if req.WouldRecommend != nil {
		wouldRecommend = *req.WouldRecommend
	}
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	rating := req.Rating
	patch := repository.ReviewPatch{
		Title:          &title,
		Content:        &content,
		Rating:         &rating,
		SetPros:        true,
		Pros:           normalizeStringPtr(req.Pros),
		SetCons:        true,
		Cons:           normalizeStringPtr(req.Cons),
		WouldRecommend: &wouldRecommend,
	}
	s.applyReviewPatch(w, r, review.ID, patch, "Review updated successfully")
}

func (s *Server) applyReviewPatch(w http.ResponseWriter, r *http.Request, id string, patch repository.ReviewPatch, message string) {
	updated, err := s.repo.Reviews.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Review not found")
			return
		}
		s.respondInternal(w, r, "update review failed", err)
		return
	}
	s.respondData(w, http.StatusOK, toReviewResponse(updated, true), message)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	review, ok := s.authorizeReview(w, r, "delete")
	if !ok {
		return
	}

	if err := s.repo.Reviews.Delete(r.Context(), review.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Review not found")
			return
		}
		s.respondInternal(w, r, "delete review failed", err)
		return
	}
	s.respondData(w, http.StatusOK, nil, "Review deleted successfully")
}

// lookupReview resolves {reviewID} (scoped to {courseID} when the route has
// one). A nil review with ok=true means it does not exist.
func (s *Server) lookupReview(w http.ResponseWriter, r *http.Request) (*domain.Review, bool) {
	reviewID := chi.URLParam(r, "reviewID")
	courseID := chi.URLParam(r, "courseID")
	if !validID(reviewID) || (courseID != "" && !validID(courseID)) {
		return nil, true
	}

	review, err := s.repo.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, true
		}
		s.respondInternal(w, r, "load review failed", err)
		return nil, false
	}
	if courseID != "" && review.CourseID != courseID {
		return nil, true
	}
	return &review, true
}

// authorizeReview loads the review and applies the ownership guard for the
// authenticated user, writing 404 or 403 on failure.
func (s *Server) authorizeReview(w http.ResponseWriter, r *http.Request, action string) (domain.Review, bool) {
	review, ok := s.lookupReview(w, r)
	if !ok {
		return domain.Review{}, false
	}

	switch err := reviews.Authorize(userIDFromContext(r.Context()), review); {
	case err == nil:
		return *review, true
	case errors.Is(err, reviews.ErrReviewNotFound):
		s.respondError(w, http.StatusNotFound, "Review not found")
	case errors.Is(err, reviews.ErrForbidden):
		s.respondError(w, http.StatusForbidden, "Not authorized to "+action+" this review")
	default:
		s.respondInternal(w, r, "authorize review failed", err)
	}
	return domain.Review{}, false
}

func trimmedPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	return &val
}

func toReviewResponse(review domain.Review, withCourse bool) reviewResponse {
	resp := reviewResponse{
		ID:             review.ID,
		Title:          review.Title,
		Content:        review.Content,
		Rating:         review.Rating,
		Pros:           review.Pros,
		Cons:           review.Cons,
		WouldRecommend: review.WouldRecommend,
		CreatedAt:      review.CreatedAt,
		UpdatedAt:      review.UpdatedAt,
		UserID:         review.UserID,
		CourseID:       review.CourseID,
	}
	if review.User != nil {
		resp.User = &userSummaryResponse{ID: review.User.ID, Name: review.User.Name, Email: review.User.Email}
	}
	if withCourse && review.Course != nil {
		resp.Course = &courseSummaryResponse{ID: review.Course.ID, Title: review.Course.Title, Instructor: review.Course.Instructor}
	}
	return resp
}
