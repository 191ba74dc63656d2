package reviews

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clark-Hu/course-reviews/internal/domain"
)

var (
	// ErrReviewNotFound is returned when the review to mutate does not exist.
	ErrReviewNotFound = errors.New("reviews: not found")
	// ErrForbidden is returned when the acting user does not own the review.
	ErrForbidden = errors.New("reviews: not authorized")
	// ErrDuplicateReview is returned when the user already reviewed the course.
	ErrDuplicateReview = errors.New("reviews: already reviewed")
)

// Authorize allows a mutation only when the review exists and belongs to
// actingUserID. Existence is checked first so a missing review is reported
// as not found regardless of who asks.
func Authorize(actingUserID string, review *domain.Review) error {
	if review == nil {
		return ErrReviewNotFound
	}
	if review.UserID != actingUserID {
		return ErrForbidden
	}
	return nil
}

// ExistenceChecker reports whether a user already reviewed a course.
type ExistenceChecker interface {
	ExistsForUserAndCourse(ctx context.Context, userID, courseID string) (bool, error)
}

// EnsureUnique rejects a second review for the same (userID, courseID) pair.
func EnsureUnique(ctx context.Context, checker ExistenceChecker, userID, courseID string) error {
	exists, err := checker.ExistsForUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return ErrDuplicateReview
	}
	return nil
}
