package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/course-reviews/internal/catalog"
	"github.com/Clark-Hu/course-reviews/internal/domain"
)

// ReviewsRepository provides helpers for course reviews.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewSelect = `
    SELECT r.id::text,
           r.title,
           r.content,
           r.rating,
           r.pros,
           r.cons,
           r.would_recommend,
           r.user_id::text,
           r.course_id::text,
           r.created_at,
           r.updated_at,
           u.name,
           u.email,
           c.title,
           c.instructor
    FROM reviews r
    JOIN users u ON u.id = r.user_id
    JOIN courses c ON c.id = r.course_id
`

// ReviewCreateParams captures the payload required to create a review.
type ReviewCreateParams struct {
	UserID         string
	CourseID       string
	Title          string
	Content        string
	Rating         int
	Pros           *string
	Cons           *string
	WouldRecommend bool
}

// ReviewPatch holds optional replacements. Pros and Cons use explicit Set
// flags so a caller can clear them.
type ReviewPatch struct {
	Title          *string
	Content        *string
	Rating         *int
	SetPros        bool
	Pros           *string
	SetCons        bool
	Cons           *string
	WouldRecommend *bool
}

// ReviewListFilters narrows a review listing.
type ReviewListFilters struct {
	CourseID string
	UserID   string
	Page     int
	Limit    int
}

// ReviewListResult is one page of reviews plus the filtered total.
type ReviewListResult struct {
	Items []domain.Review
	Total int
}

// Create inserts a review. A second review by the same user for the same
// course yields ErrConflict; an unknown user or course yields ErrNotFound.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	const query = `
        INSERT INTO reviews (title, content, rating, pros, cons, would_recommend, user_id, course_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id::text
    `
	var id string
	err := r.pool.QueryRow(ctx, query,
		params.Title, params.Content, params.Rating, params.Pros, params.Cons,
		params.WouldRecommend, params.UserID, params.CourseID).Scan(&id)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return domain.Review{}, ErrConflict
		case pgForeignKeyViolation:
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches a review with its author and course summaries.
func (r *ReviewsRepository) GetByID(ctx context.Context, id string) (domain.Review, error) {
	review, err := scanReview(r.pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if isNotFound(err) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// ExistsForUserAndCourse reports whether userID already reviewed courseID.
func (r *ReviewsRepository) ExistsForUserAndCourse(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM reviews WHERE user_id = $1 AND course_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, courseID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Update applies patch to the review and returns the stored result.
func (r *ReviewsRepository) Update(ctx context.Context, id string, patch ReviewPatch) (domain.Review, error) {
	const query = `
        UPDATE reviews
        SET title = COALESCE($2, title),
            content = COALESCE($3, content),
            rating = COALESCE($4, rating),
            pros = CASE WHEN $5 THEN $6 ELSE pros END,
            cons = CASE WHEN $7 THEN $8 ELSE cons END,
            would_recommend = COALESCE($9, would_recommend),
            updated_at = now()
        WHERE id = $1
        RETURNING id::text
    `
	var updatedID string
	err := r.pool.QueryRow(ctx, query, id,
		patch.Title, patch.Content, patch.Rating,
		patch.SetPros, patch.Pros, patch.SetCons, patch.Cons,
		patch.WouldRecommend).Scan(&updatedID)
	if err != nil {
		if isNotFound(err) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return r.GetByID(ctx, updatedID)
}

// Delete removes a review.
func (r *ReviewsRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByCourse returns every review of a course, newest first.
func (r *ReviewsRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Review, error) {
	return r.queryReviews(ctx, reviewSelect+` WHERE r.course_id = $1 ORDER BY r.created_at DESC, r.id DESC`, courseID)
}

// List returns a page of reviews, newest first.
func (r *ReviewsRepository) List(ctx context.Context, filters ReviewListFilters) (ReviewListResult, error) {
	page, limit := catalog.NormalizePage(filters.Page, filters.Limit)

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.CourseID != "" {
		where = append(where, fmt.Sprintf("r.course_id = %s", arg(filters.CourseID)))
	}
	if filters.UserID != "" {
		where = append(where, fmt.Sprintf("r.user_id = %s", arg(filters.UserID)))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM reviews r"+whereClause, args...).Scan(&total); err != nil {
		return ReviewListResult{}, fmt.Errorf("count reviews: %w", err)
	}

	query := reviewSelect + whereClause +
		fmt.Sprintf(" ORDER BY r.created_at DESC, r.id DESC LIMIT %d OFFSET %d", limit, catalog.Offset(page, limit))
	items, err := r.queryReviews(ctx, query, args...)
	if err != nil {
		return ReviewListResult{}, err
	}
	return ReviewListResult{Items: items, Total: total}, nil
}

func (r *ReviewsRepository) queryReviews(ctx context.Context, query string, args ...interface{}) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var (
		review domain.Review
		user   domain.UserSummary
		course domain.CourseSummary
	)
	err := row.Scan(
		&review.ID,
		&review.Title,
		&review.Content,
		&review.Rating,
		&review.Pros,
		&review.Cons,
		&review.WouldRecommend,
		&review.UserID,
		&review.CourseID,
		&review.CreatedAt,
		&review.UpdatedAt,
		&user.Name,
		&user.Email,
		&course.Title,
		&course.Instructor,
	)
	if err != nil {
		return domain.Review{}, err
	}
	user.ID = review.UserID
	course.ID = review.CourseID
	review.User = &user
	review.Course = &course
	return review, nil
}
