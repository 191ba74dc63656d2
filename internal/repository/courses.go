package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/course-reviews/internal/catalog"
	"github.com/Clark-Hu/course-reviews/internal/domain"
	"github.com/Clark-Hu/course-reviews/internal/reviews"
)

// CoursesRepository provides persistence helpers for course entities.
type CoursesRepository struct {
	pool *pgxpool.Pool
}

const courseColumns = `
    id::text,
    title,
    instructor,
    description,
    category,
    level,
    duration,
    price,
    thumbnail,
    students,
    created_at,
    updated_at
`

// priceOrderExpr sorts display prices by their numeric value.
var priceOrderExpr = fmt.Sprintf(`COALESCE(substring(replace(price, ',', '') from '%s')::numeric, 0)`, catalog.PricePattern)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CourseCreateParams bundles the fields required to create a course.
type CourseCreateParams struct {
	Title       string
	Instructor  string
	Description string
	Category    string
	Level       string
	Duration    string
	Price       string
	Thumbnail   *string
	Students    int
}

// CourseUpdateParams holds optional replacements; nil leaves a column as is.
type CourseUpdateParams struct {
	Title       *string
	Instructor  *string
	Description *string
	Category    *string
	Level       *string
	Duration    *string
	Price       *string
	Thumbnail   *string
	Students    *int
}

// CourseListResult is one page of courses plus the filtered total.
type CourseListResult struct {
	Items []domain.CourseWithRating
	Total int
}

// Create inserts a new course row and returns the stored entity.
func (r *CoursesRepository) Create(ctx context.Context, params CourseCreateParams) (domain.Course, error) {
	query := fmt.Sprintf(`
        INSERT INTO courses (title, instructor, description, category, level, duration, price, thumbnail, students)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING %s
    `, courseColumns)

	row := r.pool.QueryRow(ctx, query,
		params.Title, params.Instructor, params.Description, params.Category,
		params.Level, params.Duration, params.Price, params.Thumbnail, params.Students)
	return scanCourse(row)
}

// GetByID fetches a course by its identifier.
func (r *CoursesRepository) GetByID(ctx context.Context, id string) (domain.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	course, err := scanCourse(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFound(err) {
			return domain.Course{}, ErrNotFound
		}
		return domain.Course{}, err
	}
	return course, nil
}

// Update applies the non-nil fields of params.
func (r *CoursesRepository) Update(ctx context.Context, id string, params CourseUpdateParams) (domain.Course, error) {
	query := fmt.Sprintf(`
        UPDATE courses
        SET title = COALESCE($2, title),
            instructor = COALESCE($3, instructor),
            description = COALESCE($4, description),
            category = COALESCE($5, category),
            level = COALESCE($6, level),
            duration = COALESCE($7, duration),
            price = COALESCE($8, price),
            thumbnail = COALESCE($9, thumbnail),
            students = COALESCE($10, students),
            updated_at = now()
        WHERE id = $1
        RETURNING %s
    `, courseColumns)

	row := r.pool.QueryRow(ctx, query, id,
		params.Title, params.Instructor, params.Description, params.Category,
		params.Level, params.Duration, params.Price, params.Thumbnail, params.Students)
	course, err := scanCourse(row)
	if err != nil {
		if isNotFound(err) {
			return domain.Course{}, ErrNotFound
		}
		return domain.Course{}, err
	}
	return course, nil
}

// Delete removes a course; its reviews go with it.
func (r *CoursesRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the courses matching q with their rating aggregates.
//
// Ratings are not stored on the course row, so a rating sort loads the whole
// filtered set and hands it to catalog.SortPage. Every other sort key is ordered
// and paginated by Postgres.
func (r *CoursesRepository) List(ctx context.Context, q catalog.Query) (CourseListResult, error) {
	q = q.Normalize()

	where, args := buildCourseWhere(q)

	if q.SortBy == catalog.SortRating {
		courses, err := r.queryCourses(ctx, "SELECT "+courseColumns+" FROM courses"+where, args...)
		if err != nil {
			return CourseListResult{}, err
		}
		items, err := r.withRatings(ctx, courses)
		if err != nil {
			return CourseListResult{}, err
		}
		page, total := catalog.SortPage(items, q)
		return CourseListResult{Items: page, Total: total}, nil
	}

	countQuery := "SELECT COUNT(*) FROM courses" + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return CourseListResult{}, fmt.Errorf("count courses: %w", err)
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(courseColumns)
	queryBuilder.WriteString(" FROM courses")
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(" ORDER BY ")
	queryBuilder.WriteString(courseOrderClause(q.SortBy, q.SortOrder))
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset()))

	courses, err := r.queryCourses(ctx, queryBuilder.String(), args...)
	if err != nil {
		return CourseListResult{}, err
	}

	items, err := r.withRatings(ctx, courses)
	if err != nil {
		return CourseListResult{}, err
	}
	return CourseListResult{Items: items, Total: total}, nil
}

// Aggregate returns the rating aggregate of a single course.
func (r *CoursesRepository) Aggregate(ctx context.Context, courseID string) (domain.RatingAggregate, error) {
	ratings, err := r.ratingsByCourse(ctx, []string{courseID})
	if err != nil {
		return domain.RatingAggregate{}, err
	}
	return reviews.Aggregate(ratings[courseID]), nil
}

func buildCourseWhere(q catalog.Query) (string, []interface{}) {
	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Category != "" {
		where = append(where, fmt.Sprintf("category = %s", arg(q.Category)))
	}
	if q.Level != "" {
		where = append(where, fmt.Sprintf("level = %s", arg(q.Level)))
	}
	if q.Search != "" {
		p := arg("%" + likeEscaper.Replace(q.Search) + "%")
		where = append(where, fmt.Sprintf("(title ILIKE %s OR instructor ILIKE %s OR description ILIKE %s)", p, p, p))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func courseOrderClause(key catalog.SortKey, order catalog.SortOrder) string {
	dir := "DESC"
	if order == catalog.Asc {
		dir = "ASC"
	}
	switch key {
	case catalog.SortStudents:
		return fmt.Sprintf("students %s, created_at DESC, id DESC", dir)
	case catalog.SortPrice:
		return fmt.Sprintf("%s %s, created_at DESC, id DESC", priceOrderExpr, dir)
	default:
		return fmt.Sprintf("created_at %s, id DESC", dir)
	}
}

func (r *CoursesRepository) queryCourses(ctx context.Context, query string, args ...interface{}) ([]domain.Course, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CoursesRepository) withRatings(ctx context.Context, courses []domain.Course) ([]domain.CourseWithRating, error) {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	ratings, err := r.ratingsByCourse(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]domain.CourseWithRating, 0, len(courses))
	for _, c := range courses {
		items = append(items, domain.CourseWithRating{
			Course: c,
			Rating: reviews.Aggregate(ratings[c.ID]),
		})
	}
	return items, nil
}

func (r *CoursesRepository) ratingsByCourse(ctx context.Context, ids []string) (map[string][]int, error) {
	result := make(map[string][]int, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	const query = `SELECT course_id::text, rating FROM reviews WHERE course_id = ANY($1::uuid[])`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			courseID string
			rating   int
		)
		if err := rows.Scan(&courseID, &rating); err != nil {
			return nil, err
		}
		result[courseID] = append(result[courseID], rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load ratings: %w", err)
	}
	return result, nil
}

func scanCourse(row pgx.Row) (domain.Course, error) {
	var course domain.Course
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Instructor,
		&course.Description,
		&course.Category,
		&course.Level,
		&course.Duration,
		&course.Price,
		&course.Thumbnail,
		&course.Students,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return domain.Course{}, err
	}
	return course, nil
}
