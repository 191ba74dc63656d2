package domain

import "time"

// Course is a catalog entry. Rating fields are derived from reviews on read.
type Course struct {
	ID          string
	Title       string
	Instructor  string
	Description string
	Category    string
	Level       string
	Duration    string
	Price       string
	Thumbnail   *string
	Students    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CourseSummary is embedded in review payloads.
type CourseSummary struct {
	ID         string
	Title      string
	Instructor string
}

// Summary returns the short projection of the course.
func (c Course) Summary() CourseSummary {
	return CourseSummary{ID: c.ID, Title: c.Title, Instructor: c.Instructor}
}

// CourseWithRating pairs a course with its computed rating aggregate.
type CourseWithRating struct {
	Course
	Rating RatingAggregate
}
