package domain

import "time"

// Review is a user's rated evaluation of a course.
type Review struct {
	ID             string
	Title          string
	Content        string
	Rating         int
	Pros           *string
	Cons           *string
	WouldRecommend bool
	UserID         string
	CourseID       string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Populated by queries that join the related rows.
	User   *UserSummary
	Course *CourseSummary
}

// RatingAggregate provides average and count for a course's reviews.
type RatingAggregate struct {
	Average float64
	Count   int
}
