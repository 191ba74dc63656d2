// Package reviews holds the rules that apply to course reviews independent of
// storage and transport: rating aggregation, ownership and uniqueness.
package reviews

import (
	"math"

	"github.com/Clark-Hu/course-reviews/internal/domain"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r is an allowed star rating.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// Aggregate computes the rounded mean and count of ratings. An empty list
// yields a zero average.
func Aggregate(ratings []int) domain.RatingAggregate {
	if len(ratings) == 0 {
		return domain.RatingAggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return domain.RatingAggregate{
		Average: RoundToOneDecimal(mean),
		Count:   len(ratings),
	}
}

// AggregateReviews is Aggregate over the ratings of loaded reviews.
func AggregateReviews(items []domain.Review) domain.RatingAggregate {
	ratings := make([]int, 0, len(items))
	for _, item := range items {
		ratings = append(ratings, item.Rating)
	}
	return Aggregate(ratings)
}

// RoundToOneDecimal rounds half away from zero to one decimal place.
func RoundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10.0
}
