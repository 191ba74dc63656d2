// Package seed loads demo users, courses and reviews from a YAML fixture.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/course-reviews/db/migrations"
	"github.com/Clark-Hu/course-reviews/internal/auth"
	"github.com/Clark-Hu/course-reviews/internal/repository"
	"github.com/Clark-Hu/course-reviews/internal/reviews"
)

// User is a fixture account. Password is stored hashed.
type User struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// Course is a fixture course.
type Course struct {
	Title       string  `yaml:"title"`
	Instructor  string  `yaml:"instructor"`
	Description string  `yaml:"description"`
	Category    string  `yaml:"category"`
	Level       string  `yaml:"level"`
	Duration    string  `yaml:"duration"`
	Price       string  `yaml:"price"`
	Students    int     `yaml:"students"`
	Thumbnail   *string `yaml:"thumbnail"`
}

// Review references its author by email and its course by title.
type Review struct {
	User           string  `yaml:"user"`
	Course         string  `yaml:"course"`
	Title          string  `yaml:"title"`
	Content        string  `yaml:"content"`
	Rating         int     `yaml:"rating"`
	Pros           *string `yaml:"pros"`
	Cons           *string `yaml:"cons"`
	WouldRecommend *bool   `yaml:"wouldRecommend"`
}

// Fixture is the whole seed document.
type Fixture struct {
	Users   []User   `yaml:"users"`
	Courses []Course `yaml:"courses"`
	Reviews []Review `yaml:"reviews"`
}

// Summary counts the rows a run inserted.
type Summary struct {
	Users   int
	Courses int
	Reviews int
}

// Load reads and validates the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a fixture. Unknown keys are rejected.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks required fields, cross references and the one review per
// user and course rule before anything touches the database.
func (f *Fixture) Validate() error {
	users := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" || strings.TrimSpace(u.Name) == "" {
			return fmt.Errorf("users[%d]: email and name are required", i)
		}
		if err := auth.ValidatePassword(u.Password); err != nil {
			return fmt.Errorf("users[%d]: password must be %d to %d bytes: %w", i, auth.MinPasswordLength, auth.MaxPasswordLength, err)
		}
		if users[email] {
			return fmt.Errorf("users[%d]: duplicate email %q", i, email)
		}
		users[email] = true
	}

	courses := make(map[string]bool, len(f.Courses))
	for i, c := range f.Courses {
		if c.Title == "" || c.Instructor == "" || c.Description == "" || c.Category == "" ||
			c.Level == "" || c.Duration == "" || c.Price == "" {
			return fmt.Errorf("courses[%d]: missing required fields", i)
		}
		if c.Students < 0 {
			return fmt.Errorf("courses[%d]: students must be non-negative", i)
		}
		if courses[c.Title] {
			return fmt.Errorf("courses[%d]: duplicate title %q", i, c.Title)
		}
		courses[c.Title] = true
	}

	seen := make(map[[2]string]bool, len(f.Reviews))
	for i, r := range f.Reviews {
		email := strings.ToLower(strings.TrimSpace(r.User))
		if !users[email] {
			return fmt.Errorf("reviews[%d]: unknown user %q", i, r.User)
		}
		if !courses[r.Course] {
			return fmt.Errorf("reviews[%d]: unknown course %q", i, r.Course)
		}
		if err := reviews.ValidateDraft(r.Title, r.Content, r.Rating); err != nil {
			return fmt.Errorf("reviews[%d]: %w", i, err)
		}
		key := [2]string{email, r.Course}
		if seen[key] {
			return fmt.Errorf("reviews[%d]: %s already reviewed %q", i, email, r.Course)
		}
		seen[key] = true
	}
	return nil
}

// Reset empties every table the fixture writes to.
func Reset(ctx context.Context, db migrations.Execer) error {
	if _, err := db.Exec(ctx, `TRUNCATE reviews, courses, users`); err != nil {
		return fmt.Errorf("reset tables: %w", err)
	}
	return nil
}

// Seeder writes fixtures through the repositories.
type Seeder struct {
	repo   *repository.Repository
	hasher auth.Hasher
	logger *logrus.Logger
}

// New constructs a Seeder.
func New(repo *repository.Repository, hasher auth.Hasher, logger *logrus.Logger) *Seeder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Seeder{repo: repo, hasher: hasher, logger: logger}
}

// Apply inserts the fixture. It is not transactional; run Reset first for a
// clean slate.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (Summary, error) {
	var sum Summary

	userIDs := make(map[string]string, len(f.Users))
	for _, u := range f.Users {
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return sum, err
		}
		email := strings.ToLower(strings.TrimSpace(u.Email))
		user, err := s.repo.Users.Create(ctx, repository.UserCreateParams{
			Email:        email,
			Name:         strings.TrimSpace(u.Name),
			PasswordHash: hash,
		})
		if err != nil {
			return sum, fmt.Errorf("create user %s: %w", email, err)
		}
		userIDs[email] = user.ID
		sum.Users++
	}
	s.logger.WithField("count", sum.Users).Info("seed: users created")

	courseIDs := make(map[string]string, len(f.Courses))
	for _, c := range f.Courses {
		course, err := s.repo.Courses.Create(ctx, repository.CourseCreateParams{
			Title:       c.Title,
			Instructor:  c.Instructor,
			Description: c.Description,
			Category:    c.Category,
			Level:       c.Level,
			Duration:    c.Duration,
			Price:       c.Price,
			Thumbnail:   c.Thumbnail,
			Students:    c.Students,
		})
		if err != nil {
			return sum, fmt.Errorf("create course %q: %w", c.Title, err)
		}
		courseIDs[c.Title] = course.ID
		sum.Courses++
	}
	s.logger.WithField("count", sum.Courses).Info("seed: courses created")

	for _, r := range f.Reviews {
		userID := userIDs[strings.ToLower(strings.TrimSpace(r.User))]
		courseID := courseIDs[r.Course]
		if err := reviews.EnsureUnique(ctx, s.repo.Reviews, userID, courseID); err != nil {
			return sum, fmt.Errorf("review by %s on %q: %w", r.User, r.Course, err)
		}
		wouldRecommend := true
		if r.WouldRecommend != nil {
			wouldRecommend = *r.WouldRecommend
		}
		if _, err := s.repo.Reviews.Create(ctx, repository.ReviewCreateParams{
			UserID:         userID,
			CourseID:       courseID,
			Title:          r.Title,
			Content:        r.Content,
			Rating:         r.Rating,
			Pros:           r.Pros,
			Cons:           r.Cons,
			WouldRecommend: wouldRecommend,
		}); err != nil {
			return sum, fmt.Errorf("create review by %s on %q: %w", r.User, r.Course, err)
		}
		sum.Reviews++
	}
	s.logger.WithField("count", sum.Reviews).Info("seed: reviews created")

	return sum, nil
}
