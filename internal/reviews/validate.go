package reviews

import (
	"strings"
)

const (
	MinTitleLength   = 5
	MinContentLength = 10
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateRating checks the star range.
func ValidateRating(rating int) error {
	if !ValidRating(rating) {
		return &ValidationError{Field: "rating", Message: "Rating must be between 1 and 5"}
	}
	return nil
}

// ValidateTitle checks the trimmed title length.
func ValidateTitle(title string) error {
	if len([]rune(strings.TrimSpace(title))) < MinTitleLength {
		return &ValidationError{Field: "title", Message: "Title must be at least 5 characters long"}
	}
	return nil
}

// ValidateContent checks the trimmed body length.
func ValidateContent(content string) error {
	if len([]rune(strings.TrimSpace(content))) < MinContentLength {
		return &ValidationError{Field: "content", Message: "Content must be at least 10 characters long"}
	}
	return nil
}

// ValidateDraft runs the checks shared by review creation and full update.
func ValidateDraft(title, content string, rating int) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	if err := ValidateContent(content); err != nil {
		return err
	}
	return ValidateRating(rating)
}
