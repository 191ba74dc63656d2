package reviews

import (
	"errors"
	"testing"
)

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		rating  int
		field   string
	}{
		{"valid", "Great course", "Learned a lot here.", 5, ""},
		{"title too short", "Meh", "Learned a lot here.", 3, "title"},
		{"title padded", "   abc   ", "Learned a lot here.", 3, "title"},
		{"content too short", "Great course", "short", 3, "content"},
		{"rating low", "Great course", "Learned a lot here.", 0, "rating"},
		{"rating high", "Great course", "Learned a lot here.", 6, "rating"},
		{"multibyte title", "Très bon", "Vraiment très utile.", 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDraft(tt.title, tt.content, tt.rating)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("err = %v, want field %q", err, tt.field)
			}
		})
	}
}

func TestValidateRatingMessage(t *testing.T) {
	err := ValidateRating(7)
	if err == nil || err.Error() != "Rating must be between 1 and 5" {
		t.Fatalf("err = %v", err)
	}
}
