package lifecycle

import (
	"math"
	"strings"
	"time"

	"golang.org/x/exp/constraints"

	"trusthire/internal/models"
	"trusthire/internal/project/fsm"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ValidateRating rejects stars outside 1..5.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// AverageRating returns the mean rounded to one decimal place; [5, 4] yields 4.5.
func AverageRating[T constraints.Integer | constraints.Float](ratings []T) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += float64(r)
	}
	return math.Round(sum/float64(len(ratings))*10) / 10
}

// Rate builds the client's feedback for a completed project.
func Rate(p models.Project, clientID, rating int, comment string, now time.Time) (models.Feedback, Notice, error) {
	if clientID != p.ClientID {
		return models.Feedback{}, Notice{}, ErrNotClient
	}
	if p.Status != fsm.StatusCompleted {
		return models.Feedback{}, Notice{}, ErrProjectIncomplete
	}
	if err := ValidateRating(rating); err != nil {
		return models.Feedback{}, Notice{}, err
	}
	fb := models.Feedback{
		ProjectID:    p.ID,
		ClientID:     p.ClientID,
		FreelancerID: p.FreelancerID,
		Rating:       rating,
		Comment:      strings.TrimSpace(comment),
		CreatedAt:    now,
	}
	notice := Notice{
		Kind:       NoticeRated,
		ProjectID:  p.ID,
		Recipients: []int{p.FreelancerID},
		Title:      "New rating",
		Body:       "Your client rated " + p.Title + ".",
	}
	return fb, notice, nil
}
