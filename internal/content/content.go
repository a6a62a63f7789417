// Package content manages achievements, events and the media gallery.
package content

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/models"
)

// Store is the persistence for content records
type Store interface {
	ListAchievements(ctx context.Context) ([]models.Achievement, error)
	GetAchievement(ctx context.Context, id int) (*models.Achievement, error)
	CreateAchievement(ctx context.Context, a *models.Achievement) error
	UpdateAchievement(ctx context.Context, a *models.Achievement) error
	DeleteAchievement(ctx context.Context, id int) error

	ListEvents(ctx context.Context, status string) ([]models.Event, error)
	GetEvent(ctx context.Context, id int) (*models.Event, error)
	CreateEvent(ctx context.Context, e *models.Event) error
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id int) error
	// CompletePastEvents marks upcoming events dated before now as completed.
	CompletePastEvents(ctx context.Context, now time.Time) (int, error)

	ListCategories(ctx context.Context) ([]models.GalleryCategory, error)
	CreateCategory(ctx context.Context, c *models.GalleryCategory) error
	UpdateCategory(ctx context.Context, c *models.GalleryCategory) error
	DeleteCategory(ctx context.Context, id int) error

	// ListImages returns images newest first, optionally filtered by category.
	ListImages(ctx context.Context, categoryID *int) ([]models.GalleryImage, error)
	GetImage(ctx context.Context, id int) (*models.GalleryImage, error)
	CreateImage(ctx context.Context, img *models.GalleryImage) error
	UpdateImage(ctx context.Context, img *models.GalleryImage) error
	DeleteImage(ctx context.Context, id int) error
}

// Service implements content operations
type Service struct {
	store  Store
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewService creates a content Service. A nil clock uses the real clock.
func NewService(store Store, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:  store,
		clock:  clock,
		logger: log.With().Str("component", "content").Logger(),
	}
}

func requireText(value, field string, maxLen int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.Validation(field + " is required")
	}
	if utf8.RuneCountInString(value) > maxLen {
		return "", apperr.Validation(field + " is too long")
	}
	return value, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields nil.
func parseDate(value, field string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("Invalid " + field)
}

func userRef(id int) *int {
	if id <= 0 {
		return nil
	}
	return &id
}

func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
