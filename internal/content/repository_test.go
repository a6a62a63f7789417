package content_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/content"
	"github.com/csl-racing/api/internal/models"
	"github.com/csl-racing/api/internal/testutil"
)

func TestPostgresContent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := t.Context()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := content.NewService(content.NewRepository(db), clock)

	past, err := svc.CreateEvent(ctx, 0, content.EventInput{Title: "Spa 24h", EventDate: "2025-05-01"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateEvent(ctx, 0, content.EventInput{Title: "Monza", EventDate: "2025-07-01"}); err != nil {
		t.Fatal(err)
	}

	n, err := svc.CompletePastEvents(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Expected 1 event completed, got %d", n)
	}
	got, err := svc.GetEvent(ctx, past.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.EventStatusCompleted {
		t.Errorf("Expected past event completed, got %q", got.Status)
	}

	upcoming, err := svc.ListEvents(ctx, models.EventStatusUpcoming)
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 1 || upcoming[0].Title != "Monza" {
		t.Errorf("Unexpected upcoming events: %+v", upcoming)
	}

	cat, err := svc.CreateCategory(ctx, content.CategoryInput{Name: "Races"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateCategory(ctx, content.CategoryInput{Name: "Races"}); !errors.Is(err, content.ErrCategoryTaken) {
		t.Errorf("Expected ErrCategoryTaken, got %v", err)
	}

	img, err := svc.CreateImage(ctx, 0, content.ImageInput{CategoryID: &cat.ID, Title: "Start", ImageURL: "https://img.example/start.jpg"})
	if err != nil {
		t.Fatal(err)
	}

	// Deleting a category keeps its images uncategorized
	if err := svc.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}
	kept, err := svc.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kept.CategoryID != nil {
		t.Errorf("Expected category_id NULL, got %d", *kept.CategoryID)
	}
	if err := svc.DeleteImage(ctx, img.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetImage(ctx, img.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}
