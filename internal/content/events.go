package content

import (
	"context"
	"strings"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/models"
)

// EventInput represents an event create or update request
type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date"`
	Status      string `json:"status"`
}

func validStatus(status string) bool {
	switch status {
	case models.EventStatusUpcoming, models.EventStatusCompleted, models.EventStatusCancelled:
		return true
	}
	return false
}

func (in EventInput) apply(e *models.Event) error {
	title, err := requireText(in.Title, "Title", 200)
	if err != nil {
		return err
	}
	date, err := parseDate(in.EventDate, "event_date")
	if err != nil {
		return err
	}
	if date == nil {
		return apperr.Validation("event_date is required")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.EventStatusUpcoming
	}
	if !validStatus(status) {
		return apperr.Validation("Status must be upcoming, completed or cancelled")
	}

	e.Title = title
	e.Description = strings.TrimSpace(in.Description)
	e.Location = strings.TrimSpace(in.Location)
	e.EventDate = *date
	e.Status = status
	return nil
}

// ListEvents returns events ordered by date. An empty status lists all.
func (s *Service) ListEvents(ctx context.Context, status string) ([]models.Event, error) {
	if status != "" && !validStatus(status) {
		return nil, apperr.Validation("Invalid status filter")
	}
	list, err := s.store.ListEvents(ctx, status)
	return orEmpty(list), err
}

func (s *Service) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	return s.store.GetEvent(ctx, id)
}

func (s *Service) CreateEvent(ctx context.Context, adminID int, in EventInput) (*models.Event, error) {
	e := &models.Event{CreatedBy: userRef(adminID)}
	if err := in.apply(e); err != nil {
		return nil, err
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) UpdateEvent(ctx context.Context, id int, in EventInput) (*models.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(e); err != nil {
		return nil, err
	}
	if err := s.store.UpdateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id int) error {
	return s.store.DeleteEvent(ctx, id)
}

// CompletePastEvents marks every upcoming event whose date has passed as completed
func (s *Service) CompletePastEvents(ctx context.Context) (int, error) {
	n, err := s.store.CompletePastEvents(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int("events", n).Msg("past events completed")
	}
	return n, nil
}
