// Package leagues manages league records.
package leagues

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/models"
)

var ErrNameTaken = apperr.Conflict("A league with this name already exists")

// Store is the persistence for leagues
type Store interface {
	// CreateLeague inserts the league and a zero ledger row for every driver in one transaction.
	CreateLeague(ctx context.Context, l *models.League) error
	GetLeague(ctx context.Context, id int) (*models.League, error)
	ListLeagues(ctx context.Context, activeOnly bool) ([]models.League, error)
	UpdateLeague(ctx context.Context, l *models.League) error
	// DeleteLeague removes the league. Ledger rows and history cascade.
	DeleteLeague(ctx context.Context, id int) error
}

// StandingsInvalidator drops cached standings of a league
type StandingsInvalidator interface {
	InvalidateStandings(ctx context.Context, leagueID int) error
}

// Input represents a create or update request
type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, apperr.Validation("League name is required")
	}
	if utf8.RuneCountInString(in.Name) > 100 {
		return in, apperr.Validation("League name must be at most 100 characters")
	}
	return in, nil
}

// Service implements league operations
type Service struct {
	store  Store
	cache  StandingsInvalidator
	logger zerolog.Logger
}

// NewService creates a leagues Service. cache may be nil.
func NewService(store Store, cache StandingsInvalidator) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: log.With().Str("component", "leagues").Logger(),
	}
}

// Create adds a league. Active defaults to true.
func (s *Service) Create(ctx context.Context, in Input) (*models.League, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	league := &models.League{Name: in.Name, Description: in.Description, Active: true}
	if in.Active != nil {
		league.Active = *in.Active
	}
	if err := s.store.CreateLeague(ctx, league); err != nil {
		return nil, nameConflict(err)
	}

	s.logger.Info().Int("league_id", league.ID).Str("name", league.Name).Msg("league created")
	return league, nil
}

// Get returns a league by id
func (s *Service) Get(ctx context.Context, id int) (*models.League, error) {
	return s.store.GetLeague(ctx, id)
}

// List returns leagues ordered by name
func (s *Service) List(ctx context.Context, activeOnly bool) ([]models.League, error) {
	list, err := s.store.ListLeagues(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.League{}
	}
	return list, nil
}

// Update replaces a league's fields. A nil Active keeps the current value.
func (s *Service) Update(ctx context.Context, id int, in Input) (*models.League, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	league, err := s.store.GetLeague(ctx, id)
	if err != nil {
		return nil, err
	}
	league.Name = in.Name
	league.Description = in.Description
	if in.Active != nil {
		league.Active = *in.Active
	}
	if err := s.store.UpdateLeague(ctx, league); err != nil {
		return nil, nameConflict(err)
	}
	return league, nil
}

// Delete removes a league with its points and history
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.store.DeleteLeague(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateStandings(ctx, id); err != nil {
			s.logger.Warn().Err(err).Int("league_id", id).Msg("standings cache invalidation failed")
		}
	}
	s.logger.Info().Int("league_id", id).Msg("league deleted")
	return nil
}

func nameConflict(err error) error {
	if errors.Is(err, apperr.ErrConflict) {
		return ErrNameTaken
	}
	return err
}
