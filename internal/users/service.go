// Package users handles accounts, profiles and admin user management.
package users

import (
	"context"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/auth"
	"github.com/csl-racing/api/internal/models"
)

var (
	ErrInvalidCredentials = apperr.AuthenticationRequired("Invalid email or password")
	ErrCannotDemoteSelf   = apperr.Validation("You cannot demote yourself")
	ErrCannotDeleteSelf   = apperr.Validation("You cannot delete your own account")
	ErrEmailTaken         = apperr.Conflict("Email already registered")
)

// Store is the persistence for users
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id int, p models.Profile) (*models.User, error)
	UpdateRole(ctx context.Context, id int, role string) (*models.User, error)
	SetDriver(ctx context.Context, id int, isDriver bool) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	ListDrivers(ctx context.Context) ([]models.DriverSummary, error)
	// DriverLeagues returns the ids of the leagues the user has a ledger row in.
	DriverLeagues(ctx context.Context, id int) ([]int, error)
}

// StandingsInvalidator drops a league's cached standings
type StandingsInvalidator interface {
	InvalidateStandings(ctx context.Context, leagueID int) error
}

// LeagueNotifier is told when a league's standings changed
type LeagueNotifier interface {
	LeagueChanged(ctx context.Context, leagueID int)
}

// RegisterInput represents a registration request
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service implements account operations
type Service struct {
	store    Store
	cache    StandingsInvalidator
	notifier LeagueNotifier
	logger   zerolog.Logger
}

// NewService creates a users Service. cache and notifier may be nil.
func NewService(store Store, cache StandingsInvalidator, notifier LeagueNotifier) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		notifier: notifier,
		logger:   log.With().Str("component", "users").Logger(),
	}
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks registration fields
func (in RegisterInput) Validate() error {
	name := strings.TrimSpace(in.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return apperr.Validation("Name must be between 2 and 100 characters")
	}
	if !strings.Contains(in.Email, "@") {
		return apperr.Validation("Invalid email address")
	}
	if len(in.Password) < 6 {
		return apperr.Validation("Password must be at least 6 characters")
	}
	return nil
}

// Register creates a regular, non-driver account
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Store("hash password", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info().Int("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login verifies credentials. Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns a user by id
func (s *Service) Get(ctx context.Context, id int) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// UpdateProfile edits the caller's own profile
func (s *Service) UpdateProfile(ctx context.Context, id int, p models.Profile) (*models.User, error) {
	p.Bio = strings.TrimSpace(p.Bio)
	p.AvatarURL = strings.TrimSpace(p.AvatarURL)
	p.Gamertag = strings.TrimSpace(p.Gamertag)
	p.ExperienceLevel = strings.ToLower(strings.TrimSpace(p.ExperienceLevel))

	if !slices.Contains(models.ExperienceLevels, p.ExperienceLevel) {
		return nil, apperr.Validation("Invalid experience level")
	}
	if utf8.RuneCountInString(p.Gamertag) > 100 {
		return nil, apperr.Validation("Gamertag must be at most 100 characters")
	}

	u, err := s.store.UpdateProfile(ctx, id, p)
	if err != nil {
		return nil, err
	}
	// Standings rows carry the gamertag and avatar
	if u.IsDriver {
		s.refreshStandings(ctx, id)
	}
	return u, nil
}

// List returns every user
func (s *Service) List(ctx context.Context) ([]models.User, error) {
	list, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.User{}
	}
	return list, nil
}

// UpdateRole changes a user's role. An admin cannot demote themselves.
func (s *Service) UpdateRole(ctx context.Context, actorID, targetID int, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperr.Validation("Role must be 'user' or 'admin'")
	}
	if actorID == targetID && role != models.RoleAdmin {
		return nil, ErrCannotDemoteSelf
	}

	user, err := s.store.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int("actor_id", actorID).Int("user_id", targetID).Str("role", role).Msg("role updated")
	return user, nil
}

// SetDriver toggles the driver flag of a user
func (s *Service) SetDriver(ctx context.Context, targetID int, isDriver bool) (*models.User, error) {
	return s.store.SetDriver(ctx, targetID, isDriver)
}

// Delete removes a user. An admin cannot delete their own account.
func (s *Service) Delete(ctx context.Context, actorID, targetID int) error {
	if actorID == targetID {
		return ErrCannotDeleteSelf
	}
	leagueIDs, err := s.store.DriverLeagues(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, targetID); err != nil {
		return err
	}
	s.logger.Info().Int("actor_id", actorID).Int("user_id", targetID).Msg("user deleted")
	s.leaguesChanged(ctx, leagueIDs)
	return nil
}

func (s *Service) refreshStandings(ctx context.Context, userID int) {
	leagueIDs, err := s.store.DriverLeagues(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Int("user_id", userID).Msg("could not list driver leagues")
		return
	}
	s.leaguesChanged(ctx, leagueIDs)
}

// leaguesChanged invalidates and announces the standings of every league.
// Cache failures are logged, not returned.
func (s *Service) leaguesChanged(ctx context.Context, leagueIDs []int) {
	for _, id := range leagueIDs {
		if s.cache != nil {
			if err := s.cache.InvalidateStandings(ctx, id); err != nil {
				s.logger.Warn().Err(err).Int("league_id", id).Msg("standings cache invalidation failed")
			}
		}
		if s.notifier != nil {
			s.notifier.LeagueChanged(ctx, id)
		}
	}
}

// ListDrivers returns every user with the driver flag, ordered by name
func (s *Service) ListDrivers(ctx context.Context) ([]models.DriverSummary, error) {
	list, err := s.store.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.DriverSummary{}
	}
	return list, nil
}
