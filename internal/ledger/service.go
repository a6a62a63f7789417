package ledger

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/models"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	reasonManualAdd    = "Manual add"
	reasonManualRemove = "Manual remove"
	reasonLeagueReset  = "League reset"
)

var (
	ErrAlreadyMember = apperr.Conflict("Driver is already in this league")
	ErrNotMember     = apperr.NotFound("Driver is not in this league")
	ErrNothingToUndo = apperr.NotFound("No history to undo")
	ErrNotDriver     = apperr.Validation("User is not a driver")
	ErrNegativeDelta = apperr.Validation("Points and races must be non-negative")

	errDriverNotFound = apperr.NotFound("Driver not found")
	errLeagueNotFound = apperr.NotFound("League not found")
)

// Adjustment is the input of an add or remove operation
type Adjustment struct {
	Points  int
	Races   int
	Reason  string
	AdminID int
}

// Service implements the points ledger and roster
type Service struct {
	store    Store
	cache    Cache
	notifier Notifier
	clock    clockwork.Clock
	logger   zerolog.Logger
}

// NewService creates a ledger Service. cache, notifier and clock may be nil.
func NewService(store Store, cache Cache, notifier Notifier, clock clockwork.Clock) *Service {
	if cache == nil {
		cache = nopCache{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:    store,
		cache:    cache,
		notifier: notifier,
		clock:    clock,
		logger:   log.With().Str("component", "ledger").Logger(),
	}
}

// AddPoints credits points and races to a driver, creating the ledger row if needed
func (s *Service) AddPoints(ctx context.Context, leagueID, driverID int, adj Adjustment) (*models.PointsHistory, error) {
	if adj.Points < 0 || adj.Races < 0 {
		return nil, ErrNegativeDelta
	}
	if adj.Reason == "" {
		adj.Reason = reasonManualAdd
	}

	var entry *models.PointsHistory
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockLeague(ctx, leagueID); err != nil {
			return err
		}
		driver, err := s.requireDriver(ctx, tx, driverID)
		if err != nil {
			return err
		}

		row, err := tx.GetPoints(ctx, leagueID, driverID)
		if err != nil {
			return err
		}
		if row == nil {
			if row, err = tx.InsertPoints(ctx, leagueID, driverID); err != nil {
				return err
			}
		}

		entry = s.newEntry(driver, row, adj, models.ActionManualAdd)
		entry.NewPoints = row.Points + adj.Points
		entry.NewRaces = row.RacesCompleted + adj.Races
		return s.apply(ctx, tx, row, entry)
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, leagueID)
	return entry, nil
}

// RemovePoints debits points and races from an existing ledger row, flooring both at zero
func (s *Service) RemovePoints(ctx context.Context, leagueID, driverID int, adj Adjustment) (*models.PointsHistory, error) {
	if adj.Points < 0 || adj.Races < 0 {
		return nil, ErrNegativeDelta
	}
	if adj.Reason == "" {
		adj.Reason = reasonManualRemove
	}

	var entry *models.PointsHistory
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockLeague(ctx, leagueID); err != nil {
			return err
		}
		driver, err := tx.GetUser(ctx, driverID)
		if err != nil {
			return err
		}
		if driver == nil {
			return errDriverNotFound
		}

		row, err := tx.GetPoints(ctx, leagueID, driverID)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrNotMember
		}

		entry = s.newEntry(driver, row, adj, models.ActionManualRemove)
		entry.NewPoints = max(0, row.Points-adj.Points)
		entry.NewRaces = max(0, row.RacesCompleted-adj.Races)
		// Changes record what was actually applied after flooring.
		entry.PointsChange = entry.NewPoints - entry.OldPoints
		entry.RacesChange = entry.NewRaces - entry.OldRaces
		return s.apply(ctx, tx, row, entry)
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, leagueID)
	return entry, nil
}

// ResetLeague zeroes every row of a league, recording one history entry per
// non-zero row. It returns the number of rows that were reset.
func (s *Service) ResetLeague(ctx context.Context, leagueID, adminID int) (int, error) {
	count := 0
	err := s.store.WithTx(ctx, func(tx Tx) error {
		count = 0
		if err := tx.LockLeague(ctx, leagueID); err != nil {
			return err
		}
		rows, err := tx.ListPoints(ctx, leagueID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for _, row := range rows {
			if row.Points == 0 && row.RacesCompleted == 0 {
				continue
			}
			entry := &models.PointsHistory{
				LeagueID:     leagueID,
				DriverID:     row.DriverID,
				PointsChange: -row.Points,
				RacesChange:  -row.RacesCompleted,
				AdminID:      adminRef(adminID),
				Reason:       reasonLeagueReset,
				OldPoints:    row.Points,
				OldRaces:     row.RacesCompleted,
				ActionType:   models.ActionReset,
				CreatedAt:    now,
			}
			if err := tx.InsertHistory(ctx, entry); err != nil {
				return err
			}
			count++
		}

		if count == 0 {
			return nil
		}
		return tx.ResetPoints(ctx, leagueID)
	})
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.changed(ctx, leagueID)
	}
	s.logger.Info().Int("league_id", leagueID).Int("rows", count).Msg("league reset")
	return count, nil
}

// Undo pops the most recent history entry of a league and restores the
// snapshot it recorded. The consumed entry is returned.
func (s *Service) Undo(ctx context.Context, leagueID int) (*models.PointsHistory, error) {
	var last *models.PointsHistory
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockLeague(ctx, leagueID); err != nil {
			return err
		}
		var err error
		last, err = tx.LastHistory(ctx, leagueID)
		if err != nil {
			return err
		}
		if last == nil {
			return ErrNothingToUndo
		}

		row, err := tx.GetPoints(ctx, leagueID, last.DriverID)
		if err != nil {
			return err
		}
		if row == nil {
			if row, err = tx.InsertPoints(ctx, leagueID, last.DriverID); err != nil {
				return err
			}
		}

		row.Points = last.OldPoints
		row.RacesCompleted = last.OldRaces
		if err := tx.UpdatePoints(ctx, row); err != nil {
			return err
		}
		return tx.DeleteHistory(ctx, last.ID)
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, leagueID)
	return last, nil
}

// Standings returns the ordered league table, served from cache when possible
func (s *Service) Standings(ctx context.Context, leagueID int) ([]models.Standing, error) {
	cached, version, ok, cacheErr := s.cache.GetStandings(ctx, leagueID)
	if cacheErr != nil {
		s.logger.Warn().Err(cacheErr).Int("league_id", leagueID).Msg("standings cache read failed")
	} else if ok {
		return cached, nil
	}

	if err := s.requireLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	rows, err := s.store.Standings(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.Standing{}
	}
	SortStandings(rows)

	// A failed read leaves version unknown; skip the write
	if cacheErr == nil {
		if err := s.cache.SetStandings(ctx, leagueID, version, rows); err != nil {
			s.logger.Warn().Err(err).Int("league_id", leagueID).Msg("standings cache write failed")
		}
	}
	return rows, nil
}

// History returns the newest entries of a league's log. limit <= 0 means the default.
func (s *Service) History(ctx context.Context, leagueID, limit int) ([]models.PointsHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	if err := s.requireLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	entries, err := s.store.History(ctx, leagueID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.PointsHistory{}
	}
	return entries, nil
}

func (s *Service) requireLeague(ctx context.Context, leagueID int) error {
	ok, err := s.store.LeagueExists(ctx, leagueID)
	if err != nil {
		return err
	}
	if !ok {
		return errLeagueNotFound
	}
	return nil
}

func (s *Service) requireDriver(ctx context.Context, tx Tx, driverID int) (*models.User, error) {
	driver, err := tx.GetUser(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, errDriverNotFound
	}
	if !driver.IsDriver {
		return nil, ErrNotDriver
	}
	return driver, nil
}

func (s *Service) newEntry(driver *models.User, row *models.DriverPoints, adj Adjustment, action string) *models.PointsHistory {
	return &models.PointsHistory{
		LeagueID:     row.LeagueID,
		DriverID:     row.DriverID,
		DriverName:   driver.Name,
		PointsChange: adj.Points,
		RacesChange:  adj.Races,
		AdminID:      adminRef(adj.AdminID),
		Reason:       adj.Reason,
		OldPoints:    row.Points,
		OldRaces:     row.RacesCompleted,
		ActionType:   action,
		CreatedAt:    s.clock.Now(),
	}
}

// apply writes the history entry and moves the row to the entry's new values
func (s *Service) apply(ctx context.Context, tx Tx, row *models.DriverPoints, entry *models.PointsHistory) error {
	if err := tx.InsertHistory(ctx, entry); err != nil {
		return err
	}
	row.Points = entry.NewPoints
	row.RacesCompleted = entry.NewRaces
	return tx.UpdatePoints(ctx, row)
}

// changed runs after a committed mutation. Cache failures are logged, not returned.
func (s *Service) changed(ctx context.Context, leagueID int) {
	if err := s.cache.InvalidateStandings(ctx, leagueID); err != nil {
		s.logger.Warn().Err(err).Int("league_id", leagueID).Msg("standings cache invalidation failed")
	}
	s.notifier.LeagueChanged(ctx, leagueID)
}

func adminRef(id int) *int {
	if id <= 0 {
		return nil
	}
	return &id
}
