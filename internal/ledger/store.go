// Package ledger maintains per-league driver points, the history log that
// backs undo, and league membership.
//
// Every mutation runs in one store transaction that first locks the league,
// so writes to a league are serialised and apply all-or-nothing.
package ledger

import (
	"context"

	"github.com/csl-racing/api/internal/models"
)

// Store is the persistence the ledger needs.
type Store interface {
	// WithTx runs fn in a transaction. An error from fn rolls back every write.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	LeagueExists(ctx context.Context, leagueID int) (bool, error)
	// Standings returns the league's rows joined with driver names, unsorted.
	Standings(ctx context.Context, leagueID int) ([]models.Standing, error)
	// History returns entries newest first by insertion order.
	History(ctx context.Context, leagueID, limit int) ([]models.PointsHistory, error)
	LeagueDrivers(ctx context.Context, leagueID int) ([]models.DriverSummary, error)
}

// Tx is the transactional view of the store. Lookups return nil, nil when
// the row is absent.
type Tx interface {
	// LockLeague takes the league's write lock, failing with NotFound if it does not exist.
	LockLeague(ctx context.Context, leagueID int) error
	GetUser(ctx context.Context, userID int) (*models.User, error)

	GetPoints(ctx context.Context, leagueID, driverID int) (*models.DriverPoints, error)
	InsertPoints(ctx context.Context, leagueID, driverID int) (*models.DriverPoints, error)
	UpdatePoints(ctx context.Context, p *models.DriverPoints) error
	DeletePoints(ctx context.Context, leagueID, driverID int) error
	ListPoints(ctx context.Context, leagueID int) ([]models.DriverPoints, error)
	ResetPoints(ctx context.Context, leagueID int) error

	InsertHistory(ctx context.Context, h *models.PointsHistory) error
	// LastHistory returns the most recently inserted entry. Ordering follows
	// the entry id, which is assigned under the league lock, not created_at.
	LastHistory(ctx context.Context, leagueID int) (*models.PointsHistory, error)
	DeleteHistory(ctx context.Context, id int) error
	DeleteDriverHistory(ctx context.Context, leagueID, driverID int) error
}

// Cache stores computed standings.
//
// Every invalidation bumps a per-league version. GetStandings reports the
// version current at read time and SetStandings only stores a table whose
// version is still current, so a table loaded before a mutation committed
// is never cached after that mutation's invalidation.
type Cache interface {
	GetStandings(ctx context.Context, leagueID int) (standings []models.Standing, version int64, ok bool, err error)
	SetStandings(ctx context.Context, leagueID int, version int64, standings []models.Standing) error
	InvalidateStandings(ctx context.Context, leagueID int) error
}

// Notifier is told after a league's ledger changed.
type Notifier interface {
	LeagueChanged(ctx context.Context, leagueID int)
}

type nopCache struct{}

func (nopCache) GetStandings(context.Context, int) ([]models.Standing, int64, bool, error) {
	return nil, 0, false, nil
}
func (nopCache) SetStandings(context.Context, int, int64, []models.Standing) error { return nil }
func (nopCache) InvalidateStandings(context.Context, int) error                   { return nil }

type nopNotifier struct{}

func (nopNotifier) LeagueChanged(context.Context, int) {}
