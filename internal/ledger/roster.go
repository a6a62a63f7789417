package ledger

import (
	"context"

	"github.com/csl-racing/api/internal/models"
)

// AddDriver makes a driver a member of a league with a zero ledger row
func (s *Service) AddDriver(ctx context.Context, leagueID, driverID int) (*models.DriverPoints, error) {
	var row *models.DriverPoints
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockLeague(ctx, leagueID); err != nil {
			return err
		}
		if _, err := s.requireDriver(ctx, tx, driverID); err != nil {
			return err
		}

		existing, err := tx.GetPoints(ctx, leagueID, driverID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyMember
		}

		row, err = tx.InsertPoints(ctx, leagueID, driverID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx, leagueID)
	return row, nil
}

// RemoveDriver deletes a driver's ledger row and their history in the league
func (s *Service) RemoveDriver(ctx context.Context, leagueID, driverID int) error {
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := tx.LockLeague(ctx, leagueID); err != nil {
			return err
		}
		existing, err := tx.GetPoints(ctx, leagueID, driverID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotMember
		}

		if err := tx.DeleteDriverHistory(ctx, leagueID, driverID); err != nil {
			return err
		}
		return tx.DeletePoints(ctx, leagueID, driverID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int("league_id", leagueID).Int("driver_id", driverID).Msg("driver removed from league")
	s.changed(ctx, leagueID)
	return nil
}

// ListDrivers returns the members of a league ordered by name
func (s *Service) ListDrivers(ctx context.Context, leagueID int) ([]models.DriverSummary, error) {
	if err := s.requireLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	drivers, err := s.store.LeagueDrivers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if drivers == nil {
		drivers = []models.DriverSummary{}
	}
	return drivers, nil
}
