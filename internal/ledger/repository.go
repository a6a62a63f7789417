package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/database"
	"github.com/csl-racing/api/internal/models"
)

// Repository is the PostgreSQL Store
type Repository struct {
	db *database.DB
}

// NewRepository creates a new ledger repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// WithTx runs fn against a transaction-bound view of the repository
func (r *Repository) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return r.db.WithTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&txRepository{q: sqlTx})
	})
}

func (r *Repository) LeagueExists(ctx context.Context, leagueID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM leagues WHERE id = $1)`, leagueID).Scan(&exists)
	if err != nil {
		return false, apperr.Store("check league", err)
	}
	return exists, nil
}

func (r *Repository) Standings(ctx context.Context, leagueID int) ([]models.Standing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.gamertag, u.avatar_url, dp.points, dp.races_completed
		FROM driver_points dp
		JOIN users u ON u.id = dp.driver_id
		WHERE dp.league_id = $1
		ORDER BY dp.points DESC, dp.races_completed ASC, u.name ASC
	`, leagueID)
	if err != nil {
		return nil, apperr.Store("query standings", err)
	}
	defer rows.Close()

	var standings []models.Standing
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(&s.DriverID, &s.DriverName, &s.Gamertag, &s.AvatarURL, &s.Points, &s.RacesCompleted); err != nil {
			return nil, apperr.Store("scan standing", err)
		}
		standings = append(standings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate standings", err)
	}
	return standings, nil
}

func (r *Repository) History(ctx context.Context, leagueID, limit int) ([]models.PointsHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+historyColumns+`, u.name
		FROM points_history h
		JOIN users u ON u.id = h.driver_id
		WHERE h.league_id = $1
		ORDER BY h.id DESC
		LIMIT $2
	`, leagueID, limit)
	if err != nil {
		return nil, apperr.Store("query history", err)
	}
	defer rows.Close()

	var entries []models.PointsHistory
	for rows.Next() {
		var h models.PointsHistory
		dest := append(historyDest(&h), &h.DriverName)
		if err := rows.Scan(dest...); err != nil {
			return nil, apperr.Store("scan history", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate history", err)
	}
	return entries, nil
}

func (r *Repository) LeagueDrivers(ctx context.Context, leagueID int) ([]models.DriverSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.gamertag, u.avatar_url, u.bio, u.experience_level
		FROM driver_points dp
		JOIN users u ON u.id = dp.driver_id
		WHERE dp.league_id = $1
		ORDER BY u.name ASC, u.id ASC
	`, leagueID)
	if err != nil {
		return nil, apperr.Store("query league drivers", err)
	}
	defer rows.Close()

	var drivers []models.DriverSummary
	for rows.Next() {
		var d models.DriverSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Gamertag, &d.AvatarURL, &d.Bio, &d.ExperienceLevel); err != nil {
			return nil, apperr.Store("scan league driver", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate league drivers", err)
	}
	return drivers, nil
}

const historyColumns = `h.id, h.league_id, h.driver_id, h.points_change, h.races_change, h.admin_id,
	h.reason, h.old_points, h.new_points, h.old_races, h.new_races, h.action_type, h.created_at`

func historyDest(h *models.PointsHistory) []any {
	return []any{
		&h.ID, &h.LeagueID, &h.DriverID, &h.PointsChange, &h.RacesChange, &h.AdminID,
		&h.Reason, &h.OldPoints, &h.NewPoints, &h.OldRaces, &h.NewRaces, &h.ActionType, &h.CreatedAt,
	}
}

// txRepository implements Tx on a *sql.Tx
type txRepository struct {
	q database.Querier
}

func (t *txRepository) LockLeague(ctx context.Context, leagueID int) error {
	var id int
	err := t.q.QueryRowContext(ctx, `SELECT id FROM leagues WHERE id = $1 FOR UPDATE`, leagueID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return errLeagueNotFound
	}
	if err != nil {
		return apperr.Store("lock league", err)
	}
	return nil
}

func (t *txRepository) GetUser(ctx context.Context, userID int) (*models.User, error) {
	var u models.User
	err := t.q.QueryRowContext(ctx, `
		SELECT id, name, email, role, is_driver
		FROM users WHERE id = $1
	`, userID).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsDriver)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("get user", err)
	}
	return &u, nil
}

func (t *txRepository) GetPoints(ctx context.Context, leagueID, driverID int) (*models.DriverPoints, error) {
	var p models.DriverPoints
	err := t.q.QueryRowContext(ctx, `
		SELECT league_id, driver_id, points, races_completed, updated_at
		FROM driver_points
		WHERE league_id = $1 AND driver_id = $2
		FOR UPDATE
	`, leagueID, driverID).Scan(&p.LeagueID, &p.DriverID, &p.Points, &p.RacesCompleted, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("get points", err)
	}
	return &p, nil
}

func (t *txRepository) InsertPoints(ctx context.Context, leagueID, driverID int) (*models.DriverPoints, error) {
	p := models.DriverPoints{LeagueID: leagueID, DriverID: driverID}
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO driver_points (league_id, driver_id, points, races_completed)
		VALUES ($1, $2, 0, 0)
		RETURNING updated_at
	`, leagueID, driverID).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, database.Classify(err, "insert points", ErrAlreadyMember.Error(), errDriverNotFound.Error())
	}
	return &p, nil
}

func (t *txRepository) UpdatePoints(ctx context.Context, p *models.DriverPoints) error {
	err := t.q.QueryRowContext(ctx, `
		UPDATE driver_points
		SET points = $3, races_completed = $4
		WHERE league_id = $1 AND driver_id = $2
		RETURNING updated_at
	`, p.LeagueID, p.DriverID, p.Points, p.RacesCompleted).Scan(&p.UpdatedAt)
	if err != nil {
		return database.Classify(err, "update points", "", ErrNotMember.Error())
	}
	return nil
}

func (t *txRepository) DeletePoints(ctx context.Context, leagueID, driverID int) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM driver_points WHERE league_id = $1 AND driver_id = $2`, leagueID, driverID)
	if err != nil {
		return apperr.Store("delete points", err)
	}
	return nil
}

func (t *txRepository) ListPoints(ctx context.Context, leagueID int) ([]models.DriverPoints, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT league_id, driver_id, points, races_completed, updated_at
		FROM driver_points
		WHERE league_id = $1
		ORDER BY driver_id
		FOR UPDATE
	`, leagueID)
	if err != nil {
		return nil, apperr.Store("list points", err)
	}
	defer rows.Close()

	var list []models.DriverPoints
	for rows.Next() {
		var p models.DriverPoints
		if err := rows.Scan(&p.LeagueID, &p.DriverID, &p.Points, &p.RacesCompleted, &p.UpdatedAt); err != nil {
			return nil, apperr.Store("scan points", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate points", err)
	}
	return list, nil
}

func (t *txRepository) ResetPoints(ctx context.Context, leagueID int) error {
	_, err := t.q.ExecContext(ctx, `
		UPDATE driver_points
		SET points = 0, races_completed = 0
		WHERE league_id = $1 AND (points > 0 OR races_completed > 0)
	`, leagueID)
	if err != nil {
		return apperr.Store("reset points", err)
	}
	return nil
}

func (t *txRepository) InsertHistory(ctx context.Context, h *models.PointsHistory) error {
	err := t.q.QueryRowContext(ctx, `
		INSERT INTO points_history (
			league_id, driver_id, points_change, races_change, admin_id, reason,
			old_points, new_points, old_races, new_races, action_type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, h.LeagueID, h.DriverID, h.PointsChange, h.RacesChange, h.AdminID, h.Reason,
		h.OldPoints, h.NewPoints, h.OldRaces, h.NewRaces, h.ActionType, h.CreatedAt,
	).Scan(&h.ID)
	if err != nil {
		return database.Classify(err, "insert history", "", errDriverNotFound.Error())
	}
	return nil
}

func (t *txRepository) LastHistory(ctx context.Context, leagueID int) (*models.PointsHistory, error) {
	var h models.PointsHistory
	err := t.q.QueryRowContext(ctx, `
		SELECT `+historyColumns+`
		FROM points_history h
		WHERE h.league_id = $1
		ORDER BY h.id DESC
		LIMIT 1
	`, leagueID).Scan(historyDest(&h)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("last history", err)
	}
	return &h, nil
}

func (t *txRepository) DeleteHistory(ctx context.Context, id int) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM points_history WHERE id = $1`, id); err != nil {
		return apperr.Store("delete history", err)
	}
	return nil
}

func (t *txRepository) DeleteDriverHistory(ctx context.Context, leagueID, driverID int) error {
	_, err := t.q.ExecContext(ctx, `DELETE FROM points_history WHERE league_id = $1 AND driver_id = $2`, leagueID, driverID)
	if err != nil {
		return apperr.Store("delete driver history", err)
	}
	return nil
}
