package leagues

import (
	"context"
	"database/sql"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/database"
	"github.com/csl-racing/api/internal/models"
)

const msgLeagueNotFound = "League not found"

// Repository is the PostgreSQL Store
type Repository struct {
	db *database.DB
}

// NewRepository creates a new leagues repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateLeague(ctx context.Context, l *models.League) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO leagues (name, description, active)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, l.Name, l.Description, l.Active).Scan(&l.ID, &l.CreatedAt)
		if err != nil {
			return database.Classify(err, "create league", ErrNameTaken.Error(), msgLeagueNotFound)
		}

		// Backfill a zero ledger row for every existing driver
		_, err = tx.ExecContext(ctx, `
			INSERT INTO driver_points (league_id, driver_id, points, races_completed)
			SELECT $1, id, 0, 0 FROM users WHERE is_driver
			ON CONFLICT DO NOTHING
		`, l.ID)
		if err != nil {
			return apperr.Store("backfill league drivers", err)
		}
		return nil
	})
}

func (r *Repository) GetLeague(ctx context.Context, id int) (*models.League, error) {
	var l models.League
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, active, created_at FROM leagues WHERE id = $1
	`, id).Scan(&l.ID, &l.Name, &l.Description, &l.Active, &l.CreatedAt)
	if err != nil {
		return nil, database.Classify(err, "get league", "", msgLeagueNotFound)
	}
	return &l, nil
}

func (r *Repository) ListLeagues(ctx context.Context, activeOnly bool) ([]models.League, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, active, created_at
		FROM leagues
		WHERE NOT $1 OR active
		ORDER BY name ASC
	`, activeOnly)
	if err != nil {
		return nil, apperr.Store("list leagues", err)
	}
	defer rows.Close()

	var list []models.League
	for rows.Next() {
		var l models.League
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Active, &l.CreatedAt); err != nil {
			return nil, apperr.Store("scan league", err)
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate leagues", err)
	}
	return list, nil
}

func (r *Repository) UpdateLeague(ctx context.Context, l *models.League) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE leagues SET name = $2, description = $3, active = $4 WHERE id = $1
	`, l.ID, l.Name, l.Description, l.Active)
	if err != nil {
		return database.Classify(err, "update league", ErrNameTaken.Error(), msgLeagueNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(msgLeagueNotFound)
	}
	return nil
}

func (r *Repository) DeleteLeague(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leagues WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("delete league", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(msgLeagueNotFound)
	}
	return nil
}
