package users

import (
	"context"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/database"
	"github.com/csl-racing/api/internal/models"
)

const (
	userColumns     = `id, name, email, password_hash, role, is_driver, bio, avatar_url, gamertag, experience_level, created_at`
	msgUserNotFound = "User not found"
)

// Repository is the PostgreSQL Store
type Repository struct {
	db *database.DB
}

// NewRepository creates a new users repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, u *models.User) error {
	return row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsDriver,
		&u.Bio, &u.AvatarURL, &u.Gamertag, &u.ExperienceLevel, &u.CreatedAt)
}

func (r *Repository) CreateUser(ctx context.Context, u *models.User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, role, is_driver)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.Name, u.Email, u.PasswordHash, u.Role, u.IsDriver).Scan(&u.ID, &u.CreatedAt)
	return database.Classify(err, "create user", ErrEmailTaken.Error(), msgUserNotFound)
}

func (r *Repository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	if err != nil {
		return nil, database.Classify(err, "get user", "", msgUserNotFound)
	}
	return &u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email), &u)
	if err != nil {
		return nil, database.Classify(err, "get user by email", "", msgUserNotFound)
	}
	return &u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, apperr.Store("list users", err)
	}
	defer rows.Close()

	var list []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, apperr.Store("scan user", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate users", err)
	}
	return list, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id int, p models.Profile) (*models.User, error) {
	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET bio = $2, avatar_url = $3, gamertag = $4, experience_level = $5
		WHERE id = $1
		RETURNING `+userColumns,
		id, p.Bio, p.AvatarURL, p.Gamertag, p.ExperienceLevel), &u)
	if err != nil {
		return nil, database.Classify(err, "update profile", "", msgUserNotFound)
	}
	return &u, nil
}

func (r *Repository) UpdateRole(ctx context.Context, id int, role string) (*models.User, error) {
	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, `UPDATE users SET role = $2 WHERE id = $1 RETURNING `+userColumns, id, role), &u)
	if err != nil {
		return nil, database.Classify(err, "update role", "", msgUserNotFound)
	}
	return &u, nil
}

func (r *Repository) SetDriver(ctx context.Context, id int, isDriver bool) (*models.User, error) {
	var u models.User
	err := scanUser(r.db.QueryRowContext(ctx, `UPDATE users SET is_driver = $2 WHERE id = $1 RETURNING `+userColumns, id, isDriver), &u)
	if err != nil {
		return nil, database.Classify(err, "set driver", "", msgUserNotFound)
	}
	return &u, nil
}

// DeleteUser removes a user. Ledger rows and driver history cascade; history
// the user authored as admin keeps admin_id NULL.
func (r *Repository) DeleteUser(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.Store("delete user", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(msgUserNotFound)
	}
	return nil
}

func (r *Repository) ListDrivers(ctx context.Context) ([]models.DriverSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, gamertag, avatar_url, bio, experience_level
		FROM users WHERE is_driver
		ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, apperr.Store("list drivers", err)
	}
	defer rows.Close()

	var list []models.DriverSummary
	for rows.Next() {
		var d models.DriverSummary
		if err := rows.Scan(&d.ID, &d.Name, &d.Gamertag, &d.AvatarURL, &d.Bio, &d.ExperienceLevel); err != nil {
			return nil, apperr.Store("scan driver", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate drivers", err)
	}
	return list, nil
}

func (r *Repository) DriverLeagues(ctx context.Context, id int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT league_id FROM driver_points WHERE driver_id = $1 ORDER BY league_id`, id)
	if err != nil {
		return nil, apperr.Store("list driver leagues", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var leagueID int
		if err := rows.Scan(&leagueID); err != nil {
			return nil, apperr.Store("scan driver league", err)
		}
		ids = append(ids, leagueID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("iterate driver leagues", err)
	}
	return ids, nil
}
