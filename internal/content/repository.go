package content

import (
	"context"
	"database/sql"
	"time"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/database"
	"github.com/csl-racing/api/internal/models"
)

const (
	msgAchievementNotFound = "Achievement not found"
	msgEventNotFound       = "Event not found"
	msgCategoryNotFound    = "Category not found"
	msgImageNotFound       = "Image not found"

	achievementColumns = `id, title, description, icon, achieved_at, created_by, created_at`
	eventColumns       = `id, title, description, location, event_date, status, created_by, created_at`
	imageColumns       = `id, category_id, title, image_url, uploaded_by, created_at`
)

// Repository is the PostgreSQL Store
type Repository struct {
	db *database.DB
}

// NewRepository creates a new content repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// queryList runs a query and scans every row with scan
func queryList[T any](ctx context.Context, db *database.DB, op string, scan func(scanner, *T) error, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()

	var list []T
	for rows.Next() {
		var item T
		if err := scan(rows, &item); err != nil {
			return nil, apperr.Store(op, err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return list, nil
}

func execAffecting(ctx context.Context, db *database.DB, op, notFound, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return database.Classify(err, op, "", notFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}

// Achievements

func scanAchievement(row scanner, a *models.Achievement) error {
	return row.Scan(&a.ID, &a.Title, &a.Description, &a.Icon, &a.AchievedAt, &a.CreatedBy, &a.CreatedAt)
}

func (r *Repository) ListAchievements(ctx context.Context) ([]models.Achievement, error) {
	return queryList(ctx, r.db, "list achievements", scanAchievement,
		`SELECT `+achievementColumns+` FROM achievements ORDER BY achieved_at DESC NULLS LAST, id DESC`)
}

func (r *Repository) GetAchievement(ctx context.Context, id int) (*models.Achievement, error) {
	var a models.Achievement
	err := scanAchievement(r.db.QueryRowContext(ctx, `SELECT `+achievementColumns+` FROM achievements WHERE id = $1`, id), &a)
	if err != nil {
		return nil, database.Classify(err, "get achievement", "", msgAchievementNotFound)
	}
	return &a, nil
}

func (r *Repository) CreateAchievement(ctx context.Context, a *models.Achievement) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO achievements (title, description, icon, achieved_at, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.Title, a.Description, a.Icon, a.AchievedAt, a.CreatedBy).Scan(&a.ID, &a.CreatedAt)
	return database.Classify(err, "create achievement", "", "User not found")
}

func (r *Repository) UpdateAchievement(ctx context.Context, a *models.Achievement) error {
	return execAffecting(ctx, r.db, "update achievement", msgAchievementNotFound, `
		UPDATE achievements SET title = $2, description = $3, icon = $4, achieved_at = $5 WHERE id = $1
	`, a.ID, a.Title, a.Description, a.Icon, a.AchievedAt)
}

func (r *Repository) DeleteAchievement(ctx context.Context, id int) error {
	return execAffecting(ctx, r.db, "delete achievement", msgAchievementNotFound, `DELETE FROM achievements WHERE id = $1`, id)
}

// Events

func scanEvent(row scanner, e *models.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.EventDate, &e.Status, &e.CreatedBy, &e.CreatedAt)
}

func (r *Repository) ListEvents(ctx context.Context, status string) ([]models.Event, error) {
	return queryList(ctx, r.db, "list events", scanEvent, `
		SELECT `+eventColumns+` FROM events
		WHERE $1 = '' OR status = $1
		ORDER BY event_date ASC, id ASC
	`, status)
}

func (r *Repository) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	var e models.Event
	err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id), &e)
	if err != nil {
		return nil, database.Classify(err, "get event", "", msgEventNotFound)
	}
	return &e, nil
}

func (r *Repository) CreateEvent(ctx context.Context, e *models.Event) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO events (title, description, location, event_date, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, e.Title, e.Description, e.Location, e.EventDate, e.Status, e.CreatedBy).Scan(&e.ID, &e.CreatedAt)
	return database.Classify(err, "create event", "", "User not found")
}

func (r *Repository) UpdateEvent(ctx context.Context, e *models.Event) error {
	return execAffecting(ctx, r.db, "update event", msgEventNotFound, `
		UPDATE events SET title = $2, description = $3, location = $4, event_date = $5, status = $6 WHERE id = $1
	`, e.ID, e.Title, e.Description, e.Location, e.EventDate, e.Status)
}

func (r *Repository) DeleteEvent(ctx context.Context, id int) error {
	return execAffecting(ctx, r.db, "delete event", msgEventNotFound, `DELETE FROM events WHERE id = $1`, id)
}

func (r *Repository) CompletePastEvents(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET status = $1 WHERE status = $2 AND event_date < $3
	`, models.EventStatusCompleted, models.EventStatusUpcoming, now)
	if err != nil {
		return 0, apperr.Store("complete past events", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Store("complete past events", err)
	}
	return int(n), nil
}

// Gallery

func scanCategory(row scanner, c *models.GalleryCategory) error {
	return row.Scan(&c.ID, &c.Name, &c.CreatedAt)
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.GalleryCategory, error) {
	return queryList(ctx, r.db, "list categories", scanCategory,
		`SELECT id, name, created_at FROM gallery_categories ORDER BY name ASC`)
}

func (r *Repository) CreateCategory(ctx context.Context, c *models.GalleryCategory) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO gallery_categories (name) VALUES ($1) RETURNING id, created_at
	`, c.Name).Scan(&c.ID, &c.CreatedAt)
	return database.Classify(err, "create category", ErrCategoryTaken.Error(), msgCategoryNotFound)
}

func (r *Repository) UpdateCategory(ctx context.Context, c *models.GalleryCategory) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE gallery_categories SET name = $2 WHERE id = $1 RETURNING created_at
	`, c.ID, c.Name).Scan(&c.CreatedAt)
	return database.Classify(err, "update category", ErrCategoryTaken.Error(), msgCategoryNotFound)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int) error {
	return execAffecting(ctx, r.db, "delete category", msgCategoryNotFound, `DELETE FROM gallery_categories WHERE id = $1`, id)
}

func scanImage(row scanner, img *models.GalleryImage) error {
	return row.Scan(&img.ID, &img.CategoryID, &img.Title, &img.ImageURL, &img.UploadedBy, &img.CreatedAt)
}

func (r *Repository) ListImages(ctx context.Context, categoryID *int) ([]models.GalleryImage, error) {
	var filter sql.NullInt64
	if categoryID != nil {
		filter = sql.NullInt64{Int64: int64(*categoryID), Valid: true}
	}
	return queryList(ctx, r.db, "list images", scanImage, `
		SELECT `+imageColumns+` FROM gallery_images
		WHERE $1::INTEGER IS NULL OR category_id = $1
		ORDER BY created_at DESC, id DESC
	`, filter)
}

func (r *Repository) GetImage(ctx context.Context, id int) (*models.GalleryImage, error) {
	var img models.GalleryImage
	err := scanImage(r.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM gallery_images WHERE id = $1`, id), &img)
	if err != nil {
		return nil, database.Classify(err, "get image", "", msgImageNotFound)
	}
	return &img, nil
}

func (r *Repository) CreateImage(ctx context.Context, img *models.GalleryImage) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO gallery_images (category_id, title, image_url, uploaded_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, img.CategoryID, img.Title, img.ImageURL, img.UploadedBy).Scan(&img.ID, &img.CreatedAt)
	return database.Classify(err, "create image", "", msgCategoryNotFound)
}

func (r *Repository) UpdateImage(ctx context.Context, img *models.GalleryImage) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gallery_images SET category_id = $2, title = $3, image_url = $4 WHERE id = $1
	`, img.ID, img.CategoryID, img.Title, img.ImageURL)
	if err != nil {
		return database.Classify(err, "update image", "", msgCategoryNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(msgImageNotFound)
	}
	return nil
}

func (r *Repository) DeleteImage(ctx context.Context, id int) error {
	return execAffecting(ctx, r.db, "delete image", msgImageNotFound, `DELETE FROM gallery_images WHERE id = $1`, id)
}
