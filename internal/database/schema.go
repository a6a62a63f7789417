package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const schema = `
-- Users table
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	email VARCHAR(255) UNIQUE NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(10) NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
	is_driver BOOLEAN NOT NULL DEFAULT FALSE,
	bio TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	gamertag VARCHAR(100) NOT NULL DEFAULT '',
	experience_level VARCHAR(20) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Leagues table
CREATE TABLE IF NOT EXISTS leagues (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) UNIQUE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Ledger rows; row existence is league membership
CREATE TABLE IF NOT EXISTS driver_points (
	league_id INTEGER NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
	driver_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	points INTEGER NOT NULL DEFAULT 0 CHECK (points >= 0),
	races_completed INTEGER NOT NULL DEFAULT 0 CHECK (races_completed >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (league_id, driver_id)
);

-- Points history (undo stack per league)
CREATE TABLE IF NOT EXISTS points_history (
	id SERIAL PRIMARY KEY,
	league_id INTEGER NOT NULL REFERENCES leagues(id) ON DELETE CASCADE,
	driver_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	points_change INTEGER NOT NULL,
	races_change INTEGER NOT NULL,
	admin_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
	reason TEXT NOT NULL DEFAULT '',
	old_points INTEGER NOT NULL,
	new_points INTEGER NOT NULL,
	old_races INTEGER NOT NULL,
	new_races INTEGER NOT NULL,
	action_type VARCHAR(20) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS achievements (
	id SERIAL PRIMARY KEY,
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	icon VARCHAR(100) NOT NULL DEFAULT '',
	achieved_at DATE,
	created_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id SERIAL PRIMARY KEY,
	title VARCHAR(200) NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location VARCHAR(200) NOT NULL DEFAULT '',
	event_date TIMESTAMPTZ NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'upcoming' CHECK (status IN ('upcoming', 'completed', 'cancelled')),
	created_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS gallery_categories (
	id SERIAL PRIMARY KEY,
	name VARCHAR(100) UNIQUE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS gallery_images (
	id SERIAL PRIMARY KEY,
	category_id INTEGER REFERENCES gallery_categories(id) ON DELETE SET NULL,
	title VARCHAR(200) NOT NULL DEFAULT '',
	image_url TEXT NOT NULL,
	uploaded_by INTEGER REFERENCES users(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Create indexes for performance
CREATE INDEX IF NOT EXISTS idx_users_is_driver ON users(is_driver) WHERE is_driver;
CREATE INDEX IF NOT EXISTS idx_driver_points_driver_id ON driver_points(driver_id);
DROP INDEX IF EXISTS idx_points_history_league_order;
CREATE INDEX IF NOT EXISTS idx_points_history_league_seq ON points_history(league_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_points_history_driver ON points_history(league_id, driver_id);
CREATE INDEX IF NOT EXISTS idx_events_status_date ON events(status, event_date);
CREATE INDEX IF NOT EXISTS idx_gallery_images_category_id ON gallery_images(category_id);
`

const triggers = `
-- Function to update ledger row timestamp
CREATE OR REPLACE FUNCTION update_driver_points_timestamp()
RETURNS TRIGGER AS $$
BEGIN
	NEW.updated_at = NOW();
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

-- Trigger to auto-update ledger row timestamp
DROP TRIGGER IF EXISTS trg_update_driver_points_timestamp ON driver_points;
CREATE TRIGGER trg_update_driver_points_timestamp
	BEFORE UPDATE ON driver_points
	FOR EACH ROW
	EXECUTE FUNCTION update_driver_points_timestamp();
`

// InitSchema creates database tables if they don't exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, triggers); err != nil {
		return fmt.Errorf("failed to initialize triggers: %w", err)
	}

	log.Info().Str("component", "database").Msg("schema initialized with indexes and triggers")
	return nil
}
