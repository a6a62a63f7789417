package models

import "time"

// Role values stored on users.role
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a team member account
type User struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	IsDriver        bool      `json:"is_driver"`
	Bio             string    `json:"bio,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Gamertag        string    `json:"gamertag,omitempty"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsAdmin reports whether the stored role grants admin access
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Experience levels accepted on a profile. Empty means unset.
var ExperienceLevels = []string{"", "beginner", "intermediate", "advanced", "pro"}

// Profile holds the self-editable fields of a user
type Profile struct {
	Bio             string `json:"bio"`
	AvatarURL       string `json:"avatar_url"`
	Gamertag        string `json:"gamertag"`
	ExperienceLevel string `json:"experience_level"`
}

// DriverSummary is the public view of a driver
type DriverSummary struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Gamertag        string `json:"gamertag,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	Bio             string `json:"bio,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

// Summary returns the public driver view of u
func (u *User) Summary() DriverSummary {
	return DriverSummary{
		ID:              u.ID,
		Name:            u.Name,
		Gamertag:        u.Gamertag,
		AvatarURL:       u.AvatarURL,
		Bio:             u.Bio,
		ExperienceLevel: u.ExperienceLevel,
	}
}

// League represents a named competition
type League struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// DriverPoints is the ledger row for one (league, driver) pair.
// Row existence is league membership.
type DriverPoints struct {
	LeagueID       int       `json:"league_id"`
	DriverID       int       `json:"driver_id"`
	Points         int       `json:"points"`
	RacesCompleted int       `json:"races_completed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// History action types
const (
	ActionManualAdd    = "MANUAL_ADD"
	ActionManualRemove = "MANUAL_REMOVE"
	ActionReset        = "RESET"
)

// PointsHistory is an audit entry for one ledger mutation
type PointsHistory struct {
	ID           int       `json:"id"`
	LeagueID     int       `json:"league_id"`
	DriverID     int       `json:"driver_id"`
	DriverName   string    `json:"driver_name,omitempty"`
	PointsChange int       `json:"points_change"`
	RacesChange  int       `json:"races_change"`
	AdminID      *int      `json:"admin_id"`
	Reason       string    `json:"reason"`
	OldPoints    int       `json:"old_points"`
	NewPoints    int       `json:"new_points"`
	OldRaces     int       `json:"old_races"`
	NewRaces     int       `json:"new_races"`
	ActionType   string    `json:"action_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Standing is one row of a league table
type Standing struct {
	Position       int    `json:"position"`
	DriverID       int    `json:"driver_id"`
	DriverName     string `json:"driver_name"`
	Gamertag       string `json:"gamertag,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	Points         int    `json:"points"`
	RacesCompleted int    `json:"races_completed"`
}

// Achievement represents a team accomplishment
type Achievement struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon,omitempty"`
	AchievedAt  *time.Time `json:"achieved_at,omitempty"`
	CreatedBy   *int       `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Event status constants
const (
	EventStatusUpcoming  = "upcoming"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// Event represents a scheduled race or team event
type Event struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	EventDate   time.Time `json:"event_date"`
	Status      string    `json:"status"`
	CreatedBy   *int      `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// GalleryCategory groups gallery images
type GalleryCategory struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GalleryImage is a media item referenced by URL
type GalleryImage struct {
	ID         int       `json:"id"`
	CategoryID *int      `json:"category_id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	UploadedBy *int      `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
