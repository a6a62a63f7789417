package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/csl-racing/api/internal/leagues"
	"github.com/csl-racing/api/internal/models"
	"github.com/csl-racing/api/internal/users"
)

// SeedFile is the YAML document read by the seed tool
type SeedFile struct {
	Admin   Account   `yaml:"admin"`
	Drivers []Account `yaml:"drivers"`
	Leagues []League  `yaml:"leagues"`
}

type Account struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Gamertag string `yaml:"gamertag"`
}

type League struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Active      *bool  `yaml:"active"`
}

// Summary counts what a run created and skipped
type Summary struct {
	Created int
	Skipped int
}

func loadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if f.Admin.Email == "" {
		return nil, errors.New("seed file needs an admin account")
	}
	return &f, nil
}

// seed creates the admin, then drivers, then leagues so that league
// creation backfills the seeded drivers. Existing emails and league names
// are skipped.
func seed(ctx context.Context, f *SeedFile, userSvc *users.Service, leagueSvc *leagues.Service) (Summary, error) {
	var sum Summary

	admin, err := createAccount(ctx, userSvc, f.Admin, &sum)
	if err != nil {
		return sum, fmt.Errorf("admin %s: %w", f.Admin.Email, err)
	}
	if admin != nil {
		if _, err := userSvc.UpdateRole(ctx, 0, admin.ID, models.RoleAdmin); err != nil {
			return sum, fmt.Errorf("promote admin: %w", err)
		}
	}

	for _, d := range f.Drivers {
		driver, err := createAccount(ctx, userSvc, d, &sum)
		if err != nil {
			return sum, fmt.Errorf("driver %s: %w", d.Email, err)
		}
		if driver == nil {
			continue
		}
		if _, err := userSvc.SetDriver(ctx, driver.ID, true); err != nil {
			return sum, fmt.Errorf("flag driver %s: %w", d.Email, err)
		}
		if d.Gamertag != "" {
			if _, err := userSvc.UpdateProfile(ctx, driver.ID, models.Profile{Gamertag: d.Gamertag}); err != nil {
				return sum, fmt.Errorf("profile %s: %w", d.Email, err)
			}
		}
	}

	for _, l := range f.Leagues {
		league, err := leagueSvc.Create(ctx, leagues.Input{Name: l.Name, Description: l.Description, Active: l.Active})
		if errors.Is(err, leagues.ErrNameTaken) {
			log.Info().Str("league", l.Name).Msg("league exists, skipping")
			sum.Skipped++
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("league %s: %w", l.Name, err)
		}
		log.Info().Int("league_id", league.ID).Str("league", league.Name).Msg("league created")
		sum.Created++
	}

	return sum, nil
}

// createAccount registers a, returning nil when the email is already taken
func createAccount(ctx context.Context, userSvc *users.Service, a Account, sum *Summary) (*models.User, error) {
	user, err := userSvc.Register(ctx, users.RegisterInput{Name: a.Name, Email: a.Email, Password: a.Password})
	if errors.Is(err, users.ErrEmailTaken) {
		log.Info().Str("email", a.Email).Msg("account exists, skipping")
		sum.Skipped++
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sum.Created++
	return user, nil
}
