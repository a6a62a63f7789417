package users_test

import (
	"errors"
	"testing"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/models"
	"github.com/csl-racing/api/internal/testutil"
	"github.com/csl-racing/api/internal/users"
)

func TestPostgresUsers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := users.NewService(users.NewRepository(db), nil, nil)
	ctx := t.Context()

	u, err := svc.Register(ctx, users.RegisterInput{Name: "Alice", Email: "Alice@CSL.example", Password: "password1"})
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "alice@csl.example" || u.Role != models.RoleUser {
		t.Errorf("Unexpected user: %+v", u)
	}

	_, err = svc.Register(ctx, users.RegisterInput{Name: "Alice Two", Email: "alice@csl.example", Password: "password1"})
	if !errors.Is(err, users.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}

	if _, err := svc.Login(ctx, "alice@csl.example", "password1"); err != nil {
		t.Errorf("Expected login to succeed, got %v", err)
	}

	updated, err := svc.UpdateProfile(ctx, u.ID, models.Profile{Gamertag: "AliR", ExperienceLevel: "pro"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Gamertag != "AliR" {
		t.Errorf("Expected gamertag to persist, got %+v", updated)
	}

	if _, err := svc.SetDriver(ctx, u.ID, true); err != nil {
		t.Fatal(err)
	}
	drivers, err := svc.ListDrivers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(drivers) != 1 || drivers[0].ID != u.ID || drivers[0].Gamertag != "AliR" {
		t.Errorf("Unexpected drivers: %+v", drivers)
	}

	if err := svc.Delete(ctx, 0, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, u.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected NotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, 0, u.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected NotFound on second delete, got %v", err)
	}
}
