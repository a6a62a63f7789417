package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/ledger"
	"github.com/csl-racing/api/internal/models"
	"github.com/csl-racing/api/internal/testutil"
	"github.com/csl-racing/api/internal/users"
)

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		input users.RegisterInput
	}{
		{"short name", users.RegisterInput{Name: "A", Email: "a@csl.example", Password: "secret1"}},
		{"blank name", users.RegisterInput{Name: "   ", Email: "a@csl.example", Password: "secret1"}},
		{"bad email", users.RegisterInput{Name: "Alex", Email: "alex.csl.example", Password: "secret1"}},
		{"short password", users.RegisterInput{Name: "Alex", Email: "alex@csl.example", Password: "12345"}},
	}

	svc := users.NewService(testutil.NewStore(nil), nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := users.NewService(testutil.NewStore(nil), nil, nil)

	user, err := svc.Register(ctx, users.RegisterInput{Name: " Max ", Email: "Max@CSL.example ", Password: "verstappen"})
	if err != nil {
		t.Fatal(err)
	}
	if user.Name != "Max" || user.Email != "max@csl.example" {
		t.Errorf("Expected normalized name and email, got %q %q", user.Name, user.Email)
	}
	if user.Role != models.RoleUser || user.IsDriver {
		t.Errorf("Expected plain user, got role=%s driver=%v", user.Role, user.IsDriver)
	}
	if user.PasswordHash == "verstappen" {
		t.Error("Expected password to be hashed")
	}

	_, err = svc.Register(ctx, users.RegisterInput{Name: "Max Two", Email: "max@csl.example", Password: "another"})
	if !errors.Is(err, users.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}

	logged, err := svc.Login(ctx, "MAX@csl.example", "verstappen")
	if err != nil {
		t.Fatal(err)
	}
	if logged.ID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, logged.ID)
	}

	if _, err := svc.Login(ctx, "max@csl.example", "wrong"); !errors.Is(err, users.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@csl.example", "verstappen"); !errors.Is(err, users.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(nil)
	u := store.AddUser(models.User{Name: "Max", Email: "max@csl.example"})
	svc := users.NewService(store, nil, nil)

	updated, err := svc.UpdateProfile(ctx, u.ID, models.Profile{Bio: " Fast ", Gamertag: "MV1", ExperienceLevel: "Pro"})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Bio != "Fast" || updated.Gamertag != "MV1" || updated.ExperienceLevel != "pro" {
		t.Errorf("Unexpected profile: %+v", updated)
	}

	if _, err := svc.UpdateProfile(ctx, u.ID, models.Profile{ExperienceLevel: "legend"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestAdminSelfProtection(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(nil)
	admin := store.AddUser(models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin})
	other := store.AddUser(models.User{Name: "Other", Email: "other@csl.example"})
	svc := users.NewService(store, nil, nil)

	if _, err := svc.UpdateRole(ctx, admin.ID, admin.ID, models.RoleUser); !errors.Is(err, users.ErrCannotDemoteSelf) {
		t.Errorf("Expected ErrCannotDemoteSelf, got %v", err)
	}
	if err := svc.Delete(ctx, admin.ID, admin.ID); !errors.Is(err, users.ErrCannotDeleteSelf) {
		t.Errorf("Expected ErrCannotDeleteSelf, got %v", err)
	}

	stored, _ := store.GetUserByID(ctx, admin.ID)
	if stored.Role != models.RoleAdmin {
		t.Error("Expected admin to keep their role")
	}

	// Re-asserting admin on yourself is allowed
	if _, err := svc.UpdateRole(ctx, admin.ID, admin.ID, models.RoleAdmin); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	promoted, err := svc.UpdateRole(ctx, admin.ID, other.ID, models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if promoted.Role != models.RoleAdmin {
		t.Errorf("Expected other to be admin, got %s", promoted.Role)
	}

	if _, err := svc.UpdateRole(ctx, admin.ID, other.ID, "owner"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Expected validation error for unknown role, got %v", err)
	}

	if err := svc.Delete(ctx, admin.ID, other.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetUserByID(ctx, other.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Expected deleted user to be gone, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(nil)
	admin := store.AddUser(models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin})
	driver := store.AddUser(models.User{Name: "Driver", Email: "driver@csl.example", IsDriver: true})
	league := store.AddLeague("CSL Academy")
	store.SetPoints(league.ID, driver.ID, 10, 1)

	if err := users.NewService(store, nil, nil).Delete(ctx, admin.ID, driver.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Points(league.ID, driver.ID); ok {
		t.Error("Expected ledger row to be removed with the driver")
	}
}

func TestDeleteDriverRefreshesStandings(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(nil)
	cache := testutil.NewCache()
	notifier := &testutil.Notifier{}
	board := ledger.NewService(store, cache, nil, nil)
	svc := users.NewService(store, cache, notifier)

	admin := store.AddUser(models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin})
	driver := store.AddUser(models.User{Name: "Lando", Email: "lando@csl.example", IsDriver: true})
	other := store.AddUser(models.User{Name: "Oscar", Email: "oscar@csl.example", IsDriver: true})
	sprint := store.AddLeague("Sprint")
	endurance := store.AddLeague("Endurance")
	store.SetPoints(sprint.ID, driver.ID, 25, 1)
	store.SetPoints(sprint.ID, other.ID, 18, 1)
	store.SetPoints(endurance.ID, driver.ID, 10, 1)

	for _, id := range []int{sprint.ID, endurance.ID} {
		if _, err := board.Standings(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.Delete(ctx, admin.ID, driver.ID); err != nil {
		t.Fatal(err)
	}

	standings, err := board.Standings(ctx, sprint.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(standings) != 1 || standings[0].DriverID != other.ID || standings[0].Position != 1 {
		t.Errorf("Expected deleted driver gone from standings, got %+v", standings)
	}
	if standings, _ := board.Standings(ctx, endurance.ID); len(standings) != 0 {
		t.Errorf("Expected empty endurance standings, got %+v", standings)
	}
	if changes := notifier.Changes(); len(changes) != 2 || changes[0] != sprint.ID || changes[1] != endurance.ID {
		t.Errorf("Expected both leagues notified, got %v", changes)
	}
}

func TestUpdateProfileRefreshesStandings(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(nil)
	cache := testutil.NewCache()
	notifier := &testutil.Notifier{}
	board := ledger.NewService(store, cache, nil, nil)
	svc := users.NewService(store, cache, notifier)

	driver := store.AddUser(models.User{Name: "Lando", Email: "lando@csl.example", IsDriver: true})
	fan := store.AddUser(models.User{Name: "Fan", Email: "fan@csl.example"})
	league := store.AddLeague("Sprint")
	store.SetPoints(league.ID, driver.ID, 25, 1)
	if _, err := board.Standings(ctx, league.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.UpdateProfile(ctx, driver.ID, models.Profile{Gamertag: "LN4"}); err != nil {
		t.Fatal(err)
	}
	standings, err := board.Standings(ctx, league.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(standings) != 1 || standings[0].Gamertag != "LN4" {
		t.Errorf("Expected new gamertag in standings, got %+v", standings)
	}

	// Non-drivers are on no table
	if _, err := svc.UpdateProfile(ctx, fan.ID, models.Profile{Bio: "hi"}); err != nil {
		t.Fatal(err)
	}
	if changes := notifier.Changes(); len(changes) != 1 || changes[0] != league.ID {
		t.Errorf("Expected one change notification, got %v", changes)
	}
}

func TestListDrivers(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(nil)
	store.AddUser(models.User{Name: "Zoe", Email: "zoe@csl.example", IsDriver: true})
	store.AddUser(models.User{Name: "Fan", Email: "fan@csl.example"})
	u := store.AddUser(models.User{Name: "Ana", Email: "ana@csl.example"})
	svc := users.NewService(store, nil, nil)

	if _, err := svc.SetDriver(ctx, u.ID, true); err != nil {
		t.Fatal(err)
	}

	drivers, err := svc.ListDrivers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(drivers) != 2 || drivers[0].Name != "Ana" || drivers[1].Name != "Zoe" {
		t.Errorf("Unexpected drivers: %+v", drivers)
	}
}
