package router_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/csl-racing/api/internal/auth"
	"github.com/csl-racing/api/internal/content"
	"github.com/csl-racing/api/internal/handlers"
	"github.com/csl-racing/api/internal/leagues"
	"github.com/csl-racing/api/internal/ledger"
	"github.com/csl-racing/api/internal/live"
	"github.com/csl-racing/api/internal/middleware"
	"github.com/csl-racing/api/internal/models"
	"github.com/csl-racing/api/internal/router"
	"github.com/csl-racing/api/internal/testutil"
	"github.com/csl-racing/api/internal/users"
)

const testOrigin = "http://localhost:3000"

type testApp struct {
	handler http.Handler
	store   *testutil.Store
	clock   *clockwork.FakeClock
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	store := testutil.NewStore(clock)
	cache := testutil.NewCache()

	userSvc := users.NewService(store, cache, nil)
	ledgerSvc := ledger.NewService(store, cache, nil, clock)
	hub := live.NewHub(ledgerSvc, []string{testOrigin})
	t.Cleanup(hub.Close)

	handler := router.New(router.Deps{
		Tokens:  auth.NewTokenManager("router-test-secret", 24*time.Hour, clock),
		Revoker: auth.NewMemoryRevoker(clock),
		Users:   userSvc,
		Leagues: leagues.NewService(store, cache),
		Ledger:  ledgerSvc,
		Content: content.NewService(store, clock),
		Hub:     hub,
		Health: handlers.NewHealthHandler(clock, map[string]handlers.Check{
			"database": func(context.Context) error { return nil },
		}),
		AllowedOrigins: []string{testOrigin},
	})
	return &testApp{handler: handler, store: store, clock: clock}
}

// login creates an account directly in the store and signs in through the API
func (a *testApp) login(t *testing.T, u models.User, password string) *http.Cookie {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	u.PasswordHash = hash
	a.store.AddUser(u)

	w := testutil.Do(a.handler, testutil.MakeRequest("POST", "/auth/login", handlers.LoginRequest{Email: u.Email, Password: password}))
	testutil.AssertStatus(t, w, http.StatusOK)
	cookie := testutil.ResponseCookie(w, middleware.AuthCookieName)
	if cookie == nil {
		t.Fatal("Expected auth cookie on login")
	}
	return cookie
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	w := testutil.Do(app.handler, testutil.MakeRequest("POST", "/auth/register", map[string]string{
		"name": "Lena Driver", "email": "Lena@CSL.example", "password": "hunter22",
	}))
	testutil.AssertStatus(t, w, http.StatusCreated)

	cookie := testutil.ResponseCookie(w, middleware.AuthCookieName)
	if cookie == nil {
		t.Fatal("Expected auth cookie on register")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" {
		t.Errorf("Unexpected cookie attributes: %+v", cookie)
	}
	if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Errorf("Expected MaxAge of one day, got %d", cookie.MaxAge)
	}

	var registered handlers.AuthResponse
	testutil.AssertJSON(t, w, &registered)
	if !registered.Success || registered.User.Email != "lena@csl.example" || registered.User.Role != models.RoleUser {
		t.Errorf("Unexpected register response: %+v", registered)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/auth/register", map[string]string{
		"name": "Lena Again", "email": "lena@csl.example", "password": "hunter22",
	}))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", "/auth/me", nil, cookie))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = testutil.Do(app.handler, testutil.MakeRequest("PUT", "/auth/me", models.Profile{Gamertag: "LenaGT", ExperienceLevel: "pro"}, cookie))
	testutil.AssertStatus(t, w, http.StatusOK)
	var me struct {
		User models.User `json:"user"`
	}
	testutil.AssertJSON(t, w, &me)
	if me.User.Gamertag != "LenaGT" || me.User.ExperienceLevel != "pro" {
		t.Errorf("Unexpected profile: %+v", me.User)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/auth/login", handlers.LoginRequest{Email: "lena@csl.example", Password: "wrong-pass"}))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/auth/logout", nil, cookie))
	testutil.AssertStatus(t, w, http.StatusOK)
	if cleared := testutil.ResponseCookie(w, middleware.AuthCookieName); cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("Expected cookie to be cleared, got %+v", cleared)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", "/auth/me", nil, cookie))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app := newTestApp(t)
	member := app.login(t, models.User{Name: "Member", Email: "member@csl.example"}, "secret123")

	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/leagues"},
		{"PUT", "/leagues/1"},
		{"DELETE", "/leagues/1"},
		{"POST", "/leagues/1/points/2"},
		{"DELETE", "/leagues/1/points/2"},
		{"POST", "/leagues/1/reset"},
		{"POST", "/leagues/1/undo"},
		{"GET", "/leagues/1/history"},
		{"POST", "/leagues/1/drivers"},
		{"DELETE", "/leagues/1/drivers/2"},
		{"GET", "/admin/users"},
		{"PUT", "/admin/users/2/role"},
		{"PUT", "/admin/users/2/driver"},
		{"DELETE", "/admin/users/2"},
		{"POST", "/achievements"},
		{"PUT", "/events/1"},
		{"DELETE", "/gallery/1"},
		{"POST", "/gallery/categories"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := testutil.Do(app.handler, testutil.MakeRequest(rt.method, rt.path, nil))
			testutil.AssertStatus(t, w, http.StatusUnauthorized)

			w = testutil.Do(app.handler, testutil.MakeRequest(rt.method, rt.path, nil, member))
			testutil.AssertStatus(t, w, http.StatusForbidden)
		})
	}
}

type standingsResponse struct {
	Success   bool              `json:"success"`
	Standings []models.Standing `json:"standings"`
}

func TestLedgerOverHTTP(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin}, "secret123")
	alice := app.store.AddUser(models.User{Name: "Alice", Email: "alice@csl.example"})
	bruno := app.store.AddUser(models.User{Name: "Bruno", Email: "bruno@csl.example", IsDriver: true})

	// Promote Alice to driver through the admin API
	w := testutil.Do(app.handler, testutil.MakeRequest("PUT", fmt.Sprintf("/admin/users/%d/driver", alice.ID), map[string]bool{"is_driver": true}, admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/leagues", leagues.Input{Name: "GT3 Cup"}, admin))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created struct {
		League models.League `json:"league"`
	}
	testutil.AssertJSON(t, w, &created)
	leagueID := created.League.ID

	pointsPath := func(driverID int) string { return fmt.Sprintf("/leagues/%d/points/%d", leagueID, driverID) }

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", pointsPath(alice.ID), handlers.PointsRequest{Points: 25, Races: 1}, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	w = testutil.Do(app.handler, testutil.MakeRequest("POST", pointsPath(bruno.ID), handlers.PointsRequest{Points: 25, Races: 2}, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	w = testutil.Do(app.handler, testutil.MakeRequest("POST", pointsPath(bruno.ID), handlers.PointsRequest{Points: -5}, admin))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", fmt.Sprintf("/leagues/%d/points", leagueID), nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var table standingsResponse
	testutil.AssertJSON(t, w, &table)
	if len(table.Standings) != 2 || table.Standings[0].DriverID != alice.ID || table.Standings[0].Position != 1 {
		t.Fatalf("Expected Alice first on fewer races, got %+v", table.Standings)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("DELETE", pointsPath(alice.ID), handlers.PointsRequest{Points: 100, Races: 5}, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	row, _ := app.store.Points(leagueID, alice.ID)
	if row.Points != 0 || row.RacesCompleted != 0 {
		t.Errorf("Expected floor at zero, got %+v", row)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", fmt.Sprintf("/leagues/%d/undo", leagueID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	row, _ = app.store.Points(leagueID, alice.ID)
	if row.Points != 25 || row.RacesCompleted != 1 {
		t.Errorf("Expected undo to restore 25/1, got %+v", row)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", fmt.Sprintf("/leagues/%d/reset", leagueID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	var reset struct {
		Reset int `json:"reset"`
	}
	testutil.AssertJSON(t, w, &reset)
	if reset.Reset != 2 {
		t.Errorf("Expected 2 rows reset, got %d", reset.Reset)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", fmt.Sprintf("/leagues/%d/history?limit=2", leagueID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	var history struct {
		History []models.PointsHistory `json:"history"`
	}
	testutil.AssertJSON(t, w, &history)
	if len(history.History) != 2 || history.History[0].ActionType != models.ActionReset {
		t.Errorf("Expected two newest entries to be resets, got %+v", history.History)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", fmt.Sprintf("/leagues/%d/history?limit=zero", leagueID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestRosterOverHTTP(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin}, "secret123")
	league := app.store.AddLeague("Endurance")
	driver := app.store.AddUser(models.User{Name: "Chen", Email: "chen@csl.example", IsDriver: true})
	fan := app.store.AddUser(models.User{Name: "Fan", Email: "fan@csl.example"})

	rosterPath := fmt.Sprintf("/leagues/%d/drivers", league.ID)

	tests := []struct {
		name           string
		driverID       int
		expectedStatus int
	}{
		{"add driver", driver.ID, http.StatusCreated},
		{"already member", driver.ID, http.StatusConflict},
		{"not a driver", fan.ID, http.StatusBadRequest},
		{"unknown user", 999, http.StatusNotFound},
		{"missing id", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Do(app.handler, testutil.MakeRequest("POST", rosterPath, handlers.AddDriverRequest{DriverID: tt.driverID}, admin))
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	w := testutil.Do(app.handler, testutil.MakeRequest("GET", rosterPath, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var roster struct {
		Drivers []models.DriverSummary `json:"drivers"`
	}
	testutil.AssertJSON(t, w, &roster)
	if len(roster.Drivers) != 1 || roster.Drivers[0].ID != driver.ID {
		t.Errorf("Expected Chen on the roster, got %+v", roster.Drivers)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("DELETE", fmt.Sprintf("%s/%d", rosterPath, driver.ID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	w = testutil.Do(app.handler, testutil.MakeRequest("DELETE", fmt.Sprintf("%s/%d", rosterPath, driver.ID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestAdminUserManagement(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin}, "secret123")
	target := app.store.AddUser(models.User{Name: "Target", Email: "target@csl.example"})

	w := testutil.Do(app.handler, testutil.MakeRequest("PUT", fmt.Sprintf("/admin/users/%d/role", target.ID), handlers.UpdateRoleRequest{Role: "admin"}, admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	// Admin ids are assigned first
	w = testutil.Do(app.handler, testutil.MakeRequest("PUT", "/admin/users/1/role", handlers.UpdateRoleRequest{Role: "user"}, admin))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	w = testutil.Do(app.handler, testutil.MakeRequest("DELETE", "/admin/users/1", nil, admin))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(app.handler, testutil.MakeRequest("PUT", fmt.Sprintf("/admin/users/%d/driver", target.ID), map[string]string{}, admin))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(app.handler, testutil.MakeRequest("DELETE", fmt.Sprintf("/admin/users/%d", target.ID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", "/admin/users", nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)
	var list struct {
		Users []models.User `json:"users"`
	}
	testutil.AssertJSON(t, w, &list)
	if len(list.Users) != 1 {
		t.Errorf("Expected only the admin left, got %d users", len(list.Users))
	}
}

func TestDeletedDriverLeavesStandings(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin}, "secret123")
	driver := app.store.AddUser(models.User{Name: "Lando", Email: "lando@csl.example", IsDriver: true})
	league := app.store.AddLeague("Sprint")
	app.store.SetPoints(league.ID, driver.ID, 25, 1)

	standingsPath := fmt.Sprintf("/leagues/%d/points", league.ID)
	var body struct {
		Standings []models.Standing `json:"standings"`
	}
	w := testutil.Do(app.handler, testutil.MakeRequest("GET", standingsPath, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &body)
	if len(body.Standings) != 1 {
		t.Fatalf("Expected one standing, got %+v", body.Standings)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("DELETE", fmt.Sprintf("/admin/users/%d", driver.ID), nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	body.Standings = nil
	w = testutil.Do(app.handler, testutil.MakeRequest("GET", standingsPath, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &body)
	if len(body.Standings) != 0 {
		t.Errorf("Expected deleted driver gone from standings, got %+v", body.Standings)
	}
}

func TestContentOverHTTP(t *testing.T) {
	app := newTestApp(t)
	admin := app.login(t, models.User{Name: "Admin", Email: "admin@csl.example", Role: models.RoleAdmin}, "secret123")

	w := testutil.Do(app.handler, testutil.MakeRequest("POST", "/events", content.EventInput{Title: "Spa 24h", EventDate: "2025-07-26"}, admin))
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/events", content.EventInput{Title: "No date"}, admin))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", "/events?status=upcoming", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var events struct {
		Events []models.Event `json:"events"`
	}
	testutil.AssertJSON(t, w, &events)
	if len(events.Events) != 1 {
		t.Errorf("Expected one upcoming event, got %d", len(events.Events))
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/gallery/categories", content.CategoryInput{Name: "Podiums"}, admin))
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/gallery", content.ImageInput{Title: "P1", ImageURL: "https://cdn.csl.example/p1.jpg"}, admin))
	testutil.AssertStatus(t, w, http.StatusCreated)
	w = testutil.Do(app.handler, testutil.MakeRequest("GET", "/gallery?category=abc", nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = testutil.Do(app.handler, testutil.MakeRequest("POST", "/achievements", map[string]any{"title": "Win", "unexpected": true}, admin))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestCORS(t *testing.T) {
	app := newTestApp(t)

	req := testutil.MakeRequest("OPTIONS", "/leagues", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := testutil.Do(app.handler, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Errorf("Expected allowed origin %q, got %q", testOrigin, got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Expected credentials to be allowed, got %q", got)
	}

	req = testutil.MakeRequest("GET", "/leagues", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = testutil.Do(app.handler, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for a foreign origin, got %q", got)
	}
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	w := testutil.Do(app.handler, testutil.MakeRequest("GET", "/health", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var health handlers.HealthResponse
	testutil.AssertJSON(t, w, &health)
	if health.Status != "healthy" || health.Checks["database"] != "ok" {
		t.Errorf("Unexpected health: %+v", health)
	}

	w = testutil.Do(app.handler, testutil.MakeRequest("GET", "/nope", nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
	var body middleware.ErrorResponse
	testutil.AssertJSON(t, w, &body)
	if body.Success || body.Error != "Route not found" {
		t.Errorf("Unexpected body: %+v", body)
	}
}

func TestStoreFailureIsMasked(t *testing.T) {
	app := newTestApp(t)
	app.store.FailOn("LeagueExists", errors.New("pq: connection refused on 10.0.0.5"))

	w := testutil.Do(app.handler, testutil.MakeRequest("GET", "/leagues/1/points", nil))
	testutil.AssertStatus(t, w, http.StatusInternalServerError)
	var body middleware.ErrorResponse
	testutil.AssertJSON(t, w, &body)
	if body.Error != "Internal server error" {
		t.Errorf("Expected masked message, got %q", body.Error)
	}
}
