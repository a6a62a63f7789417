package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/ledger"
	"github.com/csl-racing/api/internal/models"
)

type pointKey struct {
	league int
	driver int
}

type tables struct {
	users        map[int]models.User
	leagues      map[int]models.League
	points       map[pointKey]models.DriverPoints
	history      []models.PointsHistory
	achievements map[int]models.Achievement
	events       map[int]models.Event
	categories   map[int]models.GalleryCategory
	images       map[int]models.GalleryImage
	lastID       map[string]int
}

func newTables() *tables {
	return &tables{
		users:        map[int]models.User{},
		leagues:      map[int]models.League{},
		points:       map[pointKey]models.DriverPoints{},
		achievements: map[int]models.Achievement{},
		events:       map[int]models.Event{},
		categories:   map[int]models.GalleryCategory{},
		images:       map[int]models.GalleryImage{},
		lastID:       map[string]int{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *tables) clone() *tables {
	return &tables{
		users:        cloneMap(t.users),
		leagues:      cloneMap(t.leagues),
		points:       cloneMap(t.points),
		history:      append([]models.PointsHistory(nil), t.history...),
		achievements: cloneMap(t.achievements),
		events:       cloneMap(t.events),
		categories:   cloneMap(t.categories),
		images:       cloneMap(t.images),
		lastID:       cloneMap(t.lastID),
	}
}

func (t *tables) nextID(table string) int {
	t.lastID[table]++
	return t.lastID[table]
}

// Store is an in-memory implementation of the ledger, users, leagues and
// content stores. Transactions hold the store lock and restore a snapshot
// when their function fails.
type Store struct {
	mu    sync.Mutex
	data  *tables
	clock clockwork.Clock
	fail  map[string]error

	afterStandings func()
}

// NewStore creates an empty Store. A nil clock uses a fake clock.
func NewStore(clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewFakeClock()
	}
	return &Store{data: newTables(), clock: clock, fail: map[string]error{}}
}

// FailOn makes the named operation return err until cleared with a nil err
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *Store) failure(op string) error {
	if err, ok := s.fail[op]; ok {
		return apperr.Store(op, err)
	}
	return nil
}

// AfterStandingsRead runs fn once, after the next Standings read has taken
// its rows and released the store. Tests use it to commit a mutation while a
// reader holds a stale table.
func (s *Store) AfterStandingsRead(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterStandings = fn
}

// Seeding and inspection helpers

// AddUser inserts a user as given. Role defaults to user.
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.ID = s.data.nextID("users")
	u.CreatedAt = s.clock.Now()
	s.data.users[u.ID] = u
	return u
}

// AddLeague inserts a league without backfilling drivers
func (s *Store) AddLeague(name string) models.League {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := models.League{ID: s.data.nextID("leagues"), Name: name, Active: true, CreatedAt: s.clock.Now()}
	s.data.leagues[l.ID] = l
	return l
}

// SetPoints writes a ledger row directly
func (s *Store) SetPoints(leagueID, driverID, points, races int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.points[pointKey{leagueID, driverID}] = models.DriverPoints{
		LeagueID: leagueID, DriverID: driverID, Points: points, RacesCompleted: races, UpdatedAt: s.clock.Now(),
	}
}

// Points returns a ledger row and whether it exists
func (s *Store) Points(leagueID, driverID int) (models.DriverPoints, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.points[pointKey{leagueID, driverID}]
	return p, ok
}

// HistoryCount returns the number of history entries of a league
func (s *Store) HistoryCount(leagueID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.data.history {
		if h.LeagueID == leagueID {
			n++
		}
	}
	return n
}

// ledger.Store

func (s *Store) WithTx(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	committed := false
	defer func() {
		if !committed {
			s.data = snapshot
		}
	}()

	if err := fn(&memTx{s: s}); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) LeagueExists(ctx context.Context, leagueID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("LeagueExists"); err != nil {
		return false, err
	}
	_, ok := s.data.leagues[leagueID]
	return ok, nil
}

func (s *Store) Standings(ctx context.Context, leagueID int) ([]models.Standing, error) {
	rows, err := s.readStandings(leagueID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	hook := s.afterStandings
	s.afterStandings = nil
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return rows, nil
}

func (s *Store) readStandings(leagueID int) ([]models.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("Standings"); err != nil {
		return nil, err
	}
	var rows []models.Standing
	for k, p := range s.data.points {
		if k.league != leagueID {
			continue
		}
		u, ok := s.data.users[k.driver]
		if !ok {
			continue
		}
		rows = append(rows, models.Standing{
			DriverID: u.ID, DriverName: u.Name, Gamertag: u.Gamertag, AvatarURL: u.AvatarURL,
			Points: p.Points, RacesCompleted: p.RacesCompleted,
		})
	}
	return rows, nil
}

func (s *Store) History(ctx context.Context, leagueID, limit int) ([]models.PointsHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []models.PointsHistory
	for _, h := range s.data.history {
		if h.LeagueID == leagueID {
			h.DriverName = s.data.users[h.DriverID].Name
			entries = append(entries, h)
		}
	}
	sortNewestFirst(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Store) LeagueDrivers(ctx context.Context, leagueID int) ([]models.DriverSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var drivers []models.DriverSummary
	for k := range s.data.points {
		if k.league != leagueID {
			continue
		}
		if u, ok := s.data.users[k.driver]; ok {
			drivers = append(drivers, u.Summary())
		}
	}
	sortSummaries(drivers)
	return drivers, nil
}

// sortNewestFirst orders by id like the points_history sequence
func sortNewestFirst(entries []models.PointsHistory) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
}

func sortSummaries(list []models.DriverSummary) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

// memTx implements ledger.Tx. The store lock is held by WithTx.
type memTx struct {
	s *Store
}

func (t *memTx) LockLeague(ctx context.Context, leagueID int) error {
	if err := t.s.failure("LockLeague"); err != nil {
		return err
	}
	if _, ok := t.s.data.leagues[leagueID]; !ok {
		return apperr.NotFound("League not found")
	}
	return nil
}

func (t *memTx) GetUser(ctx context.Context, userID int) (*models.User, error) {
	u, ok := t.s.data.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (t *memTx) GetPoints(ctx context.Context, leagueID, driverID int) (*models.DriverPoints, error) {
	p, ok := t.s.data.points[pointKey{leagueID, driverID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *memTx) InsertPoints(ctx context.Context, leagueID, driverID int) (*models.DriverPoints, error) {
	if err := t.s.failure("InsertPoints"); err != nil {
		return nil, err
	}
	key := pointKey{leagueID, driverID}
	if _, ok := t.s.data.points[key]; ok {
		return nil, ledger.ErrAlreadyMember
	}
	p := models.DriverPoints{LeagueID: leagueID, DriverID: driverID, UpdatedAt: t.s.clock.Now()}
	t.s.data.points[key] = p
	return &p, nil
}

func (t *memTx) UpdatePoints(ctx context.Context, p *models.DriverPoints) error {
	if err := t.s.failure("UpdatePoints"); err != nil {
		return err
	}
	key := pointKey{p.LeagueID, p.DriverID}
	if _, ok := t.s.data.points[key]; !ok {
		return ledger.ErrNotMember
	}
	if p.Points < 0 || p.RacesCompleted < 0 {
		return apperr.Validation("value out of range")
	}
	p.UpdatedAt = t.s.clock.Now()
	t.s.data.points[key] = *p
	return nil
}

func (t *memTx) DeletePoints(ctx context.Context, leagueID, driverID int) error {
	if err := t.s.failure("DeletePoints"); err != nil {
		return err
	}
	delete(t.s.data.points, pointKey{leagueID, driverID})
	return nil
}

func (t *memTx) ListPoints(ctx context.Context, leagueID int) ([]models.DriverPoints, error) {
	var list []models.DriverPoints
	for k, p := range t.s.data.points {
		if k.league == leagueID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DriverID < list[j].DriverID })
	return list, nil
}

func (t *memTx) ResetPoints(ctx context.Context, leagueID int) error {
	if err := t.s.failure("ResetPoints"); err != nil {
		return err
	}
	for k, p := range t.s.data.points {
		if k.league == leagueID {
			p.Points, p.RacesCompleted = 0, 0
			t.s.data.points[k] = p
		}
	}
	return nil
}

func (t *memTx) InsertHistory(ctx context.Context, h *models.PointsHistory) error {
	if err := t.s.failure("InsertHistory"); err != nil {
		return err
	}
	h.ID = t.s.data.nextID("points_history")
	if h.CreatedAt.IsZero() {
		h.CreatedAt = t.s.clock.Now()
	}
	t.s.data.history = append(t.s.data.history, *h)
	return nil
}

func (t *memTx) LastHistory(ctx context.Context, leagueID int) (*models.PointsHistory, error) {
	var entries []models.PointsHistory
	for _, h := range t.s.data.history {
		if h.LeagueID == leagueID {
			entries = append(entries, h)
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}
	sortNewestFirst(entries)
	last := entries[0]
	return &last, nil
}

func (t *memTx) DeleteHistory(ctx context.Context, id int) error {
	if err := t.s.failure("DeleteHistory"); err != nil {
		return err
	}
	t.s.data.history = filterHistory(t.s.data.history, func(h models.PointsHistory) bool { return h.ID != id })
	return nil
}

func (t *memTx) DeleteDriverHistory(ctx context.Context, leagueID, driverID int) error {
	t.s.data.history = filterHistory(t.s.data.history, func(h models.PointsHistory) bool {
		return h.LeagueID != leagueID || h.DriverID != driverID
	})
	return nil
}

func filterHistory(list []models.PointsHistory, keep func(models.PointsHistory) bool) []models.PointsHistory {
	out := list[:0:0]
	for _, h := range list {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

func (s *Store) now() time.Time {
	return s.clock.Now()
}
