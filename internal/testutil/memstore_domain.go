package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/content"
	"github.com/csl-racing/api/internal/leagues"
	"github.com/csl-racing/api/internal/models"
	"github.com/csl-racing/api/internal/users"
)

// users.Store

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateUser"); err != nil {
		return err
	}
	for _, existing := range s.data.users {
		if existing.Email == u.Email {
			return users.ErrEmailTaken
		}
	}
	u.ID = s.data.nextID("users")
	u.CreatedAt = s.now()
	s.data.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := s.data.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]models.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *Store) updateUser(id int, mutate func(u *models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	mutate(&u)
	s.data.users[id] = u
	return &u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id int, p models.Profile) (*models.User, error) {
	return s.updateUser(id, func(u *models.User) {
		u.Bio, u.AvatarURL, u.Gamertag, u.ExperienceLevel = p.Bio, p.AvatarURL, p.Gamertag, p.ExperienceLevel
	})
}

func (s *Store) UpdateRole(ctx context.Context, id int, role string) (*models.User, error) {
	return s.updateUser(id, func(u *models.User) { u.Role = role })
}

func (s *Store) SetDriver(ctx context.Context, id int, isDriver bool) (*models.User, error) {
	return s.updateUser(id, func(u *models.User) { u.IsDriver = isDriver })
}

func (s *Store) DriverLeagues(ctx context.Context, id int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DriverLeagues"); err != nil {
		return nil, err
	}
	var ids []int
	for k := range s.data.points {
		if k.driver == id {
			ids = append(ids, k.league)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// DeleteUser applies the same cascades as the schema
func (s *Store) DeleteUser(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.users[id]; !ok {
		return apperr.NotFound("User not found")
	}
	delete(s.data.users, id)

	for k := range s.data.points {
		if k.driver == id {
			delete(s.data.points, k)
		}
	}
	kept := s.data.history[:0:0]
	for _, h := range s.data.history {
		if h.DriverID == id {
			continue
		}
		if h.AdminID != nil && *h.AdminID == id {
			h.AdminID = nil
		}
		kept = append(kept, h)
	}
	s.data.history = kept
	return nil
}

func (s *Store) ListDrivers(ctx context.Context) ([]models.DriverSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.DriverSummary
	for _, u := range s.data.users {
		if u.IsDriver {
			list = append(list, u.Summary())
		}
	}
	sortSummaries(list)
	return list, nil
}

// leagues.Store

func (s *Store) leagueNameTaken(name string, exceptID int) bool {
	for _, l := range s.data.leagues {
		if l.Name == name && l.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) CreateLeague(ctx context.Context, l *models.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateLeague"); err != nil {
		return err
	}
	if s.leagueNameTaken(l.Name, 0) {
		return leagues.ErrNameTaken
	}
	l.ID = s.data.nextID("leagues")
	l.CreatedAt = s.now()
	s.data.leagues[l.ID] = *l

	for _, u := range s.data.users {
		if u.IsDriver {
			s.data.points[pointKey{l.ID, u.ID}] = models.DriverPoints{LeagueID: l.ID, DriverID: u.ID, UpdatedAt: s.now()}
		}
	}
	return nil
}

func (s *Store) GetLeague(ctx context.Context, id int) (*models.League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data.leagues[id]
	if !ok {
		return nil, apperr.NotFound("League not found")
	}
	return &l, nil
}

func (s *Store) ListLeagues(ctx context.Context, activeOnly bool) ([]models.League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.League
	for _, l := range s.data.leagues {
		if activeOnly && !l.Active {
			continue
		}
		list = append(list, l)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *Store) UpdateLeague(ctx context.Context, l *models.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.leagues[l.ID]; !ok {
		return apperr.NotFound("League not found")
	}
	if s.leagueNameTaken(l.Name, l.ID) {
		return leagues.ErrNameTaken
	}
	s.data.leagues[l.ID] = *l
	return nil
}

func (s *Store) DeleteLeague(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.leagues[id]; !ok {
		return apperr.NotFound("League not found")
	}
	delete(s.data.leagues, id)
	for k := range s.data.points {
		if k.league == id {
			delete(s.data.points, k)
		}
	}
	s.data.history = filterHistory(s.data.history, func(h models.PointsHistory) bool { return h.LeagueID != id })
	return nil
}

// content.Store

func (s *Store) ListAchievements(ctx context.Context) ([]models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := values(s.data.achievements)
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *Store) GetAchievement(ctx context.Context, id int) (*models.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.achievements[id]
	if !ok {
		return nil, apperr.NotFound("Achievement not found")
	}
	return &a, nil
}

func (s *Store) CreateAchievement(ctx context.Context, a *models.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.data.nextID("achievements")
	a.CreatedAt = s.now()
	s.data.achievements[a.ID] = *a
	return nil
}

func (s *Store) UpdateAchievement(ctx context.Context, a *models.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replace(s.data.achievements, a.ID, *a, "Achievement not found")
}

func (s *Store) DeleteAchievement(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s.data.achievements, id, "Achievement not found")
}

func (s *Store) ListEvents(ctx context.Context, status string) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Event
	for _, e := range s.data.events {
		if status == "" || e.Status == status {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].EventDate.Equal(list[j].EventDate) {
			return list[i].EventDate.Before(list[j].EventDate)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *Store) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data.events[id]
	if !ok {
		return nil, apperr.NotFound("Event not found")
	}
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.data.nextID("events")
	e.CreatedAt = s.now()
	s.data.events[e.ID] = *e
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return replace(s.data.events, e.ID, *e, "Event not found")
}

func (s *Store) DeleteEvent(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s.data.events, id, "Event not found")
}

func (s *Store) CompletePastEvents(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CompletePastEvents"); err != nil {
		return 0, err
	}
	n := 0
	for id, e := range s.data.events {
		if e.Status == models.EventStatusUpcoming && e.EventDate.Before(now) {
			e.Status = models.EventStatusCompleted
			s.data.events[id] = e
			n++
		}
	}
	return n, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.GalleryCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := values(s.data.categories)
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (s *Store) categoryNameTaken(name string, exceptID int) bool {
	for _, c := range s.data.categories {
		if c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(ctx context.Context, c *models.GalleryCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryNameTaken(c.Name, 0) {
		return content.ErrCategoryTaken
	}
	c.ID = s.data.nextID("gallery_categories")
	c.CreatedAt = s.now()
	s.data.categories[c.ID] = *c
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.GalleryCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.data.categories[c.ID]
	if !ok {
		return apperr.NotFound("Category not found")
	}
	if s.categoryNameTaken(c.Name, c.ID) {
		return content.ErrCategoryTaken
	}
	c.CreatedAt = existing.CreatedAt
	s.data.categories[c.ID] = *c
	return nil
}

// DeleteCategory leaves the category's images uncategorised
func (s *Store) DeleteCategory(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := remove(s.data.categories, id, "Category not found"); err != nil {
		return err
	}
	for imgID, img := range s.data.images {
		if img.CategoryID != nil && *img.CategoryID == id {
			img.CategoryID = nil
			s.data.images[imgID] = img
		}
	}
	return nil
}

func (s *Store) ListImages(ctx context.Context, categoryID *int) ([]models.GalleryImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.GalleryImage
	for _, img := range s.data.images {
		if categoryID != nil && (img.CategoryID == nil || *img.CategoryID != *categoryID) {
			continue
		}
		list = append(list, img)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (s *Store) GetImage(ctx context.Context, id int) (*models.GalleryImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.data.images[id]
	if !ok {
		return nil, apperr.NotFound("Image not found")
	}
	return &img, nil
}

func (s *Store) checkCategory(id *int) error {
	if id == nil {
		return nil
	}
	if _, ok := s.data.categories[*id]; !ok {
		return apperr.NotFound("Category not found")
	}
	return nil
}

func (s *Store) CreateImage(ctx context.Context, img *models.GalleryImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategory(img.CategoryID); err != nil {
		return err
	}
	img.ID = s.data.nextID("gallery_images")
	img.CreatedAt = s.now()
	s.data.images[img.ID] = *img
	return nil
}

func (s *Store) UpdateImage(ctx context.Context, img *models.GalleryImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCategory(img.CategoryID); err != nil {
		return err
	}
	return replace(s.data.images, img.ID, *img, "Image not found")
}

func (s *Store) DeleteImage(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(s.data.images, id, "Image not found")
}

func values[V any](m map[int]V) []V {
	list := make([]V, 0, len(m))
	for _, v := range m {
		list = append(list, v)
	}
	return list
}

func replace[V any](m map[int]V, id int, v V, notFound string) error {
	if _, ok := m[id]; !ok {
		return apperr.NotFound(notFound)
	}
	m[id] = v
	return nil
}

func remove[V any](m map[int]V, id int, notFound string) error {
	if _, ok := m[id]; !ok {
		return apperr.NotFound(notFound)
	}
	delete(m, id)
	return nil
}
