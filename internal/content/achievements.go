package content

import (
	"context"
	"strings"

	"github.com/csl-racing/api/internal/models"
)

// AchievementInput represents an achievement create or update request
type AchievementInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	AchievedAt  string `json:"achieved_at"`
}

func (in AchievementInput) apply(a *models.Achievement) error {
	title, err := requireText(in.Title, "Title", 200)
	if err != nil {
		return err
	}
	achievedAt, err := parseDate(in.AchievedAt, "achieved_at")
	if err != nil {
		return err
	}
	a.Title = title
	a.Description = strings.TrimSpace(in.Description)
	a.Icon = strings.TrimSpace(in.Icon)
	a.AchievedAt = achievedAt
	return nil
}

// ListAchievements returns achievements, most recent first
func (s *Service) ListAchievements(ctx context.Context) ([]models.Achievement, error) {
	list, err := s.store.ListAchievements(ctx)
	return orEmpty(list), err
}

func (s *Service) GetAchievement(ctx context.Context, id int) (*models.Achievement, error) {
	return s.store.GetAchievement(ctx, id)
}

func (s *Service) CreateAchievement(ctx context.Context, adminID int, in AchievementInput) (*models.Achievement, error) {
	a := &models.Achievement{CreatedBy: userRef(adminID)}
	if err := in.apply(a); err != nil {
		return nil, err
	}
	if err := s.store.CreateAchievement(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateAchievement(ctx context.Context, id int, in AchievementInput) (*models.Achievement, error) {
	a, err := s.store.GetAchievement(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(a); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAchievement(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) DeleteAchievement(ctx context.Context, id int) error {
	return s.store.DeleteAchievement(ctx, id)
}
