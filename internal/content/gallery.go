package content

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/models"
)

var ErrCategoryTaken = apperr.Conflict("A category with this name already exists")

// CategoryInput represents a gallery category request
type CategoryInput struct {
	Name string `json:"name"`
}

// ImageInput represents a gallery image request
type ImageInput struct {
	CategoryID *int   `json:"category_id"`
	Title      string `json:"title"`
	ImageURL   string `json:"image_url"`
}

func (in ImageInput) apply(img *models.GalleryImage) error {
	raw := strings.TrimSpace(in.ImageURL)
	if raw == "" {
		return apperr.Validation("image_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https" && !strings.HasPrefix(raw, "/")) {
		return apperr.Validation("image_url must be an http(s) URL or an absolute path")
	}
	img.CategoryID = in.CategoryID
	img.Title = strings.TrimSpace(in.Title)
	img.ImageURL = raw
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]models.GalleryCategory, error) {
	list, err := s.store.ListCategories(ctx)
	return orEmpty(list), err
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.GalleryCategory, error) {
	name, err := requireText(in.Name, "Name", 100)
	if err != nil {
		return nil, err
	}
	c := &models.GalleryCategory{Name: name}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, categoryConflict(err)
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int, in CategoryInput) (*models.GalleryCategory, error) {
	name, err := requireText(in.Name, "Name", 100)
	if err != nil {
		return nil, err
	}
	c := &models.GalleryCategory{ID: id, Name: name}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, categoryConflict(err)
	}
	return c, nil
}

// DeleteCategory removes a category. Its images stay, uncategorised.
func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	return s.store.DeleteCategory(ctx, id)
}

func (s *Service) ListImages(ctx context.Context, categoryID *int) ([]models.GalleryImage, error) {
	list, err := s.store.ListImages(ctx, categoryID)
	return orEmpty(list), err
}

func (s *Service) GetImage(ctx context.Context, id int) (*models.GalleryImage, error) {
	return s.store.GetImage(ctx, id)
}

func (s *Service) CreateImage(ctx context.Context, adminID int, in ImageInput) (*models.GalleryImage, error) {
	img := &models.GalleryImage{UploadedBy: userRef(adminID)}
	if err := in.apply(img); err != nil {
		return nil, err
	}
	if err := s.store.CreateImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *Service) UpdateImage(ctx context.Context, id int, in ImageInput) (*models.GalleryImage, error) {
	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(img); err != nil {
		return nil, err
	}
	if err := s.store.UpdateImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *Service) DeleteImage(ctx context.Context, id int) error {
	return s.store.DeleteImage(ctx, id)
}

func categoryConflict(err error) error {
	if errors.Is(err, apperr.ErrConflict) {
		return ErrCategoryTaken
	}
	return err
}
