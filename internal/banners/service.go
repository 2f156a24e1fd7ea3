package banners

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/storage/s3"
)

const uploadPrefix = "banners"

// BannerDTO is the transport shape of a banner.
type BannerDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	ImageURL  string    `json:"imageUrl"`
	LinkURL   string    `json:"linkUrl"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func FromModel(b models.Banner) BannerDTO {
	return BannerDTO{
		ID:        b.ID,
		Title:     b.Title,
		Subtitle:  b.Subtitle,
		ImageURL:  b.ImageURL,
		LinkURL:   b.LinkURL,
		Position:  b.Position,
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
	}
}

type CreateInput struct {
	Title    string `json:"title" validate:"required,max=120"`
	Subtitle string `json:"subtitle" validate:"max=240"`
	ImageURL string `json:"imageUrl" validate:"required,url"`
	LinkURL  string `json:"linkUrl" validate:"omitempty,max=500"`
	Position int    `json:"position" validate:"gte=0"`
	IsActive *bool  `json:"isActive"`
}

// UpdateInput applies only the fields that are set.
type UpdateInput struct {
	Title    *string `json:"title" validate:"omitempty,max=120"`
	Subtitle *string `json:"subtitle" validate:"omitempty,max=240"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
	LinkURL  *string `json:"linkUrl" validate:"omitempty,max=500"`
	Position *int    `json:"position" validate:"omitempty,gte=0"`
	IsActive *bool   `json:"isActive"`
}

type imageUploader interface {
	PresignImageUpload(ctx context.Context, prefix, contentType string) (*s3.UploadTicket, error)
}

type Service interface {
	List(ctx context.Context, includeInactive bool) ([]BannerDTO, error)
	Create(ctx context.Context, input CreateInput) (*BannerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*BannerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadURL(ctx context.Context, contentType string) (*s3.UploadTicket, error)
}

type service struct {
	repo     *Repository
	uploader imageUploader
}

// NewService builds the banner service. uploader may be nil when S3 is not
// configured; UploadURL then fails with a dependency error.
func NewService(repo *Repository, uploader imageUploader) (Service, error) {
	if repo == nil {
		return nil, errors.New("banner repository required")
	}
	return &service{repo: repo, uploader: uploader}, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]BannerDTO, error) {
	rows, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list banners")
	}
	out := make([]BannerDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*BannerDTO, error) {
	var missing []string
	if strings.TrimSpace(input.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(input.ImageURL) == "" {
		missing = append(missing, "imageUrl")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.MissingFields(missing...)
	}

	banner := &models.Banner{
		Title:    strings.TrimSpace(input.Title),
		Subtitle: strings.TrimSpace(input.Subtitle),
		ImageURL: strings.TrimSpace(input.ImageURL),
		LinkURL:  strings.TrimSpace(input.LinkURL),
		Position: input.Position,
		IsActive: input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.Create(ctx, banner); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create banner")
	}
	dto := FromModel(*banner)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*BannerDTO, error) {
	banner, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		banner.Title = title
	}
	if input.Subtitle != nil {
		banner.Subtitle = strings.TrimSpace(*input.Subtitle)
	}
	if input.ImageURL != nil {
		image := strings.TrimSpace(*input.ImageURL)
		if image == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "imageUrl cannot be empty")
		}
		banner.ImageURL = image
	}
	if input.LinkURL != nil {
		banner.LinkURL = strings.TrimSpace(*input.LinkURL)
	}
	if input.Position != nil {
		banner.Position = *input.Position
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}
	if err := s.repo.Save(ctx, banner); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update banner")
	}
	dto := FromModel(*banner)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete banner")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
	}
	return nil
}

func (s *service) UploadURL(ctx context.Context, contentType string) (*s3.UploadTicket, error) {
	if s.uploader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image uploads are not configured")
	}
	return s.uploader.PresignImageUpload(ctx, uploadPrefix, contentType)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Banner, error) {
	banner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load banner")
	}
	return banner, nil
}
