package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/inviteforge/inviteforge/internal/models"
)

// maxCanvasDimension bounds template canvases to keep composite memory sane.
const maxCanvasDimension = 8192

// TemplateService manages CRUD operations for invite templates.
type TemplateService struct {
	db *gorm.DB
}

// NewTemplateService constructs a template service once a database handle is supplied.
func NewTemplateService(db *gorm.DB) (*TemplateService, error) {
	if db == nil {
		return nil, errors.New("template service: db is required")
	}
	return &TemplateService{db: db}, nil
}

// TemplateInput captures the full template payload used on create and update.
// Update replaces name, elements, background and dimensions wholesale while
// preserving id, owner and creation timestamp.
type TemplateInput struct {
	Name       string
	IsPublic   bool
	Background string
	Width      int
	Height     int
	Elements   []models.Element
}

func (in *TemplateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("template service: name is required")
	}
	if in.Width <= 0 || in.Height <= 0 {
		return errors.New("template service: dimensions must be positive")
	}
	if in.Width > maxCanvasDimension || in.Height > maxCanvasDimension {
		return fmt.Errorf("template service: dimensions exceed %d pixels", maxCanvasDimension)
	}
	if strings.TrimSpace(in.Background) == "" {
		return errors.New("template service: background is required")
	}
	for i, el := range in.Elements {
		switch el.Type {
		case models.ElementText, models.ElementImage:
		default:
			return fmt.Errorf("template service: element %d has unknown type %q", i, el.Type)
		}
		if el.Type == models.ElementImage {
			switch el.Shape {
			case "", models.ShapeRectangle, models.ShapeCircle:
			default:
				return fmt.Errorf("template service: element %d has unknown shape %q", i, el.Shape)
			}
		}
	}
	return nil
}

// Create persists a new template owned by the supplied user.
func (s *TemplateService) Create(ctx context.Context, ownerID string, input TemplateInput) (*models.Template, error) {
	if s == nil {
		return nil, errors.New("template service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	if strings.TrimSpace(ownerID) == "" {
		return nil, errors.New("template service: owner id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	tpl := models.Template{
		Name:       strings.TrimSpace(input.Name),
		OwnerID:    ownerID,
		IsPublic:   input.IsPublic,
		Background: input.Background,
		Width:      input.Width,
		Height:     input.Height,
	}
	tpl.SetElements(input.Elements)

	if err := s.db.WithContext(ctx).Create(&tpl).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Get retrieves a template by identifier.
func (s *TemplateService) Get(ctx context.Context, id string) (*models.Template, error) {
	if s == nil {
		return nil, errors.New("template service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("template service: id is required")
	}

	var tpl models.Template
	if err := s.db.WithContext(ctx).First(&tpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// ListTemplatesOptions controls template listing.
type ListTemplatesOptions struct {
	// ViewerID limits results to the viewer's own templates plus public ones.
	ViewerID string

	// IncludeAll returns every template regardless of ownership (admin view).
	IncludeAll bool
}

// List retrieves templates visible to the viewer, newest first.
func (s *TemplateService) List(ctx context.Context, opts ListTemplatesOptions) ([]models.Template, error) {
	if s == nil {
		return nil, errors.New("template service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	q := s.db.WithContext(ctx).Model(&models.Template{}).Order("created_at DESC")
	if !opts.IncludeAll {
		viewer := strings.TrimSpace(opts.ViewerID)
		if viewer == "" {
			q = q.Where("is_public = ?", true)
		} else {
			q = q.Where("owner_id = ? OR is_public = ?", viewer, true)
		}
	}

	var templates []models.Template
	if err := q.Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// Update replaces the mutable template fields, preserving identity and owner.
func (s *TemplateService) Update(ctx context.Context, id string, input TemplateInput) (*models.Template, error) {
	if s == nil {
		return nil, errors.New("template service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	if err := input.validate(); err != nil {
		return nil, err
	}

	tpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tpl.Name = strings.TrimSpace(input.Name)
	tpl.IsPublic = input.IsPublic
	tpl.Background = input.Background
	tpl.Width = input.Width
	tpl.Height = input.Height
	tpl.SetElements(input.Elements)

	if err := s.db.WithContext(ctx).Save(tpl).Error; err != nil {
		return nil, err
	}
	return tpl, nil
}

// Delete removes a template by identifier.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if s == nil {
		return errors.New("template service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("template service: id is required")
	}

	res := s.db.WithContext(ctx).Delete(&models.Template{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
