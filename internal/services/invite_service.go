package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/inviteforge/inviteforge/internal/models"
	"github.com/inviteforge/inviteforge/internal/render"
	"github.com/inviteforge/inviteforge/internal/storage"
	"github.com/inviteforge/inviteforge/pkg/logger"
	"github.com/inviteforge/inviteforge/pkg/metrics"
)

// defaultMaxConcurrentRenders bounds simultaneous composites when no explicit
// limit is configured. Compositing is CPU-bound; admission control keeps a
// burst of render requests from exhausting the host.
const defaultMaxConcurrentRenders = 4

// InviteService orchestrates the render pipeline: resolve customizations,
// composite the image, persist the file and record the generated invite.
type InviteService struct {
	db         *gorm.DB
	templates  *TemplateService
	resolver   *render.Resolver
	compositor *render.Compositor
	store      storage.FileStore
	publicURL  string
	sem        chan struct{}
	now        func() time.Time
	log        *zap.Logger
}

// InviteServiceConfig wires the orchestrator's collaborators.
type InviteServiceConfig struct {
	Templates  *TemplateService
	Resolver   *render.Resolver
	Compositor *render.Compositor
	Store      storage.FileStore

	// PublicURL is the external base URL used to build image links.
	PublicURL string

	// MaxConcurrent bounds in-flight renders; zero selects the default.
	MaxConcurrent int

	Clock func() time.Time
}

// NewInviteService constructs the render orchestrator.
func NewInviteService(db *gorm.DB, cfg InviteServiceConfig) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}
	if cfg.Templates == nil {
		return nil, errors.New("invite service: template service is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("invite service: resolver is required")
	}
	if cfg.Compositor == nil {
		return nil, errors.New("invite service: compositor is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("invite service: file store is required")
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentRenders
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	return &InviteService{
		db:         db,
		templates:  cfg.Templates,
		resolver:   cfg.Resolver,
		compositor: cfg.Compositor,
		store:      cfg.Store,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		sem:        make(chan struct{}, maxConcurrent),
		now:        now,
		log:        logger.WithModule("invites"),
	}, nil
}

// GenerateResult is the caller-facing outcome of one render. The resolved
// element list is deliberately absent: responses never leak internal
// structure or file paths.
type GenerateResult struct {
	InviteID       string
	TemplateID     string
	ImageURL       string
	Customizations map[string]any
}

// Generate renders a single personalized invite.
func (s *InviteService) Generate(ctx context.Context, templateID string, raw map[string]any) (*GenerateResult, error) {
	if s == nil {
		return nil, errors.New("invite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	templateID = strings.TrimSpace(templateID)
	if len(templateID) < render.MinTemplateIDLength {
		return nil, ErrInvalidTemplateID
	}

	sanitized := render.SanitizeCustomizations(raw)

	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	start := s.now()
	invite, err := s.renderOne(ctx, tpl, sanitized)
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RendersTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(invite).Error; err != nil {
		metrics.RendersTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.RendersTotal.WithLabelValues("success").Inc()
	s.log.Info("invite generated",
		zap.String("invite_id", invite.ID),
		zap.String("template_id", tpl.ID),
	)

	return &GenerateResult{
		InviteID:       invite.ID,
		TemplateID:     tpl.ID,
		ImageURL:       invite.ImageURL,
		Customizations: render.ValueMap(sanitized),
	}, nil
}

// BulkItem pairs a generated invite id with the customizations that produced it.
type BulkItem struct {
	ID             string         `json:"id"`
	Customizations map[string]any `json:"customizations"`
}

// BulkResult summarises a batch render.
type BulkResult struct {
	Count   int        `json:"count"`
	Invites []BulkItem `json:"invites"`
}

// BulkGenerate renders one invite per customization set against the same
// template, persisting all records in a single batch. Each item goes through
// the same sanitize/resolve/composite path as Generate; a failing item is
// logged and skipped without aborting its siblings.
func (s *InviteService) BulkGenerate(ctx context.Context, templateID string, batch []map[string]any) (*BulkResult, error) {
	if s == nil {
		return nil, errors.New("invite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	templateID = strings.TrimSpace(templateID)
	if len(templateID) < render.MinTemplateIDLength {
		return nil, ErrInvalidTemplateID
	}

	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	invites := make([]*models.GeneratedInvite, 0, len(batch))
	sanitizedMaps := make([]map[string]any, 0, len(batch))

	for i, raw := range batch {
		sanitized := render.SanitizeCustomizations(raw)
		invite, err := s.renderOne(ctx, tpl, sanitized)
		if err != nil {
			metrics.RendersTotal.WithLabelValues("error").Inc()
			s.log.Warn("bulk item render failed, skipping",
				zap.Int("item", i),
				zap.String("template_id", tpl.ID),
				zap.Error(err),
			)
			continue
		}
		metrics.RendersTotal.WithLabelValues("success").Inc()
		invites = append(invites, invite)
		sanitizedMaps = append(sanitizedMaps, render.ValueMap(sanitized))
	}

	if len(invites) > 0 {
		if err := s.db.WithContext(ctx).Create(&invites).Error; err != nil {
			return nil, err
		}
	}

	result := &BulkResult{
		Count:   len(invites),
		Invites: make([]BulkItem, len(invites)),
	}
	for i, invite := range invites {
		result.Invites[i] = BulkItem{ID: invite.ID, Customizations: sanitizedMaps[i]}
	}
	return result, nil
}

// renderOne resolves, composites and stores a single invite image, returning
// the unsaved record.
func (s *InviteService) renderOne(ctx context.Context, tpl *models.Template, sanitized map[string]render.Value) (*models.GeneratedInvite, error) {
	resolved := s.resolver.Resolve(ctx, tpl.ElementList(), sanitized)

	png, err := s.compositor.Render(tpl.Background, tpl.Width, tpl.Height, resolved)
	if err != nil {
		return nil, fmt.Errorf("invite service: composite: %w", err)
	}

	filename := s.inviteFilename(tpl.ID)
	if err := s.store.Put(ctx, filename, png); err != nil {
		return nil, fmt.Errorf("invite service: store image: %w", err)
	}

	invite := &models.GeneratedInvite{
		TemplateID:     tpl.ID,
		TemplateName:   tpl.Name,
		Background:     tpl.Background,
		Width:          tpl.Width,
		Height:         tpl.Height,
		Elements:       datatypes.NewJSONType(resolved),
		Customizations: datatypes.JSONMap(render.ValueMap(sanitized)),
		ImageURL:       s.publicURL + "/api/images/" + filename,
	}
	return invite, nil
}

// inviteFilename builds a collision-free output name:
// invite_<templateID>_<unixTimestamp>_<shortUUID>.png
func (s *InviteService) inviteFilename(templateID string) string {
	short := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("invite_%s_%d_%s.png", templateID, s.now().Unix(), short)
}

func (s *InviteService) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *InviteService) release() {
	<-s.sem
}

// Get retrieves a generated invite by identifier.
func (s *InviteService) Get(ctx context.Context, id string) (*models.GeneratedInvite, error) {
	if s == nil {
		return nil, errors.New("invite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("invite service: id is required")
	}

	var invite models.GeneratedInvite
	if err := s.db.WithContext(ctx).First(&invite, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}

// ListByTemplate retrieves all generated invites for a template, newest first.
func (s *InviteService) ListByTemplate(ctx context.Context, templateID string) ([]models.GeneratedInvite, error) {
	if s == nil {
		return nil, errors.New("invite service: service not initialised")
	}
	ctx = ensuredContext(ctx)

	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, errors.New("invite service: template id is required")
	}

	var invites []models.GeneratedInvite
	err := s.db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}
