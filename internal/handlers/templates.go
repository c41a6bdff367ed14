package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inviteforge/inviteforge/internal/models"
	"github.com/inviteforge/inviteforge/internal/services"
	appErrors "github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/response"
)

// TemplatesHandler manages the template CRUD surface.
type TemplatesHandler struct {
	templates *services.TemplateService
}

func NewTemplatesHandler(templates *services.TemplateService) *TemplatesHandler {
	return &TemplatesHandler{templates: templates}
}

type templateRequest struct {
	Name       string           `json:"name" validate:"required,max=200"`
	IsPublic   bool             `json:"is_public"`
	Background string           `json:"background" validate:"required"`
	Width      int              `json:"width" validate:"required,gt=0"`
	Height     int              `json:"height" validate:"required,gt=0"`
	Elements   []models.Element `json:"elements"`
}

func (r *templateRequest) toInput() services.TemplateInput {
	return services.TemplateInput{
		Name:       r.Name,
		IsPublic:   r.IsPublic,
		Background: r.Background,
		Width:      r.Width,
		Height:     r.Height,
		Elements:   r.Elements,
	}
}

// canView reports whether the requester may read the template.
func canView(c *gin.Context, tpl *models.Template) bool {
	return tpl.IsPublic || tpl.OwnerID == currentUserID(c) || isAdmin(c)
}

// canModify reports whether the requester may change or delete the template.
func canModify(c *gin.Context, tpl *models.Template) bool {
	return tpl.OwnerID == currentUserID(c) || isAdmin(c)
}

// POST /api/templates
func (h *TemplatesHandler) Create(c *gin.Context) {
	var req templateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	tpl, err := h.templates.Create(requestContext(c), currentUserID(c), req.toInput())
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}

	response.Success(c, http.StatusCreated, tpl)
}

// GET /api/templates
func (h *TemplatesHandler) List(c *gin.Context) {
	opts := services.ListTemplatesOptions{ViewerID: currentUserID(c)}
	if isAdmin(c) {
		opts = services.ListTemplatesOptions{IncludeAll: true}
	}

	templates, err := h.templates.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "template listing failed"))
		return
	}

	response.Success(c, http.StatusOK, templates)
}

// GET /api/templates/:id
func (h *TemplatesHandler) Get(c *gin.Context) {
	tpl, err := h.templates.Get(requestContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "template lookup failed"))
		return
	}

	// Private templates stay invisible to strangers
	if !canView(c, tpl) {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, tpl)
}

// PUT /api/templates/:id
func (h *TemplatesHandler) Update(c *gin.Context) {
	var req templateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	ctx := requestContext(c)
	tpl, err := h.templates.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "template lookup failed"))
		return
	}

	if !canModify(c, tpl) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	updated, err := h.templates.Update(ctx, tpl.ID, req.toInput())
	if err != nil {
		response.Error(c, appErrors.NewBadRequest(err.Error()))
		return
	}

	response.Success(c, http.StatusOK, updated)
}

// DELETE /api/templates/:id
func (h *TemplatesHandler) Delete(c *gin.Context) {
	ctx := requestContext(c)
	tpl, err := h.templates.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "template lookup failed"))
		return
	}

	if !canModify(c, tpl) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	if err := h.templates.Delete(ctx, tpl.ID); err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "template delete failed"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": tpl.ID})
}
