package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inviteforge/inviteforge/internal/services"
	appErrors "github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/response"
)

// GenerateHandler drives the render pipeline over HTTP.
type GenerateHandler struct {
	invites   *services.InviteService
	templates *services.TemplateService
}

func NewGenerateHandler(invites *services.InviteService, templates *services.TemplateService) *GenerateHandler {
	return &GenerateHandler{invites: invites, templates: templates}
}

// checkTemplateAccess loads the template and applies the same visibility rule
// as the template read endpoints. Render never reveals private templates.
func (h *GenerateHandler) checkTemplateAccess(c *gin.Context, templateID string) bool {
	tpl, err := h.templates.Get(requestContext(c), templateID)
	if err != nil {
		if errors.Is(err, services.ErrTemplateNotFound) {
			response.Error(c, appErrors.ErrNotFound)
		} else {
			response.Error(c, appErrors.Wrap(err, "template lookup failed"))
		}
		return false
	}
	if !canView(c, tpl) {
		response.Error(c, appErrors.ErrNotFound)
		return false
	}
	return true
}

func writeGenerateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTemplateID):
		response.Error(c, appErrors.NewBadRequest("template id is malformed"))
	case errors.Is(err, services.ErrTemplateNotFound):
		response.Error(c, appErrors.ErrNotFound)
	default:
		response.Error(c, appErrors.Wrap(err, "invite generation failed"))
	}
}

// POST /api/generate/:templateId
// The body is a flat customization map; unknown or invalid entries are
// silently dropped rather than rejected.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var customizations map[string]any
	if err := c.ShouldBindJSON(&customizations); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	templateID := c.Param("templateId")
	if !h.checkTemplateAccess(c, templateID) {
		return
	}

	result, err := h.invites.Generate(requestContext(c), templateID, customizations)
	if err != nil {
		writeGenerateError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"invite_id":      result.InviteID,
		"template_id":    result.TemplateID,
		"image_url":      result.ImageURL,
		"customizations": result.Customizations,
	})
}

type bulkGenerateRequest struct {
	Invites []map[string]any `json:"invites" validate:"required,min=1"`
}

// POST /api/templates/:id/bulk-generate
func (h *GenerateHandler) BulkGenerate(c *gin.Context) {
	var req bulkGenerateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	templateID := c.Param("id")
	if !h.checkTemplateAccess(c, templateID) {
		return
	}

	result, err := h.invites.BulkGenerate(requestContext(c), templateID, req.Invites)
	if err != nil {
		writeGenerateError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}
