package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/inviteforge/inviteforge/internal/services"
	appErrors "github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/response"
)

const qrCodeSize = 256

// InvitesHandler exposes generated invite records.
type InvitesHandler struct {
	invites *services.InviteService
}

func NewInvitesHandler(invites *services.InviteService) *InvitesHandler {
	return &InvitesHandler{invites: invites}
}

// GET /api/generated/:id
func (h *InvitesHandler) Get(c *gin.Context) {
	invite, err := h.invites.Get(requestContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "invite lookup failed"))
		return
	}

	response.Success(c, http.StatusOK, invite)
}

// GET /api/templates/:id/generated
// The element lists are omitted from the listing; fetch a single invite to
// see what was drawn.
func (h *InvitesHandler) ListByTemplate(c *gin.Context) {
	invites, err := h.invites.ListByTemplate(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, "invite listing failed"))
		return
	}

	items := make([]gin.H, len(invites))
	for i, invite := range invites {
		items[i] = gin.H{
			"id":             invite.ID,
			"template_id":    invite.TemplateID,
			"template_name":  invite.TemplateName,
			"image_url":      invite.ImageURL,
			"customizations": invite.Customizations,
			"created_at":     invite.CreatedAt,
		}
	}

	response.Success(c, http.StatusOK, items)
}

// GET /api/generated/:id/qr
// Returns a PNG QR code pointing at the invite image.
func (h *InvitesHandler) QRCode(c *gin.Context) {
	invite, err := h.invites.Get(requestContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrInviteNotFound) {
			response.Error(c, appErrors.ErrNotFound)
			return
		}
		response.Error(c, appErrors.Wrap(err, "invite lookup failed"))
		return
	}

	png, err := qrcode.Encode(invite.ImageURL, qrcode.Medium, qrCodeSize)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
