package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inviteforge/inviteforge/internal/storage"
	appErrors "github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/response"
)

// ImagesHandler serves rendered invite images from the file store.
type ImagesHandler struct {
	store storage.FileStore
}

func NewImagesHandler(store storage.FileStore) *ImagesHandler {
	return &ImagesHandler{store: store}
}

// GET /api/images/:filename
func (h *ImagesHandler) Serve(c *gin.Context) {
	filename := c.Param("filename")

	file, err := h.store.Open(filename)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilename) {
			response.Error(c, appErrors.ErrBadRequest)
			return
		}
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	defer file.Close()

	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, file)
}
