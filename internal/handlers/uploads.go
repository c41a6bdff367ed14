package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/inviteforge/inviteforge/pkg/errors"
	"github.com/inviteforge/inviteforge/pkg/response"
)

// maxUploadBytes caps uploaded images at 5MB.
const maxUploadBytes = 5 << 20

var uploadMIMEByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// UploadsHandler turns uploaded images into data URIs that can be embedded in
// template backgrounds and image elements.
type UploadsHandler struct{}

func NewUploadsHandler() *UploadsHandler {
	return &UploadsHandler{}
}

// POST /api/upload
func (h *UploadsHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("file field is required"))
		return
	}

	if header.Size > maxUploadBytes {
		response.Error(c, appErrors.NewBadRequest("file exceeds 5MB limit"))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	mime, ok := uploadMIMEByExt[ext]
	if !ok {
		response.Error(c, appErrors.NewBadRequest("unsupported file extension"))
		return
	}

	declared := header.Header.Get("Content-Type")
	if declared != "" && !strings.HasPrefix(declared, "image/") {
		response.Error(c, appErrors.NewBadRequest("file must be an image"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}
	if len(data) > maxUploadBytes {
		response.Error(c, appErrors.NewBadRequest("file exceeds 5MB limit"))
		return
	}

	dataURI := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)

	response.Success(c, http.StatusOK, gin.H{
		"data_uri": dataURI,
		"mime":     mime,
		"size":     len(data),
	})
}
