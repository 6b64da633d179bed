package handler

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

type mediaOpener interface {
	Open(token string) (*os.File, error)
}

// MediaHandler serves photos kept by the local media backend.
type MediaHandler struct {
	store mediaOpener
}

// NewMediaHandler constructs a MediaHandler.
func NewMediaHandler(store mediaOpener) *MediaHandler {
	return &MediaHandler{store: store}
}

// Serve godoc
// @Summary Download a listing photo
// @Description Streams a photo referenced by a signed token. Only mounted with the local media backend.
// @Tags Media
// @Produce image/png,image/jpeg,image/webp
// @Param token path string true "Signed media token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /media/{token} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	file, err := h.store.Open(c.Param("token"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, "invalid or expired media token"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read photo"))
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	http.ServeContent(c.Writer, c.Request, filepath.Base(file.Name()), info.ModTime(), file)
}
