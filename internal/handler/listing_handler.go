package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/service"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

// multipartOverhead leaves room for the text fields next to the photo.
const multipartOverhead = 1 << 20

type listingService interface {
	Browse(ctx context.Context, q models.BrowseQuery) (*models.BrowseResult, error)
	Refresh(ctx context.Context, q models.BrowseQuery) (*models.BrowseResult, error)
	Get(ctx context.Context, role models.Role, id string) (*models.ListingDetail, error)
	ListByDistrict(ctx context.Context, role models.Role, district string, sortNewest bool) ([]models.Listing, error)
	ListMine(ctx context.Context, role models.Role, user *models.CurrentUser) ([]models.Listing, error)
	CreateTeacher(ctx context.Context, user *models.CurrentUser, req service.CreateTeacherRequest, photo *service.PhotoUpload) (*models.Listing, error)
	CreateStudent(ctx context.Context, user *models.CurrentUser, req service.CreateStudentRequest, photo *service.PhotoUpload) (*models.Listing, error)
}

type directoryExporter interface {
	Export(ctx context.Context, q models.BrowseQuery, format string) (*service.ExportFile, error)
}

// ListingHandler wires listing services to HTTP routes.
type ListingHandler struct {
	listings      listingService
	exports       directoryExporter
	maxPhotoBytes int64
}

// NewListingHandler constructs a new ListingHandler.
func NewListingHandler(listings listingService, exports directoryExporter, maxPhotoBytes int64) *ListingHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = 5 * 1024 * 1024
	}
	return &ListingHandler{listings: listings, exports: exports, maxPhotoBytes: maxPhotoBytes}
}

// Browse godoc
// @Summary Browse listings
// @Description Fetches every listing of the role, keeps those in the district (when given) and optionally orders them newest first.
// @Tags Listings
// @Produce json
// @Param district query string false "Exact district name"
// @Param sort query string false "newest for newest-first ordering"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
// @Router /students [get]
func (h *ListingHandler) Browse(c *gin.Context) {
	result, err := h.listings.Browse(c.Request.Context(), browseQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Listings, browseMeta(result))
}

// Refresh godoc
// @Summary Refresh listings
// @Description Re-reads the collection bypassing the snapshot cache. Overlapping refreshes of one role share a single store read.
// @Tags Listings
// @Produce json
// @Param district query string false "Exact district name"
// @Param sort query string false "newest for newest-first ordering"
// @Success 200 {object} response.Envelope
// @Router /teachers/refresh [post]
// @Router /students/refresh [post]
func (h *ListingHandler) Refresh(c *gin.Context) {
	result, err := h.listings.Refresh(c.Request.Context(), browseQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Listings, browseMeta(result))
}

// Get godoc
// @Summary Get listing detail
// @Tags Listings
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
// @Router /students/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	detail, err := h.listings.Get(c.Request.Context(), roleFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// ByDistrict godoc
// @Summary List listings of one district
// @Description Queries the store for a single district instead of filtering the full snapshot.
// @Tags Listings
// @Produce json
// @Param district path string true "District name"
// @Param sort query string false "newest for newest-first ordering"
// @Success 200 {object} response.Envelope
// @Router /districts/{district}/teachers [get]
// @Router /districts/{district}/students [get]
func (h *ListingHandler) ByDistrict(c *gin.Context) {
	role := roleFromContext(c)
	listings, err := h.listings.ListByDistrict(c.Request.Context(), role, c.Param("district"), sortNewest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listings, map[string]interface{}{
		"role":     role,
		"district": strings.TrimSpace(c.Param("district")),
		"total":    len(listings),
	})
}

// Mine godoc
// @Summary List my listings
// @Tags Listings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me/teachers [get]
// @Router /me/students [get]
func (h *ListingHandler) Mine(c *gin.Context) {
	role := roleFromContext(c)
	listings, err := h.listings.ListMine(c.Request.Context(), role, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listings, map[string]interface{}{"role": role, "total": len(listings)})
}

// CreateTeacher godoc
// @Summary Create teacher listing
// @Description Accepts JSON, or multipart form data with an optional photo file.
// @Tags Listings
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /teachers [post]
func (h *ListingHandler) CreateTeacher(c *gin.Context) {
	var req service.CreateTeacherRequest
	photo, cleanup, err := h.bindCreate(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer cleanup()

	created, err := h.listings.CreateTeacher(c.Request.Context(), middleware.CurrentUser(c), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// CreateStudent godoc
// @Summary Create student listing
// @Description Accepts JSON, or multipart form data with an optional photo file.
// @Tags Listings
// @Security BearerAuth
// @Accept json,mpfd
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /students [post]
func (h *ListingHandler) CreateStudent(c *gin.Context) {
	var req service.CreateStudentRequest
	photo, cleanup, err := h.bindCreate(c, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer cleanup()

	created, err := h.listings.CreateStudent(c.Request.Context(), middleware.CurrentUser(c), req, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Export godoc
// @Summary Export directory
// @Description Renders the browse view as CSV or PDF, honouring district and sort.
// @Tags Listings
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param district query string false "Exact district name"
// @Param sort query string false "newest for newest-first ordering"
// @Success 200 {file} file
// @Router /teachers/export [get]
// @Router /students/export [get]
func (h *ListingHandler) Export(c *gin.Context) {
	file, err := h.exports.Export(c.Request.Context(), browseQuery(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

func (h *ListingHandler) bindCreate(c *gin.Context, req interface{}) (*service.PhotoUpload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(req); err != nil {
			return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload")
		}
		return nil, noop, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPhotoBytes+multipartOverhead)
	if err := c.ShouldBind(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, appErrors.Clone(appErrors.ErrPayloadTooLarge, "photo is too large")
		}
		return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload")
	}

	header, err := c.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo upload")
	}
	if header.Size > h.maxPhotoBytes {
		return nil, noop, appErrors.Clone(appErrors.ErrPayloadTooLarge, "photo is too large")
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid photo upload")
	}
	return &service.PhotoUpload{Filename: header.Filename, Reader: file}, closer(file), nil
}

func closer(file multipart.File) func() {
	return func() { _ = file.Close() }
}

func browseQuery(c *gin.Context) models.BrowseQuery {
	return models.BrowseQuery{
		Role:       roleFromContext(c),
		District:   strings.TrimSpace(c.Query("district")),
		SortNewest: sortNewest(c),
	}
}

func sortNewest(c *gin.Context) bool {
	if strings.EqualFold(c.Query("sort"), "newest") {
		return true
	}
	on, _ := strconv.ParseBool(c.Query("sortNewest"))
	return on
}

func browseMeta(result *models.BrowseResult) map[string]interface{} {
	return map[string]interface{}{
		"role":       result.Role,
		"district":   result.District,
		"sortNewest": result.SortNewest,
		"districts":  result.Districts,
		"total":      result.Total,
		"status":     result.Status,
	}
}
