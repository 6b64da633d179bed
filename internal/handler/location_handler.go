package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/location"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

// LocationHandler serves the province and district table used by forms.
type LocationHandler struct {
	lookup *location.Lookup
}

// NewLocationHandler constructs a LocationHandler.
func NewLocationHandler(lookup *location.Lookup) *LocationHandler {
	if lookup == nil {
		lookup = location.Default()
	}
	return &LocationHandler{lookup: lookup}
}

// Provinces godoc
// @Summary List provinces with districts
// @Tags Locations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /locations [get]
func (h *LocationHandler) Provinces(c *gin.Context) {
	provinces := h.lookup.All()
	response.JSON(c, http.StatusOK, provinces, map[string]interface{}{"total": len(provinces)})
}

// Districts godoc
// @Summary List districts of a province
// @Tags Locations
// @Produce json
// @Param province path string true "Province name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /locations/{province}/districts [get]
func (h *LocationHandler) Districts(c *gin.Context) {
	province := c.Param("province")
	if !h.lookup.HasProvince(province) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "province not found"))
		return
	}
	districts := h.lookup.Districts(province)
	response.JSON(c, http.StatusOK, districts, map[string]interface{}{"province": province, "total": len(districts)})
}
