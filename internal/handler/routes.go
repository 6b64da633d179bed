package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/models"
)

// Routes bundles the handlers mounted by RegisterRoutes. Media is nil
// unless photos are kept on local disk.
type Routes struct {
	Listings  *ListingHandler
	Locations *LocationHandler
	Metrics   *MetricsHandler
	Media     *MediaHandler
	Verifier  middleware.TokenVerifier
}

// RegisterRoutes mounts the public API under prefix and the operational
// endpoints at the root of r.
func RegisterRoutes(r *gin.Engine, prefix string, routes Routes) {
	r.GET("/health", routes.Metrics.Health)
	r.GET("/ready", routes.Metrics.Ready)
	r.GET("/metrics", routes.Metrics.Prometheus)
	if routes.Media != nil {
		r.GET("/media/:token", routes.Media.Serve)
	}

	api := r.Group(prefix)
	api.GET("/system/metrics", routes.Metrics.System)

	locations := api.Group("/locations")
	locations.GET("", routes.Locations.Provinces)
	locations.GET("/:province/districts", routes.Locations.Districts)

	optional := middleware.OptionalJWT(routes.Verifier)
	required := middleware.JWT(routes.Verifier)

	for _, role := range []models.Role{models.RoleTeacher, models.RoleStudent} {
		bind := WithRole(role)

		group := api.Group("/"+role.Plural(), bind)
		group.GET("", routes.Listings.Browse)
		group.POST("/refresh", routes.Listings.Refresh)
		group.GET("/export", routes.Listings.Export)
		group.GET("/:id", routes.Listings.Get)
		if role == models.RoleTeacher {
			group.POST("", optional, routes.Listings.CreateTeacher)
		} else {
			group.POST("", optional, routes.Listings.CreateStudent)
		}

		api.GET("/districts/:district/"+role.Plural(), bind, routes.Listings.ByDistrict)
		api.GET("/me/"+role.Plural(), required, bind, routes.Listings.Mine)
	}
}
