package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/service"
)

func newIdentity() *service.IdentityService {
	return service.NewIdentityService(service.IdentityConfig{Secret: "secret"})
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.ID)
	})
	return r
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresToken(t *testing.T) {
	r := newRouter(JWT(newIdentity()))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer garbage").Code)
}

func TestJWTAttachesUser(t *testing.T) {
	identity := newIdentity()
	token, err := identity.Issue(models.CurrentUser{ID: "uid-7"}, time.Minute)
	require.NoError(t, err)

	w := serve(newRouter(JWT(identity)), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "uid-7", w.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	identity := newIdentity()
	r := newRouter(OptionalJWT(identity))

	assert.Equal(t, "anonymous", serve(r, "").Body.String())
	assert.Equal(t, "anonymous", serve(r, "Bearer garbage").Body.String())

	token, err := identity.Issue(models.CurrentUser{ID: "uid-8"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "uid-8", serve(r, "bearer "+token).Body.String())
}

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	metrics := service.NewMetricsService()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
