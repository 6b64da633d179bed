package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/middleware"
	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/internal/service"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

type listingServiceMock struct {
	browseResp *models.BrowseResult
	browseErr  error
	lastQuery  models.BrowseQuery

	getResp *models.ListingDetail
	getErr  error
	lastID  string

	districtResp []models.Listing
	lastDistrict string

	mineErr  error
	mineUser *models.CurrentUser

	createResp    *models.Listing
	createErr     error
	createUser    *models.CurrentUser
	teacherReq    service.CreateTeacherRequest
	studentReq    service.CreateStudentRequest
	photoName     string
	photoBody     []byte
	createCalled  bool
	refreshCalled bool
}

func (m *listingServiceMock) Browse(ctx context.Context, q models.BrowseQuery) (*models.BrowseResult, error) {
	m.lastQuery = q
	return m.browseResp, m.browseErr
}

func (m *listingServiceMock) Refresh(ctx context.Context, q models.BrowseQuery) (*models.BrowseResult, error) {
	m.refreshCalled = true
	m.lastQuery = q
	return m.browseResp, m.browseErr
}

func (m *listingServiceMock) Get(ctx context.Context, role models.Role, id string) (*models.ListingDetail, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *listingServiceMock) ListByDistrict(ctx context.Context, role models.Role, district string, sortNewest bool) ([]models.Listing, error) {
	m.lastDistrict = district
	m.lastQuery = models.BrowseQuery{Role: role, District: district, SortNewest: sortNewest}
	return m.districtResp, nil
}

func (m *listingServiceMock) ListMine(ctx context.Context, role models.Role, user *models.CurrentUser) ([]models.Listing, error) {
	m.mineUser = user
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "sign in required")
	}
	return []models.Listing{}, m.mineErr
}

func (m *listingServiceMock) CreateTeacher(ctx context.Context, user *models.CurrentUser, req service.CreateTeacherRequest, photo *service.PhotoUpload) (*models.Listing, error) {
	m.createCalled = true
	m.createUser = user
	m.teacherReq = req
	m.capture(photo)
	return m.createResp, m.createErr
}

func (m *listingServiceMock) CreateStudent(ctx context.Context, user *models.CurrentUser, req service.CreateStudentRequest, photo *service.PhotoUpload) (*models.Listing, error) {
	m.createCalled = true
	m.createUser = user
	m.studentReq = req
	m.capture(photo)
	return m.createResp, m.createErr
}

func (m *listingServiceMock) capture(photo *service.PhotoUpload) {
	if photo == nil {
		return
	}
	m.photoName = photo.Filename
	m.photoBody, _ = io.ReadAll(photo.Reader)
}

type exporterMock struct {
	file      *service.ExportFile
	err       error
	lastQuery models.BrowseQuery
	format    string
}

func (m *exporterMock) Export(ctx context.Context, q models.BrowseQuery, format string) (*service.ExportFile, error) {
	m.lastQuery = q
	m.format = format
	return m.file, m.err
}

func newTestContext(method, target string, body io.Reader) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, body)
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestListingHandlerBrowse(t *testing.T) {
	svc := &listingServiceMock{browseResp: &models.BrowseResult{
		Role:       models.RoleTeacher,
		Listings:   []models.Listing{{ID: "t1", Role: models.RoleTeacher, District: "Kaski"}},
		Districts:  []string{"Kaski", "Lalitpur"},
		District:   "Kaski",
		SortNewest: true,
		Total:      1,
		Status:     models.BrowseStatusOK,
	}}
	h := NewListingHandler(svc, &exporterMock{}, 0)

	c, w := newTestContext(http.MethodGet, "/teachers?district=Kaski&sort=newest", nil)
	c.Set(contextRoleKey, models.RoleTeacher)
	h.Browse(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BrowseQuery{Role: models.RoleTeacher, District: "Kaski", SortNewest: true}, svc.lastQuery)

	payload := decodeEnvelope(t, w)
	meta := payload["meta"].(map[string]interface{})
	assert.Equal(t, "ok", meta["status"])
	assert.Equal(t, float64(1), meta["total"])
	assert.Equal(t, []interface{}{"Kaski", "Lalitpur"}, meta["districts"])
	assert.Len(t, payload["data"], 1)
}

func TestListingHandlerBrowseUnavailableStillOK(t *testing.T) {
	svc := &listingServiceMock{browseResp: &models.BrowseResult{
		Role:      models.RoleStudent,
		Listings:  []models.Listing{},
		Districts: []string{},
		Status:    models.BrowseStatusUnavailable,
	}}
	h := NewListingHandler(svc, &exporterMock{}, 0)

	c, w := newTestContext(http.MethodGet, "/students", nil)
	c.Set(contextRoleKey, models.RoleStudent)
	h.Browse(c)

	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeEnvelope(t, w)
	assert.Equal(t, "unavailable", payload["meta"].(map[string]interface{})["status"])
}

func TestListingHandlerRefresh(t *testing.T) {
	svc := &listingServiceMock{browseResp: &models.BrowseResult{
		Role:     models.RoleTeacher,
		Listings: []models.Listing{{ID: "t1", Role: models.RoleTeacher, District: "Kaski"}},
		District: "Kaski",
		Total:    2,
		Status:   models.BrowseStatusOK,
	}}
	h := NewListingHandler(svc, &exporterMock{}, 0)

	c, w := newTestContext(http.MethodPost, "/teachers/refresh?district=Kaski", nil)
	c.Set(contextRoleKey, models.RoleTeacher)
	h.Refresh(c)

	assert.True(t, svc.refreshCalled)
	assert.Equal(t, models.BrowseQuery{Role: models.RoleTeacher, District: "Kaski"}, svc.lastQuery)
	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeEnvelope(t, w)
	assert.Equal(t, "ok", payload["meta"].(map[string]interface{})["status"])
	assert.Len(t, payload["data"], 1)
}

func TestListingHandlerGetNotFound(t *testing.T) {
	svc := &listingServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "teacher not found")}
	h := NewListingHandler(svc, &exporterMock{}, 0)

	c, w := newTestContext(http.MethodGet, "/teachers/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(contextRoleKey, models.RoleTeacher)
	h.Get(c)

	assert.Equal(t, "missing", svc.lastID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingHandlerCreateTeacherJSON(t *testing.T) {
	svc := &listingServiceMock{createResp: &models.Listing{ID: "new-1", Role: models.RoleTeacher}}
	h := NewListingHandler(svc, &exporterMock{}, 0)

	body := `{"name":"Asha","subject":"Math","phoneNumber":"9800000000","experience":5,"province":"Gandaki Province","district":"Kaski"}`
	c, w := newTestContext(http.MethodPost, "/teachers", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	user := &models.CurrentUser{ID: "user-1"}
	c.Set(middleware.ContextUserKey, user)
	h.CreateTeacher(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, user, svc.createUser)
	assert.Equal(t, "Asha", svc.teacherReq.Name)
	assert.Equal(t, service.NumericInput("5"), svc.teacherReq.Experience)
	assert.Empty(t, svc.photoName)
}

func TestListingHandlerCreateRejectsMalformedJSON(t *testing.T) {
	svc := &listingServiceMock{}
	h := NewListingHandler(svc, &exporterMock{}, 0)

	c, w := newTestContext(http.MethodPost, "/students", bytes.NewBufferString(`{"name":`))
	c.Request.Header.Set("Content-Type", "application/json")
	h.CreateStudent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.createCalled)
}

func TestListingHandlerCreateStudentMultipart(t *testing.T) {
	svc := &listingServiceMock{createResp: &models.Listing{ID: "new-2", Role: models.RoleStudent}}
	h := NewListingHandler(svc, &exporterMock{}, 0)

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField("name", "Bikash"))
	require.NoError(t, writer.WriteField("grade", "10"))
	require.NoError(t, writer.WriteField("salary", "5000"))
	part, err := writer.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, w := newTestContext(http.MethodPost, "/students", buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	h.CreateStudent(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, svc.createUser)
	assert.Equal(t, "Bikash", svc.studentReq.Name)
	assert.Equal(t, service.NumericInput("5000"), svc.studentReq.Salary)
	assert.Equal(t, "me.png", svc.photoName)
	assert.Equal(t, []byte("png-bytes"), svc.photoBody)
}

func TestListingHandlerCreateRejectsOversizedPhoto(t *testing.T) {
	svc := &listingServiceMock{}
	h := NewListingHandler(svc, &exporterMock{}, 8)

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField("name", "Asha"))
	part, err := writer.CreateFormFile("photo", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x1}, 64))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	c, w := newTestContext(http.MethodPost, "/teachers", buf)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	h.CreateTeacher(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.False(t, svc.createCalled)
}

func TestListingHandlerExport(t *testing.T) {
	exporter := &exporterMock{file: &service.ExportFile{
		Filename:    "teachers_kaski_20240501.pdf",
		ContentType: "application/pdf",
		Body:        []byte("%PDF"),
	}}
	h := NewListingHandler(&listingServiceMock{}, exporter, 0)

	c, w := newTestContext(http.MethodGet, "/teachers/export?format=pdf&district=Kaski", nil)
	c.Set(contextRoleKey, models.RoleTeacher)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdf", exporter.format)
	assert.Equal(t, "Kaski", exporter.lastQuery.District)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(w.Header().Get("Content-Disposition"), "teachers_kaski_20240501.pdf"))
}

func TestListingHandlerExportRejectsFormat(t *testing.T) {
	exporter := &exporterMock{err: appErrors.WithDetails(appErrors.ErrValidation, "unsupported export format", map[string]string{"format": "must be csv or pdf"})}
	h := NewListingHandler(&listingServiceMock{}, exporter, 0)

	c, w := newTestContext(http.MethodGet, "/teachers/export?format=xlsx", nil)
	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingRoutesBindRoleAndAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	identity := service.NewIdentityService(service.IdentityConfig{Secret: "secret"})
	svc := &listingServiceMock{
		browseResp:   &models.BrowseResult{Role: models.RoleStudent, Listings: []models.Listing{}, Districts: []string{}, Status: models.BrowseStatusEmpty},
		districtResp: []models.Listing{},
	}
	r := gin.New()
	RegisterRoutes(r, "/api/v1", Routes{
		Listings:  NewListingHandler(svc, &exporterMock{}, 0),
		Locations: NewLocationHandler(nil),
		Metrics:   NewMetricsHandler(nil, nil),
		Verifier:  identity,
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/students?district=Kaski", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleStudent, svc.lastQuery.Role)
	assert.Equal(t, "Kaski", svc.lastQuery.District)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/districts/Lalitpur/teachers?sort=newest", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BrowseQuery{Role: models.RoleTeacher, District: "Lalitpur", SortNewest: true}, svc.lastQuery)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me/teachers", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, svc.mineUser)

	token, err := identity.Issue(models.CurrentUser{ID: "user-7"}, 0)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/teachers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.mineUser)
	assert.Equal(t, "user-7", svc.mineUser.ID)
}
