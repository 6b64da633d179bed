package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/pkg/media"
)

func newLocalMedia(t *testing.T, ttl time.Duration) *media.LocalStore {
	t.Helper()
	store, err := media.NewLocalStore(t.TempDir(), "http://localhost:8080", media.NewSigner("media-secret", ttl))
	require.NoError(t, err)
	return store
}

func TestMediaHandlerServesUploadedPhoto(t *testing.T) {
	store := newLocalMedia(t, time.Hour)
	url, err := store.Upload(context.Background(), "teacher_photos/asha.png", bytes.NewBufferString("photo-bytes"))
	require.NoError(t, err)
	token := strings.TrimPrefix(url, "http://localhost:8080/media/")

	h := NewMediaHandler(store)
	c, w := newTestContext(http.MethodGet, "/media/"+token, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}
	h.Serve(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "photo-bytes", w.Body.String())
}

func TestMediaHandlerRejectsTamperedToken(t *testing.T) {
	store := newLocalMedia(t, time.Hour)
	url, err := store.Upload(context.Background(), "student_photos/b.png", bytes.NewBufferString("x"))
	require.NoError(t, err)
	token := strings.TrimPrefix(url, "http://localhost:8080/media/") + "00"

	h := NewMediaHandler(store)
	c, w := newTestContext(http.MethodGet, "/media/"+token, nil)
	c.Params = gin.Params{{Key: "token", Value: token}}
	h.Serve(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
