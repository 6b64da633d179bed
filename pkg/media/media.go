package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

// Uploader stores a photo and returns the URL clients should display.
// filename may carry a folder prefix such as "teacher_photos/asha.jpg".
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Photo is an upload that passed the type and size checks.
type Photo struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Reader returns a fresh reader over the photo bytes.
func (p Photo) Reader() io.Reader {
	return bytes.NewReader(p.Data)
}

// Inspect buffers at most maxSize bytes of r and sniffs the content type.
// Oversized input maps to ErrPayloadTooLarge and types outside allowed map
// to ErrUnsupportedMedia.
func Inspect(r io.Reader, maxSize int64, allowed []string) (*Photo, error) {
	limit := maxSize
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read photo")
	}
	if int64(len(data)) > limit {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("photo exceeds %d bytes", limit))
	}
	if len(data) == 0 {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "photo is empty", map[string]string{"photo": "Photo is empty"})
	}

	mtype := mimetype.Detect(data)
	if !allowedType(mtype, allowed) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("photo type %s is not accepted", mtype.String()))
	}
	return &Photo{Data: data, ContentType: mtype.String(), Extension: mtype.Extension()}, nil
}

func allowedType(mtype *mimetype.MIME, allowed []string) bool {
	if len(allowed) == 0 {
		return strings.HasPrefix(mtype.String(), "image/")
	}
	for _, candidate := range allowed {
		if mtype.Is(candidate) {
			return true
		}
	}
	return false
}

// Folder returns the folder prefix of filename, or "" when there is none.
func Folder(filename string) string {
	dir := path.Dir(filename)
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.Trim(dir, "/")
}
