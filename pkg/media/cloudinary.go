package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// optimizedTransformation crops uploads to a square thumbnail with automatic
// format and quality.
const optimizedTransformation = "f_auto,q_auto,w_500,h_500,c_fill"

// CloudinaryUploader stores photos on the Cloudinary CDN.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	preset string
}

// NewCloudinaryUploader configures the SDK from a cloudinary:// URL.
func NewCloudinaryUploader(cloudinaryURL, uploadPreset string) (*CloudinaryUploader, error) {
	if strings.TrimSpace(cloudinaryURL) == "" {
		return nil, errors.New("cloudinary url is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, preset: uploadPreset}, nil
}

// Upload sends r to Cloudinary and returns the optimized delivery URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       Folder(filename),
		UploadPreset: u.preset,
	}
	resp, err := u.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload %s: %w", path.Base(filename), err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload %s: %s", path.Base(filename), resp.Error.Message)
	}
	if resp.PublicID == "" {
		return resp.SecureURL, nil
	}
	return u.OptimizedURL(resp.PublicID)
}

// OptimizedURL builds the delivery URL of publicID with the thumbnail
// transformation applied.
func (u *CloudinaryUploader) OptimizedURL(publicID string) (string, error) {
	img, err := u.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("cloudinary asset %s: %w", publicID, err)
	}
	img.Transformation = optimizedTransformation
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("cloudinary url %s: %w", publicID, err)
	}
	return url, nil
}
