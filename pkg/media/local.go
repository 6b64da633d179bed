package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps photos on disk and hands out signed download URLs. It is
// meant for development; production deployments use Cloudinary.
type LocalStore struct {
	baseDir string
	baseURL string
	signer  *Signer
}

// NewLocalStore ensures the base directory exists and returns a handle.
// baseURL is the public origin that serves GET /media/:token.
func NewLocalStore(baseDir, baseURL string, signer *Signer) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/"), signer: signer}, nil
}

// Upload writes r under a generated name inside the folder of filename and
// returns its signed URL.
func (s *LocalStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	relPath := path.Join(Folder(filename), uuid.NewString()+path.Ext(filename))
	target, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare media directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write media stream: %w", err)
	}

	token, _, err := s.signer.Generate(relPath)
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return s.baseURL + "/media/" + token, nil
}

// Open validates token and returns a read-only handle for the photo.
func (s *LocalStore) Open(token string) (*os.File, error) {
	relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, err
	}
	target, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	return file, nil
}

func (s *LocalStore) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("media path %q escapes storage", relPath)
	}
	return filepath.Join(s.baseDir, clean), nil
}
