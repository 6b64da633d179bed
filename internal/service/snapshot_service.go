package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

type listingFetcher interface {
	FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error)
}

// SnapshotRepository abstracts persistence for cached listing snapshots.
type SnapshotRepository interface {
	Get(ctx context.Context, role models.Role) ([]models.Listing, error)
	Set(ctx context.Context, role models.Role, listings []models.Listing, ttl time.Duration) error
	Invalidate(ctx context.Context, role models.Role) error
}

// SnapshotService reads full listing sets through the snapshot cache. A
// broken cache degrades to direct store reads and never fails a fetch.
type SnapshotService struct {
	store        listingFetcher
	repo         SnapshotRepository
	metrics      *MetricsService
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *zap.Logger
	enabled      bool
	reloads      singleflight.Group
}

// SnapshotConfig tunes caching and remote fetch limits.
type SnapshotConfig struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	Enabled      bool
}

// NewSnapshotService constructs a snapshot service.
func NewSnapshotService(store listingFetcher, repo SnapshotRepository, metrics *MetricsService, cfg SnapshotConfig, logger *zap.Logger) *SnapshotService {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{
		store:        store,
		repo:         repo,
		metrics:      metrics,
		ttl:          cfg.TTL,
		fetchTimeout: cfg.FetchTimeout,
		logger:       logger,
		enabled:      cfg.Enabled,
	}
}

// Enabled indicates whether caching is active.
func (s *SnapshotService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// FetchAll returns the cached snapshot of role, loading it from the store on
// a miss.
func (s *SnapshotService) FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error) {
	if s.Enabled() {
		start := time.Now()
		cached, err := s.repo.Get(ctx, role)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("snapshot cache read failed", zap.String("role", string(role)), zap.Error(err))
		}
	}
	return s.Reload(ctx, role)
}

// Reload bypasses the cache, reads the store and rewrites the snapshot.
// Concurrent reloads of one role share a single store read; a caller whose
// ctx ends stops waiting without cancelling the shared read.
func (s *SnapshotService) Reload(ctx context.Context, role models.Role) ([]models.Listing, error) {
	ch := s.reloads.DoChan(string(role), func() (interface{}, error) {
		return s.reload(context.WithoutCancel(ctx), role)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		listings, _ := res.Val.([]models.Listing)
		return listings, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *SnapshotService) reload(ctx context.Context, role models.Role) ([]models.Listing, error) {
	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	listings, err := s.store.FetchAll(fetchCtx, role)
	s.metrics.ObserveStoreFetch(role, "fetch_all", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, role, listings)
	return listings, nil
}

// Warm refreshes the snapshot of role without returning it.
func (s *SnapshotService) Warm(ctx context.Context, role models.Role) error {
	_, err := s.Reload(ctx, role)
	return err
}

// Invalidate drops the cached snapshot of role.
func (s *SnapshotService) Invalidate(ctx context.Context, role models.Role) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.Invalidate(ctx, role)
}

func (s *SnapshotService) remember(ctx context.Context, role models.Role, listings []models.Listing) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, role, listings, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("snapshot cache write failed", zap.String("role", string(role)), zap.Error(err))
	}
}
