package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

type snapshotRepoMock struct {
	mu      sync.Mutex
	data    map[models.Role][]models.Listing
	getErr  error
	dropErr error
	sets    int
	dropped []models.Role
	lastTTL time.Duration
}

func newSnapshotRepoMock() *snapshotRepoMock {
	return &snapshotRepoMock{data: map[models.Role][]models.Listing{}}
}

func (m *snapshotRepoMock) Get(ctx context.Context, role models.Role) ([]models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	listings, ok := m.data[role]
	if !ok {
		return nil, appErrors.ErrCacheMiss
	}
	return listings, nil
}

func (m *snapshotRepoMock) Set(ctx context.Context, role models.Role, listings []models.Listing, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[role] = listings
	m.sets++
	m.lastTTL = ttl
	return nil
}

func (m *snapshotRepoMock) Invalidate(ctx context.Context, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropErr != nil {
		return m.dropErr
	}
	delete(m.data, role)
	m.dropped = append(m.dropped, role)
	return nil
}

func TestSnapshotServiceReadsThroughCache(t *testing.T) {
	store := newListingStoreMock()
	store.records[models.RoleTeacher] = []models.Listing{teacher("a", "Kaski", nil)}
	repo := newSnapshotRepoMock()
	metrics := NewMetricsService()
	svc := NewSnapshotService(store, repo, metrics, SnapshotConfig{TTL: time.Minute, Enabled: true}, zap.NewNop())

	first, err := svc.FetchAll(context.Background(), models.RoleTeacher)
	require.NoError(t, err)
	second, err := svc.FetchAll(context.Background(), models.RoleTeacher)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.fetches)
	assert.Equal(t, 1, repo.sets)
	assert.Equal(t, time.Minute, repo.lastTTL)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
	assert.Equal(t, uint64(1), snapshot.StoreFetchCount)
}

func TestSnapshotServiceReloadBypassesCache(t *testing.T) {
	store := newListingStoreMock()
	repo := newSnapshotRepoMock()
	repo.data[models.RoleTeacher] = []models.Listing{teacher("stale", "Kaski", nil)}
	store.records[models.RoleTeacher] = []models.Listing{teacher("fresh", "Kaski", nil)}
	svc := NewSnapshotService(store, repo, nil, SnapshotConfig{Enabled: true}, nil)

	listings, err := svc.Reload(context.Background(), models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, "fresh", listings[0].ID)
	assert.Equal(t, "fresh", repo.data[models.RoleTeacher][0].ID)
}

func TestSnapshotServiceBrokenCacheFallsBackToStore(t *testing.T) {
	store := newListingStoreMock()
	store.records[models.RoleStudent] = []models.Listing{{ID: "s1", Role: models.RoleStudent, Student: &models.StudentDetails{}}}
	repo := newSnapshotRepoMock()
	repo.getErr = errors.New("redis timeout")
	svc := NewSnapshotService(store, repo, nil, SnapshotConfig{Enabled: true}, nil)

	listings, err := svc.FetchAll(context.Background(), models.RoleStudent)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestSnapshotServiceFetchErrorIsNotCached(t *testing.T) {
	store := newListingStoreMock()
	store.fetchErr = errors.New("unreachable")
	repo := newSnapshotRepoMock()
	svc := NewSnapshotService(store, repo, nil, SnapshotConfig{Enabled: true}, nil)

	_, err := svc.FetchAll(context.Background(), models.RoleTeacher)
	assert.Error(t, err)
	assert.Equal(t, 0, repo.sets)
}

func TestSnapshotServiceInvalidate(t *testing.T) {
	repo := newSnapshotRepoMock()
	svc := NewSnapshotService(newListingStoreMock(), repo, nil, SnapshotConfig{Enabled: true}, nil)
	require.NoError(t, svc.Invalidate(context.Background(), models.RoleStudent))
	assert.Equal(t, []models.Role{models.RoleStudent}, repo.dropped)

	disabled := NewSnapshotService(newListingStoreMock(), repo, nil, SnapshotConfig{Enabled: false}, nil)
	require.NoError(t, disabled.Invalidate(context.Background(), models.RoleTeacher))
	assert.Len(t, repo.dropped, 1)
}

func TestSnapshotServiceReloadWaiterLeavesWithoutCancellingSharedRead(t *testing.T) {
	store := newListingStoreMock()
	store.records[models.RoleStudent] = []models.Listing{{ID: "s1", Role: models.RoleStudent, Student: &models.StudentDetails{Grade: "10"}}}
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	repo := newSnapshotRepoMock()
	svc := NewSnapshotService(store, repo, nil, SnapshotConfig{Enabled: true}, nil)

	done := make(chan []models.Listing, 1)
	go func() {
		listings, err := svc.Reload(context.Background(), models.RoleStudent)
		assert.NoError(t, err)
		done <- listings
	}()
	<-store.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Reload(ctx, models.RoleStudent)
	assert.ErrorIs(t, err, context.Canceled)

	close(store.gate)
	listings := <-done
	require.Len(t, listings, 1)

	store.mu.Lock()
	assert.Equal(t, 1, store.fetches)
	store.mu.Unlock()
	cached, err := repo.Get(context.Background(), models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "s1", cached[0].ID)
}

func TestSnapshotServiceOverlappingReloadsShareResult(t *testing.T) {
	store := newListingStoreMock()
	store.records[models.RoleTeacher] = []models.Listing{teacher("a", "Kaski", nil), teacher("b", "Jhapa", nil)}
	store.gate = make(chan struct{})
	store.entered = make(chan struct{}, 4)
	svc := NewSnapshotService(store, nil, nil, SnapshotConfig{}, nil)

	const callers = 4
	results := make(chan []models.Listing, callers)
	for i := 0; i < callers; i++ {
		go func() {
			listings, err := svc.Reload(context.Background(), models.RoleTeacher)
			assert.NoError(t, err)
			results <- listings
		}()
	}
	<-store.entered
	close(store.gate)

	for i := 0; i < callers; i++ {
		assert.Len(t, <-results, 2)
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.GreaterOrEqual(t, store.fetches, 1)
	assert.LessOrEqual(t, store.fetches, callers)
}

type warmRecorder struct {
	mu    sync.Mutex
	roles []models.Role
	done  chan struct{}
}

func (w *warmRecorder) Warm(ctx context.Context, role models.Role) error {
	w.mu.Lock()
	w.roles = append(w.roles, role)
	w.mu.Unlock()
	w.done <- struct{}{}
	return nil
}

func TestSnapshotWarmerSchedulesWarmUps(t *testing.T) {
	recorder := &warmRecorder{done: make(chan struct{}, 1)}
	warmer := NewSnapshotWarmer(recorder, WarmerConfig{Workers: 1}, zap.NewNop())
	warmer.Start(context.Background())
	defer warmer.Stop()

	require.NoError(t, warmer.Schedule(models.RoleStudent))
	select {
	case <-recorder.done:
	case <-time.After(2 * time.Second):
		t.Fatal("warm-up did not run")
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Equal(t, []models.Role{models.RoleStudent}, recorder.roles)
}

func TestSnapshotWarmerRequiresStart(t *testing.T) {
	warmer := NewSnapshotWarmer(&warmRecorder{done: make(chan struct{}, 1)}, WarmerConfig{}, nil)
	assert.Error(t, warmer.Schedule(models.RoleTeacher))
}
