package listing

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

var (
	// ErrBusy is returned when a fetch is requested while one is in flight.
	ErrBusy = errors.New("listing fetch already in progress")
	// ErrClosed is returned once the owning screen has gone away.
	ErrClosed = errors.New("listing controller closed")
)

// Reader returns the full, unfiltered collection for one role.
type Reader interface {
	FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, role models.Role) ([]models.Listing, error)

// FetchAll implements Reader.
func (f ReaderFunc) FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error) {
	return f(ctx, role)
}

// Kind distinguishes the first load from a user-triggered refresh.
type Kind int

const (
	KindLoad Kind = iota
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "load"
}

// State is a point-in-time summary for the presentation layer.
type State struct {
	Loading    bool
	Refreshing bool
	Loaded     bool
	Err        error
	District   string
	SortNewest bool
	Total      int
	Count      int
}

// Failed reports whether the last fetch failed.
func (s State) Failed() bool { return s.Err != nil }

// Empty reports whether the derived view has nothing to show.
func (s State) Empty() bool { return s.Count == 0 }

// Controller owns the listing snapshot of one screen together with its
// filter and sort inputs, and keeps the derived view in step with them.
type Controller struct {
	role   models.Role
	reader Reader
	logger *zap.Logger

	mu         sync.Mutex
	store      []models.Listing
	districts  []string
	view       []models.Listing
	district   string
	sortNewest bool
	loading    bool
	refreshing bool
	loaded     bool
	err        error
	closed     bool
}

// NewController builds a controller for role reading through reader.
func NewController(role models.Role, reader Reader, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		role:      role,
		reader:    reader,
		logger:    logger,
		store:     []models.Listing{},
		districts: []string{},
		view:      []models.Listing{},
	}
}

// Role returns the role whose listings are held.
func (c *Controller) Role() models.Role { return c.role }

// Load performs the initial fetch. A failed fetch is not returned: it
// empties the store and is reported through State.
func (c *Controller) Load(ctx context.Context) error {
	return c.fetch(ctx, KindLoad)
}

// Refresh re-fetches the collection, replacing the snapshot wholesale.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx, KindRefresh)
}

func (c *Controller) fetch(ctx context.Context, kind Kind) error {
	if err := c.Begin(kind); err != nil {
		return err
	}
	records, err := c.reader.FetchAll(ctx, c.role)
	c.Complete(kind, records, err)
	return nil
}

// Begin marks a fetch of the given kind as in flight. Callers that run the
// fetch themselves (for example from a UI command) pair it with Complete.
func (c *Controller) Begin(kind Kind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.loading || c.refreshing {
		return ErrBusy
	}
	if kind == KindRefresh {
		c.refreshing = true
	} else {
		c.loading = true
	}
	return nil
}

// Complete installs a fetch result. The store is replaced and the view
// recomputed in one step. It returns false when the controller was closed
// in the meantime and the result was dropped.
func (c *Controller) Complete(kind Kind, records []models.Listing, fetchErr error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.logger.Debug("dropping listing fetch after close",
			zap.String("role", string(c.role)),
			zap.String("kind", kind.String()))
		return false
	}

	if fetchErr != nil {
		c.logger.Warn("listing fetch failed",
			zap.String("role", string(c.role)),
			zap.String("kind", kind.String()),
			zap.Error(fetchErr))
		c.store = []models.Listing{}
	} else {
		c.store = append(make([]models.Listing, 0, len(records)), records...)
	}
	c.err = fetchErr
	c.districts = Districts(c.store)
	c.recompute()
	c.loading = false
	c.refreshing = false
	c.loaded = true
	return true
}

// SetDistrict filters the view to district; "" clears the filter.
func (c *Controller) SetDistrict(district string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.district = district
	c.recompute()
}

// ClearDistrict resets the filter to pass-through.
func (c *Controller) ClearDistrict() {
	c.SetDistrict("")
}

// SetSortNewest switches newest-first ordering on or off.
func (c *Controller) SetSortNewest(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortNewest = on
	c.recompute()
}

// ToggleSort flips newest-first ordering and returns the new setting.
func (c *Controller) ToggleSort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortNewest = !c.sortNewest
	c.recompute()
	return c.sortNewest
}

// View returns a copy of the derived view.
func (c *Controller) View() []models.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]models.Listing, 0, len(c.view)), c.view...)
}

// Districts returns the districts present in the current snapshot.
func (c *Controller) Districts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append(make([]string, 0, len(c.districts)), c.districts...)
}

// State summarises flags and inputs.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Loading:    c.loading,
		Refreshing: c.refreshing,
		Loaded:     c.loaded,
		Err:        c.err,
		District:   c.district,
		SortNewest: c.sortNewest,
		Total:      len(c.store),
		Count:      len(c.view),
	}
}

// Close marks the owning screen as gone. Later completions are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller) recompute() {
	c.view = DeriveView(c.store, c.district, c.sortNewest)
}
