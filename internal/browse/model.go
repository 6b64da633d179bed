// Package browse is the terminal rendition of the find-teachers and
// find-students screens: one listing controller, a district filter, a
// newest-first toggle, pull-to-refresh and the dialer hand-off.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/listing"
	"github.com/noah-isme/tutor-match-api/internal/models"
)

// clearSelection is the first entry of the location modal.
const clearSelection = "Clear selection"

// noticeFadeDelay is how long a status-bar notice stays visible.
const noticeFadeDelay = 3 * time.Second

// Source fetches listings for the screen. Refresh bypasses any cache the
// source keeps in front of the store.
type Source interface {
	listing.Reader
	Refresh(ctx context.Context, role models.Role) ([]models.Listing, error)
}

// Dialer hands a tel: URL to the platform. Its outcome is not awaited by
// the screen beyond showing a notice.
type Dialer func(contactURL string) error

type screen int

const (
	screenList screen = iota
	screenLocations
	screenDetail
)

// fetchedMsg carries the result of a load or refresh back to Update.
type fetchedMsg struct {
	kind    listing.Kind
	records []models.Listing
	err     error
}

// dialedMsg reports the dialer outcome.
type dialedMsg struct {
	contactURL string
	err        error
}

// noticeFadeMsg clears the status-bar notice.
type noticeFadeMsg struct{}

// Options configures a Model.
type Options struct {
	Context  context.Context
	Dialer   Dialer
	Logger   *zap.Logger
	Keys     *KeyMap
	Theme    *Theme
	Timeout  time.Duration
	District string
	Newest   bool
}

// Model is the bubbletea model of the browse screen.
type Model struct {
	ctrl    *listing.Controller
	source  Source
	ctx     context.Context
	timeout time.Duration
	dial    Dialer
	logger  *zap.Logger
	keys    KeyMap
	theme   Theme
	spinner spinner.Model

	screen         screen
	cursor         int
	locationCursor int
	locations      []string
	detail         *models.Listing
	notice         string
	width          int
	height         int
}

// New builds a browse model around ctrl. ctrl must read from source.
func New(ctrl *listing.Controller, source Source, opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := DefaultKeyMap
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	theme := DefaultTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	dial := opts.Dialer
	if dial == nil {
		dial = func(string) error { return errors.New("no dialer available") }
	}

	if opts.District != "" {
		ctrl.SetDistrict(opts.District)
	}
	if opts.Newest {
		ctrl.SetSortNewest(true)
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.Notice

	return Model{
		ctrl:    ctrl,
		source:  source,
		ctx:     ctx,
		timeout: timeout,
		dial:    dial,
		logger:  logger,
		keys:    keys,
		theme:   theme,
		spinner: sp,
	}
}

// Init implements tea.Model. It starts the first load.
func (m Model) Init() tea.Cmd {
	if err := m.ctrl.Begin(listing.KindLoad); err != nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.fetch(listing.KindLoad))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.ctrl.Close()
			return m, tea.Quit
		}
		switch m.screen {
		case screenLocations:
			return m.updateLocations(msg)
		case screenDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}

	case fetchedMsg:
		if !m.ctrl.Complete(msg.kind, msg.records, msg.err) {
			return m, nil
		}
		m.clampCursor()
		return m, nil

	case dialedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not start call: %v", msg.err)
		} else {
			m.notice = "Calling " + strings.TrimPrefix(msg.contactURL, "tel:")
		}
		return m, tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg { return noticeFadeMsg{} })

	case noticeFadeMsg:
		m.notice = ""
		return m, nil

	case spinner.TickMsg:
		state := m.ctrl.State()
		if !state.Loading && !state.Refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.ctrl.View()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(view)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keys.Sort):
		m.ctrl.ToggleSort()
		m.cursor = 0
	case key.Matches(msg, m.keys.Locations):
		m.locations = append([]string{clearSelection}, m.ctrl.Districts()...)
		m.locationCursor = 0
		if current := m.ctrl.State().District; current != "" {
			for i, d := range m.locations {
				if d == current {
					m.locationCursor = i
				}
			}
		}
		m.screen = screenLocations
	case key.Matches(msg, m.keys.Select):
		if selected, ok := m.selected(view); ok {
			m.detail = &selected
			m.screen = screenDetail
		}
	case key.Matches(msg, m.keys.Call):
		if selected, ok := m.selected(view); ok {
			return m, m.call(selected)
		}
	}
	return m, nil
}

func (m Model) updateLocations(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.locationCursor > 0 {
			m.locationCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.locationCursor < len(m.locations)-1 {
			m.locationCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.locationCursor == 0 {
			m.ctrl.ClearDistrict()
		} else {
			m.ctrl.SetDistrict(m.locations[m.locationCursor])
		}
		m.cursor = 0
		m.screen = screenList
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Locations):
		m.screen = screenList
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.detail = nil
		m.screen = screenList
	case key.Matches(msg, m.keys.Call):
		if m.detail != nil {
			return m, m.call(*m.detail)
		}
	}
	return m, nil
}

func (m Model) refresh() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Begin(listing.KindRefresh); err != nil {
		if errors.Is(err, listing.ErrBusy) {
			m.logger.Debug("refresh ignored while fetch in flight")
		}
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, m.fetch(listing.KindRefresh))
}

// fetch runs the network call for a fetch already begun on the controller.
func (m Model) fetch(kind listing.Kind) tea.Cmd {
	source, role, parent, timeout := m.source, m.ctrl.Role(), m.ctx, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		var (
			records []models.Listing
			err     error
		)
		if kind == listing.KindRefresh {
			records, err = source.Refresh(ctx, role)
		} else {
			records, err = source.FetchAll(ctx, role)
		}
		return fetchedMsg{kind: kind, records: records, err: err}
	}
}

func (m Model) call(l models.Listing) tea.Cmd {
	contactURL := l.ContactURL()
	if contactURL == "" {
		return func() tea.Msg { return dialedMsg{err: errors.New("no phone number")} }
	}
	dial := m.dial
	return func() tea.Msg {
		return dialedMsg{contactURL: contactURL, err: dial(contactURL)}
	}
}

func (m Model) selected(view []models.Listing) (models.Listing, bool) {
	if m.cursor < 0 || m.cursor >= len(view) {
		return models.Listing{}, false
	}
	return view[m.cursor], true
}

func (m *Model) clampCursor() {
	count := m.ctrl.State().Count
	if m.cursor >= count {
		m.cursor = count - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
