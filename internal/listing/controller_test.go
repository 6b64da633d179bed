package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

type fakeReader struct {
	records []models.Listing
	err     error
	calls   int
	roles   []models.Role
}

func (f *fakeReader) FetchAll(ctx context.Context, role models.Role) ([]models.Listing, error) {
	f.calls++
	f.roles = append(f.roles, role)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func TestControllerLoad(t *testing.T) {
	reader := &fakeReader{records: []models.Listing{
		rec("a", "Kaski", at(100)),
		rec("b", "Kaski", at(200)),
		rec("c", "Lalitpur", at(150)),
	}}
	ctrl := NewController(models.RoleTeacher, reader, zap.NewNop())

	require.NoError(t, ctrl.Load(context.Background()))
	state := ctrl.State()
	assert.False(t, state.Loading)
	assert.False(t, state.Refreshing)
	assert.True(t, state.Loaded)
	assert.NoError(t, state.Err)
	assert.Equal(t, 3, state.Total)
	assert.Equal(t, []string{"a", "b", "c"}, ids(ctrl.View()))
	assert.Equal(t, []string{"Kaski", "Lalitpur"}, ctrl.Districts())
	assert.Equal(t, []models.Role{models.RoleTeacher}, reader.roles)
}

func TestControllerRecomputesOnInputChange(t *testing.T) {
	reader := &fakeReader{records: []models.Listing{
		rec("a", "Kaski", at(100)),
		rec("b", "Kaski", at(200)),
		rec("c", "Lalitpur", at(150)),
	}}
	ctrl := NewController(models.RoleTeacher, reader, nil)
	require.NoError(t, ctrl.Load(context.Background()))

	ctrl.SetDistrict("Kaski")
	assert.Equal(t, []string{"a", "b"}, ids(ctrl.View()))

	assert.True(t, ctrl.ToggleSort())
	assert.Equal(t, []string{"b", "a"}, ids(ctrl.View()))

	ctrl.ClearDistrict()
	assert.Equal(t, []string{"b", "c", "a"}, ids(ctrl.View()))

	ctrl.SetSortNewest(false)
	assert.Equal(t, []string{"a", "b", "c"}, ids(ctrl.View()))

	ctrl.SetDistrict("Mustang")
	state := ctrl.State()
	assert.True(t, state.Empty())
	assert.False(t, state.Failed())
}

func TestControllerLoadTwiceIsIdempotent(t *testing.T) {
	reader := &fakeReader{records: []models.Listing{rec("a", "Kaski", at(1)), rec("b", "Jhapa", nil)}}
	ctrl := NewController(models.RoleStudent, reader, nil)
	ctrl.SetSortNewest(true)

	require.NoError(t, ctrl.Load(context.Background()))
	first := ctrl.View()
	require.NoError(t, ctrl.Refresh(context.Background()))
	assert.Equal(t, first, ctrl.View())
	assert.Equal(t, 2, reader.calls)
}

func TestControllerFetchFailureEmptiesStore(t *testing.T) {
	reader := &fakeReader{records: []models.Listing{rec("a", "Kaski", nil)}}
	ctrl := NewController(models.RoleTeacher, reader, nil)
	require.NoError(t, ctrl.Load(context.Background()))
	require.Len(t, ctrl.View(), 1)

	reader.err = errors.New("network down")
	require.NoError(t, ctrl.Refresh(context.Background()))

	state := ctrl.State()
	assert.True(t, state.Failed())
	assert.True(t, state.Empty())
	assert.False(t, state.Refreshing)
	assert.Empty(t, ctrl.Districts())

	reader.err = nil
	require.NoError(t, ctrl.Refresh(context.Background()))
	assert.False(t, ctrl.State().Failed())
	assert.Len(t, ctrl.View(), 1)
}

func TestControllerFlagsAreExclusive(t *testing.T) {
	ctrl := NewController(models.RoleTeacher, &fakeReader{}, nil)

	require.NoError(t, ctrl.Begin(KindLoad))
	state := ctrl.State()
	assert.True(t, state.Loading)
	assert.False(t, state.Refreshing)
	assert.ErrorIs(t, ctrl.Begin(KindRefresh), ErrBusy)
	assert.ErrorIs(t, ctrl.Refresh(context.Background()), ErrBusy)

	require.True(t, ctrl.Complete(KindLoad, nil, nil))
	require.NoError(t, ctrl.Begin(KindRefresh))
	state = ctrl.State()
	assert.False(t, state.Loading)
	assert.True(t, state.Refreshing)
}

func TestControllerDropsCompletionAfterClose(t *testing.T) {
	ctrl := NewController(models.RoleTeacher, &fakeReader{}, nil)
	require.NoError(t, ctrl.Begin(KindLoad))

	ctrl.Close()
	assert.False(t, ctrl.Complete(KindLoad, []models.Listing{rec("a", "Kaski", nil)}, nil))
	assert.Empty(t, ctrl.View())
	assert.ErrorIs(t, ctrl.Load(context.Background()), ErrClosed)
}

func TestControllerSnapshotIsCopied(t *testing.T) {
	records := []models.Listing{rec("a", "Kaski", nil)}
	ctrl := NewController(models.RoleTeacher, &fakeReader{records: records}, nil)
	require.NoError(t, ctrl.Load(context.Background()))

	records[0].District = "Jhapa"
	view := ctrl.View()
	view[0].Name = "changed"

	assert.Equal(t, "Kaski", ctrl.View()[0].District)
	assert.Equal(t, "Teacher a", ctrl.View()[0].Name)
}
