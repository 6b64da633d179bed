package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

func at(sec int64) *time.Time {
	ts := time.Unix(sec, 0).UTC()
	return &ts
}

func rec(id, district string, created *time.Time) models.Listing {
	return models.Listing{
		ID:        id,
		Role:      models.RoleTeacher,
		Name:      "Teacher " + id,
		District:  district,
		Teacher:   &models.TeacherDetails{Experience: 1},
		CreatedAt: created,
	}
}

func ids(records []models.Listing) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestDeriveViewFilterThenSort(t *testing.T) {
	store := []models.Listing{
		rec("a", "Kaski", at(100)),
		rec("b", "Kaski", at(200)),
		rec("c", "Lalitpur", at(150)),
	}

	view := DeriveView(store, "Kaski", true)
	assert.Equal(t, []string{"b", "a"}, ids(view))
	assert.Equal(t, int64(200), view[0].CreatedAtSeconds())
	assert.Equal(t, int64(100), view[1].CreatedAtSeconds())
}

func TestDeriveViewPassThroughKeepsOrder(t *testing.T) {
	store := []models.Listing{rec("a", "Kaski", nil), rec("b", "Jhapa", at(5)), rec("c", "", at(1))}

	assert.Equal(t, []string{"a", "b", "c"}, ids(DeriveView(store, "", false)))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids(DeriveView(store, "", true)))
}

func TestDeriveViewFilterKeepsRelativeOrder(t *testing.T) {
	store := []models.Listing{
		rec("a", "Kaski", at(1)),
		rec("b", "Jhapa", at(2)),
		rec("c", "Kaski", at(3)),
		rec("d", "kaski", at(4)),
	}

	assert.Equal(t, []string{"a", "c"}, ids(DeriveView(store, "Kaski", false)))
}

func TestDeriveViewStableSortAndMissingTimestamps(t *testing.T) {
	store := []models.Listing{
		rec("nil-1", "Kaski", nil),
		rec("t100-a", "Kaski", at(100)),
		rec("t300", "Kaski", at(300)),
		rec("t100-b", "Kaski", at(100)),
		rec("nil-2", "Kaski", nil),
	}

	view := DeriveView(store, "", true)
	assert.Equal(t, []string{"t300", "t100-a", "t100-b", "nil-1", "nil-2"}, ids(view))
	for i := 1; i < len(view); i++ {
		assert.GreaterOrEqual(t, view[i-1].CreatedAtSeconds(), view[i].CreatedAtSeconds())
	}
}

func TestDeriveViewEmptyResultIsNotAnError(t *testing.T) {
	assert.NotNil(t, DeriveView(nil, "Kaski", false))
	assert.Empty(t, DeriveView(nil, "Kaski", false))
	assert.Empty(t, DeriveView([]models.Listing{rec("a", "Jhapa", nil)}, "Kaski", true))
}

func TestDeriveViewDoesNotMutateStore(t *testing.T) {
	store := []models.Listing{rec("a", "Kaski", at(1)), rec("b", "Kaski", at(2))}

	_ = DeriveView(store, "", true)
	assert.Equal(t, []string{"a", "b"}, ids(store))
}

func TestDistricts(t *testing.T) {
	store := []models.Listing{rec("a", "Kaski", nil), rec("b", "", nil), rec("c", "Jhapa", nil), rec("d", "Kaski", nil)}

	assert.Equal(t, []string{"Kaski", "Jhapa"}, Districts(store))
	assert.Empty(t, Districts(nil))
}
