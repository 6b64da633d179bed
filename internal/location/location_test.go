package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookup(t *testing.T) {
	lookup := Default()

	assert.Len(t, lookup.Provinces(), 7)
	assert.Equal(t, []string{"Baglung", "Gorkha", "Kaski", "Lamjung", "Manang", "Mustang", "Myagdi", "Nawalpur", "Parbat", "Syangja", "Tanahun"}, lookup.Districts("Gandaki Province"))
	assert.True(t, lookup.Contains("Bagmati Province", "Kathmandu"))
	assert.False(t, lookup.Contains("Gandaki Province", "Kathmandu"))
	assert.False(t, lookup.Contains("Nowhere", "Kaski"))
	assert.Nil(t, lookup.Districts("Nowhere"))
}

func TestLookupReturnsCopies(t *testing.T) {
	lookup := Default()
	ds := lookup.Districts("Gandaki Province")
	ds[0] = "mutated"

	assert.Equal(t, "Baglung", lookup.Districts("Gandaki Province")[0])
}

func TestSelectionProvinceChangeResetsDistrict(t *testing.T) {
	sel := NewSelection(Default())
	require.NoError(t, sel.SelectProvince("Bagmati Province"))
	require.NoError(t, sel.SelectDistrict("Kathmandu"))

	require.NoError(t, sel.SelectProvince("Gandaki Province"))
	assert.Equal(t, "Gandaki Province", sel.Province())
	assert.Empty(t, sel.District())
	assert.Contains(t, sel.Options(), "Kaski")
}

func TestSelectionKeepsDistrictWhenStillValid(t *testing.T) {
	sel := NewSelection(Default())
	require.NoError(t, sel.SelectProvince("Gandaki Province"))
	require.NoError(t, sel.SelectDistrict("Kaski"))

	require.NoError(t, sel.SelectProvince("Gandaki Province"))
	assert.Equal(t, "Kaski", sel.District())
}

func TestSelectionRejectsForeignDistrict(t *testing.T) {
	sel := NewSelection(Default())
	assert.ErrorIs(t, sel.SelectDistrict("Kaski"), ErrNoProvince)

	require.NoError(t, sel.SelectProvince("Gandaki Province"))
	assert.ErrorIs(t, sel.SelectDistrict("Kathmandu"), ErrForeignDistrict)
	assert.Empty(t, sel.District())
	assert.ErrorIs(t, sel.SelectProvince("Atlantis"), ErrUnknownProvince)
	assert.Equal(t, "Gandaki Province", sel.Province())
}

func TestSelectionValidate(t *testing.T) {
	sel := NewSelection(Default())
	assert.Equal(t, map[string]string{"province": "Province is required", "district": "District is required"}, sel.Validate())

	require.NoError(t, sel.SelectProvince("Gandaki Province"))
	assert.Equal(t, map[string]string{"district": "District is required"}, sel.Validate())

	require.NoError(t, sel.SelectDistrict("Kaski"))
	assert.Nil(t, sel.Validate())
}

func TestResolve(t *testing.T) {
	lookup := Default()

	sel, problems := Resolve(lookup, "Gandaki Province", "Kaski")
	assert.Nil(t, problems)
	assert.Equal(t, "Kaski", sel.District())

	_, problems = Resolve(lookup, "Gandaki Province", "Kathmandu")
	assert.Equal(t, "Kathmandu is not a district of Gandaki Province", problems["district"])

	_, problems = Resolve(lookup, "", "")
	assert.Equal(t, "Province is required", problems["province"])
	assert.Equal(t, "District is required", problems["district"])

	_, problems = Resolve(lookup, "Atlantis", "Kaski")
	assert.Equal(t, "Atlantis is not a known province", problems["province"])
	assert.Equal(t, "District is required", problems["district"])
}
