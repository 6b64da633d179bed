package location

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProvince = errors.New("unknown province")
	ErrNoProvince      = errors.New("province not selected")
	ErrForeignDistrict = errors.New("district does not belong to province")
)

// Selection is the cascading province → district picker. The district is
// never left pointing outside the selected province.
type Selection struct {
	lookup   *Lookup
	province string
	district string
}

// NewSelection starts with nothing selected.
func NewSelection(lookup *Lookup) *Selection {
	return &Selection{lookup: lookup}
}

// Province returns the selected province or "".
func (s *Selection) Province() string { return s.province }

// District returns the selected district or "".
func (s *Selection) District() string { return s.district }

// Options returns the district choices for the current province.
func (s *Selection) Options() []string {
	if s.province == "" {
		return nil
	}
	return s.lookup.Districts(s.province)
}

// SelectProvince switches province. A previously chosen district that is
// not part of the new province is cleared. An empty province clears both.
func (s *Selection) SelectProvince(province string) error {
	if province == "" {
		s.province, s.district = "", ""
		return nil
	}
	if !s.lookup.HasProvince(province) {
		return fmt.Errorf("%w: %s", ErrUnknownProvince, province)
	}
	s.province = province
	if s.district != "" && !s.lookup.Contains(province, s.district) {
		s.district = ""
	}
	return nil
}

// SelectDistrict picks a district under the current province. An empty
// district unsets it.
func (s *Selection) SelectDistrict(district string) error {
	if district == "" {
		s.district = ""
		return nil
	}
	if s.province == "" {
		return ErrNoProvince
	}
	if !s.lookup.Contains(s.province, district) {
		return fmt.Errorf("%w: %s is not in %s", ErrForeignDistrict, district, s.province)
	}
	s.district = district
	return nil
}

// Validate reports field-level problems keyed by field name. A nil map
// means the selection is complete.
func (s *Selection) Validate() map[string]string {
	problems := make(map[string]string)
	if s.province == "" {
		problems["province"] = "Province is required"
	}
	if s.district == "" {
		problems["district"] = "District is required"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Resolve applies a submitted province/district pair and returns the
// per-field problems, if any.
func Resolve(lookup *Lookup, province, district string) (*Selection, map[string]string) {
	sel := NewSelection(lookup)
	problems := make(map[string]string)
	if err := sel.SelectProvince(province); err != nil {
		problems["province"] = fmt.Sprintf("%s is not a known province", province)
	}
	if err := sel.SelectDistrict(district); err != nil && sel.Province() != "" {
		problems["district"] = fmt.Sprintf("%s is not a district of %s", district, sel.Province())
	}
	for field, msg := range sel.Validate() {
		if _, seen := problems[field]; !seen {
			problems[field] = msg
		}
	}
	if len(problems) == 0 {
		return sel, nil
	}
	return sel, problems
}
