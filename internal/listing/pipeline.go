// Package listing implements the fetch-all → filter → sort pipeline that
// backs the find-teachers and find-students screens.
package listing

import (
	"sort"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// MatchDistrict returns the filter predicate for district. An empty
// district matches every record. Comparison is exact and case-sensitive.
func MatchDistrict(district string) func(models.Listing) bool {
	if district == "" {
		return func(models.Listing) bool { return true }
	}
	return func(l models.Listing) bool { return l.District == district }
}

// Filter returns the records of store accepted by MatchDistrict(district),
// in store order. The result never aliases store.
func Filter(store []models.Listing, district string) []models.Listing {
	match := MatchDistrict(district)
	out := make([]models.Listing, 0, len(store))
	for _, l := range store {
		if match(l) {
			out = append(out, l)
		}
	}
	return out
}

// SortNewest orders records by creation time, newest first. Records with
// equal timestamps keep their relative order; records without a timestamp
// count as 0 and sink to the end.
func SortNewest(records []models.Listing) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAtSeconds() > records[j].CreatedAtSeconds()
	})
}

// DeriveView filters store by district and then, when sortNewest is set,
// orders the subset newest first. It is pure: store is left untouched.
func DeriveView(store []models.Listing, district string, sortNewest bool) []models.Listing {
	view := Filter(store, district)
	if sortNewest {
		SortNewest(view)
	}
	return view
}

// Districts lists the distinct non-empty districts present in store in
// first-seen order.
func Districts(store []models.Listing) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, l := range store {
		if l.District == "" {
			continue
		}
		if _, ok := seen[l.District]; ok {
			continue
		}
		seen[l.District] = struct{}{}
		out = append(out, l.District)
	}
	return out
}
