// Package location holds the static province → district table and the
// cascading selection used by listing forms.
package location

import "sort"

// Lookup maps a province to its ordered districts. It is built once and
// never mutated, so concurrent readers need no synchronisation.
type Lookup struct {
	provinces []string
	districts map[string][]string
	index     map[string]map[string]struct{}
}

// Province pairs a province with its districts.
type Province struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

// NewLookup builds a lookup from the given provinces in order. District
// lists are copied and sorted.
func NewLookup(provinces []Province) *Lookup {
	l := &Lookup{
		provinces: make([]string, 0, len(provinces)),
		districts: make(map[string][]string, len(provinces)),
		index:     make(map[string]map[string]struct{}, len(provinces)),
	}
	for _, p := range provinces {
		if _, dup := l.districts[p.Name]; dup {
			continue
		}
		ds := append([]string(nil), p.Districts...)
		sort.Strings(ds)
		set := make(map[string]struct{}, len(ds))
		for _, d := range ds {
			set[d] = struct{}{}
		}
		l.provinces = append(l.provinces, p.Name)
		l.districts[p.Name] = ds
		l.index[p.Name] = set
	}
	return l
}

// Default returns the Nepal province table.
func Default() *Lookup {
	return NewLookup([]Province{
		{Name: "Province 1", Districts: []string{"Bhojpur", "Dhankuta", "Ilam", "Jhapa", "Khotang", "Morang", "Okhaldhunga", "Panchthar", "Sankhuwasabha", "Solukhumbu", "Sunsari", "Taplejung", "Terhathum", "Udayapur"}},
		{Name: "Madhesh Province", Districts: []string{"Bara", "Dhanusha", "Mahottari", "Parsa", "Rautahat", "Saptari", "Sarlahi", "Siraha"}},
		{Name: "Bagmati Province", Districts: []string{"Bhaktapur", "Chitwan", "Dhading", "Dolakha", "Kathmandu", "Kavrepalanchok", "Lalitpur", "Makwanpur", "Nuwakot", "Ramechhap", "Rasuwa", "Sindhuli", "Sindhupalchok"}},
		{Name: "Gandaki Province", Districts: []string{"Baglung", "Gorkha", "Kaski", "Lamjung", "Manang", "Mustang", "Myagdi", "Nawalpur", "Parbat", "Syangja", "Tanahun"}},
		{Name: "Lumbini Province", Districts: []string{"Arghakhanchi", "Banke", "Bardiya", "Dang", "Gulmi", "Kapilvastu", "Nawalparasi", "Palpa", "Pyuthan", "Rolpa", "Rukum (East)", "Rupandehi"}},
		{Name: "Karnali Province", Districts: []string{"Dailekh", "Dolpa", "Humla", "Jajarkot", "Jumla", "Kalikot", "Mugu", "Rukum (West)", "Salyan", "Surkhet"}},
		{Name: "Sudurpashchim Province", Districts: []string{"Achham", "Baitadi", "Bajhang", "Bajura", "Dadeldhura", "Darchula", "Doti", "Kailali", "Kanchanpur"}},
	})
}

// Provinces returns province names in table order.
func (l *Lookup) Provinces() []string {
	return append([]string(nil), l.provinces...)
}

// HasProvince reports whether province is in the table.
func (l *Lookup) HasProvince(province string) bool {
	_, ok := l.index[province]
	return ok
}

// Districts returns the districts of province, or nil when unknown.
func (l *Lookup) Districts(province string) []string {
	ds, ok := l.districts[province]
	if !ok {
		return nil
	}
	return append([]string(nil), ds...)
}

// Contains reports whether district belongs to province.
func (l *Lookup) Contains(province, district string) bool {
	set, ok := l.index[province]
	if !ok {
		return false
	}
	_, ok = set[district]
	return ok
}

// All returns every province with its districts.
func (l *Lookup) All() []Province {
	out := make([]Province, 0, len(l.provinces))
	for _, p := range l.provinces {
		out = append(out, Province{Name: p, Districts: l.Districts(p)})
	}
	return out
}
