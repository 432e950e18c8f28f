package view

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction of a sort.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec is the single active ordering of a view. A zero SortSpec keeps the source order.
type SortSpec struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
	Type      ValueType `json:"type,omitempty"`

	// Ranks maps the labels of an enumerated number field to their rank, e.g. {"Critical": 4, "Low": 1}.
	// Labels missing from the table sort with the missing values.
	Ranks map[string]int `json:"-"`
}

// Comparator orders two records: negative when a sorts before b, positive after, zero for ties.
type Comparator func(a, b Record) int

// ParseOrdering parses "field" or "-field" into the field name and its direction.
func ParseOrdering(ordering string) (field string, dir Direction) {
	ordering = strings.TrimSpace(ordering)
	if strings.HasPrefix(ordering, "-") {
		return strings.TrimPrefix(ordering, "-"), Desc
	}
	return ordering, Asc
}

// Ordering renders s as "field" or "-field".
func (s SortSpec) Ordering() string {
	if s.Field == "" {
		return ""
	}
	if s.Direction == Desc {
		return "-" + s.Field
	}
	return s.Field
}

// Toggled returns s with its direction reversed.
func (s SortSpec) Toggled() SortSpec {
	if s.Direction == Desc {
		s.Direction = Asc
	} else {
		s.Direction = Desc
	}
	return s
}

// BuildComparator returns the comparator for s.
// Records whose field is missing or cannot be coerced to s.Type sort last in both directions.
//
// The returned Comparator is not safe for concurrent use.
func BuildComparator(s SortSpec) Comparator {
	var cmp func(a, b Record) (int, bool, bool)
	switch s.Type {
	case TypeNumber:
		cmp = numberCompare(s)
	case TypeDate:
		cmp = dateCompare(s.Field)
	default:
		cmp = stringCompare(s.Field)
	}

	sign := 1
	if s.Direction == Desc {
		sign = -1
	}
	return func(a, b Record) int {
		c, okA, okB := cmp(a, b)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return sign * c
	}
}

func stringCompare(field string) func(a, b Record) (int, bool, bool) {
	col := collate.New(language.English, collate.IgnoreCase)
	key := func(r Record) (string, bool) {
		v, ok := r.Lookup(field)
		if !ok || v == nil {
			return "", false
		}
		return stringOf(v)
	}
	return func(a, b Record) (int, bool, bool) {
		sa, okA := key(a)
		sb, okB := key(b)
		if !okA || !okB {
			return 0, okA, okB
		}
		return col.CompareString(sa, sb), true, true
	}
}

func numberCompare(s SortSpec) func(a, b Record) (int, bool, bool) {
	key := func(r Record) (float64, bool) {
		v, ok := r.Lookup(s.Field)
		if !ok {
			return 0, false
		}
		if s.Ranks != nil {
			return rankOf(s.Ranks, v)
		}
		return numberOf(v)
	}
	return func(a, b Record) (int, bool, bool) {
		na, okA := key(a)
		nb, okB := key(b)
		if !okA || !okB {
			return 0, okA, okB
		}
		switch {
		case na < nb:
			return -1, true, true
		case na > nb:
			return 1, true, true
		}
		return 0, true, true
	}
}

func dateCompare(field string) func(a, b Record) (int, bool, bool) {
	return func(a, b Record) (int, bool, bool) {
		va, _ := a.Lookup(field)
		vb, _ := b.Lookup(field)
		ta, okA := timeOf(va)
		tb, okB := timeOf(vb)
		if !okA || !okB {
			return 0, okA, okB
		}
		switch {
		case ta.Before(tb):
			return -1, true, true
		case ta.After(tb):
			return 1, true, true
		}
		return 0, true, true
	}
}

// rankOf looks v up in ranks, ignoring case when there is no exact entry.
func rankOf(ranks map[string]int, v interface{}) (float64, bool) {
	label, ok := stringOf(v)
	if !ok || label == "" {
		return 0, false
	}
	if r, ok := ranks[label]; ok {
		return float64(r), true
	}
	for k, r := range ranks {
		if strings.EqualFold(k, label) {
			return float64(r), true
		}
	}
	return 0, false
}
