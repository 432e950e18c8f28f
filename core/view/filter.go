package view

import (
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Mode is how a clause matches a record.
type Mode string

const (
	// ModeExact matches when the field equals the value (or any of the values of a list).
	ModeExact Mode = "exact"
	// ModeContains is a case-insensitive substring match on one field.
	ModeContains Mode = "contains"
	// ModeRange is an inclusive bounds check on a number or date field.
	ModeRange Mode = "range"
	// ModeAnyField is a case-insensitive substring match on any of several fields (free-text search).
	ModeAnyField Mode = "anyField"
)

// Wildcard is the value a select filter uses for "no constraint".
const Wildcard = "all"

// Range is the value of a ModeRange clause. A nil bound is unbounded.
type Range struct {
	Min interface{} `json:"min,omitempty"`
	Max interface{} `json:"max,omitempty"`
}

// Clause is one named filter of a FilterSpec.
type Clause struct {
	Name   string      `json:"name"`
	Field  string      `json:"field,omitempty"`
	Fields []string    `json:"fields,omitempty"` // ModeAnyField only
	Mode   Mode        `json:"mode"`
	Type   ValueType   `json:"type,omitempty"` // ModeRange only; inferred from the bounds when empty
	Value  interface{} `json:"value,omitempty"`
}

// FilterSpec is the ordered list of clauses of a view. Clauses are AND-ed.
type FilterSpec []Clause

// Predicate decides whether a record belongs to a view.
type Predicate func(Record) bool

// IsWildcard reports whether c contributes no constraint.
// nil, blank strings and empty lists are wildcards for every mode,
// "all" is one for exact clauses and a Range without bounds is one for range clauses.
func (c Clause) IsWildcard() bool {
	switch v := c.Value.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(v)
		return s == "" || (c.Mode == ModeExact && strings.EqualFold(s, Wildcard))
	case Range:
		return isBlank(v.Min) && isBlank(v.Max)
	case *Range:
		return v == nil || (isBlank(v.Min) && isBlank(v.Max))
	}
	if c.Mode == ModeExact {
		return len(c.wanted()) == 0
	}
	return isBlank(c.Value)
}

// Get returns the clause named name.
func (fs FilterSpec) Get(name string) (Clause, bool) {
	for _, c := range fs {
		if c.Name == name {
			return c, true
		}
	}
	return Clause{}, false
}

// With returns a copy of fs where the clause named name holds value.
// fs is returned unchanged (as a copy) when it has no such clause.
func (fs FilterSpec) With(name string, value interface{}) FilterSpec {
	out := make(FilterSpec, len(fs))
	copy(out, fs)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
		}
	}
	return out
}

// And returns a copy of fs with extra appended.
func (fs FilterSpec) And(extra ...Clause) FilterSpec {
	out := make(FilterSpec, 0, len(fs)+len(extra))
	out = append(out, fs...)
	return append(out, extra...)
}

// Cleared returns a copy of fs where every clause is a wildcard.
func (fs FilterSpec) Cleared() FilterSpec {
	out := make(FilterSpec, len(fs))
	copy(out, fs)
	for i := range out {
		out[i].Value = nil
	}
	return out
}

// Active returns the clauses that constrain the view.
func (fs FilterSpec) Active() FilterSpec {
	var out FilterSpec
	for _, c := range fs {
		if !c.IsWildcard() {
			out = append(out, c)
		}
	}
	return out
}

// BuildPredicate combines the non-wildcard clauses of filters with a logical AND.
func BuildPredicate(filters FilterSpec) Predicate {
	preds := make([]Predicate, 0, len(filters))
	for _, c := range filters {
		if c.IsWildcard() {
			continue
		}
		preds = append(preds, c.predicate())
	}
	return func(r Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func (c Clause) predicate() Predicate {
	switch c.Mode {
	case ModeContains:
		return containsAny([]string{c.Field}, c.Value)
	case ModeAnyField:
		fields := c.Fields
		if len(fields) == 0 && c.Field != "" {
			fields = []string{c.Field}
		}
		return containsAny(fields, c.Value)
	case ModeRange:
		return c.rangePredicate()
	case ModeExact:
		return c.exactPredicate()
	}
	// unknown modes match nothing
	return func(Record) bool { return false }
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func containsAny(fields []string, value interface{}) Predicate {
	s, ok := stringOf(value)
	if !ok {
		return func(Record) bool { return false }
	}
	term := fold(strings.TrimSpace(s))
	return func(r Record) bool {
		for _, f := range fields {
			v, _ := r.Lookup(f) // missing fields are empty strings
			if s, ok := stringOf(v); ok && strings.Contains(fold(s), term) {
				return true
			}
		}
		return false
	}
}

// wanted returns the non-wildcard values of an exact clause.
func (c Clause) wanted() []interface{} {
	vals, ok := asList(c.Value)
	if !ok {
		vals = []interface{}{c.Value}
	}
	out := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok && (strings.TrimSpace(s) == "" || strings.EqualFold(strings.TrimSpace(s), Wildcard)) {
			continue
		}
		if v == nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (c Clause) exactPredicate() Predicate {
	wanted := c.wanted()
	return func(r Record) bool {
		v, ok := r.Lookup(c.Field)
		if !ok || v == nil {
			return false
		}
		got, isList := asList(v)
		if !isList {
			got = []interface{}{v}
		}
		for _, g := range got {
			for _, w := range wanted {
				if equalValues(g, w) {
					return true
				}
			}
		}
		return false
	}
}

// equalValues compares a and b numerically when either side is a number,
// and by string form otherwise.
func equalValues(a, b interface{}) bool {
	if isNumberKind(a) || isNumberKind(b) {
		// integers compare exactly, floats only when a side is fractional
		if ia, ok := integerOf(a); ok {
			if ib, ok := integerOf(b); ok {
				return ia.Cmp(ib) == 0
			}
		}
		fa, okA := numberOf(a)
		fb, okB := numberOf(b)
		if okA && okB {
			return fa == fb
		}
	}
	sa, okA := stringOf(a)
	sb, okB := stringOf(b)
	return okA && okB && sa == sb
}

func isNumberKind(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return true
	}
	return false
}

func (c Clause) bounds() (lo, hi interface{}) {
	switch v := c.Value.(type) {
	case Range:
		return v.Min, v.Max
	case *Range:
		if v != nil {
			return v.Min, v.Max
		}
	}
	return nil, nil
}

func (c Clause) rangePredicate() Predicate {
	lo, hi := c.bounds()
	typ := c.Type
	if typ == "" {
		typ = inferRangeType(lo, hi)
	}

	if typ == TypeNumber {
		min, hasMin := numberOf(lo)
		max, hasMax := numberOf(hi)
		return func(r Record) bool {
			v, _ := r.Lookup(c.Field)
			n, ok := numberOf(v)
			if !ok {
				return false
			}
			return (!hasMin || n >= min) && (!hasMax || n <= max)
		}
	}

	from, hasFrom := timeOf(lo)
	to, hasTo := timeOf(hi)
	if hasTo && isDateOnly(hi) {
		// a bare date upper bound includes the whole day
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return func(r Record) bool {
		v, _ := r.Lookup(c.Field)
		t, ok := timeOf(v)
		if !ok {
			return false
		}
		return (!hasFrom || !t.Before(from)) && (!hasTo || !t.After(to))
	}
}

func inferRangeType(lo, hi interface{}) ValueType {
	for _, b := range []interface{}{lo, hi} {
		if isBlank(b) {
			continue
		}
		if _, ok := numberOf(b); !ok {
			return TypeDate
		}
	}
	return TypeNumber
}
