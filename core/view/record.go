// Package view turns a snapshot of records into the filtered, sorted and paginated
// list a portal page renders.
//
// Every function in this package is pure and total: records are never mutated, and
// missing or malformed field data degrades silently (it fails predicates and sorts last)
// instead of producing errors.
package view

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Record is one item of a list (a complaint, a student, an announcement...) as decoded from JSON.
type Record map[string]interface{}

// ValueType is the declared type of a sorted or range-filtered field.
type ValueType string

const (
	TypeString ValueType = "string"
	TypeNumber ValueType = "number"
	TypeDate   ValueType = "date"
)

// Lookup returns the value of field in r.
// A dotted name ("assigned_to.name") walks nested objects unless r has a literal key with that name.
func (r Record) Lookup(field string) (interface{}, bool) {
	if r == nil || field == "" {
		return nil, false
	}
	if v, ok := r[field]; ok {
		return v, true
	}
	if !strings.Contains(field, ".") {
		return nil, false
	}

	var cur interface{} = map[string]interface{}(r)
	for _, part := range strings.Split(field, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}

func asList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []string:
		out := make([]interface{}, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// stringOf returns the string form of v; nil is "".
// ok is false for objects, which have no meaningful string form.
func stringOf(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	case map[string]interface{}, Record:
		return "", false
	}
	if l, ok := asList(v); ok {
		parts := make([]string, 0, len(l))
		for _, e := range l {
			if s, ok := stringOf(e); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " "), true
	}
	s, err := cast.ToStringE(v)
	return s, err == nil
}

// numberOf coerces v to a finite-or-infinite, non-NaN float.
// Booleans, blank strings, dates and objects are not numbers.
func numberOf(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil, bool, time.Time, map[string]interface{}, Record, []interface{}, []string:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		v = t
	case json.Number:
		v = t.String()
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// integerOf returns the exact value of v when it is an integral number
// (a Go integer, an integral float, or a json.Number or string holding an integer).
func integerOf(v interface{}) (*big.Int, bool) {
	switch t := v.(type) {
	case int:
		return big.NewInt(int64(t)), true
	case int8:
		return big.NewInt(int64(t)), true
	case int16:
		return big.NewInt(int64(t)), true
	case int32:
		return big.NewInt(int64(t)), true
	case int64:
		return big.NewInt(t), true
	case uint:
		return new(big.Int).SetUint64(uint64(t)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(t)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(t)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(t)), true
	case uint64:
		return new(big.Int).SetUint64(t), true
	case float32:
		return integralFloat(float64(t))
	case float64:
		return integralFloat(t)
	case json.Number:
		return integerString(t.String())
	case string:
		return integerString(t)
	}
	return nil, false
}

func integralFloat(f float64) (*big.Int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, false
	}
	n, _ := new(big.Float).SetFloat64(f).Int(nil)
	return n, true
}

func integerString(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return nil, false // not a number at all
	}
	return new(big.Int).SetString(s, 10)
}

// timeOf parses v to an instant. Only strings and time.Time values are dates.
func timeOf(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return time.Time{}, false
		}
		tm, err := cast.ToTimeE(t)
		if err != nil || tm.IsZero() {
			return time.Time{}, false
		}
		return tm, true
	}
	return time.Time{}, false
}

// isDateOnly reports whether v is a bare "YYYY-MM-DD" date.
func isDateOnly(v interface{}) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	return err == nil
}

func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	if l, ok := asList(v); ok {
		return len(l) == 0
	}
	return false
}
