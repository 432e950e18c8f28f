// Package portal declares the list views of the university portal and serves them
// through the view pipeline.
package portal

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core/user"
	"github.com/trezcool/chuo/core/view"
)

var (
	// errors
	ErrUnknownCollection = errors.New("collection not found")
	ErrForbidden         = errors.New("permission denied")
	ErrSourceUnavailable = errors.New("records are temporarily unavailable")
)

// SearchClause is the name of the free-text search clause of every collection.
const SearchClause = "search"

type (
	// Field is a record field a collection exposes to filters or sorts.
	Field struct {
		Name     string         `json:"name"`
		Label    string         `json:"label"`
		Type     view.ValueType `json:"type"`
		Filter   view.Mode      `json:"filter,omitempty"` // empty: not filterable
		Sortable bool           `json:"sortable"`
		Ranks    map[string]int `json:"ranks,omitempty"`
	}

	// Collection declares one list view: where its records come from, who may list them
	// and which filters and sorts apply.
	Collection struct {
		Name        string        `json:"name"`
		Title       string        `json:"title"`
		Endpoint    string        `json:"-"`
		Fields      []Field       `json:"fields"`
		Search      []string      `json:"search"`
		DefaultSort view.SortSpec `json:"default_sort"`
		Roles       []string      `json:"-"`

		// Scope returns the clauses restricting the collection to what session may see.
		Scope func(session user.Session) view.FilterSpec `json:"-"`
	}
)

// Field returns the declaration of the field named name.
func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SortFor returns the sort of field name in direction dir, carrying the field type and ranks.
func (c Collection) SortFor(name string, dir view.Direction) (view.SortSpec, bool) {
	f, ok := c.Field(name)
	if !ok || !f.Sortable {
		return view.SortSpec{}, false
	}
	return view.SortSpec{Field: f.Name, Direction: dir, Type: f.Type, Ranks: f.Ranks}, true
}

// Allows reports whether session may list the collection.
func (c Collection) Allows(session user.Session) bool {
	return session.HasAnyRole(c.Roles...)
}

// ScopeFor returns the clauses scoping the collection to session.
func (c Collection) ScopeFor(session user.Session) view.FilterSpec {
	if c.Scope == nil {
		return nil
	}
	return c.Scope(session)
}

var registry = make(map[string]Collection)

// register adds c to the known collections. It panics on duplicates.
func register(c Collection) Collection {
	if _, dup := registry[c.Name]; dup {
		panic("portal: duplicate collection " + c.Name)
	}
	registry[c.Name] = c
	return c
}

// Lookup returns the collection named name.
func Lookup(name string) (Collection, error) {
	c, ok := registry[name]
	if !ok {
		return Collection{}, errors.Wrap(ErrUnknownCollection, name)
	}
	return c, nil
}

// All returns the known collections sorted by name.
func All() []Collection {
	all := make([]Collection, 0, len(registry))
	for _, c := range registry {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Visible returns the collections session may list.
func Visible(session user.Session) []Collection {
	var out []Collection
	for _, c := range All() {
		if c.Allows(session) {
			out = append(out, c)
		}
	}
	return out
}
