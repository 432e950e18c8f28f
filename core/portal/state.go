package portal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/view"
)

// Query parameters understood by StateFromQuery, besides the field filters.
const (
	ParamSearch   = "search"
	ParamOrdering = "ordering"
	ParamPage     = "page"
	ParamPageSize = "page_size"

	suffixFrom = "_from"
	suffixTo   = "_to"
)

// DefaultState is the state of the collection when its view mounts:
// every filter is a wildcard, the default sort applies and the first page is shown.
func (c Collection) DefaultState(pageSize int) view.ViewState {
	filters := make(view.FilterSpec, 0, len(c.Fields)+1)
	if len(c.Search) > 0 {
		filters = append(filters, view.Clause{Name: SearchClause, Mode: view.ModeAnyField, Fields: c.Search})
	}
	for _, f := range c.Fields {
		if f.Filter == "" {
			continue
		}
		cl := view.Clause{Name: f.Name, Field: f.Name, Mode: f.Filter}
		if f.Filter == view.ModeRange {
			cl.Type = f.Type
		}
		filters = append(filters, cl)
	}

	sortSpec := c.DefaultSort
	if s, ok := c.SortFor(sortSpec.Field, sortSpec.Direction); ok {
		sortSpec = s
	}
	if pageSize < 1 {
		pageSize = view.DefaultPageSize
	}
	return view.ViewState{Filters: filters, Sort: sortSpec, Page: 1, PageSize: pageSize}
}

// StateFromQuery builds the state of the collection from URL query parameters:
//	search=text                   free-text search
//	<field>=v[&<field>=w]         exact filters (any of) or contains filters
//	<field>_from=a&<field>_to=b   inclusive range filters
//	ordering=[-]field             single sort, "-" for descending
//	page=n&page_size=m
// Unknown parameters are ignored.
func (c Collection) StateFromQuery(q url.Values, pageSize int) (view.ViewState, error) {
	state := c.DefaultState(pageSize)

	filters := state.Filters
	for _, cl := range state.Filters {
		switch {
		case cl.Name == SearchClause:
			filters = filters.With(cl.Name, core.CleanString(q.Get(ParamSearch)))
		case cl.Mode == view.ModeRange:
			rng := view.Range{}
			if v := strings.TrimSpace(q.Get(cl.Field + suffixFrom)); v != "" {
				rng.Min = v
			}
			if v := strings.TrimSpace(q.Get(cl.Field + suffixTo)); v != "" {
				rng.Max = v
			}
			filters = filters.With(cl.Name, rng)
		case cl.Mode == view.ModeExact:
			if vals := cleanValues(q[cl.Field]); len(vals) > 0 {
				filters = filters.With(cl.Name, vals)
			}
		default:
			filters = filters.With(cl.Name, core.CleanString(q.Get(cl.Field)))
		}
	}
	state.Filters = filters

	if orderings := q[ParamOrdering]; len(orderings) > 0 {
		if len(orderings) > 1 || strings.Contains(orderings[0], ",") {
			return view.ViewState{}, core.NewFieldValidationError(ParamOrdering, "only one ordering field is supported")
		}
		if ordering := strings.TrimSpace(orderings[0]); ordering != "" {
			field, dir := view.ParseOrdering(ordering)
			s, ok := c.SortFor(field, dir)
			if !ok {
				return view.ViewState{}, core.NewFieldValidationError(ParamOrdering, fmt.Sprintf("cannot order %s by %q", c.Name, field))
			}
			state.Sort = s
		}
	}

	var err error
	if state.Page, err = intParam(q, ParamPage, 1); err != nil {
		return view.ViewState{}, err
	}
	if state.PageSize, err = intParam(q, ParamPageSize, state.PageSize); err != nil {
		return view.ViewState{}, err
	}
	return state, nil
}

// cleanValues trims vals and drops the blank ones.
func cleanValues(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = core.CleanString(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func intParam(q url.Values, name string, def int) (int, error) {
	s := strings.TrimSpace(q.Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, core.NewFieldValidationError(name, name+" must be a number")
	}
	return n, nil
}
