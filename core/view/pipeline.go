package view

import "sort"

// ViewState is the combination of filters, sort and pagination position of one list view.
// It is a value: transitions return a new state and never touch the receiver.
type ViewState struct {
	Filters  FilterSpec `json:"filters"`
	Sort     SortSpec   `json:"sort"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// Result is the filtered and sorted view of a snapshot, before pagination.
type Result struct {
	Visible []Record
	Total   int
}

// ComputeView filters records with state.Filters and stable-sorts the survivors with state.Sort.
// records is never modified.
func ComputeView(records []Record, state ViewState) Result {
	match := BuildPredicate(state.Filters)
	visible := make([]Record, 0, len(records))
	for _, r := range records {
		if match(r) {
			visible = append(visible, r)
		}
	}

	if state.Sort.Field != "" {
		cmp := BuildComparator(state.Sort)
		sort.SliceStable(visible, func(i, j int) bool {
			return cmp(visible[i], visible[j]) < 0
		})
	}
	return Result{Visible: visible, Total: len(visible)}
}

// Apply computes the view of records and slices out the page state points to.
func Apply(records []Record, state ViewState) Page {
	res := ComputeView(records, state)
	return Paginate(res.Visible, state.Page, state.PageSize)
}

// WithFilter sets the value of the clause named name and goes back to the first page.
func (s ViewState) WithFilter(name string, value interface{}) ViewState {
	s.Filters = s.Filters.With(name, value)
	s.Page = 1
	return s
}

// WithSort replaces the active sort and goes back to the first page.
func (s ViewState) WithSort(spec SortSpec) ViewState {
	s.Filters = s.Filters.And()
	s.Sort = spec
	s.Page = 1
	return s
}

// ClearFilters resets every clause to the wildcard and goes back to the first page.
func (s ViewState) ClearFilters() ViewState {
	s.Filters = s.Filters.Cleared()
	s.Page = 1
	return s
}

// WithPage moves to page n, clamped into [1, totalPages].
func (s ViewState) WithPage(n, totalPages int) ViewState {
	s.Filters = s.Filters.And()
	s.Page = ClampPage(n, totalPages)
	return s
}

// NextPage moves one page forward, staying on the last page.
func (s ViewState) NextPage(totalPages int) ViewState {
	return s.WithPage(s.Page+1, totalPages)
}

// PrevPage moves one page back, staying on the first page.
func (s ViewState) PrevPage() ViewState {
	return s.WithPage(s.Page-1, s.Page)
}
