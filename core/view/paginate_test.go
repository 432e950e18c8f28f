package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func numbered(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{"id": float64(i + 1)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name           string
		n              int
		page, pageSize int
		wantPage       int
		wantPages      int
		wantSize       int
		wantIDs        []float64
	}{
		{name: "empty", n: 0, page: 1, pageSize: 10, wantPage: 1, wantPages: 1, wantSize: 10, wantIDs: []float64{}},
		{name: "empty, page 3", n: 0, page: 3, pageSize: 10, wantPage: 1, wantPages: 1, wantSize: 10, wantIDs: []float64{}},
		{name: "first", n: 12, page: 1, pageSize: 5, wantPage: 1, wantPages: 3, wantSize: 5, wantIDs: []float64{1, 2, 3, 4, 5}},
		{name: "last, partial", n: 12, page: 3, pageSize: 5, wantPage: 3, wantPages: 3, wantSize: 5, wantIDs: []float64{11, 12}},
		{name: "exact fit", n: 10, page: 2, pageSize: 5, wantPage: 2, wantPages: 2, wantSize: 5, wantIDs: []float64{6, 7, 8, 9, 10}},
		{name: "page 0", n: 12, page: 0, pageSize: 10, wantPage: 1, wantPages: 2, wantSize: 10, wantIDs: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		{name: "page 9999", n: 12, page: 9999, pageSize: 10, wantPage: 2, wantPages: 2, wantSize: 10, wantIDs: []float64{11, 12}},
		{name: "negative page", n: 3, page: -4, pageSize: 2, wantPage: 1, wantPages: 2, wantSize: 2, wantIDs: []float64{1, 2}},
		{name: "page size 0", n: 12, page: 2, pageSize: 0, wantPage: 2, wantPages: 2, wantSize: DefaultPageSize, wantIDs: []float64{11, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(numbered(tt.n), tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, got.CurrentPage)
			assert.Equal(t, tt.wantPages, got.TotalPages)
			assert.Equal(t, tt.wantSize, got.PageSize)
			assert.Equal(t, tt.n, got.TotalItems)
			assert.Equal(t, tt.wantIDs, ids(got.Items))
			assert.NotNil(t, got.Items)
		})
	}
}

func TestPaginate_coverage(t *testing.T) {
	for n := 0; n <= 23; n++ {
		visible := numbered(n)
		for size := 1; size <= 7; size++ {
			var all []float64
			pages := Paginate(visible, 1, size).TotalPages
			for p := 1; p <= pages; p++ {
				all = append(all, ids(Paginate(visible, p, size).Items)...)
			}
			if all == nil {
				all = []float64{}
			}
			assert.Equal(t, ids(visible), all, "n=%d size=%d", n, size)
		}
	}
}

func TestPaginate_doesNotAlias(t *testing.T) {
	visible := numbered(3)
	page := Paginate(visible, 1, 2)
	page.Items[0] = Record{"id": 99.0}
	assert.Equal(t, 1.0, visible[0]["id"])
}
