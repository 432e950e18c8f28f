package view

// DefaultPageSize is used when a page size smaller than 1 is requested.
const DefaultPageSize = 10

// Page is one page of a view.
type Page struct {
	Items       []Record `json:"items"`
	CurrentPage int      `json:"current_page"`
	TotalPages  int      `json:"total_pages"`
	PageSize    int      `json:"page_size"`
	TotalItems  int      `json:"total_items"`
}

// TotalPages returns the number of pages needed for total items, never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total-1)/pageSize + 1
}

// ClampPage clamps page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate slices the requested page out of visible.
// Out of range pages are clamped and Page.CurrentPage reports the page actually returned.
func Paginate(visible []Record, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(visible)
	totalPages := TotalPages(total, pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	end := total
	if total-start > pageSize {
		end = start + pageSize
	}
	items := make([]Record, end-start)
	copy(items, visible[start:end])

	return Page{
		Items:       items,
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    pageSize,
		TotalItems:  total,
	}
}
