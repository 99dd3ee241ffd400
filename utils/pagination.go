package utils

// Pagination describes one page of a list response.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// NewPagination computes total pages and clamps the requested page into
// [1, totalPages]. A request past the end lands on the last page instead of
// producing an empty out-of-range page.
func NewPagination(totalItems int64, pageSize, requestedPage int) Pagination {
	if pageSize < 1 {
		pageSize = 10
	}

	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	page := requestedPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
	}
}

// Offset returns the row offset for the current page.
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.PageSize
}
