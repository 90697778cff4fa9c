package user

// Page is a bounded slice of users ordered by id plus pagination metadata.
type Page struct {
	Items []User // Users on this page
	Total int64  // Total number of records
	Page  int64  // Current page number (1-based)
	Size  int64  // Maximum number of records per page
	Pages int64  // Total number of pages
}

// NewPage creates a new Page instance with calculated total pages.
func NewPage(items []User, total, page, size int64) *Page {
	var pages int64
	if size > 0 {
		pages = (total + size - 1) / size
	}

	return &Page{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
		Pages: pages,
	}
}

// Offset returns the number of records preceding the given page.
func Offset(page, size int64) int64 {
	if page < 1 {
		return 0
	}
	return (page - 1) * size
}
