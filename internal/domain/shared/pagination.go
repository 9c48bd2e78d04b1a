package shared

// Pagination defaults shared by every list query.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// NormalizePage clamps page and page size to sane values.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset returns the row offset for a normalized page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
