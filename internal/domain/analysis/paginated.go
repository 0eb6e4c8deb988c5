package analysis

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// NewPage builds a PaginatedResult, computing the page count.
func NewPage[T any](data []T, page, pageSize int, total int64) PaginatedResult[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginatedResult[T]{Data: data, Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}
