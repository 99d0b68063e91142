package core

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest holds the "page" & "page_size" query parameters.
type PageRequest struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

// Clean applies defaults and limits.
func (pr *PageRequest) Clean() {
	if pr.Page <= 0 {
		pr.Page = 1
	}
	switch {
	case pr.PageSize > MaxPageSize:
		pr.PageSize = MaxPageSize
	case pr.PageSize <= 0:
		pr.PageSize = DefaultPageSize
	}
}

// Bounds returns the [start, end) slice bounds of the requested page among `total` rows.
func (pr PageRequest) Bounds(total int) (int, int) {
	pr.Clean()
	if total <= 0 || pr.Page-1 > total/pr.PageSize {
		return total, total
	}
	start := (pr.Page - 1) * pr.PageSize
	if start > total {
		start = total
	}
	end := start + pr.PageSize
	if end > total {
		end = total
	}
	return start, end
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalRows  int `json:"total_rows"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(pr PageRequest, total int) Pagination {
	pr.Clean()
	pages := 0
	if total > 0 {
		pages = (total + pr.PageSize - 1) / pr.PageSize
	}
	return Pagination{
		Page:       pr.Page,
		PageSize:   pr.PageSize,
		TotalRows:  total,
		TotalPages: pages,
	}
}
