package utils

// Pagination is the envelope every list endpoint returns alongside its items.
// Total and TotalPages always describe the full filtered set, not the page.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(total, page, limit int) Pagination {
	totalPages := 0

	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// Offset converts a 1-based page into a row offset.
func Offset(page, limit int) int {
	return (page - 1) * limit
}

// PageDefaults clamps page/limit onto their bounds, applying defaults for
// zero values (unset query params).
func PageDefaults(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return page, limit
}

func BuildUsersListCacheKey() string {
	return "users:list:v1"
}
