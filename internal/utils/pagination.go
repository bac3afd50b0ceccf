// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Paging is the pagination summary attached to list envelopes.
type Paging struct {
	Page  int   `json:"page"  example:"1"`
	Limit int   `json:"limit" example:"20"`
	Total int64 `json:"total" example:"42"`
	Pages int   `json:"pages" example:"3"`
}

// Clamp bounds page and limit to sane values and returns the row offset.
//
// Example:
//
//	p, l, off := utils.Clamp(0, 500) // 1, 100, 0
//	p, l, off = utils.Clamp(3, 10)   // 3, 10, 20
func Clamp(page, limit int) (int, int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit, (page - 1) * limit
}

// NewPaging builds the summary for a page of a result set of size total.
func NewPaging(page, limit int, total int64) *Paging {
	page, limit, _ = Clamp(page, limit)
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Paging{Page: page, Limit: limit, Total: total, Pages: pages}
}
