package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params holds pagination parameters extracted from a request.
// Pages are 1-indexed.
type Params struct {
	Page     int
	PageSize int
}

// FromContext extracts pagination parameters from the echo context.
// Out-of-range values are clamped rather than rejected.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	size, _ := strconv.Atoi(c.QueryParam("page_size"))
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	return Params{Page: page, PageSize: size}
}

// Limit returns the row limit for SQL queries.
func (p Params) Limit() int {
	return p.PageSize
}

// Offset returns the row offset for SQL queries.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset()+p.PageSize < total
}

// Response wraps a paginated API response.
type Response struct {
	Data     interface{} `json:"data"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	HasMore  bool        `json:"has_more"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:     data,
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasMore:  p.HasNext(total),
	}
}
