package params

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

type QueryParams struct {
	PageNumber int
	PageSize   int
	Search     string
}

// NewQueryParams extracts pagination and search parameters from the request.
func NewQueryParams(c echo.Context) *QueryParams {
	p := &QueryParams{
		PageNumber: DefaultPageNumber,
		PageSize:   DefaultPageSize,
		Search:     c.QueryParam("search"),
	}

	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil && page > 0 {
		p.PageNumber = page
	}
	if size, err := strconv.Atoi(c.QueryParam("limit")); err == nil && size > 0 {
		p.PageSize = size
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}

	return p
}
