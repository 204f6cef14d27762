package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// PageRequest represents pagination request parameters
type PageRequest struct {
	Page     int64 `form:"page" json:"page"`
	PageSize int64 `form:"limit" json:"limit"`
}

// DefaultPageRequest returns a PageRequest with default values
func DefaultPageRequest() PageRequest {
	return PageRequest{
		Page:     1,
		PageSize: defaultPageSize,
	}
}

// Pagination is the paging block returned alongside list data.
type Pagination struct {
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int64 `json:"totalPages"`
	CurrentPage  int64 `json:"currentPage"`
	Limit        int64 `json:"limit"`
}

// PageResponse represents a paginated response
type PageResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPageResponse creates a new paginated response
func NewPageResponse[T any](data []T, page, pageSize, totalRecords int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}

	var totalPages int64
	if pageSize > 0 {
		totalPages = (totalRecords + pageSize - 1) / pageSize
	}

	return PageResponse[T]{
		Data: data,
		Pagination: Pagination{
			TotalRecords: totalRecords,
			TotalPages:   totalPages,
			CurrentPage:  page,
			Limit:        pageSize,
		},
	}
}

// ParsePagination reads page and limit from the query string. pageSize is
// accepted as an alias for limit.
func ParsePagination(c *gin.Context) PageRequest {
	req := DefaultPageRequest()

	if page, err := strconv.ParseInt(c.Query("page"), 10, 64); err == nil && page > 0 {
		req.Page = page
	}

	rawLimit := c.Query("limit")
	if rawLimit == "" {
		rawLimit = c.Query("pageSize")
	}
	if pageSize, err := strconv.ParseInt(rawLimit, 10, 64); err == nil && pageSize > 0 {
		req.PageSize = min(pageSize, maxPageSize)
	}

	return req
}

// GetOffset calculates the offset for database queries
func (p PageRequest) GetOffset() int64 {
	return (p.Page - 1) * p.PageSize
}

// GetLimit returns the page size
func (p PageRequest) GetLimit() int64 {
	return p.PageSize
}
