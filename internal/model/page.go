package model

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 50

	// MaxPageNumber keeps Skip()+Size within int range.
	MaxPageNumber = math.MaxInt / MaxPageSize
)

type SortOrder string

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"
)

// ParseSortOrder 默认降序
func ParseSortOrder(s string) SortOrder {
	if s == string(SortAsc) {
		return SortAsc
	}
	return SortDesc
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	return p
}

// Skip 需在 Normalize 之后调用
func (p Page) Skip() int {
	return (p.Number - 1) * p.Size
}

type PaginatedResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
}

// Pagination is the envelope of the public community listing.
type Pagination[T any] struct {
	PageIndex int   `json:"pageIndex"`
	PageSize  int   `json:"pageSize"`
	Count     int64 `json:"count"`
	Data      []T   `json:"data"`
}

// PostQuery filters a community's post listing.
type PostQuery struct {
	CommunityID string
	Search      string
	Sort        SortOrder
	Page        Page
}
