package service

import "math"

const (
	// MaxPageLimit caps the page size a client may request.
	MaxPageLimit = 100
	// MaxPage bounds the page number so the row offset stays within int32.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// Pagination describes a page of a listing.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

// PageRequest is a 1-based page number and size as received from clients.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) normalize(defaultLimit int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	p.Limit = min(p.Limit, MaxPageLimit)
	p.Page = min(p.Page, MaxPage)
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.Limit
}

func newPagination(p PageRequest, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Current: p.Page, Pages: pages, Total: total}
}
