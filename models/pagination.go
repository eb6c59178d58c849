package models

import "strconv"

const maxPageLimit = 100

// PageRequest, ?page=&limit= query parametreleri. Page 1'den başlar.
type PageRequest struct {
	Page  int
	Limit int
}

// ParsePageRequest, query değerlerini okur; geçersiz/eksik değerler varsayılana düşer.
func ParsePageRequest(rawPage, rawLimit string, defaultLimit int) PageRequest {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(rawLimit)
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset, SQL OFFSET değeri.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination, sayfalı yanıtlardaki meta bilgisi.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination, toplam kayıt sayısından meta üretir.
func NewPagination(p PageRequest, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
