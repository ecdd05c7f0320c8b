package lookup

import "github.com/artpar/lookup/pkg/paging"

// PaginatedResult is one page of records with its pagination metadata.
type PaginatedResult struct {
	Data  []OutputRecord `json:"data"`
	Meta  paging.Meta    `json:"meta"`
	Links *paging.Links  `json:"links,omitempty"`
}

// NewPaginatedResult builds a page from records and the pagination state.
func NewPaginatedResult(records []OutputRecord, p *paging.Pagination) PaginatedResult {
	if records == nil {
		records = []OutputRecord{}
	}
	return PaginatedResult{Data: records, Meta: p.Meta(), Links: p.Links()}
}

// CatalogEntry describes one registered entity without fetching records.
type CatalogEntry struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Table string `json:"table"`
}
