package filters

import (
	"errors"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"
)

type Filters struct {
	Page         int    `schema:"page" validate:"gte=1"`
	PageSize     int    `schema:"page_size" validate:"gte=1,lte=100"`
	Sort         string `schema:"sort"`
	SortSafelist []string `schema:"-" validate:"-"`
}

func (f *Filters) Limit() int {
	return f.PageSize
}

func (f *Filters) Offset() int {
	return (f.Page - 1) * f.PageSize
}

func (f *Filters) SortColumn() string {
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return s
		}
	}
	panic(errors.New("Unknown sort column: " + f.Sort))
}

func (f *Filters) ValidSort() bool {
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return true
		}
	}
	return false
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}

// Metadata describes a page of results.
type Metadata struct {
	CurrentPage  int `json:"current_page"`
	PageSize     int `json:"page_size"`
	FirstPage    int `json:"first_page"`
	LastPage     int `json:"last_page"`
	TotalRecords int `json:"total_records"`
}

func CalculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     (totalRecords + pageSize - 1) / pageSize,
		TotalRecords: totalRecords,
	}
}

// TitleFilters carries the catalog query parameters decoded from the URL.
type TitleFilters struct {
	Year     int32  `schema:"year" validate:"omitempty,gte=1"`
	Name     string `schema:"name"`
	Category string `schema:"category" validate:"omitempty,slug"`
	Genre    string `schema:"genre" validate:"omitempty,slug"`
	Filters
}

// SearchFilters is the list shape shared by categories, genres and users.
type SearchFilters struct {
	Search string `schema:"search"`
	Filters
}
