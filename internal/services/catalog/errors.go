package catalog

import "errors"

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrGenreNotFound       = errors.New("genre not found")
	ErrTitleNotFound       = errors.New("title not found")
	ErrSlugTaken           = errors.New("slug is already in use")
	ErrUnknownCategorySlug = errors.New("unknown category slug")
	ErrUnknownGenreSlug    = errors.New("unknown genre slug")
)
