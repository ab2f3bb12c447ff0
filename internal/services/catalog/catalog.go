package catalog

import (
	"context"
	"errors"
	"log/slog"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/storage"
)

type CategoriesStorage interface {
	Insert(ctx context.Context, name, slug string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context, search string, f filters.Filters) ([]models.Category, int, error)
	Delete(ctx context.Context, slug string) error
}

type GenresStorage interface {
	Insert(ctx context.Context, name, slug string) (*models.Genre, error)
	GetBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error)
	List(ctx context.Context, search string, f filters.Filters) ([]models.Genre, int, error)
	Delete(ctx context.Context, slug string) error
}

type TitlesStorage interface {
	Insert(ctx context.Context, title *models.Title, genreIDs []int64) (*models.Title, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	List(ctx context.Context, f filters.TitleFilters) ([]models.Title, int, error)
	Update(ctx context.Context, title *models.Title, genreIDs []int64) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
	GenresForTitle(ctx context.Context, titleID int64) ([]models.Genre, error)
	GenresForTitles(ctx context.Context, titleIDs []int64) (map[int64][]models.Genre, error)
	CategoriesByID(ctx context.Context, ids []int64) (map[int64]models.Category, error)
}

// RatingsStorage computes review score aggregates. A nil average means the
// title has no reviews yet.
type RatingsStorage interface {
	AverageScore(ctx context.Context, titleID int64) (*float64, error)
	AverageScores(ctx context.Context, titleIDs []int64) (map[int64]float64, error)
}

type CatalogService struct {
	log        *slog.Logger
	categories CategoriesStorage
	genres     GenresStorage
	titles     TitlesStorage
	ratings    RatingsStorage
}

func New(
	log *slog.Logger,
	categories CategoriesStorage,
	genres GenresStorage,
	titles TitlesStorage,
	ratings RatingsStorage,
) *CatalogService {
	return &CatalogService{
		log:        log,
		categories: categories,
		genres:     genres,
		titles:     titles,
		ratings:    ratings,
	}
}

// TitleDetail is the expanded read representation: nested category and
// genre objects plus the computed rating.
type TitleDetail struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Year        int32            `json:"year"`
	Description string           `json:"description"`
	Rating      *float64         `json:"rating"`
	Category    *models.Category `json:"category"`
	Genres      []models.Genre   `json:"genre"`
}

func (s *CatalogService) ListCategories(ctx context.Context, search string, f filters.Filters) ([]models.Category, filters.Metadata, error) {
	categories, total, err := s.categories.List(ctx, search, f)
	if err != nil {
		s.log.Error(err.Error(), "op", "catalog.CatalogService.ListCategories")
		return nil, filters.Metadata{}, err
	}
	return categories, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	const op = "catalog.CatalogService.CreateCategory"
	log := s.log.With("op", op, "slug", slug)
	category, err := s.categories.Insert(ctx, name, slug)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("category slug already exists")
			return nil, ErrSlugTaken
		}
		log.Error(err.Error())
		return nil, err
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, slug string) error {
	const op = "catalog.CatalogService.DeleteCategory"
	if err := s.categories.Delete(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCategoryNotFound
		}
		s.log.Error(err.Error(), "op", op)
		return err
	}
	return nil
}

func (s *CatalogService) ListGenres(ctx context.Context, search string, f filters.Filters) ([]models.Genre, filters.Metadata, error) {
	genres, total, err := s.genres.List(ctx, search, f)
	if err != nil {
		s.log.Error(err.Error(), "op", "catalog.CatalogService.ListGenres")
		return nil, filters.Metadata{}, err
	}
	return genres, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *CatalogService) CreateGenre(ctx context.Context, name, slug string) (*models.Genre, error) {
	const op = "catalog.CatalogService.CreateGenre"
	log := s.log.With("op", op, "slug", slug)
	genre, err := s.genres.Insert(ctx, name, slug)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("genre slug already exists")
			return nil, ErrSlugTaken
		}
		log.Error(err.Error())
		return nil, err
	}
	return genre, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, slug string) error {
	const op = "catalog.CatalogService.DeleteGenre"
	if err := s.genres.Delete(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrGenreNotFound
		}
		s.log.Error(err.Error(), "op", op)
		return err
	}
	return nil
}

type TitleParams struct {
	Name        *string
	Year        *int32
	Description *string
	Category    *string
	Genres      []string
}

func (s *CatalogService) CreateTitle(ctx context.Context, params TitleParams) (*TitleDetail, error) {
	const op = "catalog.CatalogService.CreateTitle"
	log := s.log.With("op", op, "name", params.Name)
	title := &models.Title{}
	if params.Name != nil {
		title.Name = *params.Name
	}
	if params.Year != nil {
		title.Year = *params.Year
	}
	if params.Description != nil {
		title.Description = *params.Description
	}
	categoryID, err := s.resolveCategory(ctx, params.Category)
	if err != nil {
		return nil, err
	}
	title.CategoryID = categoryID
	genreIDs, err := s.resolveGenres(ctx, params.Genres)
	if err != nil {
		return nil, err
	}
	created, err := s.titles.Insert(ctx, title, genreIDs)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	return s.expandTitle(ctx, created)
}

func (s *CatalogService) GetTitle(ctx context.Context, id int64) (*TitleDetail, error) {
	const op = "catalog.CatalogService.GetTitle"
	title, err := s.titles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTitleNotFound
		}
		s.log.Error(err.Error(), "op", op, "id", id)
		return nil, err
	}
	return s.expandTitle(ctx, title)
}

func (s *CatalogService) ListTitles(ctx context.Context, f filters.TitleFilters) ([]TitleDetail, filters.Metadata, error) {
	const op = "catalog.CatalogService.ListTitles"
	titles, total, err := s.titles.List(ctx, f)
	if err != nil {
		s.log.Error(err.Error(), "op", op)
		return nil, filters.Metadata{}, err
	}
	details, err := s.expandTitles(ctx, titles)
	if err != nil {
		s.log.Error(err.Error(), "op", op)
		return nil, filters.Metadata{}, err
	}
	return details, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *CatalogService) UpdateTitle(ctx context.Context, id int64, params TitleParams) (*TitleDetail, error) {
	const op = "catalog.CatalogService.UpdateTitle"
	log := s.log.With("op", op, "id", id)
	title, err := s.titles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTitleNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	if params.Name != nil {
		title.Name = *params.Name
	}
	if params.Year != nil {
		title.Year = *params.Year
	}
	if params.Description != nil {
		title.Description = *params.Description
	}
	if params.Category != nil {
		categoryID, err := s.resolveCategory(ctx, params.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = categoryID
	}
	var genreIDs []int64
	if params.Genres != nil {
		if genreIDs, err = s.resolveGenres(ctx, params.Genres); err != nil {
			return nil, err
		}
	}
	updated, err := s.titles.Update(ctx, title, genreIDs)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTitleNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	return s.expandTitle(ctx, updated)
}

func (s *CatalogService) DeleteTitle(ctx context.Context, id int64) error {
	const op = "catalog.CatalogService.DeleteTitle"
	if err := s.titles.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTitleNotFound
		}
		s.log.Error(err.Error(), "op", op, "id", id)
		return err
	}
	return nil
}

func (s *CatalogService) resolveCategory(ctx context.Context, slug *string) (*int64, error) {
	if slug == nil || *slug == "" {
		return nil, nil
	}
	category, err := s.categories.GetBySlug(ctx, *slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUnknownCategorySlug
		}
		return nil, err
	}
	return &category.ID, nil
}

func (s *CatalogService) resolveGenres(ctx context.Context, slugs []string) ([]int64, error) {
	if slugs == nil {
		return nil, nil
	}
	genres, err := s.genres.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(uniqueStrings(slugs)) {
		return nil, ErrUnknownGenreSlug
	}
	ids := make([]int64, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}

func (s *CatalogService) expandTitle(ctx context.Context, title *models.Title) (*TitleDetail, error) {
	details, err := s.expandTitles(ctx, []models.Title{*title})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// expandTitles assembles the read view: entity rows, genre sets, category
// refs and computed ratings are fetched separately and merged here.
func (s *CatalogService) expandTitles(ctx context.Context, titles []models.Title) ([]TitleDetail, error) {
	ids := make([]int64, 0, len(titles))
	categoryIDs := make([]int64, 0, len(titles))
	for _, t := range titles {
		ids = append(ids, t.ID)
		if t.CategoryID != nil {
			categoryIDs = append(categoryIDs, *t.CategoryID)
		}
	}
	details := make([]TitleDetail, 0, len(titles))
	if len(ids) == 0 {
		return details, nil
	}
	genres, err := s.titles.GenresForTitles(ctx, ids)
	if err != nil {
		return nil, err
	}
	ratings, err := s.ratings.AverageScores(ctx, ids)
	if err != nil {
		return nil, err
	}
	categories := make(map[int64]models.Category)
	if len(categoryIDs) > 0 {
		if categories, err = s.titles.CategoriesByID(ctx, categoryIDs); err != nil {
			return nil, err
		}
	}
	for _, t := range titles {
		detail := TitleDetail{
			ID:          t.ID,
			Name:        t.Name,
			Year:        t.Year,
			Description: t.Description,
			Genres:      []models.Genre{},
		}
		if g, ok := genres[t.ID]; ok {
			detail.Genres = g
		}
		if rating, ok := ratings[t.ID]; ok {
			detail.Rating = &rating
		}
		if t.CategoryID != nil {
			if c, ok := categories[*t.CategoryID]; ok {
				detail.Category = &c
			}
		}
		details = append(details, detail)
	}
	return details, nil
}
