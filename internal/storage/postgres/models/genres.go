package models

import (
	"context"
	"errors"
	"fmt"

	"reviewhub/proj/internal/domain/filters"
	"reviewhub/proj/internal/domain/models"
	"reviewhub/proj/internal/storage"
	"reviewhub/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GenreModel struct {
	DB *pgxpool.Pool
}

func (m *GenreModel) Insert(ctx context.Context, name, slug string) (*models.Genre, error) {
	rows, _ := m.DB.Query(
		ctx,
		"INSERT INTO genres (name, slug) VALUES ($1, $2) RETURNING id, name, slug",
		name, slug,
	)
	genre, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Genre])
	if err != nil {
		return nil, postgres.MapConflict(err)
	}
	return &genre, nil
}

func (m *GenreModel) GetBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	rows, _ := m.DB.Query(ctx, "SELECT id, name, slug FROM genres WHERE slug = $1", slug)
	genre, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Genre])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &genre, nil
}

// GetBySlugs resolves slug references for title writes; the caller checks
// that every requested slug was found.
func (m *GenreModel) GetBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	rows, _ := m.DB.Query(ctx, "SELECT id, name, slug FROM genres WHERE slug = ANY($1) ORDER BY name", slugs)
	genres, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Genre])
	if err != nil {
		return nil, err
	}
	return genres, nil
}

func (m *GenreModel) List(ctx context.Context, search string, f filters.Filters) ([]models.Genre, int, error) {
	query := fmt.Sprintf(
		`SELECT count(*) OVER(), id, name, slug FROM genres
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s, id ASC LIMIT $2 OFFSET $3`,
		f.SortColumn(), f.SortDirection(),
	)
	rows, _ := m.DB.Query(ctx, query, search, f.Limit(), f.Offset())
	type row struct {
		Count int
		models.Genre
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	genres := make([]models.Genre, 0, len(outputRows))
	for _, r := range outputRows {
		genres = append(genres, r.Genre)
	}
	if len(outputRows) == 0 {
		return genres, 0, nil
	}
	return genres, outputRows[0].Count, nil
}

// Delete removes a genre together with its title associations
// (ON DELETE CASCADE on the join table).
func (m *GenreModel) Delete(ctx context.Context, slug string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM genres WHERE slug = $1", slug)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
