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

type CategoryModel struct {
	DB *pgxpool.Pool
}

func (m *CategoryModel) Insert(ctx context.Context, name, slug string) (*models.Category, error) {
	rows, _ := m.DB.Query(
		ctx,
		"INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id, name, slug",
		name, slug,
	)
	category, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, postgres.MapConflict(err)
	}
	return &category, nil
}

func (m *CategoryModel) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	rows, _ := m.DB.Query(ctx, "SELECT id, name, slug FROM categories WHERE slug = $1", slug)
	category, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (m *CategoryModel) List(ctx context.Context, search string, f filters.Filters) ([]models.Category, int, error) {
	query := fmt.Sprintf(
		`SELECT count(*) OVER(), id, name, slug FROM categories
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s, id ASC LIMIT $2 OFFSET $3`,
		f.SortColumn(), f.SortDirection(),
	)
	rows, _ := m.DB.Query(ctx, query, search, f.Limit(), f.Offset())
	type row struct {
		Count int
		models.Category
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	categories := make([]models.Category, 0, len(outputRows))
	for _, r := range outputRows {
		categories = append(categories, r.Category)
	}
	if len(outputRows) == 0 {
		return categories, 0, nil
	}
	return categories, outputRows[0].Count, nil
}

// Delete removes a category; titles referencing it keep existing with a
// NULL category (enforced by the ON DELETE SET NULL constraint).
func (m *CategoryModel) Delete(ctx context.Context, slug string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM categories WHERE slug = $1", slug)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
