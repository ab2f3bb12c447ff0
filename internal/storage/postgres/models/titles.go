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

type TitleModel struct {
	DB *pgxpool.Pool
}

const titleColumns = "id, name, year, description, category_id, created_at"

func (m *TitleModel) Insert(ctx context.Context, title *models.Title, genreIDs []int64) (*models.Title, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	rows, _ := tx.Query(
		ctx,
		`INSERT INTO titles (name, year, description, category_id)
		VALUES ($1, $2, $3, $4) RETURNING `+titleColumns,
		title.Name, title.Year, title.Description, title.CategoryID,
	)
	inserted, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Title])
	if err != nil {
		return nil, postgres.MapConflict(err)
	}
	if err := insertTitleGenres(ctx, tx, inserted.ID, genreIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &inserted, nil
}

func insertTitleGenres(ctx context.Context, tx pgx.Tx, titleID int64, genreIDs []int64) error {
	for _, genreID := range genreIDs {
		if _, err := tx.Exec(
			ctx,
			"INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			titleID, genreID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (m *TitleModel) Get(ctx context.Context, id int64) (*models.Title, error) {
	rows, _ := m.DB.Query(ctx, "SELECT "+titleColumns+" FROM titles WHERE id = $1", id)
	title, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Title])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &title, nil
}

func (m *TitleModel) List(ctx context.Context, f filters.TitleFilters) ([]models.Title, int, error) {
	query := fmt.Sprintf(
		`SELECT count(*) OVER(), t.id, t.name, t.year, t.description, t.category_id, t.created_at
		FROM titles t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ($1 = 0 OR t.year = $1)
		AND ($2 = '' OR t.name ILIKE '%%' || $2 || '%%')
		AND ($3 = '' OR lower(c.slug) = lower($3))
		AND ($4 = '' OR EXISTS (
			SELECT 1 FROM title_genres tg
			JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND lower(g.slug) = lower($4)
		))
		ORDER BY t.%s %s, t.id ASC
		LIMIT $5 OFFSET $6`,
		f.SortColumn(), f.SortDirection(),
	)
	rows, _ := m.DB.Query(ctx, query, f.Year, f.Name, f.Category, f.Genre, f.Limit(), f.Offset())
	type row struct {
		Count int
		models.Title
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	titles := make([]models.Title, 0, len(outputRows))
	for _, r := range outputRows {
		titles = append(titles, r.Title)
	}
	if len(outputRows) == 0 {
		return titles, 0, nil
	}
	return titles, outputRows[0].Count, nil
}

// Update rewrites the title row; genreIDs of nil leaves the genre set
// untouched, otherwise the association rows are replaced.
func (m *TitleModel) Update(ctx context.Context, title *models.Title, genreIDs []int64) (*models.Title, error) {
	tx, err := m.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	rows, _ := tx.Query(
		ctx,
		`UPDATE titles SET name = $1, year = $2, description = $3, category_id = $4
		WHERE id = $5 RETURNING `+titleColumns,
		title.Name, title.Year, title.Description, title.CategoryID, title.ID,
	)
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Title])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, postgres.MapConflict(err)
	}
	if genreIDs != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM title_genres WHERE title_id = $1", updated.ID); err != nil {
			return nil, err
		}
		if err := insertTitleGenres(ctx, tx, updated.ID, genreIDs); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (m *TitleModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM titles WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *TitleModel) GenresForTitle(ctx context.Context, titleID int64) ([]models.Genre, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT g.id, g.name, g.slug FROM genres g
		JOIN title_genres tg ON tg.genre_id = g.id
		WHERE tg.title_id = $1 ORDER BY g.name`,
		titleID,
	)
	genres, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Genre])
	if err != nil {
		return nil, err
	}
	return genres, nil
}

func (m *TitleModel) GenresForTitles(ctx context.Context, titleIDs []int64) (map[int64][]models.Genre, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT tg.title_id, g.id, g.name, g.slug FROM genres g
		JOIN title_genres tg ON tg.genre_id = g.id
		WHERE tg.title_id = ANY($1) ORDER BY g.name`,
		titleIDs,
	)
	type row struct {
		TitleID int64
		models.Genre
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	genres := make(map[int64][]models.Genre, len(titleIDs))
	for _, r := range outputRows {
		genres[r.TitleID] = append(genres[r.TitleID], r.Genre)
	}
	return genres, nil
}

func (m *TitleModel) CategoriesByID(ctx context.Context, ids []int64) (map[int64]models.Category, error) {
	rows, _ := m.DB.Query(ctx, "SELECT id, name, slug FROM categories WHERE id = ANY($1)", ids)
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Category])
	if err != nil {
		return nil, err
	}
	categories := make(map[int64]models.Category, len(collected))
	for _, c := range collected {
		categories[c.ID] = c
	}
	return categories, nil
}
