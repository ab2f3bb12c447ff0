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

type ReviewModel struct {
	DB *pgxpool.Pool
}

const reviewColumns = "r.id, r.title_id, r.user_id, u.username AS author, r.text, r.score, r.created_at"

func (m *ReviewModel) Insert(ctx context.Context, review *models.Review) (*models.Review, error) {
	rows, _ := m.DB.Query(
		ctx,
		`WITH inserted AS (
			INSERT INTO reviews (title_id, user_id, text, score)
			VALUES ($1, $2, $3, $4) RETURNING *
		)
		SELECT `+reviewColumns+` FROM inserted r JOIN users u ON u.id = r.user_id`,
		review.TitleID, review.UserID, review.Text, review.Score,
	)
	inserted, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Review])
	if err != nil {
		return nil, postgres.MapConflict(err)
	}
	return &inserted, nil
}

// Get resolves a review by id scoped to its title, so a review belonging
// to a different title reads as absent.
func (m *ReviewModel) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	rows, _ := m.DB.Query(
		ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.id = $1 AND r.title_id = $2`,
		reviewID, titleID,
	)
	review, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (m *ReviewModel) ListForTitle(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, int, error) {
	query := fmt.Sprintf(
		`SELECT count(*) OVER(), `+reviewColumns+`
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE r.title_id = $1
		ORDER BY r.%s %s, r.id ASC
		LIMIT $2 OFFSET $3`,
		f.SortColumn(), f.SortDirection(),
	)
	rows, _ := m.DB.Query(ctx, query, titleID, f.Limit(), f.Offset())
	type row struct {
		Count int
		models.Review
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	reviews := make([]models.Review, 0, len(outputRows))
	for _, r := range outputRows {
		reviews = append(reviews, r.Review)
	}
	if len(outputRows) == 0 {
		return reviews, 0, nil
	}
	return reviews, outputRows[0].Count, nil
}

func (m *ReviewModel) ExistsForAuthor(ctx context.Context, titleID, userID int64) (bool, error) {
	var exists bool
	err := m.DB.QueryRow(
		ctx,
		"SELECT EXISTS (SELECT 1 FROM reviews WHERE title_id = $1 AND user_id = $2)",
		titleID, userID,
	).Scan(&exists)
	return exists, err
}

func (m *ReviewModel) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	rows, _ := m.DB.Query(
		ctx,
		`WITH updated AS (
			UPDATE reviews SET text = $1, score = $2 WHERE id = $3 RETURNING *
		)
		SELECT `+reviewColumns+` FROM updated r JOIN users u ON u.id = r.user_id`,
		review.Text, review.Score, review.ID,
	)
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Review])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (m *ReviewModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AverageScore returns nil when the title has no reviews; zero is a valid
// score signal and must stay distinct from "no data".
func (m *ReviewModel) AverageScore(ctx context.Context, titleID int64) (*float64, error) {
	var avg *float64
	err := m.DB.QueryRow(ctx, "SELECT avg(score) FROM reviews WHERE title_id = $1", titleID).Scan(&avg)
	if err != nil {
		return nil, err
	}
	return avg, nil
}

func (m *ReviewModel) AverageScores(ctx context.Context, titleIDs []int64) (map[int64]float64, error) {
	rows, _ := m.DB.Query(
		ctx,
		"SELECT title_id, avg(score) AS rating FROM reviews WHERE title_id = ANY($1) GROUP BY title_id",
		titleIDs,
	)
	type row struct {
		TitleID int64
		Rating  float64
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	ratings := make(map[int64]float64, len(outputRows))
	for _, r := range outputRows {
		ratings[r.TitleID] = r.Rating
	}
	return ratings, nil
}
