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

type UserModel struct {
	DB *pgxpool.Pool
}

const userColumns = "id, username, email, bio, role, is_superuser, is_active, confirmation_code_hash, created_at, updated_at"

func (m *UserModel) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		`INSERT INTO users (username, email, bio, role, is_active, confirmation_code_hash)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.Bio,
		user.Role,
		user.IsActive,
		user.ConfirmationCodeHash,
	)
	inserted, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		return nil, postgres.MapConflict(err)
	}
	return &inserted, nil
}

func (m *UserModel) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.getBy(ctx, "id = $1", id)
}

func (m *UserModel) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.getBy(ctx, "username = $1", username)
}

func (m *UserModel) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.getBy(ctx, "email = $1", email)
}

func (m *UserModel) getBy(ctx context.Context, cond string, arg any) (*models.User, error) {
	rows, _ := m.DB.Query(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond, arg)
	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (m *UserModel) List(ctx context.Context, search string, f filters.Filters) ([]models.User, int, error) {
	query := fmt.Sprintf(
		`SELECT count(*) OVER(), `+userColumns+` FROM users
		WHERE ($1 = '' OR username ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s, id ASC LIMIT $2 OFFSET $3`,
		f.SortColumn(), f.SortDirection(),
	)
	rows, _ := m.DB.Query(ctx, query, search, f.Limit(), f.Offset())
	type row struct {
		Count int
		models.User
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, err
	}
	users := make([]models.User, 0, len(outputRows))
	for _, r := range outputRows {
		users = append(users, r.User)
	}
	if len(outputRows) == 0 {
		return users, 0, nil
	}
	return users, outputRows[0].Count, nil
}

func (m *UserModel) Update(ctx context.Context, user *models.User) (*models.User, error) {
	rows, _ := m.DB.Query(
		ctx,
		`UPDATE users SET username = $1, email = $2, bio = $3, role = $4, is_active = $5,
		confirmation_code_hash = $6, updated_at = now()
		WHERE id = $7 RETURNING `+userColumns,
		user.Username,
		user.Email,
		user.Bio,
		user.Role,
		user.IsActive,
		user.ConfirmationCodeHash,
		user.ID,
	)
	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, postgres.MapConflict(err)
	}
	return &updated, nil
}

func (m *UserModel) Delete(ctx context.Context, username string) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM users WHERE username = $1", username)
	if err != nil {
		return err
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
