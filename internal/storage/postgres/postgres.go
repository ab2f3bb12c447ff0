package postgres

import (
	"context"
	"errors"
	"time"

	"reviewhub/proj/internal/storage"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Storage struct {
	Conn *pgxpool.Pool
}

const ErrConflictCode = "23505"

func New(ctx context.Context, dsn string, maxConns int, maxConnIdleTime time.Duration) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = int32(maxConns)
	cfg.MaxConnIdleTime = maxConnIdleTime
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &Storage{Conn: pool}, nil
}

// MapConflict rewraps unique-violation errors into storage sentinels,
// preserving the constraint name for field-level error reporting.
func MapConflict(err error) error {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == ErrConflictCode {
		return &storage.ConstraintError{Constraint: pgxErr.ConstraintName}
	}
	return err
}
