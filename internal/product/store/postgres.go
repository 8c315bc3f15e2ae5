package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mosaic/internal/api"
	"mosaic/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS products (
		product_id INTEGER PRIMARY KEY,
		name       TEXT    NOT NULL,
		weight     INTEGER NOT NULL,
		version    INTEGER NOT NULL DEFAULT 0
	)
`

// Postgres stores products in PostgreSQL through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the products table when it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate products: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, p api.Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (product_id, name, weight) VALUES ($1, $2, $3)`,
		p.ProductID, p.Name, p.Weight,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("product %d: %w", p.ProductID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, productID int) (api.Product, error) {
	p := api.Product{ProductID: productID}
	err := s.pool.QueryRow(ctx,
		`SELECT name, weight FROM products WHERE product_id = $1`, productID,
	).Scan(&p.Name, &p.Weight)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Product{}, fmt.Errorf("product %d: %w", productID, sentinel.ErrNotFound)
		}
		return api.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (s *Postgres) Delete(ctx context.Context, productID int) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
