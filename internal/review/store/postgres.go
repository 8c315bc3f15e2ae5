package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"mosaic/internal/api"
	"mosaic/pkg/platform/sentinel"
)

const uniqueViolation pq.ErrorCode = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS reviews (
		product_id INTEGER      NOT NULL,
		review_id  INTEGER      NOT NULL,
		author     VARCHAR(50)  NOT NULL,
		subject    VARCHAR(50)  NOT NULL,
		content    VARCHAR(255) NOT NULL,
		version    INTEGER      NOT NULL DEFAULT 0,
		PRIMARY KEY (product_id, review_id)
	)
`

// Postgres stores reviews through database/sql on the lib/pq driver.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the reviews table when it does not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate reviews: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, r api.Review) error {
	query := `
		INSERT INTO reviews (product_id, review_id, author, subject, content)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, r.ProductID, r.ReviewID, r.Author, r.Subject, r.Content)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("review %d/%d: %w", r.ProductID, r.ReviewID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, productID int) ([]api.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, review_id, author, subject, content
		FROM reviews
		WHERE product_id = $1
		ORDER BY review_id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	out := []api.Review{}
	for rows.Next() {
		var r api.Review
		if err := rows.Scan(&r.ProductID, &r.ReviewID, &r.Author, &r.Subject, &r.Content); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

func (s *Postgres) DeleteByProduct(ctx context.Context, productID int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
