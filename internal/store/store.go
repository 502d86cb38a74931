package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/laflotawines-debug/presupuestadorpro/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned by Update when no row matches the product id.
var ErrNotFound = errors.New("product not found")

// deleteSentinel is an id no real product can carry. The tabular backends
// expose predicate deletes rather than truncate, so "delete everything" is
// expressed as "delete everything not matching this sentinel".
const deleteSentinel = "__none__"

// ProductStore is the capability interface over the products table. The
// remote Postgres store and the local file slot both implement it; callers
// pick one at startup and depend only on this.
type ProductStore interface {
	// List returns a page of products ordered by name.
	List(ctx context.Context, offset, limit int) ([]models.Product, error)
	// UpsertBatch inserts or updates the given products keyed by id.
	UpsertBatch(ctx context.Context, products []models.Product) error
	// Update rewrites a single product by id.
	Update(ctx context.Context, p models.Product) error
	// DeleteAll unconditionally removes every product.
	DeleteAll(ctx context.Context) error
}

const productColumns = "id, name, family, subfamily, price_1, price_2, price_3, price_4, stock, supplier, is_dollar, exchange_rate"

// RemoteStore is the Postgres-backed product store.
type RemoteStore struct {
	db *sqlx.DB
}

// NewRemoteStore connects to Postgres and returns a product store over it.
func NewRemoteStore(databaseURL string) (*RemoteStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &RemoteStore{db: db}, nil
}

// Close closes the database connection
func (s *RemoteStore) Close() error {
	return s.db.Close()
}

func (s *RemoteStore) List(ctx context.Context, offset, limit int) ([]models.Product, error) {
	query := `
		SELECT id, name,
		       COALESCE(family, '') AS family,
		       COALESCE(subfamily, '') AS subfamily,
		       price_1, price_2, price_3, price_4, stock,
		       COALESCE(supplier, '') AS supplier,
		       COALESCE(is_dollar, false) AS is_dollar,
		       COALESCE(exchange_rate, 0) AS exchange_rate
		FROM products ORDER BY name LIMIT $1 OFFSET $2`

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, limit, offset)
	return products, err
}

func (s *RemoteStore) UpsertBatch(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO products (" + productColumns + ") VALUES ")

	args := make([]interface{}, 0, len(products)*12)
	for i, p := range products {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 12
		sb.WriteString("(")
		for j := 1; j <= 12; j++ {
			if j > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", base+j)
		}
		sb.WriteString(")")
		args = append(args,
			p.ID, p.Name, nullIfEmpty(p.Family), nullIfEmpty(p.Subfamily),
			p.Price1, p.Price2, p.Price3, p.Price4, p.Stock,
			nullIfEmpty(p.Supplier), p.IsDollar, nullIfZero(p.ExchangeRate))
	}

	sb.WriteString(`
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			family = EXCLUDED.family,
			subfamily = EXCLUDED.subfamily,
			price_1 = EXCLUDED.price_1,
			price_2 = EXCLUDED.price_2,
			price_3 = EXCLUDED.price_3,
			price_4 = EXCLUDED.price_4,
			stock = EXCLUDED.stock,
			supplier = EXCLUDED.supplier,
			is_dollar = EXCLUDED.is_dollar,
			exchange_rate = EXCLUDED.exchange_rate`)

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *RemoteStore) Update(ctx context.Context, p models.Product) error {
	query := `
		UPDATE products SET
			name = $2, family = $3, subfamily = $4,
			price_1 = $5, price_2 = $6, price_3 = $7, price_4 = $8,
			stock = $9, supplier = $10, is_dollar = $11, exchange_rate = $12
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, nullIfEmpty(p.Family), nullIfEmpty(p.Subfamily),
		p.Price1, p.Price2, p.Price3, p.Price4, p.Stock,
		nullIfEmpty(p.Supplier), p.IsDollar, nullIfZero(p.ExchangeRate))
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	return nil
}

func (s *RemoteStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id <> $1", deleteSentinel)
	if err != nil {
		return fmt.Errorf("failed to delete products: %w", err)
	}
	return nil
}

// nullIfEmpty maps blank optional text fields to SQL NULL instead of ''.
func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// nullIfZero maps an absent exchange rate to SQL NULL.
func nullIfZero(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

var _ ProductStore = (*RemoteStore)(nil)
