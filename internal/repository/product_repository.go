package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, description, price, stock, category, image_url, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Category,
		&p.ImageURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// List retrieves products matching the filter, ordered by name.
func (r *productRepository) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ($1 = '' OR category = $1)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, filter.Category, filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error().Err(err).
			Str("category", filter.Category).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "idx_products_name") {
			return model.ErrProductExists
		}
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.Debug().Str("product_id", p.ID.String()).Msg("product created")
	return nil
}

// Update replaces the mutable fields of an existing product.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, category = $6, image_url = $7, updated_at = $8
		WHERE id = $1
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.UpdatedAt).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound
		}
		if isUniqueViolation(err, "idx_products_name") {
			return model.ErrProductExists
		}
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product. Cart lines referencing it cascade; order lines block it.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrProductInUse
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	return nil
}

// Count returns the number of products in the catalogue.
func (r *productRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count products")
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// CreateBatch inserts products in a single round trip, skipping names that
// already exist.
func (r *productRepository) CreateBatch(ctx context.Context, products []model.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(query,
			p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for i := 0; i < len(products); i++ {
		tag, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("product_name", products[i].Name).
				Msg("failed to insert product")
			return inserted, fmt.Errorf("failed to insert product %q: %w", products[i].Name, err)
		}
		inserted += int(tag.RowsAffected())
	}

	r.logger.Debug().
		Int("count", len(products)).
		Int("inserted", inserted).
		Msg("product batch inserted")

	return inserted, nil
}

// DecrementStock subtracts quantity from the product's stock, clamping at zero,
// and returns the stock level before the update.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, quantity int) (int, error) {
	query := `
		WITH previous AS (
			SELECT id, stock FROM products WHERE id = $1 FOR UPDATE
		)
		UPDATE products p
		SET stock = GREATEST(previous.stock - $2, 0), updated_at = $3
		FROM previous
		WHERE p.id = previous.id
		RETURNING previous.stock
	`

	var before int
	err := conn(r.pool, tx).QueryRow(ctx, query, id, quantity, time.Now().UTC()).Scan(&before)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to decrement stock")
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return before, nil
}
