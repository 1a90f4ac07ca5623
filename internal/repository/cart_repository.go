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

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *cartRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (r *cartRepository) getByUserID(ctx context.Context, q querier, userID string, lock bool) (*model.Cart, error) {
	query := `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var c model.Cart
	err := q.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	return &c, nil
}

// GetByUserID retrieves the user's cart.
func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	return r.getByUserID(ctx, r.pool, userID, false)
}

// LockByUserID retrieves the user's cart and locks its row until tx ends.
func (r *cartRepository) LockByUserID(ctx context.Context, tx pgx.Tx, userID string) (*model.Cart, error) {
	return r.getByUserID(ctx, conn(r.pool, tx), userID, true)
}

// GetOrCreate returns the user's cart, inserting an empty one when absent.
// The no-op update on conflict makes the statement return (and lock) the
// existing row; xmax is zero only for a freshly inserted row.
func (r *cartRepository) GetOrCreate(ctx context.Context, tx pgx.Tx, userID string, now time.Time) (*model.Cart, bool, error) {
	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var (
		c       model.Cart
		created bool
	)
	err := conn(r.pool, tx).QueryRow(ctx, query, uuid.New(), userID, now).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt, &created)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get or create cart")
		return nil, false, fmt.Errorf("failed to get or create cart: %w", err)
	}

	if created {
		r.logger.Debug().Str("user_id", userID).Str("cart_id", c.ID.String()).Msg("cart created")
	}

	return &c, created, nil
}

// GetItem retrieves the cart line for a product.
func (r *cartRepository) GetItem(ctx context.Context, tx pgx.Tx, cartID, productID uuid.UUID) (*model.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`

	var item model.CartItem
	err := conn(r.pool, tx).QueryRow(ctx, query, cartID, productID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Str("cart_id", cartID.String()).
			Str("product_id", productID.String()).
			Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}
	return &item, nil
}

// SaveItem inserts the item or overwrites the quantity of the existing line.
func (r *cartRepository) SaveItem(ctx context.Context, tx pgx.Tx, item *model.CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := conn(r.pool, tx).QueryRow(ctx, query,
		item.ID, item.CartID, item.ProductID, item.Quantity, item.CreatedAt, item.UpdatedAt).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", item.CartID.String()).
			Str("product_id", item.ProductID.String()).
			Msg("failed to save cart item")
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

// DeleteItem removes the cart line for a product.
func (r *cartRepository) DeleteItem(ctx context.Context, tx pgx.Tx, cartID, productID uuid.UUID) error {
	tag, err := conn(r.pool, tx).Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", cartID.String()).
			Str("product_id", productID.String()).
			Msg("failed to delete cart item")
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartItemNotFound
	}
	return nil
}

// ClearItems removes every line from the cart.
func (r *cartRepository) ClearItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (int64, error) {
	tag, err := conn(r.pool, tx).Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart")
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Touch stamps the cart's updated_at.
func (r *cartRepository) Touch(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, at time.Time) error {
	if _, err := conn(r.pool, tx).Exec(ctx, `UPDATE carts SET updated_at = $2 WHERE id = $1`, cartID, at); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to touch cart")
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

// ListLines returns the cart's items joined with their current products, in
// the order they were added.
func (r *cartRepository) ListLines(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) ([]model.CartLine, error) {
	query := `
		SELECT ci.id, ci.product_id, ci.quantity,
		       p.name, p.description, p.price, p.stock, p.category, p.image_url
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id
	`

	rows, err := conn(r.pool, tx).Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart lines")
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var l model.CartLine
		err := rows.Scan(&l.ItemID, &l.ProductID, &l.Quantity,
			&l.ProductName, &l.Description, &l.ProductPrice, &l.ProductStock, &l.ProductCategory, &l.ProductImageURL)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart line")
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart lines")
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}
