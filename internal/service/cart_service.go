package service

import (
	"context"
	"fmt"
	"time"

	"shopcart/internal/model"
	"shopcart/internal/repository"
	"shopcart/internal/telemetry"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	metrics     *telemetry.BusinessMetrics
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	metrics *telemetry.BusinessMetrics,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		metrics:     metrics,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func validQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= model.MaxItemQuantity
}

// GetOrCreateCart returns the user's cart, creating an empty one if absent.
func (s *cartService) GetOrCreateCart(ctx context.Context, userID string) (*model.Cart, error) {
	var cart *model.Cart
	err := runInTx(ctx, s.cartRepo, s.logger, func(tx pgx.Tx) error {
		c, created, err := s.cartRepo.GetOrCreate(ctx, tx, userID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to get or create cart: %w", err)
		}
		if created {
			s.metrics.CartsCreated.Inc()
			s.logger.Debug().Str("user_id", userID).Str("cart_id", c.ID.String()).Msg("cart created")
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds quantity of a product to the cart. When the product is
// already in the cart the quantities are merged and the merged total must
// still fit in stock.
func (s *cartService) AddItem(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*model.CartView, error) {
	if !validQuantity(quantity) {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to get product")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	var view *model.CartView
	err = runInTx(ctx, s.cartRepo, s.logger, func(tx pgx.Tx) error {
		now := time.Now().UTC()

		cart, created, err := s.cartRepo.GetOrCreate(ctx, tx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to get or create cart: %w", err)
		}
		if created {
			s.metrics.CartsCreated.Inc()
		}

		item, err := s.cartRepo.GetItem(ctx, tx, cart.ID, productID)
		if err != nil {
			return fmt.Errorf("failed to get cart item: %w", err)
		}

		total := quantity
		if item != nil {
			total += item.Quantity
		} else {
			item = &model.CartItem{
				ID:        uuid.New(),
				CartID:    cart.ID,
				ProductID: productID,
				CreatedAt: now,
			}
		}

		if total > product.Stock {
			s.logger.Warn().
				Str("user_id", userID).
				Str("product_id", productID.String()).
				Int("requested", total).
				Int("available", product.Stock).
				Msg("insufficient stock")
			return model.NewInsufficientStockError(product.Name, total, product.Stock)
		}
		if total > model.MaxItemQuantity {
			return model.ErrInvalidQuantity
		}

		item.Quantity = total
		item.UpdatedAt = now
		if err := s.cartRepo.SaveItem(ctx, tx, item); err != nil {
			return fmt.Errorf("failed to save cart item: %w", err)
		}

		cart.UpdatedAt = now
		view, err = s.touchAndView(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CartItemsAdded.Inc()
	s.logger.Info().
		Str("user_id", userID).
		Str("product_id", productID.String()).
		Int("quantity", quantity).
		Msg("item added to cart")

	return view, nil
}

// UpdateItemQuantity overwrites the quantity of an existing line.
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID string, productID uuid.UUID, quantity int) (*model.CartView, error) {
	if !validQuantity(quantity) {
		return nil, model.ErrInvalidQuantity
	}

	var view *model.CartView
	err := runInTx(ctx, s.cartRepo, s.logger, func(tx pgx.Tx) error {
		cart, err := s.cartRepo.LockByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		if cart == nil {
			return model.ErrCartItemNotFound
		}

		item, err := s.cartRepo.GetItem(ctx, tx, cart.ID, productID)
		if err != nil {
			return fmt.Errorf("failed to get cart item: %w", err)
		}
		if item == nil {
			return model.ErrCartItemNotFound
		}

		product, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			return model.ErrProductNotFound
		}
		if quantity > product.Stock {
			return model.NewInsufficientStockError(product.Name, quantity, product.Stock)
		}

		now := time.Now().UTC()
		item.Quantity = quantity
		item.UpdatedAt = now
		if err := s.cartRepo.SaveItem(ctx, tx, item); err != nil {
			return fmt.Errorf("failed to save cart item: %w", err)
		}

		cart.UpdatedAt = now
		view, err = s.touchAndView(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("product_id", productID.String()).
		Int("quantity", quantity).
		Msg("cart item quantity updated")

	return view, nil
}

// RemoveItem deletes the line for a product.
func (s *cartService) RemoveItem(ctx context.Context, userID string, productID uuid.UUID) error {
	err := runInTx(ctx, s.cartRepo, s.logger, func(tx pgx.Tx) error {
		cart, err := s.cartRepo.LockByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		if cart == nil {
			return model.ErrCartItemNotFound
		}

		if err := s.cartRepo.DeleteItem(ctx, tx, cart.ID, productID); err != nil {
			return err
		}
		return s.cartRepo.Touch(ctx, tx, cart.ID, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("product_id", productID.String()).
		Msg("item removed from cart")
	return nil
}

// Clear deletes every line in the cart.
func (s *cartService) Clear(ctx context.Context, userID string) error {
	var removed int64
	err := runInTx(ctx, s.cartRepo, s.logger, func(tx pgx.Tx) error {
		cart, err := s.cartRepo.LockByUserID(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		if cart == nil {
			return nil
		}

		removed, err = s.cartRepo.ClearItems(ctx, tx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return s.cartRepo.Touch(ctx, tx, cart.ID, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	if removed > 0 {
		s.metrics.CartsCleared.Inc()
	}
	s.logger.Info().Str("user_id", userID).Int64("removed", removed).Msg("cart cleared")
	return nil
}

// GetCartView returns the cart joined with current product data and totals.
func (s *cartService) GetCartView(ctx context.Context, userID string) (*model.CartView, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if cart == nil {
		cart, err = s.GetOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	lines, err := s.cartRepo.ListLines(ctx, nil, cart.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to list cart lines")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return model.NewCartView(cart, lines), nil
}

func (s *cartService) touchAndView(ctx context.Context, tx pgx.Tx, cart *model.Cart) (*model.CartView, error) {
	if err := s.cartRepo.Touch(ctx, tx, cart.ID, cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to touch cart: %w", err)
	}

	lines, err := s.cartRepo.ListLines(ctx, tx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return model.NewCartView(cart, lines), nil
}
