package integration

import (
	"context"
	"sync"
	"testing"

	"shopcart/internal/events"
	"shopcart/internal/model"
	"shopcart/internal/repository"
	"shopcart/internal/service"
	"shopcart/internal/telemetry"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderServices struct {
	products repository.ProductRepository
	carts    service.CartService
	orders   service.OrderService
}

func newOrderServices(testDB *TestDB) orderServices {
	logger := zerolog.Nop()
	metrics := telemetry.NopMetrics()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	return orderServices{
		products: productRepo,
		carts:    service.NewCartService(cartRepo, productRepo, metrics, logger),
		orders:   service.NewOrderService(orderRepo, cartRepo, productRepo, events.NewNopPublisher(), metrics, logger),
	}
}

func TestOrderService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	s := newOrderServices(testDB)
	ctx := context.Background()

	t.Run("Concurrent orders for one payment create a single order", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		seeded := SeedProducts(t, testDB.Pool)
		mug := seeded["Ceramic Mug"]

		_, err := s.carts.AddItem(ctx, "user-1", mug.ID, 2)
		require.NoError(t, err)

		ref := "cs_test_concurrent"
		const callers = 5

		var wg sync.WaitGroup
		results := make([]*model.Order, callers)
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = s.orders.CreateOrderFromCart(ctx, "user-1", model.OrderDetails{
					PaymentReference: &ref,
					Status:           model.OrderStatusCompleted,
				})
			}(i)
		}
		wg.Wait()

		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, results[0].ID, results[i].ID)
		}

		orders, err := s.orders.ListByUser(ctx, "user-1", 10, 0)
		require.NoError(t, err)
		assert.Len(t, orders, 1)

		product, err := s.products.GetByID(ctx, mug.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, product.Stock)
	})

	t.Run("Order keeps the price paid after the catalogue changes", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		seeded := SeedProducts(t, testDB.Pool)
		lamp := seeded["Desk Lamp"]

		_, err := s.carts.AddItem(ctx, "user-1", lamp.ID, 1)
		require.NoError(t, err)

		order, err := s.orders.CreateOrderFromCart(ctx, "user-1", model.OrderDetails{})
		require.NoError(t, err)

		lamp.Price = decimal.RequireFromString("59.00")
		require.NoError(t, s.products.Update(ctx, &lamp))

		stored, err := s.orders.GetByID(ctx, "user-1", order.ID, false)
		require.NoError(t, err)
		require.Len(t, stored.Items, 1)
		assert.Equal(t, "Desk Lamp", stored.Items[0].ProductName)
		assert.Equal(t, "39.90", stored.Items[0].UnitPrice.StringFixed(2))
		assert.Equal(t, "39.90", stored.TotalAmount.StringFixed(2))
	})

	t.Run("Ordered product cannot be deleted", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		seeded := SeedProducts(t, testDB.Pool)
		notebook := seeded["Notebook"]

		_, err := s.carts.AddItem(ctx, "user-1", notebook.ID, 3)
		require.NoError(t, err)
		_, err = s.orders.CreateOrderFromCart(ctx, "user-1", model.OrderDetails{})
		require.NoError(t, err)

		err = s.products.Delete(ctx, notebook.ID)
		assert.ErrorIs(t, err, model.ErrProductInUse)
	})

	t.Run("Other users cannot see an order", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		seeded := SeedProducts(t, testDB.Pool)

		_, err := s.carts.AddItem(ctx, "user-1", seeded["Linen Apron"].ID, 1)
		require.NoError(t, err)
		order, err := s.orders.CreateOrderFromCart(ctx, "user-1", model.OrderDetails{})
		require.NoError(t, err)

		_, err = s.orders.GetByID(ctx, "user-2", order.ID, false)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)

		visible, err := s.orders.GetByID(ctx, "admin-1", order.ID, true)
		require.NoError(t, err)
		assert.Equal(t, order.ID, visible.ID)
	})
}
