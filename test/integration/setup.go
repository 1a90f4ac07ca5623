package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/database"
	"shopcart/internal/model"
	"shopcart/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the
// migrated schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPoolFromURL(ctx, connStr, dbConfig, logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, "up", logger); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts the test catalogue and returns it keyed by name.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) map[string]model.Product {
	t.Helper()

	ctx := context.Background()
	repo := repository.NewProductRepository(pool, zerolog.Nop())
	now := time.Now().UTC().Truncate(time.Microsecond)

	products := []struct {
		name     string
		price    string
		stock    int
		category string
	}{
		{"Ceramic Mug", "10.00", 5, "Kitchen"},
		{"Tea Sampler", "5.50", 1, "Pantry"},
		{"Linen Apron", "24.00", 8, "Kitchen"},
		{"Desk Lamp", "39.90", 3, "Home"},
		{"Notebook", "4.25", 40, "Stationery"},
	}

	seeded := make(map[string]model.Product, len(products))
	for _, p := range products {
		product := model.Product{
			ID:          uuid.New(),
			Name:        p.name,
			Description: p.name + " for testing",
			Price:       decimal.RequireFromString(p.price),
			Stock:       p.stock,
			Category:    p.category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.Create(ctx, &product); err != nil {
			t.Fatalf("failed to seed product %s: %v", p.name, err)
		}
		seeded[p.name] = product
	}

	return seeded
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "cart_items", "carts", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
