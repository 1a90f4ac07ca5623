package seed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopcart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductStore is the part of the product repository the seeder writes to.
type ProductStore interface {
	Count(ctx context.Context) (int, error)
	CreateBatch(ctx context.Context, products []model.Product) (int, error)
}

// Seeder fills an empty catalogue from seed files.
type Seeder struct {
	store  ProductStore
	loader Loader
	files  []string
	logger zerolog.Logger
	now    func() time.Time
}

// NewSeeder creates a seeder over the given files.
func NewSeeder(store ProductStore, loader Loader, files []string, logger zerolog.Logger) *Seeder {
	return &Seeder{
		store:  store,
		loader: loader,
		files:  files,
		logger: logger.With().Str("component", "seeder").Logger(),
		now:    time.Now,
	}
}

// Run loads every file concurrently and inserts the products in one batch.
// It does nothing when the catalogue already has products. It returns the
// number of products inserted.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		s.logger.Info().Int("existing_products", count).Msg("catalogue already populated, skipping seed")
		return 0, nil
	}

	loaded, err := s.loadAll(ctx)
	if err != nil {
		return 0, err
	}

	products := s.toProducts(loaded)
	inserted, err := s.store.CreateBatch(ctx, products)
	if err != nil {
		return inserted, fmt.Errorf("failed to insert seed products: %w", err)
	}

	s.logger.Info().
		Int("files", len(s.files)).
		Int("unique_products", len(products)).
		Int("inserted", inserted).
		Msg("catalogue seeded")

	return inserted, nil
}

// loadAll loads the files concurrently and returns their records in file
// order. Any failing file fails the run.
func (s *Seeder) loadAll(ctx context.Context) ([][]model.ProductRequest, error) {
	type loadResult struct {
		index    int
		products []model.ProductRequest
		err      error
	}

	resultChan := make(chan loadResult, len(s.files))
	var wg sync.WaitGroup

	for i, path := range s.files {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			products, err := s.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, products: products, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([][]model.ProductRequest, len(s.files))
	for result := range resultChan {
		if result.err != nil {
			s.logger.Error().
				Err(result.err).
				Str("file", s.files[result.index]).
				Msg("failed to load seed file")
			return nil, fmt.Errorf("failed to load seed file %s: %w", s.files[result.index], result.err)
		}
		results[result.index] = result.products
	}

	return results, nil
}

// toProducts flattens the loaded records, keeping the first occurrence of
// each name.
func (s *Seeder) toProducts(loaded [][]model.ProductRequest) []model.Product {
	now := s.now()
	seen := make(map[string]bool)
	var products []model.Product

	for _, records := range loaded {
		for i := range records {
			if seen[records[i].Name] {
				s.logger.Debug().Str("product_name", records[i].Name).Msg("duplicate seed product ignored")
				continue
			}
			seen[records[i].Name] = true

			p := model.Product{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
			records[i].Apply(&p)
			products = append(products, p)
		}
	}

	return products
}
