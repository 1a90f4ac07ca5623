// Package seed loads the initial product catalogue from gzipped JSON-lines
// files on local disk or S3.
package seed

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"shopcart/internal/model"
	"shopcart/internal/validation"

	"github.com/rs/zerolog"
)

// Loader reads one seed file and returns the valid product records in it.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.ProductRequest, error)
}

// maxLineBytes bounds a single JSON record.
const maxLineBytes = 1024 * 1024

// decodeProducts reads gzipped JSON lines from r. Records that fail
// validation are logged and skipped; malformed JSON fails the whole file.
func decodeProducts(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) ([]model.ProductRequest, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		products []model.ProductRequest
		lineNo   int
		skipped  int
	)
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				logger.Warn().Str("source", source).Msg("seed loading cancelled")
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req model.ProductRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s at line %d: %w", source, lineNo, err)
		}
		req.Normalize()
		if err := validation.Struct(&req); err != nil {
			skipped++
			logger.Warn().
				Err(err).
				Str("source", source).
				Int("line", lineNo).
				Msg("skipping invalid seed record")
			continue
		}
		products = append(products, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file %s: %w", source, err)
	}

	logger.Info().
		Str("source", source).
		Int("products_loaded", len(products)).
		Int("skipped", skipped).
		Msg("seed file loaded")

	return products, nil
}
