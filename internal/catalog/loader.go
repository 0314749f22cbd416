package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"orderdesk/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ctxCheckEvery is how many lines are decoded between context checks.
const ctxCheckEvery = 1000

// fileLoader implements Loader for reading gzipped seed files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based seed loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a gzipped seed file with one JSON product per line.
func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Product, error) {
	l.logger.Info().Str("file", path).Msg("loading menu seed file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open menu seed file")
		return nil, fmt.Errorf("failed to open menu seed file %s: %w", path, err)
	}
	defer file.Close()

	products, err := decode(ctx, file, path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to decode menu seed file")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("products_loaded", len(products)).
		Msg("menu seed file loaded successfully")

	return products, nil
}

// decode reads gzipped JSON lines from r. Blank lines are skipped; every
// product must carry an id, a non-blank name and a non-negative price.
func decode(ctx context.Context, r io.Reader, source string) ([]model.Product, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var products []model.Product
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var p model.Product
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("invalid product at %s:%d: %w", source, lineNo, err)
		}
		if p.ID == uuid.Nil {
			return nil, fmt.Errorf("invalid product at %s:%d: missing id", source, lineNo)
		}
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" || p.PriceCents < 0 {
			return nil, fmt.Errorf("invalid product at %s:%d: %w", source, lineNo, model.ErrInvalidProduct)
		}
		products = append(products, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", source, err)
	}

	return products, nil
}
