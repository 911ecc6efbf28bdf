package main

import (
	"context"
	"fmt"

	"github.com/olaysco/ecomm-api/repository"
	"go.uber.org/zap"
)

// copyProducts pages through the live products in src in id order and writes
// each one to dst unchanged. It returns the number of products written.
func copyProducts(ctx context.Context, src repository.ProductRepo, dst repository.ProductImporter, batchSize int, log *zap.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	opts := repository.FindOptions{
		Sort:  []repository.SortOption{{Field: "_id"}},
		Limit: batchSize,
	}

	copied := 0
	for {
		batch, err := src.Find(ctx, repository.ProductFilter{}, opts)
		if err != nil {
			return copied, fmt.Errorf("read batch at offset %d: %w", opts.Skip, err)
		}

		for _, p := range batch {
			if err := dst.Put(ctx, p); err != nil {
				log.Warn("Failed to copy product", zap.String("product_id", p.ID), zap.Error(err))
				continue
			}
			copied++
			if copied%100 == 0 {
				log.Info("Copy progress", zap.Int("copied", copied))
			}
		}

		if len(batch) < batchSize {
			return copied, nil
		}
		opts.Skip += batchSize
	}
}
