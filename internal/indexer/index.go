package indexer

import (
	"context"
	"fmt"

	"clio-assistant/internal/vectorstore"
)

// IndexManager creates and describes collections.
type IndexManager interface {
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
	GetCollectionInfo(ctx context.Context, collection string) (*vectorstore.CollectionInfo, error)
}

// EnsureIndex creates the collection with cosine distance if it is missing,
// otherwise checks that its dimension matches, and returns its description.
func EnsureIndex(ctx context.Context, mgr IndexManager, collection string, dimension int) (*vectorstore.CollectionInfo, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be greater than 0")
	}
	if err := mgr.EnsureCollection(ctx, collection, dimension); err != nil {
		return nil, fmt.Errorf("failed to ensure index %q: %w", collection, err)
	}
	return Stats(ctx, mgr, collection)
}

// Stats describes the collection: dimension, metric, status and point count.
func Stats(ctx context.Context, mgr IndexManager, collection string) (*vectorstore.CollectionInfo, error) {
	info, err := mgr.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %q: %w", collection, err)
	}
	return info, nil
}
