package domain

import "errors"

var (
	// ErrInvalidProduct is returned when a product record is missing its id or name
	ErrInvalidProduct = errors.New("invalid product record: id and name are required")

	// ErrStoreNotFound is returned when a store cannot be found in the database
	ErrStoreNotFound = errors.New("store not found")

	// ErrProductNotFound is returned when a product lookup comes back empty
	ErrProductNotFound = errors.New("product not found")

	// ErrEmbeddingFailure is returned when the embedding backend cannot be reached
	ErrEmbeddingFailure = errors.New("embedding backend request failed")

	// ErrCacheMiss is returned when a vector is not found in the embedding cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrNoPrimaryStore is returned when no store is flagged as primary
	ErrNoPrimaryStore = errors.New("no primary store configured")
)
