package domain

import "context"

// Embedder produces sentence-level vectors for normalized product names.
// Implementations must be safe for concurrent use; the matcher shares one
// instance across all pairwise comparisons in a run.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCache caches embeddings keyed by normalized name so a batch run
// encodes each unique name once.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, error)
	Set(ctx context.Context, key string, vector []float32) error
}

// StoreRepository persists retailers and their catalogs.
type StoreRepository interface {
	UpsertStore(ctx context.Context, store *Store) error
	GetStoreByID(ctx context.Context, id int64) (*Store, error)
	GetPrimaryStore(ctx context.Context) (*Store, error)
	ListStores(ctx context.Context) ([]Store, error)
	ProductsByStore(ctx context.Context, storeID int64) ([]ProductRecord, error)
	GetProduct(ctx context.Context, productID int64) (*ProductRecord, error)
	LatestPrice(ctx context.Context, productID int64) (*PricePoint, error)
	CountProducts(ctx context.Context, storeID int64) (int, error)
}

// MatchRepository persists the output of a matching run.
type MatchRepository interface {
	ReplaceMatches(ctx context.Context, runID string, competitorStoreID int64, matches []ProductMatch) error
	MatchesByCompetitor(ctx context.Context, competitorStoreID int64) ([]StoredMatch, error)
	CountMatches(ctx context.Context, competitorStoreID int64) (int, error)
}
