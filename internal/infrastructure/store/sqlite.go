package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shelfmatch/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS stores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	website TEXT,
	location TEXT,
	store_type TEXT,
	is_primary INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	store_id INTEGER NOT NULL REFERENCES stores(id),
	name TEXT NOT NULL,
	brand TEXT,
	size TEXT,
	category TEXT,
	url TEXT,
	sku TEXT,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_store ON products(store_id);

CREATE TABLE IF NOT EXISTS prices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id INTEGER NOT NULL REFERENCES products(id),
	price REAL NOT NULL,
	sale_price REAL,
	is_on_sale INTEGER NOT NULL DEFAULT 0,
	scraped_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_prices_product ON prices(product_id, scraped_at);

CREATE TABLE IF NOT EXISTS product_matches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	primary_product_id INTEGER NOT NULL REFERENCES products(id),
	matched_product_id INTEGER NOT NULL REFERENCES products(id),
	confidence REAL NOT NULL,
	match_type TEXT NOT NULL,
	size_similarity REAL NOT NULL DEFAULT 0,
	warnings TEXT,
	verified INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_matches_matched ON product_matches(matched_product_id);
`

// SQLiteStore persists stores, products, prices and match results. It
// implements both domain.StoreRepository and domain.MatchRepository.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (and migrates) the sqlite database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertStore inserts a store by name or updates its metadata, filling in
// the generated id.
func (s *SQLiteStore) UpsertStore(ctx context.Context, store *domain.Store) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stores (name, website, location, store_type, is_primary)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			website = excluded.website,
			location = excluded.location,
			store_type = excluded.store_type,
			is_primary = excluded.is_primary`,
		store.Name, store.Website, store.Location, store.StoreType, store.IsPrimary)
	if err != nil {
		return fmt.Errorf("upserting store %q: %w", store.Name, err)
	}

	// LastInsertId is stale on the DO UPDATE path, so resolve by name.
	row := s.db.QueryRowContext(ctx, `SELECT id FROM stores WHERE name = ?`, store.Name)
	if err := row.Scan(&store.ID); err != nil {
		return fmt.Errorf("resolving store id for %q: %w", store.Name, err)
	}
	return nil
}

// GetStoreByID returns one store.
func (s *SQLiteStore) GetStoreByID(ctx context.Context, id int64) (*domain.Store, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(website,''), COALESCE(location,''), COALESCE(store_type,''), is_primary, created_at
		FROM stores WHERE id = ?`, id)
	return scanStore(row)
}

// GetPrimaryStore returns the store flagged as primary.
func (s *SQLiteStore) GetPrimaryStore(ctx context.Context) (*domain.Store, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(website,''), COALESCE(location,''), COALESCE(store_type,''), is_primary, created_at
		FROM stores WHERE is_primary = 1 LIMIT 1`)
	store, err := scanStore(row)
	if err == domain.ErrStoreNotFound {
		return nil, domain.ErrNoPrimaryStore
	}
	return store, err
}

// ListStores returns all stores, primary first.
func (s *SQLiteStore) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(website,''), COALESCE(location,''), COALESCE(store_type,''), is_primary, created_at
		FROM stores ORDER BY is_primary DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var st domain.Store
		if err := rows.Scan(&st.ID, &st.Name, &st.Website, &st.Location, &st.StoreType, &st.IsPrimary, &st.CreatedAt); err != nil {
			return nil, err
		}
		stores = append(stores, st)
	}
	return stores, rows.Err()
}

// AddProduct inserts one catalog row and fills in the generated id.
func (s *SQLiteStore) AddProduct(ctx context.Context, storeID int64, record *domain.ProductRecord) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (store_id, name, brand, category)
		VALUES (?, ?, ?, ?)`,
		storeID, record.Name, record.Brand, record.Category)
	if err != nil {
		return fmt.Errorf("inserting product %q: %w", record.Name, err)
	}
	record.ID, err = res.LastInsertId()
	return err
}

// AddPrice records one observed price for a product.
func (s *SQLiteStore) AddPrice(ctx context.Context, point *domain.PricePoint) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO prices (product_id, price, sale_price, is_on_sale, scraped_at)
		VALUES (?, ?, ?, ?, ?)`,
		point.ProductID, point.Price, point.SalePrice, point.IsOnSale, orNow(point.ScrapedAt))
	if err != nil {
		return fmt.Errorf("inserting price for product %d: %w", point.ProductID, err)
	}
	point.ID, err = res.LastInsertId()
	return err
}

// ProductsByStore returns a store's active products with their latest price
// attached, ready to feed the matching engine.
func (s *SQLiteStore) ProductsByStore(ctx context.Context, storeID int64) ([]domain.ProductRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.brand,''), COALESCE(p.category,''),
			(SELECT CASE WHEN pr.is_on_sale = 1 AND pr.sale_price > 0 THEN pr.sale_price ELSE pr.price END
			 FROM prices pr WHERE pr.product_id = p.id ORDER BY pr.scraped_at DESC LIMIT 1)
		FROM products p
		WHERE p.store_id = ? AND p.is_active = 1
		ORDER BY p.id`, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing products for store %d: %w", storeID, err)
	}
	defer rows.Close()

	var records []domain.ProductRecord
	for rows.Next() {
		var rec domain.ProductRecord
		var price sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Brand, &rec.Category, &price); err != nil {
			return nil, err
		}
		if price.Valid && price.Float64 > 0 {
			v := price.Float64
			rec.Price = &v
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestPrice returns the newest price point for a product.
func (s *SQLiteStore) LatestPrice(ctx context.Context, productID int64) (*domain.PricePoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, price, sale_price, is_on_sale, scraped_at
		FROM prices WHERE product_id = ?
		ORDER BY scraped_at DESC LIMIT 1`, productID)

	var point domain.PricePoint
	var salePrice sql.NullFloat64
	err := row.Scan(&point.ID, &point.ProductID, &point.Price, &salePrice, &point.IsOnSale, &point.ScrapedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if salePrice.Valid {
		v := salePrice.Float64
		point.SalePrice = &v
	}
	return &point, nil
}

// CountProducts returns the number of active products in a store.
func (s *SQLiteStore) CountProducts(ctx context.Context, storeID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE store_id = ? AND is_active = 1`, storeID).Scan(&count)
	return count, err
}

// ReplaceMatches atomically replaces the stored matches against one
// competitor store with a fresh run's output.
func (s *SQLiteStore) ReplaceMatches(ctx context.Context, runID string, competitorStoreID int64, matches []domain.ProductMatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM product_matches
		WHERE matched_product_id IN (SELECT id FROM products WHERE store_id = ?)`, competitorStoreID)
	if err != nil {
		return fmt.Errorf("clearing previous matches: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product_matches (run_id, primary_product_id, matched_product_id, confidence, match_type, size_similarity, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range matches {
		warnings, err := json.Marshal(m.Warnings)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID, m.PrimaryID, m.MatchedID, m.Confidence, string(m.MatchType), m.SizeSimilarity, string(warnings)); err != nil {
			return fmt.Errorf("inserting match %d/%d: %w", m.PrimaryID, m.MatchedID, err)
		}
	}

	return tx.Commit()
}

// MatchesByCompetitor returns the stored matches whose matched product
// belongs to the given competitor store.
func (s *SQLiteStore) MatchesByCompetitor(ctx context.Context, competitorStoreID int64) ([]domain.StoredMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.run_id, m.primary_product_id, m.matched_product_id,
			m.confidence, m.match_type, m.size_similarity, COALESCE(m.warnings,'[]'), m.verified, m.created_at
		FROM product_matches m
		JOIN products p ON p.id = m.matched_product_id
		WHERE p.store_id = ?
		ORDER BY m.confidence DESC`, competitorStoreID)
	if err != nil {
		return nil, fmt.Errorf("listing matches for store %d: %w", competitorStoreID, err)
	}
	defer rows.Close()

	var matches []domain.StoredMatch
	for rows.Next() {
		var sm domain.StoredMatch
		var matchType, warnings string
		if err := rows.Scan(&sm.ID, &sm.RunID, &sm.Match.PrimaryID, &sm.Match.MatchedID,
			&sm.Match.Confidence, &matchType, &sm.Match.SizeSimilarity, &warnings, &sm.Verified, &sm.CreatedAt); err != nil {
			return nil, err
		}
		sm.Match.MatchType = domain.MatchType(matchType)
		if err := json.Unmarshal([]byte(warnings), &sm.Match.Warnings); err != nil {
			sm.Match.Warnings = nil
		}
		matches = append(matches, sm)
	}
	return matches, rows.Err()
}

// CountMatches returns the number of stored matches against a competitor.
func (s *SQLiteStore) CountMatches(ctx context.Context, competitorStoreID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM product_matches m
		JOIN products p ON p.id = m.matched_product_id
		WHERE p.store_id = ?`, competitorStoreID).Scan(&count)
	return count, err
}

// GetProduct returns one product record with its latest price.
func (s *SQLiteStore) GetProduct(ctx context.Context, productID int64) (*domain.ProductRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.brand,''), COALESCE(p.category,'')
		FROM products p WHERE p.id = ?`, productID)

	var rec domain.ProductRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Brand, &rec.Category); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	if price, err := s.LatestPrice(ctx, productID); err == nil {
		v := price.Effective()
		rec.Price = &v
	}
	return &rec, nil
}

func scanStore(row *sql.Row) (*domain.Store, error) {
	var st domain.Store
	err := row.Scan(&st.ID, &st.Name, &st.Website, &st.Location, &st.StoreType, &st.IsPrimary, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
