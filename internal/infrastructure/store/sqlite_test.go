package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmatch/backend/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedStore(t *testing.T, s *SQLiteStore, name string, primary bool) *domain.Store {
	t.Helper()
	st := &domain.Store{Name: name, IsPrimary: primary}
	require.NoError(t, s.UpsertStore(context.Background(), st))
	require.NotZero(t, st.ID)
	return st
}

func seedProduct(t *testing.T, s *SQLiteStore, storeID int64, name string, price float64) *domain.ProductRecord {
	t.Helper()
	ctx := context.Background()
	rec := &domain.ProductRecord{Name: name}
	require.NoError(t, s.AddProduct(ctx, storeID, rec))
	if price > 0 {
		require.NoError(t, s.AddPrice(ctx, &domain.PricePoint{ProductID: rec.ID, Price: price}))
	}
	return rec
}

func TestUpsertStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t.Run("insert fills id", func(t *testing.T) {
		st := seedStore(t, s, "Made In India", true)
		assert.NotZero(t, st.ID)
	})

	t.Run("upsert by name keeps id and updates metadata", func(t *testing.T) {
		first := &domain.Store{Name: "Frootland", Location: "Toronto"}
		require.NoError(t, s.UpsertStore(ctx, first))

		second := &domain.Store{Name: "Frootland", Location: "Mississauga"}
		require.NoError(t, s.UpsertStore(ctx, second))
		assert.Equal(t, first.ID, second.ID)

		got, err := s.GetStoreByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mississauga", got.Location)
	})
}

func TestGetPrimaryStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	t.Run("no primary store", func(t *testing.T) {
		seedStore(t, s, "Competitor", false)
		_, err := s.GetPrimaryStore(ctx)
		assert.ErrorIs(t, err, domain.ErrNoPrimaryStore)
	})

	t.Run("finds the primary", func(t *testing.T) {
		st := seedStore(t, s, "Ours", true)
		got, err := s.GetPrimaryStore(ctx)
		require.NoError(t, err)
		assert.Equal(t, st.ID, got.ID)
	})
}

func TestGetStoreByID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetStoreByID(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
}

func TestListStores(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s, "Zed Mart", false)
	seedStore(t, s, "Apna Bazaar", true)

	stores, err := s.ListStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "Apna Bazaar", stores[0].Name, "primary store should sort first")
}

func TestProductsByStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := seedStore(t, s, "Made In India", true)

	t.Run("empty store", func(t *testing.T) {
		records, err := s.ProductsByStore(ctx, st.ID)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("attaches the latest price", func(t *testing.T) {
		rec := seedProduct(t, s, st.ID, "Tata Salt 1kg", 0)
		require.NoError(t, s.AddPrice(ctx, &domain.PricePoint{
			ProductID: rec.ID, Price: 2.49, ScrapedAt: time.Now().Add(-time.Hour),
		}))
		require.NoError(t, s.AddPrice(ctx, &domain.PricePoint{
			ProductID: rec.ID, Price: 2.99, ScrapedAt: time.Now(),
		}))

		records, err := s.ProductsByStore(ctx, st.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.NotNil(t, records[0].Price)
		assert.Equal(t, 2.99, *records[0].Price)
	})

	t.Run("sale price wins when on sale", func(t *testing.T) {
		rec := seedProduct(t, s, st.ID, "India Gate Basmati Rice 5kg", 0)
		sale := 9.99
		require.NoError(t, s.AddPrice(ctx, &domain.PricePoint{
			ProductID: rec.ID, Price: 12.99, SalePrice: &sale, IsOnSale: true,
		}))

		records, err := s.ProductsByStore(ctx, st.ID)
		require.NoError(t, err)
		require.Len(t, records, 2)

		var got *domain.ProductRecord
		for i := range records {
			if records[i].ID == rec.ID {
				got = &records[i]
			}
		}
		require.NotNil(t, got)
		require.NotNil(t, got.Price)
		assert.Equal(t, 9.99, *got.Price)
	})
}

func TestLatestPrice(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := seedStore(t, s, "Made In India", true)

	t.Run("no prices", func(t *testing.T) {
		rec := seedProduct(t, s, st.ID, "Unpriced Item", 0)
		_, err := s.LatestPrice(ctx, rec.ID)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("newest by scrape time", func(t *testing.T) {
		rec := seedProduct(t, s, st.ID, "Toor Dal 2lb", 0)
		require.NoError(t, s.AddPrice(ctx, &domain.PricePoint{
			ProductID: rec.ID, Price: 5.99, ScrapedAt: time.Now().Add(-time.Hour),
		}))
		require.NoError(t, s.AddPrice(ctx, &domain.PricePoint{
			ProductID: rec.ID, Price: 6.49, ScrapedAt: time.Now(),
		}))

		point, err := s.LatestPrice(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, 6.49, point.Price)
	})
}

func TestReplaceMatches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ours := seedStore(t, s, "Ours", true)
	theirs := seedStore(t, s, "Theirs", false)
	p1 := seedProduct(t, s, ours.ID, "Tata Salt 1kg", 2.49)
	c1 := seedProduct(t, s, theirs.ID, "Tata Salt 1 kg", 2.99)
	c2 := seedProduct(t, s, theirs.ID, "Salt 1kg", 1.99)

	firstRun := []domain.ProductMatch{
		{PrimaryID: p1.ID, MatchedID: c1.ID, Confidence: 0.97, MatchType: domain.MatchExact, SizeSimilarity: 1.0, Warnings: []string{"price difference: 1.2x"}},
		{PrimaryID: p1.ID, MatchedID: c2.ID, Confidence: 0.72, MatchType: domain.MatchSubstitute, SizeSimilarity: 1.0},
	}
	require.NoError(t, s.ReplaceMatches(ctx, "run-1", theirs.ID, firstRun))

	t.Run("stored with warnings round-tripped", func(t *testing.T) {
		matches, err := s.MatchesByCompetitor(ctx, theirs.ID)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "run-1", matches[0].RunID)
		assert.Equal(t, 0.97, matches[0].Match.Confidence, "highest confidence first")
		assert.Equal(t, domain.MatchExact, matches[0].Match.MatchType)
		assert.Equal(t, []string{"price difference: 1.2x"}, matches[0].Match.Warnings)
		assert.False(t, matches[0].Verified)
	})

	t.Run("new run replaces the old one", func(t *testing.T) {
		secondRun := []domain.ProductMatch{
			{PrimaryID: p1.ID, MatchedID: c1.ID, Confidence: 0.95, MatchType: domain.MatchExact, SizeSimilarity: 1.0},
		}
		require.NoError(t, s.ReplaceMatches(ctx, "run-2", theirs.ID, secondRun))

		count, err := s.CountMatches(ctx, theirs.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		matches, err := s.MatchesByCompetitor(ctx, theirs.ID)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "run-2", matches[0].RunID)
	})

	t.Run("empty run clears matches", func(t *testing.T) {
		require.NoError(t, s.ReplaceMatches(ctx, "run-3", theirs.ID, nil))

		count, err := s.CountMatches(ctx, theirs.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestGetProduct(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := seedStore(t, s, "Made In India", true)

	t.Run("missing product", func(t *testing.T) {
		_, err := s.GetProduct(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("with latest effective price", func(t *testing.T) {
		rec := seedProduct(t, s, st.ID, "Aashirvaad Atta 5kg", 11.49)

		got, err := s.GetProduct(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, "Aashirvaad Atta 5kg", got.Name)
		require.NotNil(t, got.Price)
		assert.Equal(t, 11.49, *got.Price)
	})
}

func TestCountProducts(t *testing.T) {
	s := openTestStore(t)
	st := seedStore(t, s, "Made In India", true)
	seedProduct(t, s, st.ID, "A", 1)
	seedProduct(t, s, st.ID, "B", 1)

	count, err := s.CountProducts(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
