package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/infrastructure/embedding"
	"github.com/shelfmatch/backend/internal/infrastructure/store"
	"github.com/shelfmatch/backend/internal/matching"
	"github.com/shelfmatch/backend/internal/rules"
	"github.com/shelfmatch/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	exitCode := m.Run()
	os.Exit(exitCode)
}

// setupTestRouter builds a router over an in-memory database seeded with two
// stores whose catalogs contain one obvious cross-store match.
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	embedder, err := embedding.NewProvider(embedding.Config{
		Provider:      "mock",
		RatePerSecond: 10000,
		Burst:         10000,
	})
	if err != nil {
		t.Fatalf("building embedder: %v", err)
	}

	ruleStore := rules.New(rules.Tables{
		Categories: []rules.Category{
			{Type: "salt", Subtype: "generic", Keywords: []string{"salt"}},
			{Type: "rice", Subtype: "basmati", Keywords: []string{"basmati"}},
		},
		Brands: []string{"Tata", "India Gate"},
	})
	engine := matching.NewEngine(ruleStore, embedder)

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ours := &domain.Store{Name: "Ours", IsPrimary: true}
	theirs := &domain.Store{Name: "Theirs"}
	for _, st := range []*domain.Store{ours, theirs} {
		if err := db.UpsertStore(ctx, st); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}

	seed := func(storeID int64, name string, price float64) {
		rec := &domain.ProductRecord{Name: name}
		if err := db.AddProduct(ctx, storeID, rec); err != nil {
			t.Fatalf("seeding product: %v", err)
		}
		if err := db.AddPrice(ctx, &domain.PricePoint{ProductID: rec.ID, Price: price}); err != nil {
			t.Fatalf("seeding price: %v", err)
		}
	}
	seed(ours.ID, "Tata Salt 1kg", 2.49)
	seed(theirs.ID, "Tata Salt 1 kg", 2.99)

	comparison := usecase.NewComparisonService(engine, db, db)
	handler := NewHandler(engine, comparison)

	return SetupRouter(handler, []string{"http://localhost:3000"})
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}

func TestMatchEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("matches a primary against candidates", func(t *testing.T) {
		payload := `{
			"primary": {"id": 1, "name": "Tata Salt 1kg"},
			"candidates": [
				{"id": 2, "name": "Tata Salt 1 kg"},
				{"id": 3, "name": "India Gate Basmati Rice 5kg"}
			]
		}`
		req, _ := http.NewRequest("POST", "/api/v1/match", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
		}

		var body struct {
			Matches []domain.ProductMatch `json:"matches"`
			Count   int                   `json:"count"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body.Count != 1 {
			t.Fatalf("count = %d, want 1", body.Count)
		}
		if body.Matches[0].MatchedID != 2 {
			t.Errorf("MatchedID = %d, want 2", body.Matches[0].MatchedID)
		}
		if body.Matches[0].MatchType != domain.MatchExact {
			t.Errorf("MatchType = %v, want exact", body.Matches[0].MatchType)
		}
	})

	t.Run("invalid body is a 400", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/v1/match", bytes.NewReader([]byte(`{`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("invalid primary is a 400", func(t *testing.T) {
		payload := `{"primary": {"id": 0, "name": ""}, "candidates": []}`
		req, _ := http.NewRequest("POST", "/api/v1/match", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestBatchMatchEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("scores every primary", func(t *testing.T) {
		payload := `{
			"primaries": [{"id": 1, "name": "Tata Salt 1kg"}],
			"candidates": [{"id": 2, "name": "Tata Salt 1 kg"}]
		}`
		req, _ := http.NewRequest("POST", "/api/v1/match/batch", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
		}

		var body struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body.Count != 1 {
			t.Errorf("count = %d, want 1", body.Count)
		}
	})

	t.Run("empty primaries is a 400", func(t *testing.T) {
		payload := `{"primaries": [], "candidates": []}`
		req, _ := http.NewRequest("POST", "/api/v1/match/batch", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestComparisonEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	run := func(t *testing.T) {
		t.Helper()
		req, _ := http.NewRequest("POST", "/api/v1/comparison/2/run", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("run status = %d, want 200; body %s", w.Code, w.Body.String())
		}
	}

	t.Run("run then report", func(t *testing.T) {
		run(t)

		req, _ := http.NewRequest("GET", "/api/v1/comparison/2", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
		}

		var report usecase.ComparisonReport
		if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
			t.Fatalf("decoding report: %v", err)
		}
		if report.Total != 1 {
			t.Errorf("Total = %d, want 1", report.Total)
		}
		if report.CompetitorStore.Name != "Theirs" {
			t.Errorf("CompetitorStore = %q, want Theirs", report.CompetitorStore.Name)
		}
	})

	t.Run("csv export", func(t *testing.T) {
		run(t)

		req, _ := http.NewRequest("GET", "/api/v1/comparison/2/export", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("Content-Type = %q, want text/csv", ct)
		}
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("csv lines = %d, want header plus one row", len(lines))
		}
		if !strings.Contains(lines[1], "Tata Salt 1kg") {
			t.Errorf("csv row = %q, want the salt product", lines[1])
		}
	})

	t.Run("list stores", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/comparison/stores", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		var body struct {
			Stores []usecase.StoreSummary `json:"stores"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if len(body.Stores) != 2 {
			t.Fatalf("len(stores) = %d, want 2", len(body.Stores))
		}
		if !body.Stores[0].IsPrimary {
			t.Error("primary store should be listed first")
		}
	})

	t.Run("unknown competitor is a 404", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/comparison/99", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("bad competitor id is a 400", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/v1/comparison/abc/run", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("running against the primary store is a 400", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/v1/comparison/1/run", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("bad min confidence is a 400", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/v1/comparison/2/run?minConfidence=2", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
