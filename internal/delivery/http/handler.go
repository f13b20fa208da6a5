package http

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelfmatch/backend/internal/domain"
	"github.com/shelfmatch/backend/internal/matching"
	"github.com/shelfmatch/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	engine     *matching.Engine
	comparison *usecase.ComparisonService
}

// NewHandler creates a new HTTP handler
func NewHandler(engine *matching.Engine, comparison *usecase.ComparisonService) *Handler {
	return &Handler{engine: engine, comparison: comparison}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shelfmatch-backend",
		"version": "1.0.0",
	})
}

// matchRequest is the payload for single-primary matching.
type matchRequest struct {
	Primary       domain.ProductRecord   `json:"primary"`
	Candidates    []domain.ProductRecord `json:"candidates"`
	MinConfidence float64                `json:"minConfidence"`
	MaxMatches    int                    `json:"maxMatches"`
}

// MatchProducts scores one primary product against a candidate list.
func (h *Handler) MatchProducts(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	matches, err := h.engine.FindMatches(c.Request.Context(), &req.Primary, req.Candidates, matching.MatchOptions{
		MinConfidence: req.MinConfidence,
		MaxMatches:    req.MaxMatches,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidProduct) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}

// batchMatchRequest is the payload for many-to-many matching.
type batchMatchRequest struct {
	Primaries     []domain.ProductRecord `json:"primaries"`
	Candidates    []domain.ProductRecord `json:"candidates"`
	MinConfidence float64                `json:"minConfidence"`
}

// BatchMatch scores every primary against the full candidate set.
func (h *Handler) BatchMatch(c *gin.Context) {
	var req batchMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Primaries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "primaries must not be empty"})
		return
	}

	ctx := c.Request.Context()
	h.engine.WarmEmbeddings(ctx, req.Primaries, req.Candidates)
	matches := h.engine.BatchMatch(ctx, req.Primaries, req.Candidates, req.MinConfidence)

	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}

// ListStores returns every store with product and match counts.
func (h *Handler) ListStores(c *gin.Context) {
	stores, err := h.comparison.ListStores(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stores": stores})
}

// RunComparison matches the primary catalog against one competitor store
// and persists the results.
func (h *Handler) RunComparison(c *gin.Context) {
	competitorID, ok := h.competitorID(c)
	if !ok {
		return
	}

	minConfidence := matching.DefaultMinConfidence
	if raw := c.Query("minConfidence"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minConfidence must be a number in [0,1]"})
			return
		}
		minConfidence = parsed
	}

	result, err := h.comparison.MatchStores(c.Request.Context(), competitorID, minConfidence)
	if err != nil {
		h.comparisonError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetComparison returns the price comparison report for one competitor.
func (h *Handler) GetComparison(c *gin.Context) {
	competitorID, ok := h.competitorID(c)
	if !ok {
		return
	}

	opts := usecase.ReportOptions{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if raw := c.Query("limit"); raw != "" {
		opts.Limit, _ = strconv.Atoi(raw)
	}
	if raw := c.Query("offset"); raw != "" {
		opts.Offset, _ = strconv.Atoi(raw)
	}

	report, err := h.comparison.Comparison(c.Request.Context(), competitorID, opts)
	if err != nil {
		h.comparisonError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportComparison streams the full comparison report as CSV.
func (h *Handler) ExportComparison(c *gin.Context) {
	competitorID, ok := h.competitorID(c)
	if !ok {
		return
	}

	report, err := h.comparison.Comparison(c.Request.Context(), competitorID, usecase.ReportOptions{Limit: 10000})
	if err != nil {
		h.comparisonError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=price_comparison_%d.csv", competitorID))

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{
		"Product Name (Ours)", "Brand", "Category",
		"Our Price", "Their Price",
		"Our Price/100", "Their Price/100",
		"Savings", "Savings %", "Match Type", "Confidence",
	})

	for _, row := range report.Products {
		_ = w.Write([]string{
			row.PrimaryName,
			row.PrimaryBrand,
			row.Category,
			fmt.Sprintf("$%.2f", row.OurPrice),
			fmt.Sprintf("$%.2f", row.TheirPrice),
			formatNormalized(row.OurNormalized),
			formatNormalized(row.TheirNormalized),
			fmt.Sprintf("$%.2f", absValue(row.Savings)),
			fmt.Sprintf("%.1f%%", row.SavingsPercent),
			string(row.MatchType),
			fmt.Sprintf("%.3f", row.Confidence),
		})
	}
	w.Flush()
}

// competitorID parses the path parameter, writing the error response itself.
func (h *Handler) competitorID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("competitorID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "competitorID must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (h *Handler) comparisonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrStoreNotFound), errors.Is(err, domain.ErrNoPrimaryStore):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func formatNormalized(n usecase.NormalizedPrice) string {
	if n.PricePer100 == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f/100%s", *n.PricePer100, n.Unit)
}

func absValue(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
