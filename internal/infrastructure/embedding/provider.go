package embedding

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"golang.org/x/time/rate"

	"github.com/shelfmatch/backend/internal/domain"
)

// Config selects and tunes an embedding backend.
type Config struct {
	Provider      string // "ollama", "openai" or "mock"
	BaseURL       string
	Model         string
	APIKey        string
	RatePerSecond float64
	Burst         int
}

// Provider calls an embedding backend through a chromem-go EmbeddingFunc,
// throttled by a client-side rate limiter so batch runs cannot flood a local
// Ollama instance or burn through an API quota.
type Provider struct {
	name      string
	embedFunc chromem.EmbeddingFunc
	limiter   *rate.Limiter
}

// NewProvider builds the configured backend. Unknown providers are an
// error; the mock provider is deterministic and needs no backend.
func NewProvider(cfg Config) (*Provider, error) {
	limit := cfg.RatePerSecond
	if limit <= 0 {
		limit = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 20
	}

	var embedFunc chromem.EmbeddingFunc
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/api"
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		embedFunc = chromem.NewEmbeddingFuncOllama(model, baseURL)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		model := chromem.EmbeddingModelOpenAI3Small
		if cfg.Model == "text-embedding-3-large" {
			model = chromem.EmbeddingModelOpenAI3Large
		}
		embedFunc = chromem.NewEmbeddingFuncOpenAI(cfg.APIKey, model)
	case "mock", "":
		embedFunc = NewMockEmbedFunc(mockDimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	return &Provider{
		name:      cfg.Provider,
		embedFunc: embedFunc,
		limiter:   rate.NewLimiter(rate.Limit(limit), burst),
	}, nil
}

// Name returns the configured provider name.
func (p *Provider) Name() string { return p.name }

// Embed encodes one text, waiting on the rate limiter first.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	vec, err := p.embedFunc(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}
	return vec, nil
}

// EmbedBatch encodes texts sequentially through the limiter. The backends
// chromem-go wraps are single-text APIs, so a batch is a throttled loop.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}
