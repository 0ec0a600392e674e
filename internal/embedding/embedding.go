// Package embedding provides the semantic-similarity signal: two texts are
// encoded under one fixed sentence-embedding model and compared by cosine
// similarity, normalized into [0,1].
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"job-radar/internal/util"
)

// DefaultTextLimit bounds the rune budget of each text before encoding.
const DefaultTextLimit = 5000

// Embedder generates an embedding vector for a text. Implementations can use
// Gemini, OpenAI, Ollama, etc.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Provider is the process-lifetime handle around an expensive Embedder. The
// underlying embedder is constructed lazily on first use behind a one-time
// barrier and is read-only afterwards. A failed construction is sticky: the
// run cannot score without the model.
type Provider struct {
	newEmbedder func(ctx context.Context) (Embedder, error)

	// StrictAffineRemap applies the affine remap (sim+1)/2 to every
	// similarity instead of only negative ones. See Normalize.
	StrictAffineRemap bool

	// TextLimit is the per-text rune budget before encoding.
	TextLimit int

	once     sync.Once
	embedder Embedder
	initErr  error
}

// NewProvider wraps an embedder factory in a lazily-initialized provider.
func NewProvider(factory func(ctx context.Context) (Embedder, error)) *Provider {
	return &Provider{
		newEmbedder: factory,
		TextLimit:   DefaultTextLimit,
	}
}

// Embedder returns the shared embedder, constructing it on first call.
func (p *Provider) Embedder(ctx context.Context) (Embedder, error) {
	p.once.Do(func() {
		if p.newEmbedder == nil {
			p.initErr = errors.New("embedder factory is not configured")
			return
		}
		p.embedder, p.initErr = p.newEmbedder(ctx)
	})

	if p.initErr != nil {
		return nil, fmt.Errorf("initialize embedding model: %w", p.initErr)
	}

	return p.embedder, nil
}

// Similarity encodes both texts (truncated to the provider budget) and
// returns their normalized cosine similarity in [0,1].
func (p *Provider) Similarity(ctx context.Context, a, b string) (float64, error) {
	emb, err := p.Embedder(ctx)
	if err != nil {
		return 0, err
	}

	limit := p.TextLimit
	if limit <= 0 {
		limit = DefaultTextLimit
	}

	va, err := emb.Embed(ctx, util.TruncateBudget(a, limit))
	if err != nil {
		return 0, fmt.Errorf("embed text: %w", err)
	}

	vb, err := emb.Embed(ctx, util.TruncateBudget(b, limit))
	if err != nil {
		return 0, fmt.Errorf("embed text: %w", err)
	}

	return Normalize(Cosine(va, vb), p.StrictAffineRemap), nil
}

// Cosine returns the cosine similarity of two vectors, clamped to [-1,1]
// against floating error. Mismatched or empty vectors yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	return math.Max(-1, math.Min(1, sim))
}

// Normalize maps a cosine similarity from [-1,1] into [0,1].
//
// The historical behavior remaps only negative similarities via (sim+1)/2 and
// passes non-negative ones through unchanged. That asymmetry is mathematically
// inconsistent (0.0 and -0.4 do not map proportionally) but is preserved as
// the default; strictAffine selects the uniform affine remap instead.
func Normalize(sim float64, strictAffine bool) float64 {
	sim = math.Max(-1, math.Min(1, sim))

	if strictAffine || sim < 0 {
		return (sim + 1) / 2
	}

	return sim
}
