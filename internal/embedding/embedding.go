// Package embedding turns text into fixed-size vectors.
package embedding

import (
	"context"
	"errors"
	"strings"
)

// DefaultDimension is the vector size used when nothing else is configured.
const DefaultDimension = 384

// ErrEmptyResponse is returned when a provider answers without a vector.
var ErrEmptyResponse = errors.New("embedding provider returned no vector")

// Embedder maps text to a vector of Dimension() components.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Guard short-circuits blank text to the zero vector so providers never see it.
type Guard struct {
	inner Embedder
}

// NewGuard wraps e. Wrapping a Guard returns it unchanged.
func NewGuard(e Embedder) *Guard {
	if g, ok := e.(*Guard); ok {
		return g
	}
	return &Guard{inner: e}
}

func (g *Guard) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float64, g.Dimension()), nil
	}

	vec, err := g.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrEmptyResponse
	}

	return vec, nil
}

func (g *Guard) Dimension() int {
	if d := g.inner.Dimension(); d > 0 {
		return d
	}
	return DefaultDimension
}

// Unwrap returns the wrapped embedder.
func (g *Guard) Unwrap() Embedder {
	return g.inner
}
