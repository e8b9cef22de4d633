package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	dim   int
	vec   []float64
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	c.calls++
	return c.vec, c.err
}

func (c *countingEmbedder) Dimension() int {
	return c.dim
}

func TestGuardBlankTextSkipsProvider(t *testing.T) {
	inner := &countingEmbedder{dim: 8, vec: []float64{1}}
	guard := NewGuard(inner)

	for _, text := range []string{"", "   ", "\n\t"} {
		vec, err := guard.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, make([]float64, 8), vec)
	}

	assert.Zero(t, inner.calls)
}

func TestGuardDefaultDimension(t *testing.T) {
	guard := NewGuard(&countingEmbedder{})

	vec, err := guard.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultDimension)
}

func TestGuardPassesThrough(t *testing.T) {
	inner := &countingEmbedder{dim: 2, vec: []float64{0.6, 0.8}}
	guard := NewGuard(inner)

	vec, err := guard.Embed(context.Background(), "python")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.6, 0.8}, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewGuard(&countingEmbedder{err: boom}).Embed(context.Background(), "x")
	assert.ErrorIs(t, err, boom)

	_, err = NewGuard(&countingEmbedder{}).Embed(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewGuardIsIdempotent(t *testing.T) {
	inner := &countingEmbedder{dim: 4}
	guard := NewGuard(inner)

	assert.Same(t, guard, NewGuard(guard))
	assert.Equal(t, inner, guard.Unwrap())
}

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	h := NewHashing(0)
	require.Equal(t, DefaultDimension, h.Dimension())

	a, err := h.Embed(ctx, "Python editing Premiere")
	require.NoError(t, err)
	require.Len(t, a, DefaultDimension)

	var norm float64
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	b, err := h.Embed(ctx, "premiere, EDITING & python!")
	require.NoError(t, err)
	assert.Equal(t, a, b, "token order, case and punctuation are ignored")

	empty, err := h.Embed(ctx, "...")
	require.NoError(t, err)
	assert.Equal(t, make([]float64, DefaultDimension), empty)
}

func TestHashingRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashing(16).Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"c++", "and", "c#", "in", "2024"}, tokenize("C++ and C#, in 2024."))
	assert.Empty(t, tokenize(" - "))
}
