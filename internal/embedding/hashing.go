package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Hashing is an offline embedder based on feature hashing of lowercase word
// tokens. Vectors are L2-normalized so similar vocabularies land close together.
type Hashing struct {
	dim int
}

// NewHashing returns a hashing embedder; non-positive dim selects DefaultDimension.
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, h.dim)
	for _, token := range tokenize(text) {
		sum := xxhash.Sum64String(token)
		idx := sum % uint64(h.dim)
		// top bit picks the sign
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}

	return vec, nil
}

func (h *Hashing) Dimension() int {
	return h.dim
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
