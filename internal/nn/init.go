package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/fnstack/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Fills t with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
func Xavier(t *tensor.Tensor, fanIn, fanOut int) {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	data := t.Data()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
}

// Normal fills t with values drawn from N(0, std²).
func Normal(t *tensor.Tensor, std float64) {
	data := t.Data()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32(rand.NormFloat64() * std)
	}
}
