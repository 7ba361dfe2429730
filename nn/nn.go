// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the operators built on the function node contract.
//
// Layers:
//   - Linear: y = act(x @ W.T + b), compressible with a following activation
//   - EmbedID: id lookup into a [vocab, dim] table
//
// Activations (nodes and fusable math): ReLU, LeakyReLU, Sigmoid, Tanh, ELU.
//
// Arithmetic: Add, Mul, AddScaled (a + alpha*b).
//
// Losses write dLoss/dy into the prediction's gradient: MeanSquaredError,
// SoftmaxCrossEntropy.
package nn

import (
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/nn"
	"github.com/born-ml/fnstack/internal/tensor"
)

// Layers.
type (
	Linear       = nn.Linear
	LinearConfig = nn.LinearConfig
	EmbedID      = nn.EmbedID
	Elementwise  = nn.Elementwise
	AddScaled    = nn.AddScaled
)

// Activation math.
type (
	ReLU      = nn.ReLU
	LeakyReLU = nn.LeakyReLU
	Sigmoid   = nn.Sigmoid
	Tanh      = nn.Tanh
	ELU       = nn.ELU
)

// NewLinear creates a fully connected layer.
//
// Example:
//
//	fc := nn.NewLinear("fc1", nn.LinearConfig{In: 784, Out: 128})
func NewLinear(name string, cfg LinearConfig) *Linear {
	return nn.NewLinear(name, cfg)
}

// NewEmbedID creates an embedding table.
func NewEmbedID(name string, vocab, dim int) *EmbedID {
	return nn.NewEmbedID(name, vocab, dim)
}

// NewElementwise creates an activation node from any Activation.
func NewElementwise(name string, act function.Activation) *Elementwise {
	return nn.NewElementwise(name, act)
}

// NewReLU creates a ReLU node.
func NewReLU(name string) *Elementwise { return nn.NewReLU(name) }

// NewLeakyReLU creates a LeakyReLU node.
func NewLeakyReLU(name string, slope float32) *Elementwise { return nn.NewLeakyReLU(name, slope) }

// NewSigmoid creates a Sigmoid node.
func NewSigmoid(name string) *Elementwise { return nn.NewSigmoid(name) }

// NewTanh creates a Tanh node.
func NewTanh(name string) *Elementwise { return nn.NewTanh(name) }

// NewELU creates an ELU node.
func NewELU(name string, alpha float32) *Elementwise { return nn.NewELU(name, alpha) }

// NewAdd creates an elementwise a + b node.
func NewAdd(name string) *function.DualInput { return nn.NewAdd(name) }

// NewMul creates an elementwise a * b node.
func NewMul(name string) *function.DualInput { return nn.NewMul(name) }

// NewAddScaled creates an a + alpha*b node.
func NewAddScaled(name string, alpha float32) *AddScaled { return nn.NewAddScaled(name, alpha) }

// MeanSquaredError returns mean((y - target)²) and writes its gradient into y.
func MeanSquaredError(y, target *tensor.Tensor) (float32, error) {
	return nn.MeanSquaredError(y, target)
}

// SoftmaxCrossEntropy returns the mean cross-entropy over the batch and
// writes its gradient into y.
func SoftmaxCrossEntropy(y *tensor.Tensor, labels []int) (float32, error) {
	return nn.SoftmaxCrossEntropy(y, labels)
}

// Xavier fills t from the Glorot uniform distribution.
func Xavier(t *tensor.Tensor, fanIn, fanOut int) { nn.Xavier(t, fanIn, fanOut) }

// Normal fills t from N(0, std²).
func Normal(t *tensor.Tensor, std float64) { nn.Normal(t, std) }
