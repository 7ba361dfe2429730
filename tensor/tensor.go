// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the batched float32 tensor the graph engine
// operates on.
//
// A Tensor holds BatchCount samples of one Shape, a lazily allocated
// gradient buffer and the counters Backward and the optimizer use:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2}, 2)
//	x.Sample(1)  // [3 4]
//	x.InitGrad() // zeroed gradient, same length as the data
package tensor

import "github.com/born-ml/fnstack/internal/tensor"

// Tensor is a batch of samples sharing one Shape.
type Tensor = tensor.Tensor

// Shape is the per-sample shape.
type Shape = tensor.Shape

// Producer is the non-owning view a tensor keeps of the node that computed it.
type Producer = tensor.Producer

// Origin anchors a node for weak producer references.
type Origin = tensor.Origin

// DebugChecks is true in builds tagged fnstackdebug.
const DebugChecks = tensor.DebugChecks

// New allocates a zero-filled tensor.
func New(shape Shape, batch int) (*Tensor, error) {
	return tensor.New(shape, batch)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice(data []float32, shape Shape, batch int) (*Tensor, error) {
	return tensor.FromSlice(data, shape, batch)
}

// Zeros allocates a zero-filled tensor and panics on an invalid shape.
func Zeros(shape Shape, batch int) *Tensor {
	return tensor.Zeros(shape, batch)
}

// Scalar creates a single-element tensor.
func Scalar(v float32) *Tensor {
	return tensor.Scalar(v)
}

// NewOrigin creates the weak-reference anchor of a node.
func NewOrigin(node Producer) *Origin {
	return tensor.NewOrigin(node)
}
