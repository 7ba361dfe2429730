// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package function defines the node contract of the graph engine.
//
// A node records the inputs of every Forward on a LIFO stack and pops one
// record per Backward, so recurrent use of the same node within one step
// is differentiated in reverse order. Predict computes the same output
// without recording anything.
package function

import (
	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/tensor"
)

// Node is the contract every operator and pipeline satisfies.
type Node = function.Node

// Stateful exposes the invocation stacks of a node.
type Stateful = function.Stateful

// Activation is elementwise math with a derivative in terms of the output.
type Activation = function.Activation

// CompressibleFunction can absorb a following activation.
type CompressibleFunction = function.CompressibleFunction

// CompressibleActivation can be absorbed into a preceding function.
type CompressibleActivation = function.CompressibleActivation

// Accelerable selects between a reference and an accelerated path.
type Accelerable = function.Accelerable

// Node shapes.
type (
	Base              = function.Base
	SingleInput       = function.SingleInput
	DualInput         = function.DualInput
	DualInputConst    = function.DualInputConst
	UnaryKernel       = function.UnaryKernel
	BinaryKernel      = function.BinaryKernel
	BinaryConstKernel = function.BinaryConstKernel
)

// Error kinds. Test with errors.Is.
var (
	ErrArity = errs.ErrArity
	ErrShape = errs.ErrShape
	ErrGraph = errs.ErrGraph
	ErrState = errs.ErrState
)

// Error is the typed error carrying a kind, an operation and a detail.
type Error = errs.Error

// NewSingleInput wraps kernel into a one-input node owning params.
func NewSingleInput(name string, kernel UnaryKernel, params ...*tensor.Tensor) *SingleInput {
	return function.NewSingleInput(name, kernel, params...)
}

// NewDualInput wraps kernel into a two-input node owning params.
func NewDualInput(name string, kernel BinaryKernel, params ...*tensor.Tensor) *DualInput {
	return function.NewDualInput(name, kernel, params...)
}

// NewDualInputConst wraps kernel into a two-input node with constant c.
func NewDualInputConst(name string, kernel BinaryConstKernel, c float32, params ...*tensor.Tensor) *DualInputConst {
	return function.NewDualInputConst(name, kernel, c, params...)
}

// Backward propagates gradients from y through every reachable node.
func Backward(y *tensor.Tensor) error {
	return function.Backward(y)
}
