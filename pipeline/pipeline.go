// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pipeline sequences nodes into a model and fuses
// function/activation pairs.
//
// Example:
//
//	stack := pipeline.New("mlp",
//	    nn.NewLinear("fc1", nn.LinearConfig{In: 784, Out: 128}),
//	    nn.NewReLU("relu"),
//	    nn.NewLinear("fc2", nn.LinearConfig{In: 128, Out: 10}),
//	)
//	_ = stack.Compress() // fc1 absorbs relu
package pipeline

import (
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/pipeline"
)

// FunctionStack is an ordered, named collection of nodes.
type FunctionStack = pipeline.FunctionStack

// New creates a stack running nodes in order.
func New(name string, nodes ...function.Node) *FunctionStack {
	return pipeline.New(name, nodes...)
}
