// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the optimizer and its update rules.
//
// Example:
//
//	opt := optim.New(optim.NewAdam(optim.AdamConfig{LR: 0.001}),
//	    optim.WithWeightDecay(1e-4))
//	opt.SetUp(stack)
//	// ... Forward, loss, Backward ...
//	if err := opt.Update(); err != nil {
//	    return err
//	}
package optim

import "github.com/born-ml/fnstack/internal/optim"

// Optimizer applies a Rule to the registered parameters.
type Optimizer = optim.Optimizer

// Rule is a per-parameter update rule.
type Rule = optim.Rule

// ParamState is the companion record of one parameter.
type ParamState = optim.ParamState

// Node is what SetUp registers.
type Node = optim.Node

// Option configures an Optimizer.
type Option = optim.Option

// Rules and their configuration.
type (
	SGD               = optim.SGD
	SGDConfig         = optim.SGDConfig
	MomentumSGD       = optim.MomentumSGD
	MomentumSGDConfig = optim.MomentumSGDConfig
	Adam              = optim.Adam
	AdamConfig        = optim.AdamConfig
	VelocityState     = optim.VelocityState
	MomentState       = optim.MomentState
)

// New creates an optimizer applying rule.
func New(rule Rule, opts ...Option) *Optimizer {
	return optim.New(rule, opts...)
}

// NewSGD creates a plain SGD rule.
func NewSGD(config SGDConfig) *SGD { return optim.NewSGD(config) }

// NewMomentumSGD creates an SGD rule with momentum.
func NewMomentumSGD(config MomentumSGDConfig) *MomentumSGD { return optim.NewMomentumSGD(config) }

// NewAdam creates an Adam rule.
func NewAdam(config AdamConfig) *Adam { return optim.NewAdam(config) }

// WithWeightDecay adds an L2 penalty to every reduced gradient.
func WithWeightDecay(rate float32) Option { return optim.WithWeightDecay(rate) }

// WithGradientClipping rescales gradients whose L2 norm exceeds threshold.
func WithGradientClipping(threshold float64) Option { return optim.WithGradientClipping(threshold) }
