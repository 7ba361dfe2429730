// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package scheduler provides epoch-indexed hyperparameter schedules.
package scheduler

import "github.com/born-ml/fnstack/internal/scheduler"

// Scheduler maps values to their values for the next epoch.
type Scheduler = scheduler.Scheduler

// Schedules and their configuration.
type (
	StepDecay         = scheduler.StepDecay
	StepDecayConfig   = scheduler.StepDecayConfig
	LinearShift       = scheduler.LinearShift
	LinearShiftConfig = scheduler.LinearShiftConfig
)

// NewStepDecay multiplies by Gamma every StepSize epochs.
func NewStepDecay(config StepDecayConfig) *StepDecay {
	return scheduler.NewStepDecay(config)
}

// NewLinearShift ramps from From to To between epochs Start and End.
func NewLinearShift(config LinearShiftConfig) *LinearShift {
	return scheduler.NewLinearShift(config)
}
