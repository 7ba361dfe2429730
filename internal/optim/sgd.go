package optim

import (
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/fnstack/internal/tensor"
)

// SGD implements plain stochastic gradient descent.
//
// Update rule:
//
//	param = param - lr * gradient
type SGD struct {
	lr float32
}

// SGDConfig holds configuration for SGD.
type SGDConfig struct {
	LR float32 // Learning rate (default: 0.01)
}

// NewSGD creates an SGD rule.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{lr: config.LR}
}

// Name implements Rule.
func (s *SGD) Name() string { return "sgd" }

// NewState implements Rule. SGD keeps no per-parameter state.
func (s *SGD) NewState(*tensor.Tensor) ParamState { return noState{} }

// Apply implements Rule.
func (s *SGD) Apply(p *tensor.Tensor, _ ParamState) {
	n := p.Size()
	blas32.Axpy(-s.lr,
		blas32.Vector{N: n, Data: p.Grad(), Inc: 1},
		blas32.Vector{N: n, Data: p.Data(), Inc: 1})
}

// LR implements Rule.
func (s *SGD) LR() float32 { return s.lr }

// SetLR implements Rule.
func (s *SGD) SetLR(lr float32) { s.lr = lr }

type noState struct{}

func (noState) Reset() {}

// MomentumSGD implements SGD with a velocity buffer.
//
// Update rule:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
type MomentumSGD struct {
	lr       float32
	momentum float32
}

// MomentumSGDConfig holds configuration for MomentumSGD.
//
// The zero value of each field selects its default, so a momentum of
// exactly zero cannot be requested here. That update is plain SGD: use
// NewSGD for it.
type MomentumSGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.9, range: (0, 1))
}

// NewMomentumSGD creates a MomentumSGD rule. A zero Momentum selects 0.9.
func NewMomentumSGD(config MomentumSGDConfig) *MomentumSGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Momentum == 0 {
		config.Momentum = 0.9
	}
	return &MomentumSGD{lr: config.LR, momentum: config.Momentum}
}

// VelocityState is the MomentumSGD companion record.
type VelocityState struct {
	Velocity []float32
}

// Reset implements ParamState.
func (v *VelocityState) Reset() {
	clear(v.Velocity)
}

// Name implements Rule.
func (m *MomentumSGD) Name() string { return "momentum_sgd" }

// NewState implements Rule.
func (m *MomentumSGD) NewState(p *tensor.Tensor) ParamState {
	return &VelocityState{Velocity: make([]float32, p.Size())}
}

// Apply implements Rule.
func (m *MomentumSGD) Apply(p *tensor.Tensor, state ParamState) {
	v := state.(*VelocityState).Velocity
	data := p.Data()
	for i, g := range p.Grad() {
		v[i] = m.momentum*v[i] + g
		data[i] -= m.lr * v[i]
	}
}

// Momentum returns the velocity decay factor.
func (m *MomentumSGD) Momentum() float32 { return m.momentum }

// LR implements Rule.
func (m *MomentumSGD) LR() float32 { return m.lr }

// SetLR implements Rule.
func (m *MomentumSGD) SetLR(lr float32) { m.lr = lr }
