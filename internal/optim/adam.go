package optim

import (
	"math"

	"github.com/born-ml/fnstack/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) rule.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// The timestep t is kept per parameter, so a parameter that is skipped by
// sparse updates is bias-corrected by its own update count.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float32
	beta1 float32
	beta2 float32
	eps   float32
}

// AdamConfig holds configuration for Adam.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates an Adam rule, filling zero fields with the defaults.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
	}
}

// MomentState is the Adam companion record.
type MomentState struct {
	M    []float32 // First moment estimates
	V    []float32 // Second moment estimates
	Step int       // Updates applied to this parameter
}

// Reset implements ParamState.
func (s *MomentState) Reset() {
	clear(s.M)
	clear(s.V)
	s.Step = 0
}

// Name implements Rule.
func (a *Adam) Name() string { return "adam" }

// NewState implements Rule.
func (a *Adam) NewState(p *tensor.Tensor) ParamState {
	return &MomentState{
		M: make([]float32, p.Size()),
		V: make([]float32, p.Size()),
	}
}

// Apply implements Rule.
func (a *Adam) Apply(p *tensor.Tensor, state ParamState) {
	s := state.(*MomentState)
	s.Step++

	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(s.Step)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(s.Step)))

	data := p.Data()
	for i, g := range p.Grad() {
		s.M[i] = a.beta1*s.M[i] + (1.0-a.beta1)*g
		s.V[i] = a.beta2*s.V[i] + (1.0-a.beta2)*g*g

		mHat := s.M[i] / biasCorrection1
		vHat := s.V[i] / biasCorrection2

		data[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
	}
}

// LR implements Rule.
func (a *Adam) LR() float32 { return a.lr }

// SetLR implements Rule.
func (a *Adam) SetLR(lr float32) { a.lr = lr }
