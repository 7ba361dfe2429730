package function

import (
	"github.com/born-ml/fnstack/internal/tensor"
)

// UnaryKernel supplies the pure math of a single-input node.
type UnaryKernel interface {
	// Compute returns a fresh output for x. It must not modify x.
	Compute(x *tensor.Tensor) (*tensor.Tensor, error)

	// Differentiate reads y's gradient and adds the contributions into x's
	// gradient and into the gradients of the node parameters.
	Differentiate(y, x *tensor.Tensor) error
}

// SingleInput is the node shape for one-input, one-output operators.
type SingleInput struct {
	Base
	kernel UnaryKernel
}

// NewSingleInput wraps kernel into a node owning params.
func NewSingleInput(name string, kernel UnaryKernel, params ...*tensor.Tensor) *SingleInput {
	s := &SingleInput{kernel: kernel}
	s.Base = newBase(name, s, params)
	return s
}

// Forward computes the output and records x.
func (s *SingleInput) Forward(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return s.forward(1, xs, func() (*tensor.Tensor, error) {
		return s.kernel.Compute(xs[0])
	})
}

// Predict computes the output without bookkeeping.
func (s *SingleInput) Predict(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return s.predict(1, xs, func() (*tensor.Tensor, error) {
		return s.kernel.Compute(xs[0])
	})
}

// Backward differentiates the most recent pending invocation.
func (s *SingleInput) Backward(ys ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return s.backward(ys, func(ys, xs []*tensor.Tensor) error {
		return s.kernel.Differentiate(ys[0], xs[0])
	})
}
