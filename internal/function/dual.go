package function

import (
	"github.com/born-ml/fnstack/internal/tensor"
)

// BinaryKernel supplies the pure math of a two-input node.
type BinaryKernel interface {
	Compute(a, b *tensor.Tensor) (*tensor.Tensor, error)
	Differentiate(y, a, b *tensor.Tensor) error
}

// DualInput is the node shape for two-input, one-output operators.
//
// Passing the same tensor as both inputs is allowed; its use count is bumped
// twice and both contributions land in its gradient.
type DualInput struct {
	Base
	kernel BinaryKernel
}

// NewDualInput wraps kernel into a node owning params.
func NewDualInput(name string, kernel BinaryKernel, params ...*tensor.Tensor) *DualInput {
	d := &DualInput{kernel: kernel}
	d.Base = newBase(name, d, params)
	return d
}

// Forward computes the output and records (a, b).
func (d *DualInput) Forward(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return d.forward(2, xs, func() (*tensor.Tensor, error) {
		return d.kernel.Compute(xs[0], xs[1])
	})
}

// Predict computes the output without bookkeeping.
func (d *DualInput) Predict(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return d.predict(2, xs, func() (*tensor.Tensor, error) {
		return d.kernel.Compute(xs[0], xs[1])
	})
}

// Backward differentiates the most recent pending invocation.
func (d *DualInput) Backward(ys ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return d.backward(ys, func(ys, xs []*tensor.Tensor) error {
		return d.kernel.Differentiate(ys[0], xs[0], xs[1])
	})
}
