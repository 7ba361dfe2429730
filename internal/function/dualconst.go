package function

import (
	"github.com/born-ml/fnstack/internal/tensor"
)

// BinaryConstKernel supplies the pure math of a two-input node that also
// takes a scalar constant fixed on the node.
type BinaryConstKernel interface {
	Compute(a, b *tensor.Tensor, c float32) (*tensor.Tensor, error)
	Differentiate(y, a, b *tensor.Tensor, c float32) error
}

// DualInputConst is the node shape for two-input operators with a scalar
// constant, e.g. a + c*b.
type DualInputConst struct {
	Base
	kernel   BinaryConstKernel
	constant float32
}

// NewDualInputConst wraps kernel into a node with constant c.
func NewDualInputConst(name string, kernel BinaryConstKernel, c float32, params ...*tensor.Tensor) *DualInputConst {
	d := &DualInputConst{kernel: kernel, constant: c}
	d.Base = newBase(name, d, params)
	return d
}

// Constant returns the scalar constant.
func (d *DualInputConst) Constant() float32 {
	return d.constant
}

// SetConstant replaces the scalar constant. Invocations already recorded
// are differentiated with the new value.
func (d *DualInputConst) SetConstant(c float32) {
	d.constant = c
}

// Forward computes the output and records (a, b).
func (d *DualInputConst) Forward(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return d.forward(2, xs, func() (*tensor.Tensor, error) {
		return d.kernel.Compute(xs[0], xs[1], d.constant)
	})
}

// Predict computes the output without bookkeeping.
func (d *DualInputConst) Predict(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return d.predict(2, xs, func() (*tensor.Tensor, error) {
		return d.kernel.Compute(xs[0], xs[1], d.constant)
	})
}

// Backward differentiates the most recent pending invocation.
func (d *DualInputConst) Backward(ys ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	return d.backward(ys, func(ys, xs []*tensor.Tensor) error {
		return d.kernel.Differentiate(ys[0], xs[0], xs[1], d.constant)
	})
}
