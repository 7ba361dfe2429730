package nn

import (
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/tensor"
)

type addKernel struct{ name string }

func (k addKernel) Compute(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	if !a.SameLayout(b) {
		return nil, errs.Shape(k.name+".Forward", "operands %v and %v differ", a, b)
	}
	y := tensor.Zeros(a.Shape(), a.BatchCount())
	for i, v := range a.Data() {
		y.Data()[i] = v + b.Data()[i]
	}
	return y, nil
}

func (addKernel) Differentiate(y, a, b *tensor.Tensor) error {
	for i, g := range y.Grad() {
		a.Grad()[i] += g
		b.Grad()[i] += g
	}
	return nil
}

// NewAdd creates a node computing a + b elementwise.
// Operands must share shape and batch count; nothing is broadcast.
func NewAdd(name string) *function.DualInput {
	return function.NewDualInput(name, addKernel{name: name})
}

type mulKernel struct{ name string }

func (k mulKernel) Compute(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	if !a.SameLayout(b) {
		return nil, errs.Shape(k.name+".Forward", "operands %v and %v differ", a, b)
	}
	y := tensor.Zeros(a.Shape(), a.BatchCount())
	for i, v := range a.Data() {
		y.Data()[i] = v * b.Data()[i]
	}
	return y, nil
}

func (mulKernel) Differentiate(y, a, b *tensor.Tensor) error {
	ad, bd := a.Data(), b.Data()
	for i, g := range y.Grad() {
		a.Grad()[i] += g * bd[i]
		b.Grad()[i] += g * ad[i]
	}
	return nil
}

// NewMul creates a node computing a * b elementwise.
func NewMul(name string) *function.DualInput {
	return function.NewDualInput(name, mulKernel{name: name})
}

// AddScaled computes a + alpha*b with alpha fixed on the node.
type AddScaled struct {
	*function.DualInputConst
	accelerated bool
}

// NewAddScaled creates an AddScaled node.
func NewAddScaled(name string, alpha float32) *AddScaled {
	s := &AddScaled{}
	s.DualInputConst = function.NewDualInputConst(name, s, alpha)
	return s
}

// SetAccelerated selects the BLAS axpy path.
func (s *AddScaled) SetAccelerated(on bool) {
	s.accelerated = on
}

// Accelerated reports whether the BLAS path is selected.
func (s *AddScaled) Accelerated() bool {
	return s.accelerated
}

// Compute implements function.BinaryConstKernel.
func (s *AddScaled) Compute(a, b *tensor.Tensor, alpha float32) (*tensor.Tensor, error) {
	if !a.SameLayout(b) {
		return nil, errs.Shape(s.Name()+".Forward", "operands %v and %v differ", a, b)
	}
	y := tensor.Zeros(a.Shape(), a.BatchCount())
	copy(y.Data(), a.Data())
	if s.accelerated {
		axpy(alpha, b.Data(), y.Data())
		return y, nil
	}
	yd := y.Data()
	for i, v := range b.Data() {
		yd[i] += alpha * v
	}
	return y, nil
}

// Differentiate implements function.BinaryConstKernel.
func (s *AddScaled) Differentiate(y, a, b *tensor.Tensor, alpha float32) error {
	if s.accelerated {
		axpy(1, y.Grad(), a.Grad())
		axpy(alpha, y.Grad(), b.Grad())
		return nil
	}
	for i, g := range y.Grad() {
		a.Grad()[i] += g
		b.Grad()[i] += alpha * g
	}
	return nil
}

// axpy computes dst += alpha*src.
func axpy(alpha float32, src, dst []float32) {
	blas32.Axpy(alpha,
		blas32.Vector{N: len(src), Data: src, Inc: 1},
		blas32.Vector{N: len(dst), Data: dst, Inc: 1})
}
