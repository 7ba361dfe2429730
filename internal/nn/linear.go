package nn

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/parallel"
	"github.com/born-ml/fnstack/internal/tensor"
)

// LinearConfig configures a Linear layer.
type LinearConfig struct {
	In          int                 // Input features per sample
	Out         int                 // Output features per sample
	NoBias      bool                // Drop the bias term
	Accelerated bool                // Use the BLAS path instead of the reference loops
	Activation  function.Activation // Optional fused activation
	Parallel    parallel.Config     // Row fan-out on the accelerated path (default: parallel.DefaultConfig())
}

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = act(x @ W.T + b)
// where:
//   - x holds In features per sample (any per-sample shape of that size)
//   - W is the weight matrix with shape [Out, In]
//   - b is the bias vector with shape [Out]
//   - act is the identity unless an activation was fused in
//
// Linear is a CompressibleFunction: a pipeline can move a following
// elementwise activation into it.
type Linear struct {
	*function.SingleInput

	in, out     int
	weight      *tensor.Tensor
	bias        *tensor.Tensor
	activation  function.Activation
	accelerated bool
	par         parallel.Config
}

// NewLinear creates a new Linear layer.
//
// Weights are initialized using Xavier/Glorot uniform distribution.
// Biases are initialized to zeros. Panics if In or Out is not positive.
func NewLinear(name string, cfg LinearConfig) *Linear {
	if cfg.In <= 0 || cfg.Out <= 0 {
		panic(errs.Shape("nn.NewLinear", "invalid sizes in=%d out=%d", cfg.In, cfg.Out))
	}
	if cfg.Parallel == (parallel.Config{}) {
		cfg.Parallel = parallel.DefaultConfig()
	}

	l := &Linear{
		in:          cfg.In,
		out:         cfg.Out,
		activation:  cfg.Activation,
		accelerated: cfg.Accelerated,
		par:         cfg.Parallel,
	}

	l.weight = tensor.Zeros(tensor.Shape{cfg.Out, cfg.In}, 1).SetName(name + ".w")
	Xavier(l.weight, cfg.In, cfg.Out)
	params := []*tensor.Tensor{l.weight}
	if !cfg.NoBias {
		l.bias = tensor.Zeros(tensor.Shape{cfg.Out}, 1).SetName(name + ".b")
		params = append(params, l.bias)
	}

	l.SingleInput = function.NewSingleInput(name, l, params...)
	return l
}

// Weight returns the [Out, In] weight tensor.
func (l *Linear) Weight() *tensor.Tensor {
	return l.weight
}

// Bias returns the bias tensor, or nil when built with NoBias.
func (l *Linear) Bias() *tensor.Tensor {
	return l.bias
}

// In returns the number of input features.
func (l *Linear) In() int {
	return l.in
}

// Out returns the number of output features.
func (l *Linear) Out() int {
	return l.out
}

// Activation returns the fused activation, or nil.
func (l *Linear) Activation() function.Activation {
	return l.activation
}

// SetActivation fuses a into the layer output.
// A layer holds at most one activation.
func (l *Linear) SetActivation(a function.Activation) error {
	if l.activation != nil {
		return errs.State(l.Name()+".SetActivation", "activation %q already fused", l.activation.Name())
	}
	if l.HasState() {
		return errs.State(l.Name()+".SetActivation", "node has recorded invocations")
	}
	l.activation = a
	return nil
}

// SetAccelerated selects the BLAS path (true) or the reference loops (false).
func (l *Linear) SetAccelerated(on bool) {
	l.accelerated = on
}

// Accelerated reports whether the BLAS path is selected.
func (l *Linear) Accelerated() bool {
	return l.accelerated
}

// Compute implements function.UnaryKernel.
func (l *Linear) Compute(x *tensor.Tensor) (*tensor.Tensor, error) {
	if x.Length() != l.in {
		return nil, errs.Shape(l.Name()+".Forward", "expected %d input features, got shape %v", l.in, x.Shape())
	}
	y := tensor.Zeros(tensor.Shape{l.out}, x.BatchCount())
	if l.accelerated {
		l.computeBLAS(x, y)
	} else {
		l.computeReference(x, y)
	}
	return y, nil
}

func (l *Linear) computeReference(x, y *tensor.Tensor) {
	w := l.weight.Data()
	for b := 0; b < x.BatchCount(); b++ {
		xs := x.Sample(b)
		ys := y.Sample(b)
		for o := 0; o < l.out; o++ {
			var sum float32
			if l.bias != nil {
				sum = l.bias.Data()[o]
			}
			row := w[o*l.in : (o+1)*l.in]
			for i, v := range xs {
				sum += row[i] * v
			}
			if l.activation != nil {
				sum = l.activation.Activate(sum)
			}
			ys[o] = sum
		}
	}
}

func (l *Linear) computeBLAS(x, y *tensor.Tensor) {
	batch := x.BatchCount()
	// y = x @ W.T
	blas32.Gemm(blas.NoTrans, blas.Trans, 1,
		general(x.Data(), batch, l.in),
		general(l.weight.Data(), l.out, l.in),
		0,
		general(y.Data(), batch, l.out))

	parallel.ForRange(batch, func(lo, hi int) {
		for b := lo; b < hi; b++ {
			ys := y.Sample(b)
			for o := range ys {
				v := ys[o]
				if l.bias != nil {
					v += l.bias.Data()[o]
				}
				if l.activation != nil {
					v = l.activation.Activate(v)
				}
				ys[o] = v
			}
		}
	}, l.par)
}

// Differentiate implements function.UnaryKernel.
func (l *Linear) Differentiate(y, x *tensor.Tensor) error {
	if y.Length() != l.out || y.BatchCount() != x.BatchCount() {
		return errs.Shape(l.Name()+".Backward", "output %v does not match input %v", y, x)
	}
	gz := l.preActivationGrad(y)
	if l.accelerated {
		l.differentiateBLAS(gz, x)
	} else {
		l.differentiateReference(gz, x)
	}
	return nil
}

// preActivationGrad returns dL/d(x@W.T+b). Without a fused activation this
// is y's gradient itself.
func (l *Linear) preActivationGrad(y *tensor.Tensor) []float32 {
	if l.activation == nil {
		return y.Grad()
	}
	gz := make([]float32, y.Size())
	for i, g := range y.Grad() {
		gz[i] = g * l.activation.Derivative(y.Data()[i])
	}
	return gz
}

func (l *Linear) differentiateReference(gz []float32, x *tensor.Tensor) {
	w := l.weight.Data()
	gw := l.weight.Grad()
	for b := 0; b < x.BatchCount(); b++ {
		xs := x.Sample(b)
		gxs := x.GradSample(b)
		g := gz[b*l.out : (b+1)*l.out]
		for o, gout := range g {
			if l.bias != nil {
				l.bias.Grad()[o] += gout
			}
			row := w[o*l.in : (o+1)*l.in]
			grow := gw[o*l.in : (o+1)*l.in]
			for i, v := range xs {
				grow[i] += gout * v
				gxs[i] += gout * row[i]
			}
		}
	}
}

func (l *Linear) differentiateBLAS(gz []float32, x *tensor.Tensor) {
	batch := x.BatchCount()
	gzm := general(gz, batch, l.out)

	// dW += gz.T @ x
	blas32.Gemm(blas.Trans, blas.NoTrans, 1,
		gzm, general(x.Data(), batch, l.in),
		1, general(l.weight.Grad(), l.out, l.in))

	// dx += gz @ W
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		gzm, general(l.weight.Data(), l.out, l.in),
		1, general(x.Grad(), batch, l.in))

	if l.bias != nil {
		gb := l.bias.Grad()
		for b := 0; b < batch; b++ {
			blas32.Axpy(1,
				blas32.Vector{N: l.out, Data: gz[b*l.out : (b+1)*l.out], Inc: 1},
				blas32.Vector{N: l.out, Data: gb, Inc: 1})
		}
	}
}

func general(data []float32, rows, cols int) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data}
}
