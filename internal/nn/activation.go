package nn

import (
	"math"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/parallel"
	"github.com/born-ml/fnstack/internal/tensor"
)

// ReLU applies f(x) = max(0, x).
type ReLU struct{}

// Name implements function.Activation.
func (ReLU) Name() string { return "relu" }

// Activate implements function.Activation.
func (ReLU) Activate(x float32) float32 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative implements function.Activation.
func (ReLU) Derivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return 0
}

// LeakyReLU applies f(x) = x for x > 0 and Slope*x otherwise.
// Slope must be positive so the sign of the output identifies the branch.
type LeakyReLU struct {
	Slope float32
}

// Name implements function.Activation.
func (LeakyReLU) Name() string { return "leaky_relu" }

// Activate implements function.Activation.
func (a LeakyReLU) Activate(x float32) float32 {
	if x > 0 {
		return x
	}
	return a.Slope * x
}

// Derivative implements function.Activation.
func (a LeakyReLU) Derivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return a.Slope
}

// Sigmoid applies σ(x) = 1 / (1 + exp(-x)).
type Sigmoid struct{}

// Name implements function.Activation.
func (Sigmoid) Name() string { return "sigmoid" }

// Activate implements function.Activation.
func (Sigmoid) Activate(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

// Derivative implements function.Activation.
func (Sigmoid) Derivative(y float32) float32 {
	return y * (1 - y)
}

// Tanh applies the hyperbolic tangent.
type Tanh struct{}

// Name implements function.Activation.
func (Tanh) Name() string { return "tanh" }

// Activate implements function.Activation.
func (Tanh) Activate(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// Derivative implements function.Activation.
func (Tanh) Derivative(y float32) float32 {
	return 1 - y*y
}

// ELU applies f(x) = x for x > 0 and Alpha*(exp(x)-1) otherwise.
type ELU struct {
	Alpha float32
}

// Name implements function.Activation.
func (ELU) Name() string { return "elu" }

// Activate implements function.Activation.
func (a ELU) Activate(x float32) float32 {
	if x > 0 {
		return x
	}
	return a.Alpha * float32(math.Expm1(float64(x)))
}

// Derivative implements function.Activation.
func (a ELU) Derivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return y + a.Alpha
}

// Elementwise is a node applying an Activation to every element.
// It is a CompressibleActivation and can be fused into a preceding Linear.
type Elementwise struct {
	*function.SingleInput

	act         function.Activation
	accelerated bool
	par         parallel.Config
}

// NewElementwise creates an activation node.
func NewElementwise(name string, act function.Activation) *Elementwise {
	if act == nil {
		panic(errs.Arity("nn.NewElementwise", "nil activation"))
	}
	e := &Elementwise{act: act, par: parallel.DefaultConfig()}
	e.SingleInput = function.NewSingleInput(name, e)
	return e
}

// NewReLU creates a ReLU node.
func NewReLU(name string) *Elementwise {
	return NewElementwise(name, ReLU{})
}

// NewLeakyReLU creates a LeakyReLU node (slope 0.2 when zero is passed).
// It panics on a negative slope.
func NewLeakyReLU(name string, slope float32) *Elementwise {
	if slope < 0 {
		panic(errs.Shape("nn.NewLeakyReLU", "slope must be positive, got %v", slope))
	}
	if slope == 0 {
		slope = 0.2
	}
	return NewElementwise(name, LeakyReLU{Slope: slope})
}

// NewSigmoid creates a Sigmoid node.
func NewSigmoid(name string) *Elementwise {
	return NewElementwise(name, Sigmoid{})
}

// NewTanh creates a Tanh node.
func NewTanh(name string) *Elementwise {
	return NewElementwise(name, Tanh{})
}

// NewELU creates an ELU node (alpha 1 when zero is passed).
func NewELU(name string, alpha float32) *Elementwise {
	if alpha == 0 {
		alpha = 1
	}
	return NewElementwise(name, ELU{Alpha: alpha})
}

// Activator implements function.CompressibleActivation.
func (e *Elementwise) Activator() function.Activation {
	return e.act
}

// SetAccelerated spreads the elementwise loop over worker goroutines.
func (e *Elementwise) SetAccelerated(on bool) {
	e.accelerated = on
}

// Accelerated reports whether the parallel path is selected.
func (e *Elementwise) Accelerated() bool {
	return e.accelerated
}

// Compute implements function.UnaryKernel.
func (e *Elementwise) Compute(x *tensor.Tensor) (*tensor.Tensor, error) {
	y := tensor.Zeros(x.Shape(), x.BatchCount())
	in, out := x.Data(), y.Data()
	e.each(len(in), func(i int) {
		out[i] = e.act.Activate(in[i])
	})
	return y, nil
}

// Differentiate implements function.UnaryKernel.
func (e *Elementwise) Differentiate(y, x *tensor.Tensor) error {
	if !y.SameLayout(x) {
		return errs.Shape(e.Name()+".Backward", "output %v does not match input %v", y, x)
	}
	gy, yd, gx := y.Grad(), y.Data(), x.Grad()
	e.each(len(gx), func(i int) {
		gx[i] += gy[i] * e.act.Derivative(yd[i])
	})
	return nil
}

func (e *Elementwise) each(n int, f func(i int)) {
	if e.accelerated {
		parallel.For(n, f, e.par)
		return
	}
	for i := 0; i < n; i++ {
		f(i)
	}
}
