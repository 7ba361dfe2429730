package optim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/fnstack/internal/tensor"
)

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithWeightDecay adds rate*data to every reduced gradient (L2 penalty).
func WithWeightDecay(rate float32) Option {
	return func(o *Optimizer) {
		o.weightDecay = rate
	}
}

// WithGradientClipping rescales a reduced gradient whose L2 norm exceeds
// threshold down to that norm. Clipping is per parameter.
func WithGradientClipping(threshold float64) Option {
	return func(o *Optimizer) {
		o.clip = threshold
	}
}

func (o *Optimizer) decay(p *tensor.Tensor) {
	if o.weightDecay == 0 {
		return
	}
	g := p.Grad()
	for i, v := range p.Data() {
		g[i] += o.weightDecay * v
	}
}

func (o *Optimizer) clipGrad(p *tensor.Tensor) {
	if o.clip <= 0 {
		return
	}
	g := p.Grad()
	view := make([]float64, len(g))
	for i, v := range g {
		view[i] = float64(v)
	}
	norm := floats.Norm(view, 2)
	if norm <= o.clip {
		return
	}
	scale := float32(o.clip / norm)
	for i := range g {
		g[i] *= scale
	}
}
