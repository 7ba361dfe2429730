// Package optim implements the parameter update step of the training loop.
//
// An Optimizer owns the set of trainable tensors drawn from the nodes it was
// set up with and a Rule that turns an accumulated gradient into a parameter
// change. Each parameter gets a companion ParamState for rule-specific
// buffers (momentum, moment estimates).
//
// Example usage:
//
//	opt := optim.New(optim.NewAdam(optim.AdamConfig{LR: 0.001}),
//	    optim.WithGradientClipping(5))
//	opt.SetUp(stack)
//
//	for epoch := range epochs {
//	    for _, batch := range batches {
//	        ys, _ := stack.Forward(batch.X)
//	        _, _ = nn.MeanSquaredError(ys[0], batch.Y)
//	        _, _ = stack.Backward(ys...)
//	        if err := opt.Update(); err != nil {
//	            return err
//	        }
//	    }
//	    opt.SetLR(sched.Step(opt.LR())[0])
//	}
package optim

import (
	"k8s.io/klog/v2"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/tensor"
)

// Rule is a per-parameter update rule.
type Rule interface {
	// Name identifies the rule in logs.
	Name() string

	// NewState allocates the companion record for p.
	NewState(p *tensor.Tensor) ParamState

	// Apply mutates p's data in place from its reduced gradient.
	Apply(p *tensor.Tensor, state ParamState)

	// LR returns the current learning rate.
	LR() float32

	// SetLR replaces the learning rate, typically with a scheduler output.
	SetLR(lr float32)
}

// ParamState is the rule-specific companion record of one parameter.
type ParamState interface {
	// Reset returns the record to its freshly allocated state.
	Reset()
}

// Node is the part of a function node the optimizer relies on.
type Node interface {
	Parameters() []*tensor.Tensor
	ResetState()
}

// Optimizer applies a Rule to every registered parameter that received
// gradient since the previous update.
type Optimizer struct {
	rule        Rule
	nodes       []Node
	params      []*tensor.Tensor
	states      map[*tensor.Tensor]ParamState
	weightDecay float32
	clip        float64
	updateCount int
}

// New creates an optimizer applying rule.
func New(rule Rule, opts ...Option) *Optimizer {
	o := &Optimizer{
		rule:   rule,
		states: make(map[*tensor.Tensor]ParamState),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetUp registers nodes and their parameters. A parameter shared by
// several nodes, or a node registered twice, is kept once.
func (o *Optimizer) SetUp(nodes ...Node) {
	for _, n := range nodes {
		if !containsNode(o.nodes, n) {
			o.nodes = append(o.nodes, n)
		}
		o.AddParameters(n.Parameters()...)
	}
	klog.V(2).InfoS("optimizer set up", "rule", o.rule.Name(), "nodes", len(o.nodes), "parameters", len(o.params))
}

// AddParameters registers loose tensors that belong to no node.
func (o *Optimizer) AddParameters(ts ...*tensor.Tensor) {
	for _, p := range ts {
		if p == nil {
			continue
		}
		if _, ok := o.states[p]; ok {
			continue
		}
		o.states[p] = o.rule.NewState(p)
		o.params = append(o.params, p)
	}
}

// Parameters returns the registered tensors in registration order.
func (o *Optimizer) Parameters() []*tensor.Tensor {
	return o.params
}

// Update applies the rule to every parameter with at least one backward
// contribution since the last update, then clears its gradient. Parameters
// that received nothing are left untouched.
func (o *Optimizer) Update() error {
	if len(o.params) == 0 {
		return errs.Graph("Optimizer.Update", "no parameters registered")
	}

	updated := 0
	for _, p := range o.params {
		if p.TrainCount() == 0 || !p.Reduce() {
			continue
		}
		o.decay(p)
		o.clipGrad(p)
		o.rule.Apply(p, o.states[p])
		p.ClearGrad()
		updated++
	}

	if updated > 0 {
		o.updateCount++
	}
	klog.V(4).InfoS("optimizer update", "rule", o.rule.Name(), "updated", updated,
		"parameters", len(o.params), "step", o.updateCount, "lr", o.rule.LR())
	return nil
}

// ResetState clears the recorded invocations of every registered node.
func (o *Optimizer) ResetState() {
	for _, n := range o.nodes {
		n.ResetState()
	}
}

// ResetParams zeroes every gradient and contribution counter, resets the
// companion records and the update count.
func (o *Optimizer) ResetParams() {
	for _, p := range o.params {
		p.ClearGrad()
		o.states[p].Reset()
	}
	o.updateCount = 0
}

// UpdateCount returns the number of updates that changed at least one
// parameter.
func (o *Optimizer) UpdateCount() int {
	return o.updateCount
}

// LR returns the rule's learning rate.
func (o *Optimizer) LR() float32 {
	return o.rule.LR()
}

// SetLR sets the rule's learning rate.
func (o *Optimizer) SetLR(lr float32) {
	o.rule.SetLR(lr)
}

func containsNode(nodes []Node, n Node) bool {
	for _, m := range nodes {
		if m == n {
			return true
		}
	}
	return false
}
