package function

import (
	"sync/atomic"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/tensor"
)

// invocations numbers every recorded Forward across all nodes, so the graph
// traversal can replay them newest first.
var invocations atomic.Uint64

// invocation is one recorded Forward: its input tuple and its sequence number,
// which is also stamped on the outputs.
type invocation struct {
	seq uint64
	xs  []*tensor.Tensor
}

// Base holds the identity, parameters and invocation stacks shared by every
// node shape.
//
// pending holds one invocation per Forward not yet matched by a Backward.
// resolved collects tuples whose Backward fired, in pop order. When pending
// drains, resolved is reordered into forward order and kept in drained so
// that Rewind can replay the batch.
type Base struct {
	name        string
	inputNames  []string
	outputNames []string
	params      []*tensor.Tensor
	origin      *tensor.Origin

	pending    []invocation
	resolved   []invocation
	drained    []invocation
	inBackward bool
}

func newBase(name string, self tensor.Producer, params []*tensor.Tensor) Base {
	return Base{
		name:   name,
		params: params,
		origin: tensor.NewOrigin(self),
	}
}

// Name returns the node label.
func (b *Base) Name() string {
	return b.name
}

// InputNames returns the input wiring labels.
func (b *Base) InputNames() []string {
	return b.inputNames
}

// OutputNames returns the output wiring labels.
func (b *Base) OutputNames() []string {
	return b.outputNames
}

// SetIONames sets the wiring labels.
func (b *Base) SetIONames(inputs, outputs []string) {
	b.inputNames = inputs
	b.outputNames = outputs
}

// Parameters returns the trainable tensors owned by this node.
func (b *Base) Parameters() []*tensor.Tensor {
	return b.params
}

// Pending returns the forward calls not yet matched by a backward call.
func (b *Base) Pending() int {
	return len(b.pending)
}

// Resolved returns the backward calls made since the stack last drained.
func (b *Base) Resolved() int {
	return len(b.resolved)
}

// ResetState drops every recorded invocation.
func (b *Base) ResetState() {
	b.pending = nil
	b.resolved = nil
	b.drained = nil
}

// Rewind pushes the last drained batch back onto the pending stack.
func (b *Base) Rewind() error {
	if b.inBackward {
		return errs.State(b.name+".Rewind", "backward in progress")
	}
	if len(b.pending) != 0 {
		return errs.State(b.name+".Rewind", "%d invocations still pending", len(b.pending))
	}
	for _, inv := range b.drained {
		for _, x := range inv.xs {
			x.Use()
		}
	}
	b.pending = append(b.pending, b.drained...)
	b.resolved = nil
	b.drained = nil
	return nil
}

// HasState reports whether the node carries any recorded invocation.
func (b *Base) HasState() bool {
	return len(b.pending) != 0 || len(b.resolved) != 0 || len(b.drained) != 0
}

func (b *Base) checkInputs(op string, arity int, xs []*tensor.Tensor) error {
	if len(xs) != arity {
		return errs.Arity(op, "expected %d inputs, got %d", arity, len(xs))
	}
	for i, x := range xs {
		if x == nil {
			return errs.Arity(op, "input %d is nil", i)
		}
	}
	return nil
}

// record pushes xs and tags the outputs with this node and a fresh sequence
// number. Called after the math succeeded so a failing Forward leaves no trace.
func (b *Base) record(op string, xs, ys []*tensor.Tensor) error {
	tuple := make([]*tensor.Tensor, len(xs))
	copy(tuple, xs)
	seq := invocations.Add(1)
	b.pending = append(b.pending, invocation{seq: seq, xs: tuple})
	for _, x := range xs {
		x.Use()
	}
	for _, y := range ys {
		y.SetProducer(b.origin, seq)
	}
	return b.verify(op, xs, ys)
}

// forward runs the shared Forward bookkeeping around compute.
func (b *Base) forward(arity int, xs []*tensor.Tensor, compute func() (*tensor.Tensor, error)) ([]*tensor.Tensor, error) {
	op := b.name + ".Forward"
	if b.inBackward {
		return nil, errs.State(op, "forward during backward")
	}
	if err := b.checkInputs(op, arity, xs); err != nil {
		return nil, err
	}
	y, err := compute()
	if err != nil {
		return nil, err
	}
	ys := []*tensor.Tensor{y}
	if err := b.record(op, xs, ys); err != nil {
		return nil, err
	}
	return ys, nil
}

// predict runs compute without bookkeeping.
func (b *Base) predict(arity int, xs []*tensor.Tensor, compute func() (*tensor.Tensor, error)) ([]*tensor.Tensor, error) {
	if err := b.checkInputs(b.name+".Predict", arity, xs); err != nil {
		return nil, err
	}
	y, err := compute()
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{y}, nil
}

// backward pops the top tuple and runs differentiate on it. An output stamped
// by a different invocation than the top one is rejected: its gradient would
// otherwise be paired with the wrong inputs.
func (b *Base) backward(ys []*tensor.Tensor, differentiate func(ys, xs []*tensor.Tensor) error) ([]*tensor.Tensor, error) {
	op := b.name + ".Backward"
	if b.inBackward {
		return nil, errs.State(op, "re-entered during backward")
	}
	if len(ys) != 1 || ys[0] == nil {
		return nil, errs.Arity(op, "expected 1 output gradient, got %d", len(ys))
	}
	if len(b.pending) == 0 {
		return nil, errs.Graph(op, "no pending forward invocation")
	}
	top := len(b.pending) - 1
	inv := b.pending[top]
	for _, y := range ys {
		if p := y.Producer(); p != nil && p != b.origin.Producer() {
			return nil, errs.Graph(op, "output %v was produced by %q", y, p.Name())
		}
		if seq := y.Sequence(); seq != 0 && seq != inv.seq {
			return nil, errs.Graph(op, "output %v belongs to invocation %d, top of stack is %d", y, seq, inv.seq)
		}
		if err := y.InitGrad(); err != nil {
			return nil, err
		}
	}

	xs := inv.xs
	b.pending[top] = invocation{}
	b.pending = b.pending[:top]

	for _, x := range xs {
		if err := x.InitGrad(); err != nil {
			return nil, err
		}
		if err := x.Release(); err != nil {
			return nil, err
		}
	}

	for _, p := range b.params {
		if err := p.InitGrad(); err != nil {
			return nil, err
		}
	}

	b.inBackward = true
	err := differentiate(ys, xs)
	b.inBackward = false
	if err != nil {
		return nil, err
	}

	for _, p := range b.params {
		p.CountUp()
	}

	b.resolved = append(b.resolved, inv)
	if len(b.pending) == 0 {
		drained := make([]invocation, len(b.resolved))
		for i, r := range b.resolved {
			drained[len(b.resolved)-1-i] = r
		}
		b.drained = drained
		b.resolved = nil
	}

	if err := b.verify(op, xs, ys); err != nil {
		return nil, err
	}
	return xs, nil
}
