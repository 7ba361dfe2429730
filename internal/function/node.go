// Package function implements the differentiable-operator contract of the
// graph engine.
//
// A Node runs in three modes:
//   - Forward records its inputs on a pending-invocation stack and returns
//     fresh outputs that point back at the node
//   - Predict computes the same outputs without any bookkeeping
//   - Backward pops the most recent pending input tuple, adds the input
//     gradients into the inputs and returns that tuple
//
// The stack discipline (last forward, first backward) is what lets one node
// be applied several times, as in a recurrent loop, before any gradient
// arrives.
//
// Concrete operators only supply pure math through one of the kernel
// interfaces (UnaryKernel, BinaryKernel, BinaryConstKernel); the matching
// node shape (SingleInput, DualInput, DualInputConst) does the bookkeeping.
package function

import (
	"github.com/born-ml/fnstack/internal/tensor"
)

// Node is a differentiable operator instance.
type Node interface {
	// Name returns the node label.
	Name() string

	// InputNames and OutputNames are wiring labels, not identities.
	InputNames() []string
	OutputNames() []string

	// Parameters returns the tensors owned by this node that an optimizer
	// may update. Nil for parameter-free nodes.
	Parameters() []*tensor.Tensor

	// Forward computes outputs and records xs for a later Backward.
	Forward(xs ...*tensor.Tensor) ([]*tensor.Tensor, error)

	// Predict computes the same outputs as Forward without recording anything.
	Predict(xs ...*tensor.Tensor) ([]*tensor.Tensor, error)

	// Backward consumes the gradients stored in ys, accumulates input
	// gradients and returns the input tuple of the matched Forward call.
	Backward(ys ...*tensor.Tensor) ([]*tensor.Tensor, error)

	// ResetState drops every recorded invocation.
	ResetState()
}

// Stateful exposes the pending-invocation bookkeeping of a node.
type Stateful interface {
	// Pending returns the forward calls not yet matched by a backward call.
	Pending() int

	// Resolved returns the backward calls made since the stack last drained.
	Resolved() int

	// Rewind pushes the last fully drained batch of invocations back onto
	// the pending stack, in their original order.
	Rewind() error
}

// Activation is pure elementwise math that a CompressibleFunction can apply
// to its own output.
//
// Derivative is expressed in terms of the activation output y, so a node
// that only keeps its output can still differentiate.
type Activation interface {
	Name() string
	Activate(x float32) float32
	Derivative(y float32) float32
}

// CompressibleFunction is a node able to absorb an elementwise activation
// into its own computation.
type CompressibleFunction interface {
	Node
	Activation() Activation
	SetActivation(a Activation) error
}

// CompressibleActivation is an activation node whose math can be moved into
// the preceding CompressibleFunction.
type CompressibleActivation interface {
	Node
	Activator() Activation
}

// Accelerable is implemented by nodes that carry an alternate execution path.
// SetAccelerated is the device-selection hook; the reference path remains
// the source of truth and is selected with false.
type Accelerable interface {
	SetAccelerated(on bool)
	Accelerated() bool
}
