// Package pipeline sequences function nodes into a trainable model.
//
// A FunctionStack runs its nodes front to back on Forward and Predict and
// back to front on Backward. It satisfies function.Node itself, so stacks
// nest as sub-graphs.
//
// Example:
//
//	stack := pipeline.New("mlp",
//	    nn.NewLinear("fc1", nn.LinearConfig{In: 784, Out: 128}),
//	    nn.NewReLU("relu1"),
//	    nn.NewLinear("fc2", nn.LinearConfig{In: 128, Out: 10}),
//	)
//	if err := stack.Compress(); err != nil { ... } // fuses fc1+relu1
//
//	ys, _ := stack.Forward(x)
//	_, _ = nn.SoftmaxCrossEntropy(ys[0], labels)
//	_, _ = stack.Backward(ys...)
package pipeline

import (
	"fmt"

	"github.com/born-ml/fnstack/internal/errs"
	"github.com/born-ml/fnstack/internal/function"
	"github.com/born-ml/fnstack/internal/tensor"
)

// FunctionStack is an ordered, named collection of nodes.
type FunctionStack struct {
	name        string
	inputNames  []string
	outputNames []string
	functions   []function.Node
}

// New creates a stack running nodes in the given order.
func New(name string, nodes ...function.Node) *FunctionStack {
	return &FunctionStack{
		name:      name,
		functions: append([]function.Node(nil), nodes...),
	}
}

// Add appends nodes to the end of the sequence.
func (s *FunctionStack) Add(nodes ...function.Node) {
	s.functions = append(s.functions, nodes...)
}

// Len returns the number of nodes.
func (s *FunctionStack) Len() int {
	return len(s.functions)
}

// Node returns the node at index i.
//
// Panics if index is out of bounds.
func (s *FunctionStack) Node(i int) function.Node {
	if i < 0 || i >= len(s.functions) {
		panic("FunctionStack.Node: index out of bounds")
	}
	return s.functions[i]
}

// Nodes returns a copy of the node sequence.
func (s *FunctionStack) Nodes() []function.Node {
	return append([]function.Node(nil), s.functions...)
}

// Name returns the stack label.
func (s *FunctionStack) Name() string {
	return s.name
}

// InputNames returns the input wiring labels.
func (s *FunctionStack) InputNames() []string {
	return s.inputNames
}

// OutputNames returns the output wiring labels.
func (s *FunctionStack) OutputNames() []string {
	return s.outputNames
}

// SetIONames sets the wiring labels used when this stack is a sub-graph.
func (s *FunctionStack) SetIONames(inputs, outputs []string) {
	s.inputNames = inputs
	s.outputNames = outputs
}

// Parameters returns the parameters of every node, in node order.
func (s *FunctionStack) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, f := range s.functions {
		params = append(params, f.Parameters()...)
	}
	return params
}

// Forward folds xs through the nodes in order.
func (s *FunctionStack) Forward(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	for _, f := range s.functions {
		ys, err := f.Forward(xs...)
		if err != nil {
			return nil, err
		}
		xs = ys
	}
	return xs, nil
}

// Predict folds xs through the nodes in order without recording anything.
func (s *FunctionStack) Predict(xs ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	for _, f := range s.functions {
		ys, err := f.Predict(xs...)
		if err != nil {
			return nil, err
		}
		xs = ys
	}
	return xs, nil
}

// Backward folds ys through the nodes in reverse order and returns the
// inputs of the first node, with their gradients accumulated.
func (s *FunctionStack) Backward(ys ...*tensor.Tensor) ([]*tensor.Tensor, error) {
	for i := len(s.functions) - 1; i >= 0; i-- {
		xs, err := s.functions[i].Backward(ys...)
		if err != nil {
			return nil, err
		}
		ys = xs
	}
	return ys, nil
}

// ResetState clears the recorded invocations of every node.
func (s *FunctionStack) ResetState() {
	for _, f := range s.functions {
		f.ResetState()
	}
}

// Pending returns the deepest pending stack among the nodes.
func (s *FunctionStack) Pending() int {
	n := 0
	for _, f := range s.functions {
		if st, ok := f.(function.Stateful); ok {
			n = max(n, st.Pending())
		}
	}
	return n
}

// Resolved returns the largest resolved count among the nodes.
func (s *FunctionStack) Resolved() int {
	n := 0
	for _, f := range s.functions {
		if st, ok := f.(function.Stateful); ok {
			n = max(n, st.Resolved())
		}
	}
	return n
}

// Rewind rewinds every node; see function.Stateful.
func (s *FunctionStack) Rewind() error {
	for _, f := range s.functions {
		if st, ok := f.(function.Stateful); ok {
			if err := st.Rewind(); err != nil {
				return err
			}
		}
	}
	return nil
}

// HasState reports whether any node carries recorded invocations.
func (s *FunctionStack) HasState() bool {
	for _, f := range s.functions {
		if hs, ok := f.(interface{ HasState() bool }); ok && hs.HasState() {
			return true
		}
	}
	return false
}

// SetAccelerated is the device-selection hook: it switches every
// capability-bearing node, nested stacks included.
func (s *FunctionStack) SetAccelerated(on bool) {
	for _, f := range s.functions {
		if acc, ok := f.(function.Accelerable); ok {
			acc.SetAccelerated(on)
		}
	}
}

// Accelerated reports whether every capability-bearing node runs its
// accelerated path. A stack without such nodes reports false.
func (s *FunctionStack) Accelerated() bool {
	found := false
	for _, f := range s.functions {
		if acc, ok := f.(function.Accelerable); ok {
			if !acc.Accelerated() {
				return false
			}
			found = true
		}
	}
	return found
}

// StateDict returns every parameter keyed by node index and parameter name,
// e.g. "0.fc1.w". Nested stacks extend the key with their own indices.
func (s *FunctionStack) StateDict() map[string]*tensor.Tensor {
	dict := make(map[string]*tensor.Tensor)
	for i, f := range s.functions {
		if nested, ok := f.(*FunctionStack); ok {
			for key, p := range nested.StateDict() {
				dict[fmt.Sprintf("%d.%s", i, key)] = p
			}
			continue
		}
		for j, p := range f.Parameters() {
			dict[fmt.Sprintf("%d.%s", i, paramName(p, j))] = p
		}
	}
	return dict
}

// LoadStateDict copies parameter data from dict into the matching
// parameters. Every parameter must be present with an identical layout.
func (s *FunctionStack) LoadStateDict(dict map[string]*tensor.Tensor) error {
	for key, p := range s.StateDict() {
		src, ok := dict[key]
		if !ok {
			return errs.Graph(s.name+".LoadStateDict", "missing parameter %q", key)
		}
		if !src.SameLayout(p) {
			return errs.Shape(s.name+".LoadStateDict", "parameter %q: have %v, got %v", key, p, src)
		}
		copy(p.Data(), src.Data())
	}
	return nil
}

func paramName(p *tensor.Tensor, index int) string {
	if p.Name() != "" {
		return p.Name()
	}
	return fmt.Sprintf("param%d", index)
}
